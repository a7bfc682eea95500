package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const scoreCookie = "crypto_game_scores"

type submitScoreRequest struct {
	// No required binding: 0 is a legitimate score.
	Score int64 `json:"score"`
}

// handleGetScore returns the persisted high score along with the
// session score carried in the points cookie.
func (s *Server) handleGetScore(c *gin.Context) {
	high, err := s.db.GetHighScore(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	var session int64
	if raw, err := c.Cookie(scoreCookie); err == nil {
		session, _ = strconv.ParseInt(raw, 10, 64)
	}
	c.JSON(http.StatusOK, gin.H{"highScore": high, "sessionScore": session})
}

// handleSubmitScore records a score, keeping the stored high score
// monotonic, and refreshes the points cookie.
func (s *Server) handleSubmitScore(c *gin.Context) {
	var req submitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Score < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score must be non-negative"})
		return
	}

	high, err := s.db.SubmitScore(c.Request.Context(), req.Score)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.SetCookie(scoreCookie, strconv.FormatInt(req.Score, 10), 86400*30, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"highScore": high, "score": req.Score})
}
