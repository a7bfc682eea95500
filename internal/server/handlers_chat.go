package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "cryptodesk/internal/errors"
)

type chatRequest struct {
	Message  string `json:"message" binding:"required"`
	ThreadID string `json:"threadId"`
}

// handleChat forwards a message to the assistant and returns the reply
// with any extracted trade signal.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := s.chat.SendMessage(c.Request.Context(), req.ThreadID, req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// handleListThreads returns all chat threads.
func (s *Server) handleListThreads(c *gin.Context) {
	threads, err := s.chat.Threads(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// handleGetThread returns one thread with its messages.
func (s *Server) handleGetThread(c *gin.Context) {
	thread, err := s.chat.Thread(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if thread == nil {
		s.writeError(c, domainerrors.ErrThreadNotFound)
		return
	}
	c.JSON(http.StatusOK, thread)
}
