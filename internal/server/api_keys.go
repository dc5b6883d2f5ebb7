package server

import (
	"net/http"

	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListAPIKeys(c *gin.Context) {
	keys, err := s.apiKeySvc.List(c.Request.Context(), callerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": keys})
}

// CreateAPIKey issues a key for the caller. The plaintext is returned once.
func (s *Server) CreateAPIKey(c *gin.Context) {
	var req apikeydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = callerID(c)

	resp, err := s.apiKeySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) RevokeAPIKey(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.apiKeySvc.Revoke(c.Request.Context(), callerID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
