package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup purges users whose email starts with prefix, together with
// everything their removal cascades to. It is unavailable in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	var userIDs []uuid.UUID
	if err := s.db.WithContext(ctx).
		Table("users").
		Where("email LIKE ?", prefix+"%").
		Pluck("id", &userIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	for _, id := range userIDs {
		if err := s.userSvc.Purge(ctx, actorID(c), id); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	s.log.Info("test cleanup purged users", zap.String("prefix", prefix), zap.Int("users", len(userIDs)))
	c.JSON(http.StatusOK, gin.H{"purged": len(userIDs)})
}
