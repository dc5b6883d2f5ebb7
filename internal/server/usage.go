package server

import (
	"net/http"
	"strings"

	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	"github.com/actorhub/actorhub/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type listUsageQuery struct {
	pagination.Pagination
	IdentityID  string `form:"identity_id"`
	ActorPackID string `form:"actor_pack_id"`
	Action      string `form:"action"`
}

func (s *Server) RecordUsage(c *gin.Context) {
	var req usagedomain.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !isAdmin(c) || req.UserID == nil {
		req.UserID = actorID(c)
	}

	usage, err := s.usageSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": usage})
}

func (s *Server) ListUsage(c *gin.Context) {
	var query listUsageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	identityID := strings.TrimSpace(query.IdentityID)
	if !isAdmin(c) {
		// Creators read the usage of their own identities only.
		parsed, err := uuid.Parse(identityID)
		if err != nil {
			AbortWithError(c, newValidationError("identity_id", "invalid_identity_id", "identity_id is required"))
			return
		}
		if !s.requireIdentityOwner(c, parsed) {
			return
		}
	}

	resp, err := s.usageSvc.List(c.Request.Context(), usagedomain.ListUsageRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		IdentityID:  identityID,
		ActorPackID: strings.TrimSpace(query.ActorPackID),
		Action:      strings.TrimSpace(query.Action),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.UsageLogs, "page_info": resp.PageInfo})
}
