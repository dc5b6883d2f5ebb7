package server

import (
	"net/http"
	"strings"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type listAuditLogsQuery struct {
	PageToken    string `form:"page_token"`
	PageSize     int    `form:"page_size"`
	Action       string `form:"action"`
	ResourceType string `form:"resource_type"`
	ResourceID   string `form:"resource_id"`
	ActorID      string `form:"actor_id"`
	StartAt      string `form:"start_at"`
	EndAt        string `form:"end_at"`
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startAt, err := parseOptionalTime(query.StartAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	}
	endAt, err := parseOptionalTime(query.EndAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Action:       strings.TrimSpace(query.Action),
		ResourceType: strings.TrimSpace(query.ResourceType),
		ResourceID:   strings.TrimSpace(query.ResourceID),
		ActorID:      strings.TrimSpace(query.ActorID),
		StartAt:      startAt,
		EndAt:        endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "page_info": resp.PageInfo})
}
