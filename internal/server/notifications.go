package server

import (
	"net/http"

	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListUnreadNotifications(c *gin.Context) {
	items, err := s.notificationSvc.ListUnread(c.Request.Context(), callerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.notificationSvc.MarkRead(c.Request.Context(), callerID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateNotification(c *gin.Context) {
	var req notificationdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.notificationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}
