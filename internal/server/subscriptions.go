package server

import (
	"net/http"

	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type subscriptionStatusRequest struct {
	Status subscriptiondomain.SubscriptionStatus `json:"status"`
}

func (s *Server) CreateSubscription(c *gin.Context) {
	var req subscriptiondomain.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !isAdmin(c) {
		req.UserID = callerID(c)
	}

	sub, err := s.subscriptionSvc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": sub})
}

func (s *Server) GetSubscription(c *gin.Context) {
	sub, ok := s.ownedSubscription(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (s *Server) CancelSubscription(c *gin.Context) {
	sub, ok := s.ownedSubscription(c)
	if !ok {
		return
	}

	sub, err := s.subscriptionSvc.Cancel(c.Request.Context(), actorID(c), sub.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (s *Server) TransitionSubscriptionStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req subscriptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.subscriptionSvc.TransitionStatus(c.Request.Context(), actorID(c), id, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (s *Server) UpdateSubscriptionLimits(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req subscriptiondomain.UpdateLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.subscriptionSvc.UpdateLimits(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (s *Server) ownedSubscription(c *gin.Context) (subscriptiondomain.Subscription, bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return subscriptiondomain.Subscription{}, false
	}

	sub, err := s.subscriptionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return subscriptiondomain.Subscription{}, false
	}
	if !requireSelf(c, sub.UserID) {
		return subscriptiondomain.Subscription{}, false
	}
	return sub, true
}
