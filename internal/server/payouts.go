package server

import (
	"net/http"

	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) RequestPayout(c *gin.Context) {
	var req payoutdomain.RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !isAdmin(c) {
		req.UserID = callerID(c)
	}

	payout, err := s.payoutSvc.Request(c.Request.Context(), actorID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": payout})
}

func (s *Server) GetPayout(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	payout, err := s.payoutSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !requireSelf(c, derefUUID(payout.UserID)) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payout})
}

func (s *Server) TransitionPayoutStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req payoutdomain.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payout, err := s.payoutSvc.TransitionStatus(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payout})
}
