package server

import (
	"net/http"

	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetCurrentUser(c *gin.Context) {
	user, err := s.userSvc.Get(c.Request.Context(), callerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) CreateUser(c *gin.Context) {
	var req userdomain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.userSvc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (s *Server) GetUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	user, err := s.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) UpdateUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	var req userdomain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	// Role, tier and activation are operator decisions.
	if !isAdmin(c) && (req.Role != nil || req.Tier != nil || req.IsActive != nil) {
		AbortWithError(c, ErrForbidden)
		return
	}

	user, err := s.userSvc.Update(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) DeleteUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	if err := s.userSvc.SoftDelete(c.Request.Context(), actorID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) PurgeUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.userSvc.Purge(c.Request.Context(), actorID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListUserIdentities(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	identities, err := s.identitySvc.ListByUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": identities})
}

func (s *Server) ListUserPayouts(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	payouts, err := s.payoutSvc.ListByUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payouts})
}

func (s *Server) ListUserTransactions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	txns, err := s.transactionSvc.ListByUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": txns})
}

func (s *Server) ListUserSubscriptions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	subs, err := s.subscriptionSvc.ListByUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subs})
}

func (s *Server) GetActiveSubscription(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}

	sub, err := s.subscriptionSvc.GetActiveByUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sub})
}
