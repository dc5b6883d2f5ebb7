package server

import (
	"net/http"

	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/gin-gonic/gin"
)

type identityStatusRequest struct {
	Status rules.IdentityStatus `json:"status"`
}

func (s *Server) CreateIdentity(c *gin.Context) {
	var req identitydomain.CreateIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !isAdmin(c) {
		req.UserID = callerID(c)
	}

	identity, err := s.identitySvc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": identity})
}

func (s *Server) GetIdentity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	identity, err := s.identitySvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": identity})
}

func (s *Server) UpdateIdentity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !s.requireIdentityOwner(c, id) {
		return
	}

	var req identitydomain.UpdateIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	// Verification outcomes come from the review pipeline.
	if !isAdmin(c) && req.Status != nil {
		AbortWithError(c, ErrForbidden)
		return
	}

	identity, err := s.identitySvc.Update(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": identity})
}

func (s *Server) DeleteIdentity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !s.requireIdentityOwner(c, id) {
		return
	}

	if err := s.identitySvc.SoftDelete(c.Request.Context(), actorID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) TransitionIdentityStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req identityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	identity, err := s.identitySvc.TransitionStatus(c.Request.Context(), actorID(c), id, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": identity})
}

func (s *Server) PurgeIdentity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.identitySvc.Purge(c.Request.Context(), actorID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListIdentityLicenses(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok || !s.requireIdentityOwner(c, id) {
		return
	}

	licenses, err := s.licenseSvc.ListByIdentity(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": licenses})
}
