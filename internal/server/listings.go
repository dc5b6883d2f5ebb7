package server

import (
	"net/http"

	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) CreateListing(c *gin.Context) {
	var req listingdomain.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.IdentityID == uuid.Nil {
		AbortWithError(c, newValidationError("identity_id", "invalid_identity_id", "invalid identity_id"))
		return
	}
	if !s.requireIdentityOwner(c, req.IdentityID) {
		return
	}

	listing, err := s.listingSvc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": listing})
}

func (s *Server) GetListing(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	listing, err := s.listingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listing})
}

func (s *Server) ActivateListing(c *gin.Context) {
	id, ok := s.ownedListing(c)
	if !ok {
		return
	}

	listing, err := s.listingSvc.Activate(c.Request.Context(), actorID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listing})
}

func (s *Server) DeactivateListing(c *gin.Context) {
	id, ok := s.ownedListing(c)
	if !ok {
		return
	}

	listing, err := s.listingSvc.Deactivate(c.Request.Context(), actorID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listing})
}

func (s *Server) ownedListing(c *gin.Context) (uuid.UUID, bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return uuid.Nil, false
	}
	if isAdmin(c) {
		return id, true
	}

	listing, err := s.listingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return uuid.Nil, false
	}
	return id, s.requireIdentityOwner(c, listing.IdentityID)
}
