package server

import (
	"net/http"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type actorPackAvailabilityRequest struct {
	Available *bool `json:"available"`
}

type actorPackProgressRequest struct {
	Progress *int `json:"progress"`
}

type actorPackQualityRequest struct {
	// A null score clears the stored value.
	QualityScore *float64 `json:"quality_score"`
}

func (s *Server) CreateActorPack(c *gin.Context) {
	var req actorpackdomain.CreateActorPackRequest
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

	pack, err := s.actorPackSvc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": pack})
}

func (s *Server) GetActorPack(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	pack, err := s.actorPackSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pack})
}

func (s *Server) SetActorPackAvailability(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req actorPackAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Available == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !isAdmin(c) {
		pack, err := s.actorPackSvc.Get(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !s.requireIdentityOwner(c, pack.IdentityID) {
			return
		}
	}

	pack, err := s.actorPackSvc.SetAvailability(c.Request.Context(), actorID(c), id, *req.Available)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pack})
}

func (s *Server) TransitionActorPackTraining(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req actorpackdomain.TransitionTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pack, err := s.actorPackSvc.TransitionTraining(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pack})
}

func (s *Server) UpdateActorPackProgress(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req actorPackProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Progress == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pack, err := s.actorPackSvc.UpdateProgress(c.Request.Context(), actorID(c), id, *req.Progress)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pack})
}

func (s *Server) SetActorPackQuality(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req actorPackQualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pack, err := s.actorPackSvc.SetQualityScore(c.Request.Context(), actorID(c), id, req.QualityScore)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pack})
}
