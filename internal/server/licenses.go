package server

import (
	"net/http"

	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) CreateLicense(c *gin.Context) {
	var req licensedomain.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !isAdmin(c) {
		// Buyers license for themselves; settlement arrives through the payment flow.
		caller := callerID(c)
		req.LicenseeID = &caller
		req.PaymentStatus = nil
	}

	license, err := s.licenseSvc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": license})
}

func (s *Server) GetLicense(c *gin.Context) {
	license, ok := s.visibleLicense(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": license})
}

func (s *Server) DeactivateLicense(c *gin.Context) {
	license, ok := s.visibleLicense(c)
	if !ok {
		return
	}

	license, err := s.licenseSvc.Deactivate(c.Request.Context(), actorID(c), license.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": license})
}

func (s *Server) UpdateLicense(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req licensedomain.UpdateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	license, err := s.licenseSvc.Update(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": license})
}

// visibleLicense loads the license named by the path. The licensee and the
// owner of the licensed identity may see it.
func (s *Server) visibleLicense(c *gin.Context) (licensedomain.License, bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return licensedomain.License{}, false
	}

	ctx := c.Request.Context()
	license, err := s.licenseSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return licensedomain.License{}, false
	}
	if isAdmin(c) {
		return license, true
	}

	caller := callerID(c)
	if license.LicenseeID != nil && *license.LicenseeID == caller {
		return license, true
	}
	if license.IdentityID != nil {
		identity, err := s.identitySvc.Get(ctx, *license.IdentityID)
		if err != nil {
			AbortWithError(c, err)
			return licensedomain.License{}, false
		}
		if identity.UserID == caller {
			return license, true
		}
	}

	AbortWithError(c, ErrForbidden)
	return licensedomain.License{}, false
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
