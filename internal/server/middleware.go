package server

import (
	"errors"
	"strings"

	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	obscontext "github.com/actorhub/actorhub/internal/observability/context"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	contextUserIDKey   = "user_id"
	contextUserRoleKey = "user_role"
	contextAPIKeyIDKey = "api_key_id"
)

// APIKeyRequired authenticates the bearer API key and loads its owner. The
// owner becomes the actor of every mutation made by the request.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Fields(strings.TrimSpace(c.GetHeader("Authorization")))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		key, err := s.apiKeySvc.Authenticate(ctx, parts[1])
		if err != nil {
			if errors.Is(err, apikeydomain.ErrInvalidKey) {
				err = ErrUnauthorized
			}
			AbortWithError(c, err)
			return
		}

		user, err := s.userSvc.Get(ctx, key.UserID)
		if err != nil {
			if errors.Is(err, userdomain.ErrNotFound) {
				err = ErrUnauthorized
			}
			AbortWithError(c, err)
			return
		}
		if user.IsDeleted() || !user.IsActive {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserIDKey, user.ID)
		c.Set(contextUserRoleKey, string(user.Role))
		c.Set(contextAPIKeyIDKey, key.ID)
		c.Request = c.Request.WithContext(obscontext.WithActor(ctx, "user", user.ID.String()))
		c.Next()
	}
}

// Authorize gates a route on the caller's role.
func (s *Server) Authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.Authorize(c.Request.Context(), callerRole(c), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) uuid.UUID {
	if value, ok := c.Get(contextUserIDKey); ok {
		if id, ok := value.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// actorID is the audit attribution for the request.
func actorID(c *gin.Context) *uuid.UUID {
	id := callerID(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func callerRole(c *gin.Context) string {
	return c.GetString(contextUserRoleKey)
}

func isAdmin(c *gin.Context) bool {
	return callerRole(c) == string(userdomain.RoleAdmin)
}

// requireSelf lets admins act for anyone and everyone else only for themselves.
func requireSelf(c *gin.Context, ownerID uuid.UUID) bool {
	if isAdmin(c) || (ownerID != uuid.Nil && ownerID == callerID(c)) {
		return true
	}
	AbortWithError(c, ErrForbidden)
	return false
}

// requireIdentityOwner loads the identity and checks the caller owns it.
func (s *Server) requireIdentityOwner(c *gin.Context, identityID uuid.UUID) bool {
	if isAdmin(c) {
		return true
	}
	identity, err := s.identitySvc.Get(c.Request.Context(), identityID)
	if err != nil {
		AbortWithError(c, err)
		return false
	}
	return requireSelf(c, identity.UserID)
}
