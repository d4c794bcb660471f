package api

import (
	"errors"
	"net/http"
	"strings"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// callerKey holds the service.Caller set by AuthMiddleware.
const callerKey = "caller"

// AuthMiddleware rejects requests without a valid bearer token and stores the caller
// for the handlers behind it.
func AuthMiddleware(verifier service.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
			return
		}

		caller, err := verifier.VerifyToken(raw)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
				return
			}
			abortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(callerKey, *caller)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RoleMiddleware lets through only callers with one of the roles. Must run after AuthMiddleware.
func RoleMiddleware(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := currentCaller(c)
		if !ok {
			return
		}
		for _, role := range allowed {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "Access denied for role '"+string(caller.Role)+"'")
	}
}

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// currentCaller reads the caller set by AuthMiddleware. Without one it answers 401 and returns false.
func currentCaller(c *gin.Context) (service.Caller, bool) {
	v, exists := c.Get(callerKey)
	caller, ok := v.(service.Caller)
	if !exists || !ok {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return service.Caller{}, false
	}
	return caller, true
}

func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	caller, ok := currentCaller(c)
	return caller.ID, ok
}

// pathObjectID parses an ObjectID path parameter, answering 400 when it is malformed.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}
