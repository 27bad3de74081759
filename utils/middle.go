package utils

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") || tokenParts[1] == "" {
		return "", false
	}
	return tokenParts[1], true
}

// authenticate validates the bearer token and stores the caller on the context.
func authenticate(c *gin.Context, token string) bool {
	claims, err := VerifyToken(token)
	if err != nil {
		return false
	}
	revoked, err := IsTokenRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		log.Printf("auth: revocation check failed: %v", err)
		return false
	}
	if revoked {
		return false
	}
	c.Set(ContextUserID, claims.UserId)
	c.Set(ContextClaims, claims)
	return true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware verifies JWT and sets user context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok || !authenticate(c, token) {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware sets user context when a token is present.
// A present but invalid token is rejected.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(c)
		if !ok || !authenticate(c, token) {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. It must run after AuthMiddleware.
func RequireAdmin(isAdmin func(ctx context.Context, userID string) (bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			abortUnauthorized(c)
			return
		}
		ok, err := isAdmin(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "role lookup failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the verified claims set by the auth middleware.
func CurrentClaims(c *gin.Context) *Claims {
	value, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := value.(*Claims)
	return claims
}
