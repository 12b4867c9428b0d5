// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/janovincze/mnemosyne/internal/api/models"
)

// Context keys for auth data.
const (
	ViewerIDKey = "viewer_id"
)

// AuthConfig holds authentication middleware configuration.
type AuthConfig struct {
	// Enabled enables bearer token verification
	Enabled bool

	// JWTSecret is the HMAC secret shared with the identity provider
	JWTSecret []byte

	// Issuer is the expected token issuer; empty disables the check
	Issuer string
}

// Authenticate returns a middleware that extracts the viewer identity from a
// bearer token issued by the external identity provider. It does not reject
// unauthenticated requests; handlers that need an identity use RequireViewer.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		if viewerID := extractViewerID(c, cfg); viewerID != "" {
			c.Set(ViewerIDKey, viewerID)
		}

		c.Next()
	}
}

// RequireViewer returns a middleware that rejects requests without a verified
// viewer identity. Must be used after Authenticate.
func RequireViewer(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		if GetViewerID(c) == "" {
			models.RespondWithError(c, models.NewUnauthorizedError(
				c.Request.URL.Path,
				"Authentication required",
			))
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetViewerID retrieves the verified viewer id from a Gin context.
// Returns "" when the request carries no valid identity.
func GetViewerID(c *gin.Context) string {
	return c.GetString(ViewerIDKey)
}

// extractViewerID verifies the bearer token and returns the viewer id.
func extractViewerID(c *gin.Context, cfg AuthConfig) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	claims, err := verifyToken(parts[1], cfg)
	if err != nil {
		return ""
	}

	return claims.ViewerID()
}

// verifyToken parses and verifies an HS256 token from the identity provider.
func verifyToken(tokenString string, cfg AuthConfig) (*models.ViewerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.ViewerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return cfg.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.ViewerClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, errors.New("unexpected issuer")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}
