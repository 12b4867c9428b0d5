package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// ViewerClaims are the claims of a token issued by the external identity
// provider. The subject carries the opaque viewer id; everything else is
// optional metadata.
type ViewerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// ViewerID returns the opaque viewer identifier from the token subject.
func (c *ViewerClaims) ViewerID() string {
	return c.Subject
}
