package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claims structure issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"` // "authenticated" or "anon"

	// AppRole carries site-wide roles; "moderator" marks a
	// super-moderator who bypasses document-level access rules.
	AppRole string `json:"app_role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}

// IsSuperModerator reports whether the token carries the site-wide
// moderator role.
func (c *Claims) IsSuperModerator() bool {
	return c.AppRole == "moderator"
}
