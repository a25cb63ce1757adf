package jwt

import "github.com/golang-jwt/jwt/v5"

// Claims are the claims carried by league API tokens. The subject is the
// competitor or operator id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Role string

const (
	RoleCompetitor Role = "competitor"
	RoleAdmin      Role = "admin"
)

// IsAdmin reports whether the claims grant administrative access.
func (c *Claims) IsAdmin() bool {
	return Role(c.Role) == RoleAdmin
}
