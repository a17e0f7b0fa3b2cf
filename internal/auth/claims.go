package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified payload of an access token.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether permission was granted to the token.
func (c *Claims) HasPermission(permission string) bool {
	return c != nil && slices.Contains(c.Permissions, permission)
}

func checkPermission(claims *Claims, permission string) error {
	if claims.Permissions == nil {
		return errPermissionsMissing()
	}
	if !claims.HasPermission(permission) {
		return errPermissionNotFound(permission)
	}
	return nil
}
