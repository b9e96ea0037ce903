package token

import dErrors "cardgate/pkg/domainerrors"

// HasRole reports whether the claim set carries the given role.
func (c *SessionClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequireRole returns the claims unchanged when they carry the role, or a
// forbidden error when they do not. The caller already holds authenticated
// claims; this is an authorization check, not an authentication one.
func RequireRole(claims *SessionClaims, role string) (*SessionClaims, error) {
	if claims == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing session")
	}
	if !claims.HasRole(role) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role "+role+" required")
	}
	return claims, nil
}
