package domain

import "time"

// Identity is the verified caller attached to a request. It is taken from the
// token claims, not re-read from storage.
type Identity struct {
	AccountID string
	Role      Role
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role Role) bool {
	return i.Role == role
}

// IssuedToken describes a freshly signed access token.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}
