package domain

import "slices"

// Requester is the identity invoking a service operation. It is built by the
// transport layer from verified credentials and passed explicitly.
type Requester struct {
	ID            string
	Email         string
	Roles         []string
	Authenticated bool
}

// IsAdmin reports whether the requester is authenticated and holds the admin role.
func (r Requester) IsAdmin() bool {
	return r.Authenticated && slices.Contains(r.Roles, RoleAdmin)
}
