// Package policy holds the single authorization decision shared by every
// resource. Handlers fetch the record first and pass its stored owner id in;
// nothing here performs I/O.
package policy

import (
	"haidtracker-service/apperr"
	"haidtracker-service/auth"
)

// IsAuthorized decides whether identity may act on a resource owned by
// ownerID. When adminOnly is set, only the admin role qualifies; otherwise
// admins and the owner itself qualify.
func IsAuthorized(id auth.Identity, ownerID int, adminOnly bool) bool {
	if adminOnly {
		return id.IsAdmin()
	}
	return id.IsAdmin() || id.UserID == ownerID
}

// EffectiveOwner resolves the owner id that a new record will be written
// with. The requester owns what it creates unless it is an admin explicitly
// targeting another user; a non-admin naming anyone but itself is refused.
func EffectiveOwner(id auth.Identity, target *int) (int, error) {
	if target == nil || *target == id.UserID {
		return id.UserID, nil
	}
	if !id.IsAdmin() {
		return 0, apperr.Forbidden("only an admin may create records for another user")
	}
	return *target, nil
}
