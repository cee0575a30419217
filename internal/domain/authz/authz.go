package authz

import (
	"github.com/google/uuid"

	"github.com/sensei-service/sensei_service/pkg/errors"
)

// Owns is the single ownership predicate: every operation against a
// user-scoped resource goes through here before any read or mutation.
func Owns(actorID, ownerID uuid.UUID) bool {
	return actorID == ownerID
}

// RequireOwner returns a forbidden error when the actor does not own the
// resource.
func RequireOwner(actorID, ownerID uuid.UUID, resource string) error {
	if !Owns(actorID, ownerID) {
		return errors.Forbidden("not authorized to access this " + resource)
	}
	return nil
}
