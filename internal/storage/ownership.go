package storage

// Owned is implemented by every entity that carries an owner identity fixed
// at creation time. Mutations and deletions of such entities pass through
// requireOwner so the ownership gate lives in exactly one place.
type Owned interface {
	OwnedBy() string
}

// requireOwner rejects the mutation when the acting identity does not match
// the entity's owner. The caller must have fetched the entity first, so a
// failure here happens before any write.
func requireOwner(entity Owned, actorID string) error {
	if entity.OwnedBy() != actorID {
		return ErrForbidden
	}
	return nil
}
