package journal

// VerifyOwnership is the single authorization predicate for books and memos.
func VerifyOwnership(ownerID, requesterID string) error {
	if ownerID == "" || requesterID == "" || ownerID != requesterID {
		return ErrResourceNotOwned
	}
	return nil
}
