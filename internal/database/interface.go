package walletstatedb

// Store adapts the package-level helpers for callers that accept
// interfaces, such as the orchestrator.

type Store struct{}

func (Store) DraftsByIDs(walletAddress string, ids []string) ([]BatchDraft, error) {
	return GetBatchDraftsByIDs(walletAddress, ids)
}

func (Store) DeleteDrafts(walletAddress string, ids []string) error {
	return DeleteBatchDrafts(walletAddress, ids)
}

func (Store) SavePending(reg *PendingRegistration) error {
	return SavePendingRegistration(reg)
}

func (Store) Pending() ([]PendingRegistration, error) {
	return GetPendingRegistrations()
}

func (Store) PendingForNote(noteID string) (*PendingRegistration, error) {
	return GetPendingRegistrationForNote(noteID)
}

func (Store) RemovePending(id uint) error {
	return RemovePendingRegistration(id)
}
