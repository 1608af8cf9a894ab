// Package orchestrator composes the ledger adapter, the bookkeeping
// client and local state into the user-triggered note workflows: claim,
// recall and batch submission.
package orchestrator

import (
	"context"
	"errors"

	"github.com/qashware/note-wallet/internal/bookkeeper"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/ledger"
	"github.com/qashware/note-wallet/internal/note"
)

var (
	// ErrInvalidTransition is returned when a claim or recall is attempted
	// on a note whose status does not admit it. No side effects occur.
	ErrInvalidTransition = errors.New("invalid note transition")

	// ErrNoteBusy is returned when another operation already holds the
	// note. Operations on one note are strictly serialized.
	ErrNoteBusy = errors.New("note operation already in flight")

	// ErrLedgerSubmit wraps ledger-level failures. Nothing was booked;
	// the whole operation is safe to retry from scratch.
	ErrLedgerSubmit = errors.New("ledger submission failed")

	// ErrReconciliation wraps bookkeeping failures after the ledger
	// already settled. Only the registration may be replayed, never the
	// ledger call.
	ErrReconciliation = errors.New("bookkeeping registration failed")
)

// Bookkeeper is the reconciliation boundary the orchestrator depends on.
type Bookkeeper interface {
	RecordConsumption(ctx context.Context, items []bookkeeper.ConsumptionItem) error
	RecordRecall(ctx context.Context, items []bookkeeper.RecallItem, txID string) error
	RecordTransfers(ctx context.Context, items []bookkeeper.TransferItem) error
	ConfirmExternalRequest(ctx context.Context, requestID int64, txID string) error
	FetchRecallableSets(ctx context.Context, owner string) (*bookkeeper.RecallableSets, error)
	FetchConsumableNotes(ctx context.Context, owner string) ([]note.Note, error)
}

// Journal persists ledger-settled operations whose registration is still
// pending, so retries never re-touch the ledger.
type Journal interface {
	SavePending(reg *walletstatedb.PendingRegistration) error
	Pending() ([]walletstatedb.PendingRegistration, error)
	PendingForNote(noteID string) (*walletstatedb.PendingRegistration, error)
	RemovePending(id uint) error
}

// DraftStore loads and removes a wallet's batch drafts.
type DraftStore interface {
	DraftsByIDs(walletAddress string, ids []string) ([]walletstatedb.BatchDraft, error)
	DeleteDrafts(walletAddress string, ids []string) error
}

type Orchestrator struct {
	ledger  ledger.Submitter
	books   Bookkeeper
	journal Journal
	drafts  DraftStore
	busy    busySet
}

func New(submitter ledger.Submitter, books Bookkeeper, journal Journal, drafts DraftStore) *Orchestrator {
	return &Orchestrator{
		ledger:  submitter,
		books:   books,
		journal: journal,
		drafts:  drafts,
		busy:    newBusySet(),
	}
}
