// Package ledger is the only place the wallet talks to the ledger node.
// Note construction, proving and submission are the node's business; this
// package carries payloads across and hands back transaction ids.
package ledger

import (
	"context"

	"github.com/qashware/note-wallet/internal/note"
)

// Draft describes one output note to mint inside a batch transaction.
type Draft struct {
	Recipient        string            `json:"recipient"`
	FaucetID         string            `json:"faucet_id"`
	Amount           uint64            `json:"amount"`
	IsPrivate        bool              `json:"is_private"`
	IsGift           bool              `json:"is_gift"`
	SecretWords      []uint64          `json:"secret_words,omitempty"`
	SerialNumber     note.SerialNumber `json:"serial_number"`
	RecallableHeight int64             `json:"recallable_height"`
}

// BatchResult is what the node returns for an assembled batch. All slices
// are positionally aligned with the drafts that produced them.
type BatchResult struct {
	Payload           []byte              `json:"payload"`
	NoteIDs           []string            `json:"note_ids"`
	SerialNumbers     []note.SerialNumber `json:"serial_numbers"`
	RecallableHeights []int64             `json:"recallable_heights"`
}

// Submitter is the ledger boundary consumed by the orchestrator. A
// returned transaction id means the ledger effect is final and must not
// be re-attempted.
type Submitter interface {
	CreateBatchNotes(ctx context.Context, sender string, drafts []Draft) (*BatchResult, error)
	SubmitTransaction(ctx context.Context, sender string, payload []byte) (string, error)
	ConsumeNoteByID(ctx context.Context, sender, noteID string) (string, error)
	ConsumeNotesByIDs(ctx context.Context, sender string, noteIDs []string) (string, error)
	ConsumeUnauthenticatedNote(ctx context.Context, sender string, n note.Note) (string, error)
	ConsumeUnauthenticatedGiftNote(ctx context.Context, sender string, n note.Note, secret []uint64) (string, error)
	ConsumeUnauthenticatedGiftNotes(ctx context.Context, sender string, notes []note.Note, secrets [][]uint64) (string, error)
	BestBlockHeight(ctx context.Context) (int64, error)
}
