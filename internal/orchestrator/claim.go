package orchestrator

import (
	"context"
	"fmt"

	"github.com/qashware/note-wallet/internal/batch"
	"github.com/qashware/note-wallet/internal/bookkeeper"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/logger"
	"github.com/qashware/note-wallet/internal/note"
)

// Claim finalizes receipt of a single note. The consumption path depends
// on the note's shape: gift notes are rebuilt from their secret and
// consumed unauthenticated, private non-recallable notes take the
// sender-blind unauthenticated path, everything else is consumed by id.
//
// A transaction id obtained from the ledger is final. If the bookkeeping
// registration fails afterwards, the pair is journaled and a later Claim
// (or RetryPendingRegistrations) replays only the registration.
func (o *Orchestrator) Claim(ctx context.Context, owner string, n note.Note) (string, error) {
	if n.Consumed || n.Recalled {
		return "", fmt.Errorf("%w: note %s is already %s", ErrInvalidTransition, n.ID, note.Classify(n, -1, n.CreatedAt))
	}

	key := busyKey(n)
	if !o.busy.acquire(key) {
		return "", fmt.Errorf("%w: %s", ErrNoteBusy, key)
	}
	defer o.busy.release(key)

	txID, replayed, err := o.claimTxID(ctx, owner, n)
	if err != nil {
		return "", err
	}

	regErr := o.registerConsumption(ctx, []bookkeeper.ConsumptionItem{{NoteID: n.NoteID, TxID: txID}})
	if regErr == nil && n.PendingRequestID > 0 {
		regErr = o.books.ConfirmExternalRequest(ctx, n.PendingRequestID, txID)
	}
	if regErr != nil {
		if !replayed {
			o.journalConsumption(n.NoteID, txID, n.PendingRequestID)
		}
		return txID, fmt.Errorf("%w: %v", ErrReconciliation, regErr)
	}
	if replayed {
		o.clearJournalFor(n.NoteID)
	}
	return txID, nil
}

// claimTxID returns the transaction id consuming the note, either replayed
// from the journal (ledger already settled) or from a fresh ledger call.
func (o *Orchestrator) claimTxID(ctx context.Context, owner string, n note.Note) (txID string, replayed bool, err error) {
	if pending, jerr := o.journal.PendingForNote(n.NoteID); jerr == nil && pending != nil &&
		pending.Kind == walletstatedb.RegistrationConsumption {
		return pending.TxID, true, nil
	}

	switch {
	case n.IsGift:
		secret, derr := note.DeriveSecretArray(n.SecretHash)
		if derr != nil {
			return "", false, derr
		}
		if len(n.Assets) == 0 {
			return "", false, fmt.Errorf("%w: assets", note.ErrMissingField)
		}
		gift, derr := note.ReconstructGiftNote(n.Sender, n.Assets[0].FaucetID, n.Assets[0].Amount, secret, n.SerialNumber)
		if derr != nil {
			return "", false, derr
		}
		txID, err = o.ledger.ConsumeUnauthenticatedGiftNote(ctx, owner, gift, secret)
	case n.IsPrivate && !n.IsRecallable():
		txID, err = o.ledger.ConsumeUnauthenticatedNote(ctx, owner, n)
	default:
		txID, err = o.ledger.ConsumeNoteByID(ctx, owner, n.NoteID)
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrLedgerSubmit, err)
	}
	return txID, false, nil
}

// ClaimSelected consumes a set of notes in one ledger transaction. The
// registration pairs the i-th note id with the shared transaction id, and
// each distinct external payment request is confirmed exactly once.
func (o *Orchestrator) ClaimSelected(ctx context.Context, owner string, notes []note.Note) (string, error) {
	if len(notes) == 0 {
		return "", batch.ErrEmptySelection
	}

	keys := make([]string, len(notes))
	noteIDs := make([]string, len(notes))
	for i, n := range notes {
		if n.Consumed || n.Recalled {
			return "", fmt.Errorf("%w: note %s is already %s", ErrInvalidTransition, n.ID, note.Classify(n, -1, n.CreatedAt))
		}
		keys[i] = busyKey(n)
		noteIDs[i] = n.NoteID
	}
	if !o.busy.acquireAll(keys) {
		return "", ErrNoteBusy
	}
	defer o.busy.release(keys...)

	txID, err := o.ledger.ConsumeNotesByIDs(ctx, owner, noteIDs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLedgerSubmit, err)
	}

	items := make([]bookkeeper.ConsumptionItem, len(notes))
	for i, n := range notes {
		items[i] = bookkeeper.ConsumptionItem{NoteID: n.NoteID, TxID: txID}
	}

	// One confirmation per external request, even when several claimed
	// notes fulfill the same one.
	confirmed := make(map[int64]bool)
	regErr := o.registerConsumption(ctx, items)
	if regErr == nil {
		requested := make(map[int64]bool)
		for _, n := range notes {
			if n.PendingRequestID <= 0 || requested[n.PendingRequestID] {
				continue
			}
			requested[n.PendingRequestID] = true
			if cerr := o.books.ConfirmExternalRequest(ctx, n.PendingRequestID, txID); cerr != nil {
				regErr = cerr
				break
			}
			confirmed[n.PendingRequestID] = true
		}
	}
	if regErr != nil {
		// Each still-unconfirmed request is attached to exactly one journal
		// row, so the replay confirms it once.
		attached := make(map[int64]bool)
		for _, n := range notes {
			requestID := n.PendingRequestID
			if requestID <= 0 || confirmed[requestID] || attached[requestID] {
				requestID = 0
			} else {
				attached[requestID] = true
			}
			o.journalConsumption(n.NoteID, txID, requestID)
		}
		return txID, fmt.Errorf("%w: %v", ErrReconciliation, regErr)
	}
	return txID, nil
}

func (o *Orchestrator) registerConsumption(ctx context.Context, items []bookkeeper.ConsumptionItem) error {
	return o.books.RecordConsumption(ctx, items)
}

func (o *Orchestrator) journalConsumption(noteID, txID string, requestID int64) {
	err := o.journal.SavePending(&walletstatedb.PendingRegistration{
		NoteID:    noteID,
		TxID:      txID,
		Kind:      walletstatedb.RegistrationConsumption,
		RequestID: requestID,
	})
	if err != nil {
		logger.Error("Failed to journal pending registration for note ", noteID, ": ", err)
	}
}

func (o *Orchestrator) clearJournalFor(noteID string) {
	pending, err := o.journal.PendingForNote(noteID)
	if err != nil || pending == nil {
		return
	}
	if err := o.journal.RemovePending(pending.ID); err != nil {
		logger.Error("Failed to clear journal row for note ", noteID, ": ", err)
	}
}

// busyKey prefers the ledger note id and falls back to the server id for
// notes that have not been submitted yet.
func busyKey(n note.Note) string {
	if n.NoteID != "" {
		return n.NoteID
	}
	return n.ID
}
