package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qashware/note-wallet/internal/batch"
	"github.com/qashware/note-wallet/internal/bookkeeper"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/logger"
	"github.com/qashware/note-wallet/internal/note"
)

// RecallResult reports what a recall batch achieved. A sub-group that
// settled on the ledger counts as recalled even when another sub-group
// failed; settled consumptions are never rolled back.
type RecallResult struct {
	TransactionTxID string
	GiftTxID        string
	RecalledIDs     []string
}

// Recall reclaims a single time-locked note.
func (o *Orchestrator) Recall(ctx context.Context, owner string, n note.Note) (*RecallResult, error) {
	return o.RecallBatch(ctx, owner, []note.Note{n})
}

// RecallBatch reclaims a set of notes whose recall windows are open. Gift
// notes and transaction notes require different consumption paths, so the
// batch is split into two sub-groups, each consumed in one ledger call and
// registered with its originating type. Sub-groups fail independently.
func (o *Orchestrator) RecallBatch(ctx context.Context, owner string, notes []note.Note) (*RecallResult, error) {
	if len(notes) == 0 {
		return nil, batch.ErrEmptySelection
	}

	// Terminal notes are rejected before any ledger traffic.
	for _, n := range notes {
		if n.Consumed || n.Recalled {
			return nil, fmt.Errorf("%w: note %s is already %s", ErrInvalidTransition, n.ID, note.Classify(n, -1, n.CreatedAt))
		}
	}

	// The UI pre-filters, but eligibility is guarded here independently.
	height, err := o.ledger.BestBlockHeight(ctx)
	if err != nil {
		height = -1 // fall back to the wall clock
	}
	now := time.Now()
	keys := make([]string, len(notes))
	for i, n := range notes {
		if st := note.Classify(n, height, now); st != note.StatusRecallable {
			return nil, fmt.Errorf("%w: note %s is %s, not recallable", ErrInvalidTransition, n.ID, st)
		}
		keys[i] = busyKey(n)
	}
	if !o.busy.acquireAll(keys) {
		return nil, ErrNoteBusy
	}
	defer o.busy.release(keys...)

	var gifts, txNotes []note.Note
	for _, n := range notes {
		if n.IsGift {
			gifts = append(gifts, n)
		} else {
			txNotes = append(txNotes, n)
		}
	}

	result := &RecallResult{}
	var errs []error

	if len(txNotes) > 0 {
		ids := make([]string, len(txNotes))
		for i, n := range txNotes {
			ids[i] = n.NoteID
		}
		txID, lerr := o.ledger.ConsumeNotesByIDs(ctx, owner, ids)
		if lerr != nil {
			errs = append(errs, fmt.Errorf("%w: transaction notes: %v", ErrLedgerSubmit, lerr))
		} else {
			result.TransactionTxID = txID
			for _, n := range txNotes {
				result.RecalledIDs = append(result.RecalledIDs, n.ID)
			}
			if rerr := o.registerRecall(ctx, txNotes, note.RecallTypeTransaction, txID); rerr != nil {
				errs = append(errs, rerr)
			}
		}
	}

	if len(gifts) > 0 {
		reconstructed := make([]note.Note, len(gifts))
		secrets := make([][]uint64, len(gifts))
		var gerr error
		for i, n := range gifts {
			reconstructed[i], secrets[i], gerr = rebuildGift(n)
			if gerr != nil {
				break
			}
		}
		if gerr != nil {
			errs = append(errs, gerr)
		} else {
			txID, lerr := o.ledger.ConsumeUnauthenticatedGiftNotes(ctx, owner, reconstructed, secrets)
			if lerr != nil {
				errs = append(errs, fmt.Errorf("%w: gift notes: %v", ErrLedgerSubmit, lerr))
			} else {
				result.GiftTxID = txID
				for _, n := range gifts {
					result.RecalledIDs = append(result.RecalledIDs, n.ID)
				}
				if rerr := o.registerRecall(ctx, gifts, note.RecallTypeGift, txID); rerr != nil {
					errs = append(errs, rerr)
				}
			}
		}
	}

	return result, errors.Join(errs...)
}

// registerRecall records one settled sub-group with the bookkeeping
// server; failures are journaled for registration-only replay.
func (o *Orchestrator) registerRecall(ctx context.Context, notes []note.Note, recallType, txID string) error {
	items := make([]bookkeeper.RecallItem, len(notes))
	for i, n := range notes {
		items[i] = bookkeeper.RecallItem{Type: recallType, ID: n.ID}
	}
	if err := o.books.RecordRecall(ctx, items, txID); err != nil {
		for _, n := range notes {
			jerr := o.journal.SavePending(&walletstatedb.PendingRegistration{
				NoteID:     n.ID,
				TxID:       txID,
				Kind:       walletstatedb.RegistrationRecall,
				RecallType: recallType,
			})
			if jerr != nil {
				logger.Error("Failed to journal recall registration for note ", n.ID, ": ", jerr)
			}
		}
		return fmt.Errorf("%w: %v", ErrReconciliation, err)
	}
	return nil
}

// rebuildGift reconstructs the exact note minted at issuance; a gift's
// commitment is not retrievable from the ledger, only its hash is public.
func rebuildGift(n note.Note) (note.Note, []uint64, error) {
	secret, err := note.DeriveSecretArray(n.SecretHash)
	if err != nil {
		return note.Note{}, nil, err
	}
	if len(n.Assets) == 0 {
		return note.Note{}, nil, fmt.Errorf("%w: assets", note.ErrMissingField)
	}
	rebuilt, err := note.ReconstructGiftNote(n.Sender, n.Assets[0].FaucetID, n.Assets[0].Amount, secret, n.SerialNumber)
	if err != nil {
		return note.Note{}, nil, err
	}
	rebuilt.NoteID = n.NoteID
	return rebuilt, secret, nil
}
