package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qashware/note-wallet/internal/batch"
	"github.com/qashware/note-wallet/internal/bookkeeper"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/logger"
)

// SubmitResult reports a submitted batch. GiftSecrets maps draft ids to
// the secrets minted for gift drafts; this is the only time the wallet
// surfaces them.
type SubmitResult struct {
	TxID        string
	NoteIDs     []string
	GiftSecrets map[string]string
}

// transferRegistration is the journaled payload replayed when the
// post-submit registration fails.
type transferRegistration struct {
	Items    []bookkeeper.TransferItem `json:"items"`
	Requests []int64                   `json:"requests"`
}

// SubmitBatch settles a wallet's selected drafts as one ledger
// transaction. The ledger step is all-or-nothing: no bookkeeping happens
// unless the whole bundle was accepted. Drafts are removed locally only
// after the ledger confirms, and each fulfilled external request is
// confirmed exactly once per batch.
func (o *Orchestrator) SubmitBatch(ctx context.Context, owner string, draftIDs []string) (*SubmitResult, error) {
	if len(draftIDs) == 0 {
		return nil, batch.ErrEmptySelection
	}

	drafts, err := o.drafts.DraftsByIDs(owner, draftIDs)
	if err != nil {
		return nil, err
	}

	bundle, err := batch.Aggregate(drafts)
	if err != nil {
		return nil, err
	}

	created, err := o.ledger.CreateBatchNotes(ctx, owner, bundle.LedgerDrafts())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerSubmit, err)
	}
	if len(created.NoteIDs) != len(bundle.Items) {
		return nil, fmt.Errorf("%w: ledger returned %d note ids for %d items", ErrLedgerSubmit, len(created.NoteIDs), len(bundle.Items))
	}

	txID, err := o.ledger.SubmitTransaction(ctx, owner, created.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerSubmit, err)
	}

	// The batch is settled: noteIDs[i] belongs to items[i] from here on.
	result := &SubmitResult{
		TxID:        txID,
		NoteIDs:     created.NoteIDs,
		GiftSecrets: make(map[string]string),
	}
	items := make([]bookkeeper.TransferItem, len(bundle.Items))
	var requests []int64
	seen := make(map[int64]bool)
	for i, item := range bundle.Items {
		items[i] = bookkeeper.TransferItem{
			DraftID:          item.Draft.ID,
			NoteID:           created.NoteIDs[i],
			TxID:             txID,
			Recipient:        item.Draft.Recipient,
			SerialNumber:     item.SerialNumber,
			RecallableHeight: item.RecallableHeight,
			RecallableTime:   item.Draft.RecallableTime,
		}
		if item.GiftSecret != "" {
			result.GiftSecrets[item.Draft.ID] = item.GiftSecret
		}
		if id := item.Draft.PendingRequestID; id > 0 && !seen[id] {
			seen[id] = true
			requests = append(requests, id)
		}
	}

	// Local drafts are a projection of unsettled work; the ledger settled,
	// so they go regardless of how registration fares.
	if derr := o.drafts.DeleteDrafts(owner, draftIDs); derr != nil {
		logger.Error("Failed to delete submitted drafts for wallet ", owner, ": ", derr)
	}

	if regErr := o.registerTransfers(ctx, items, requests, txID); regErr != nil {
		return result, fmt.Errorf("%w: %v", ErrReconciliation, regErr)
	}
	return result, nil
}

func (o *Orchestrator) registerTransfers(ctx context.Context, items []bookkeeper.TransferItem, requests []int64, txID string) error {
	err := o.books.RecordTransfers(ctx, items)
	if err == nil {
		for _, id := range requests {
			if cerr := o.books.ConfirmExternalRequest(ctx, id, txID); cerr != nil {
				err = cerr
				break
			}
		}
	}
	if err != nil {
		payload, merr := json.Marshal(transferRegistration{Items: items, Requests: requests})
		if merr == nil {
			jerr := o.journal.SavePending(&walletstatedb.PendingRegistration{
				TxID:    txID,
				Kind:    walletstatedb.RegistrationTransfer,
				Payload: string(payload),
			})
			if jerr != nil {
				logger.Error("Failed to journal transfer registration for tx ", txID, ": ", jerr)
			}
		}
		return err
	}
	return nil
}
