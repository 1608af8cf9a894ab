// Package batch turns a wallet's selected drafts into one settlement
// bundle: a single ledger transaction minting one output note per draft.
package batch

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/ledger"
	"github.com/qashware/note-wallet/internal/note"
)

// ErrEmptySelection is returned when a batch operation is invoked with no
// items.
var ErrEmptySelection = errors.New("empty selection")

// Item is one aggregated draft with its freshly derived note parameters.
type Item struct {
	Draft            walletstatedb.BatchDraft
	SerialNumber     note.SerialNumber
	RecallableHeight int64
	GiftSecret       string // set only for gift drafts, surfaced once to the caller
	LedgerDraft      ledger.Draft
}

// Bundle is the unit handed to the ledger adapter. Item order matches the
// input drafts and is preserved through submission: the i-th output note
// id always belongs to the i-th item.
type Bundle struct {
	Items []Item
}

// LedgerDrafts returns the per-item ledger payloads in bundle order.
func (b *Bundle) LedgerDrafts() []ledger.Draft {
	drafts := make([]ledger.Draft, len(b.Items))
	for i, item := range b.Items {
		drafts[i] = item.LedgerDraft
	}
	return drafts
}

// Aggregate derives the note parameters for each selected draft. Every
// item gets its own serial number and recall height; nothing is shared or
// mutated across items.
func Aggregate(drafts []walletstatedb.BatchDraft) (*Bundle, error) {
	if len(drafts) == 0 {
		return nil, ErrEmptySelection
	}

	items := make([]Item, 0, len(drafts))
	for _, draft := range drafts {
		item, err := aggregateOne(draft)
		if err != nil {
			return nil, fmt.Errorf("draft %s: %w", draft.ID, err)
		}
		items = append(items, item)
	}
	return &Bundle{Items: items}, nil
}

func aggregateOne(draft walletstatedb.BatchDraft) (Item, error) {
	serial, err := note.NewSerialNumber()
	if err != nil {
		return Item{}, err
	}

	amount, err := note.ScaleToBaseUnits(draft.Amount, draft.TokenDecimals)
	if err != nil {
		return Item{}, err
	}

	height := note.HeightFromDuration(draft.RecallableTime)

	item := Item{
		Draft:            draft,
		SerialNumber:     serial,
		RecallableHeight: height,
		LedgerDraft: ledger.Draft{
			Recipient:        draft.Recipient,
			FaucetID:         draft.TokenAddress,
			Amount:           amount,
			IsPrivate:        draft.IsPrivate,
			IsGift:           draft.IsGift,
			SerialNumber:     serial,
			RecallableHeight: height,
		},
	}

	if draft.IsGift {
		// Gift notes are unlocked by a shared secret instead of the
		// recipient's key. The secret is generated here, travels to the
		// ledger as its word array, and is surfaced to the caller exactly
		// once for sharing.
		secret := uuid.New().String()
		words, err := note.DeriveSecretArray(secret)
		if err != nil {
			return Item{}, err
		}
		item.GiftSecret = secret
		item.LedgerDraft.SecretWords = words
		item.LedgerDraft.IsPrivate = true
	}

	return item, nil
}
