package orchestrator

import (
	"context"
	"time"

	"github.com/qashware/note-wallet/internal/bookkeeper"
	"github.com/qashware/note-wallet/internal/note"
)

// Note sets are always read fresh from the bookkeeping server at the start
// of an operation; nothing here caches them.

// ConsumableNotes returns the notes the wallet can claim right now, each
// classified against the current chain tip.
func (o *Orchestrator) ConsumableNotes(ctx context.Context, owner string) ([]note.Note, []note.Status, error) {
	notes, err := o.books.FetchConsumableNotes(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	height, err := o.ledger.BestBlockHeight(ctx)
	if err != nil {
		height = -1
	}
	now := time.Now()
	statuses := make([]note.Status, len(notes))
	for i, n := range notes {
		statuses[i] = note.Classify(n, height, now)
	}
	return notes, statuses, nil
}

// RecallableSets returns the server's view of the wallet's recall cohort.
func (o *Orchestrator) RecallableSets(ctx context.Context, owner string) (*bookkeeper.RecallableSets, error) {
	return o.books.FetchRecallableSets(ctx, owner)
}
