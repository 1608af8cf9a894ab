package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/qashware/note-wallet/internal/bookkeeper"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/ledger"
	"github.com/qashware/note-wallet/internal/note"
)

type mockLedger struct {
	mu sync.Mutex

	bestHeight    int64
	bestHeightErr error

	txCounter    int
	consumeErr   error
	giftErr      error
	createErr    error
	submitErr    error
	blockConsume chan struct{} // when set, ConsumeNoteByID parks here
	started      chan struct{}

	createCalls   int
	createDrafts  []ledger.Draft
	createResult  *ledger.BatchResult
	submitCalls   int
	consumeCalls  int
	consumedIDs   [][]string
	unauthNotes   []note.Note
	giftCalls     int
	giftNotes     []note.Note
	giftSecrets   [][]uint64
	heightCalls   int
	submittedTxID string
}

func (m *mockLedger) nextTx() string {
	m.txCounter++
	return fmt.Sprintf("tx-%d", m.txCounter)
}

func (m *mockLedger) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls + m.submitCalls + m.consumeCalls + m.giftCalls + m.heightCalls
}

func (m *mockLedger) CreateBatchNotes(_ context.Context, _ string, drafts []ledger.Draft) (*ledger.BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.createDrafts = drafts
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createResult != nil {
		return m.createResult, nil
	}
	result := &ledger.BatchResult{Payload: []byte("payload")}
	for i, d := range drafts {
		result.NoteIDs = append(result.NoteIDs, fmt.Sprintf("note-%d", i))
		result.SerialNumbers = append(result.SerialNumbers, d.SerialNumber)
		result.RecallableHeights = append(result.RecallableHeights, d.RecallableHeight)
	}
	return result, nil
}

func (m *mockLedger) SubmitTransaction(_ context.Context, _ string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls++
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submittedTxID = m.nextTx()
	return m.submittedTxID, nil
}

func (m *mockLedger) ConsumeNoteByID(ctx context.Context, sender, noteID string) (string, error) {
	if m.started != nil {
		close(m.started)
		m.started = nil
	}
	if m.blockConsume != nil {
		<-m.blockConsume
	}
	return m.ConsumeNotesByIDs(ctx, sender, []string{noteID})
}

func (m *mockLedger) ConsumeNotesByIDs(_ context.Context, _ string, noteIDs []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumeCalls++
	if m.consumeErr != nil {
		return "", m.consumeErr
	}
	m.consumedIDs = append(m.consumedIDs, noteIDs)
	return m.nextTx(), nil
}

func (m *mockLedger) ConsumeUnauthenticatedNote(_ context.Context, _ string, n note.Note) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumeCalls++
	if m.consumeErr != nil {
		return "", m.consumeErr
	}
	m.unauthNotes = append(m.unauthNotes, n)
	return m.nextTx(), nil
}

func (m *mockLedger) ConsumeUnauthenticatedGiftNote(ctx context.Context, sender string, n note.Note, secret []uint64) (string, error) {
	return m.ConsumeUnauthenticatedGiftNotes(ctx, sender, []note.Note{n}, [][]uint64{secret})
}

func (m *mockLedger) ConsumeUnauthenticatedGiftNotes(_ context.Context, _ string, notes []note.Note, secrets [][]uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.giftCalls++
	if m.giftErr != nil {
		return "", m.giftErr
	}
	m.giftNotes = append(m.giftNotes, notes...)
	m.giftSecrets = append(m.giftSecrets, secrets...)
	return m.nextTx(), nil
}

func (m *mockLedger) BestBlockHeight(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heightCalls++
	return m.bestHeight, m.bestHeightErr
}

type recordedRecall struct {
	items []bookkeeper.RecallItem
	txID  string
}

type mockBooks struct {
	mu sync.Mutex

	consumptionErr error
	recallErr      error
	transferErr    error
	confirmErr     error
	confirmErrOn   int64 // when set, confirmErr applies to this request only

	consumptions [][]bookkeeper.ConsumptionItem
	recalls      []recordedRecall
	transfers    [][]bookkeeper.TransferItem
	confirms     map[int64][]string

	recallableSets    *bookkeeper.RecallableSets
	recallableSetsErr error
	consumable        []note.Note
}

func newMockBooks() *mockBooks {
	return &mockBooks{confirms: make(map[int64][]string)}
}

func (m *mockBooks) RecordConsumption(_ context.Context, items []bookkeeper.ConsumptionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumptionErr != nil {
		return m.consumptionErr
	}
	m.consumptions = append(m.consumptions, items)
	return nil
}

func (m *mockBooks) RecordRecall(_ context.Context, items []bookkeeper.RecallItem, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recallErr != nil {
		return m.recallErr
	}
	m.recalls = append(m.recalls, recordedRecall{items: items, txID: txID})
	return nil
}

func (m *mockBooks) RecordTransfers(_ context.Context, items []bookkeeper.TransferItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transferErr != nil {
		return m.transferErr
	}
	m.transfers = append(m.transfers, items)
	return nil
}

func (m *mockBooks) ConfirmExternalRequest(_ context.Context, requestID int64, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.confirmErr != nil && (m.confirmErrOn == 0 || m.confirmErrOn == requestID) {
		return m.confirmErr
	}
	m.confirms[requestID] = append(m.confirms[requestID], txID)
	return nil
}

func (m *mockBooks) FetchRecallableSets(_ context.Context, _ string) (*bookkeeper.RecallableSets, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recallableSetsErr != nil {
		return nil, m.recallableSetsErr
	}
	if m.recallableSets == nil {
		return &bookkeeper.RecallableSets{}, nil
	}
	return m.recallableSets, nil
}

func (m *mockBooks) FetchConsumableNotes(_ context.Context, _ string) ([]note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumable, nil
}

type memJournal struct {
	mu     sync.Mutex
	nextID uint
	rows   []walletstatedb.PendingRegistration
}

func (j *memJournal) SavePending(reg *walletstatedb.PendingRegistration) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextID++
	reg.ID = j.nextID
	j.rows = append(j.rows, *reg)
	return nil
}

func (j *memJournal) Pending() ([]walletstatedb.PendingRegistration, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]walletstatedb.PendingRegistration, len(j.rows))
	copy(out, j.rows)
	return out, nil
}

func (j *memJournal) PendingForNote(noteID string) (*walletstatedb.PendingRegistration, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, row := range j.rows {
		if row.NoteID == noteID {
			r := row
			return &r, nil
		}
	}
	return nil, nil
}

func (j *memJournal) RemovePending(id uint) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, row := range j.rows {
		if row.ID == id {
			j.rows = append(j.rows[:i], j.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

type memDrafts struct {
	mu      sync.Mutex
	drafts  map[string][]walletstatedb.BatchDraft
	deleted [][]string
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: make(map[string][]walletstatedb.BatchDraft)}
}

func (d *memDrafts) add(draft walletstatedb.BatchDraft) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drafts[draft.WalletAddress] = append(d.drafts[draft.WalletAddress], draft)
}

func (d *memDrafts) DraftsByIDs(walletAddress string, ids []string) ([]walletstatedb.BatchDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	byID := make(map[string]walletstatedb.BatchDraft)
	for _, draft := range d.drafts[walletAddress] {
		byID[draft.ID] = draft
	}
	out := make([]walletstatedb.BatchDraft, 0, len(ids))
	for _, id := range ids {
		draft, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("draft %s not found", id)
		}
		out = append(out, draft)
	}
	return out, nil
}

func (d *memDrafts) DeleteDrafts(walletAddress string, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, ids)
	remove := make(map[string]bool)
	for _, id := range ids {
		remove[id] = true
	}
	var kept []walletstatedb.BatchDraft
	for _, draft := range d.drafts[walletAddress] {
		if !remove[draft.ID] {
			kept = append(kept, draft)
		}
	}
	d.drafts[walletAddress] = kept
	return nil
}

func newTestOrchestrator() (*Orchestrator, *mockLedger, *mockBooks, *memJournal, *memDrafts) {
	ml := &mockLedger{bestHeight: 1_000_000}
	mb := newMockBooks()
	mj := &memJournal{}
	md := newMemDrafts()
	return New(ml, mb, mj, md), ml, mb, mj, md
}
