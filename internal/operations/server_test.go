package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qashware/note-wallet/internal/bookkeeper"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/ipc"
	"github.com/qashware/note-wallet/internal/ledger"
	"github.com/qashware/note-wallet/internal/note"
	"github.com/qashware/note-wallet/internal/orchestrator"
)

type fakeLedger struct {
	consumed    [][]string
	giftNotes   []note.Note
	giftSecrets [][]uint64
	txCounter   int
}

func (f *fakeLedger) nextTx() string {
	f.txCounter++
	return fmt.Sprintf("tx-%d", f.txCounter)
}

func (f *fakeLedger) CreateBatchNotes(_ context.Context, _ string, drafts []ledger.Draft) (*ledger.BatchResult, error) {
	result := &ledger.BatchResult{Payload: []byte("payload")}
	for i := range drafts {
		result.NoteIDs = append(result.NoteIDs, fmt.Sprintf("note-%d", i))
	}
	return result, nil
}

func (f *fakeLedger) SubmitTransaction(_ context.Context, _ string, _ []byte) (string, error) {
	return f.nextTx(), nil
}

func (f *fakeLedger) ConsumeNoteByID(ctx context.Context, sender, noteID string) (string, error) {
	return f.ConsumeNotesByIDs(ctx, sender, []string{noteID})
}

func (f *fakeLedger) ConsumeNotesByIDs(_ context.Context, _ string, noteIDs []string) (string, error) {
	f.consumed = append(f.consumed, noteIDs)
	return f.nextTx(), nil
}

func (f *fakeLedger) ConsumeUnauthenticatedNote(_ context.Context, _ string, _ note.Note) (string, error) {
	return f.nextTx(), nil
}

func (f *fakeLedger) ConsumeUnauthenticatedGiftNote(ctx context.Context, sender string, n note.Note, secret []uint64) (string, error) {
	return f.ConsumeUnauthenticatedGiftNotes(ctx, sender, []note.Note{n}, [][]uint64{secret})
}

func (f *fakeLedger) ConsumeUnauthenticatedGiftNotes(_ context.Context, _ string, notes []note.Note, secrets [][]uint64) (string, error) {
	f.giftNotes = append(f.giftNotes, notes...)
	f.giftSecrets = append(f.giftSecrets, secrets...)
	return f.nextTx(), nil
}

func (f *fakeLedger) BestBlockHeight(_ context.Context) (int64, error) {
	return 1_000_000, nil
}

type fakeBooks struct{}

func (fakeBooks) RecordConsumption(_ context.Context, _ []bookkeeper.ConsumptionItem) error {
	return nil
}
func (fakeBooks) RecordRecall(_ context.Context, _ []bookkeeper.RecallItem, _ string) error {
	return nil
}
func (fakeBooks) RecordTransfers(_ context.Context, _ []bookkeeper.TransferItem) error { return nil }
func (fakeBooks) ConfirmExternalRequest(_ context.Context, _ int64, _ string) error    { return nil }
func (fakeBooks) FetchRecallableSets(_ context.Context, _ string) (*bookkeeper.RecallableSets, error) {
	return &bookkeeper.RecallableSets{}, nil
}
func (fakeBooks) FetchConsumableNotes(_ context.Context, _ string) ([]note.Note, error) {
	return nil, nil
}

type fakeJournal struct{}

func (fakeJournal) SavePending(_ *walletstatedb.PendingRegistration) error { return nil }
func (fakeJournal) Pending() ([]walletstatedb.PendingRegistration, error) { return nil, nil }
func (fakeJournal) PendingForNote(_ string) (*walletstatedb.PendingRegistration, error) {
	return nil, nil
}
func (fakeJournal) RemovePending(_ uint) error { return nil }

type fakeDrafts struct{}

func (fakeDrafts) DraftsByIDs(_ string, _ []string) ([]walletstatedb.BatchDraft, error) {
	return nil, fmt.Errorf("no drafts")
}
func (fakeDrafts) DeleteDrafts(_ string, _ []string) error { return nil }

func newTestServer() (*WalletServer, *fakeLedger) {
	fl := &fakeLedger{}
	orch := orchestrator.New(fl, fakeBooks{}, fakeJournal{}, fakeDrafts{})
	return NewWalletServer(orch, "0xowner"), fl
}

func giftShellNote(id string) note.Note {
	return note.Note{
		ID:               id,
		NoteID:           "0x" + id,
		Sender:           "0xsender",
		Assets:           []note.Asset{{FaucetID: "0xfaucet", Amount: 500}},
		IsGift:           true,
		IsPrivate:        true,
		RecallableHeight: 100,
		RecallableTime:   500,
		CreatedAt:        time.Now().Add(-time.Hour),
	}
}

func TestHandleIPCClaimNoteCarriesSecretArgument(t *testing.T) {
	server, fl := newTestServer()

	// The serialized note drops the secret, so it rides as its own
	// argument.
	n := giftShellNote("g1")
	n.SecretHash = "will-not-survive-marshalling"
	raw, err := json.Marshal(n)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "will-not-survive-marshalling")

	result, err := server.HandleIPCCommand(context.Background(), ipc.Command{
		Command: "claim-note",
		Args:    []string{string(raw), "the-real-secret"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result)

	want, err := note.DeriveSecretArray("the-real-secret")
	require.NoError(t, err)
	require.Len(t, fl.giftSecrets, 1)
	assert.Equal(t, want, fl.giftSecrets[0])
}

func TestHandleIPCRecallBatchAppliesSecrets(t *testing.T) {
	server, fl := newTestServer()

	tx := giftShellNote("tx1")
	tx.IsGift = false
	gift := giftShellNote("g1")

	arg, err := json.Marshal(map[string]interface{}{
		"notes":   []note.Note{tx, gift},
		"secrets": map[string]string{"g1": "shared-secret"},
	})
	require.NoError(t, err)

	result, err := server.HandleIPCCommand(context.Background(), ipc.Command{
		Command: "recall-batch",
		Args:    []string{string(arg)},
	})
	require.NoError(t, err)

	recall, ok := result.(*orchestrator.RecallResult)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"tx1", "g1"}, recall.RecalledIDs)

	require.Len(t, fl.consumed, 1)
	assert.Equal(t, []string{tx.NoteID}, fl.consumed[0])

	want, err := note.DeriveSecretArray("shared-secret")
	require.NoError(t, err)
	require.Len(t, fl.giftSecrets, 1)
	assert.Equal(t, want, fl.giftSecrets[0])
}

func TestHandleIPCUnknownCommand(t *testing.T) {
	server, _ := newTestServer()
	_, err := server.HandleIPCCommand(context.Background(), ipc.Command{Command: "no-such-command"})
	assert.Error(t, err)
}

func TestServerLoopExitCommand(t *testing.T) {
	server, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- server.ServerLoop(ctx)
	}()

	// The socket appears once the loop is up.
	var client *ipc.Client
	var err error
	for i := 0; i < 50; i++ {
		client, err = ipc.NewClient()
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer client.Close()

	result, err := client.SendCommand("exit", nil)
	require.NoError(t, err)
	assert.Equal(t, "shutting down", result)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down on exit")
	}
}
