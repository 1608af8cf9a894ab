package bookkeeper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qashware/note-wallet/lib/retry"
)

func newTestClient(url string) *Client {
	c := NewClient(url, 5*time.Second)
	c.retry = retry.Retry{
		InitialDelay: time.Millisecond,
		MaximumDelay: time.Millisecond,
		MaxAttempts:  3,
	}
	return c
}

func TestRecordConsumptionPostsItems(t *testing.T) {
	var got struct {
		Items []ConsumptionItem `json:"items"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/notes/consumed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.RecordConsumption(context.Background(), []ConsumptionItem{
		{NoteID: "n1", TxID: "tx-1"},
		{NoteID: "n2", TxID: "tx-1"},
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "n1", got.Items[0].NoteID)
	assert.Equal(t, "tx-1", got.Items[1].TxID)
}

func TestRegisterRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.RecordRecall(context.Background(), []RecallItem{{Type: "TRANSACTION", ID: "n1"}}, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRegisterDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.RecordTransfers(context.Background(), []TransferItem{{DraftID: "d1", NoteID: "n1", TxID: "tx-1"}})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx responses must not be retried")
}

func TestRegisterGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.RecordConsumption(context.Background(), []ConsumptionItem{{NoteID: "n1", TxID: "tx-1"}})
	assert.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestConfirmExternalRequestPath(t *testing.T) {
	var gotPath string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	require.NoError(t, c.ConfirmExternalRequest(context.Background(), 42, "tx-9"))
	assert.Equal(t, "/v1/requests/42/confirm", gotPath)
	assert.Equal(t, "tx-9", got["tx_id"])
}

func TestFetchRecallableSets(t *testing.T) {
	next := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/notes/recallable", r.URL.Path)
		assert.Equal(t, "0xowner", r.URL.Query().Get("owner"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RecallableSets{
			RecallableItems: nil,
			NextRecallTime:  next,
			RecalledCount:   4,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	sets, err := c.FetchRecallableSets(context.Background(), "0xowner")
	require.NoError(t, err)
	assert.True(t, sets.NextRecallTime.Equal(next))
	assert.Equal(t, 4, sets.RecalledCount)
}

func TestFetchRecallableSetsIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.FetchRecallableSets(context.Background(), "0xowner")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchConsumableNotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/notes/consumable", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"notes":[{"id":"n1","note_id":"0xn1"},{"id":"n2","note_id":"0xn2"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	notes, err := c.FetchConsumableNotes(context.Background(), "0xowner")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "n1", notes[0].ID)
	assert.Equal(t, "0xn2", notes[1].NoteID)
}
