// Package bookkeeper synchronizes ledger-settled decisions with the
// off-chain bookkeeping server.
package bookkeeper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/qashware/note-wallet/internal/note"
	"github.com/qashware/note-wallet/lib/retry"
)

// ConsumptionItem pairs a consumed note with the transaction that consumed
// it. The server deduplicates registrations on this pair.
type ConsumptionItem struct {
	NoteID string `json:"note_id"`
	TxID   string `json:"tx_id"`
}

// RecallItem identifies one recalled note and the accounting rule the
// server should apply to it.
type RecallItem struct {
	Type string `json:"type"` // TRANSACTION or GIFT
	ID   string `json:"id"`
}

// TransferItem reports one freshly submitted batch output.
type TransferItem struct {
	DraftID          string            `json:"draft_id"`
	NoteID           string            `json:"note_id"`
	TxID             string            `json:"tx_id"`
	Recipient        string            `json:"recipient"`
	SerialNumber     note.SerialNumber `json:"serial_number"`
	RecallableHeight int64             `json:"recallable_height"`
	RecallableTime   int64             `json:"recallable_time"`
}

// RecallableSets is the server's view of a wallet's recall cohort.
type RecallableSets struct {
	RecallableItems []note.Note `json:"recallable_items"`
	WaitingItems    []note.Note `json:"waiting_items"`
	NextRecallTime  time.Time   `json:"next_recall_time"`
	RecalledCount   int         `json:"recalled_count"`
}

// Client talks to the bookkeeping server. Registrations (consumption,
// recall, transfer, request confirmation) are retried with backoff since
// the server treats them idempotently; fetches are not retried.
type Client struct {
	http  *resty.Client
	retry retry.Retry
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{
		http: c,
		retry: retry.Retry{
			InitialDelay: 250 * time.Millisecond,
			MaximumDelay: 5 * time.Second,
			MaxAttempts:  3,
		},
	}
}

func (c *Client) register(ctx context.Context, path string, body interface{}) error {
	return c.retry.Do(ctx, func(attempt int) (bool, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			Post(path)
		if err != nil {
			return true, fmt.Errorf("bookkeeper request %s failed: %v", path, err)
		}
		if resp.IsError() {
			// Client errors will not heal on retry.
			retryable := resp.StatusCode() >= 500
			return retryable, fmt.Errorf("bookkeeper returned %s for %s", resp.Status(), path)
		}
		return false, nil
	})
}

// RecordConsumption registers consumed notes with the server.
func (c *Client) RecordConsumption(ctx context.Context, items []ConsumptionItem) error {
	return c.register(ctx, "/v1/notes/consumed", map[string]interface{}{"items": items})
}

// RecordRecall registers recalled notes, tagged so the server applies the
// accounting rule matching each note's originating type.
func (c *Client) RecordRecall(ctx context.Context, items []RecallItem, txID string) error {
	return c.register(ctx, "/v1/notes/recalled", map[string]interface{}{
		"items": items,
		"tx_id": txID,
	})
}

// RecordTransfers reports the outputs of a submitted batch.
func (c *Client) RecordTransfers(ctx context.Context, items []TransferItem) error {
	return c.register(ctx, "/v1/transfers", map[string]interface{}{"items": items})
}

// ConfirmExternalRequest marks a payment request as fulfilled by the given
// transaction.
func (c *Client) ConfirmExternalRequest(ctx context.Context, requestID int64, txID string) error {
	return c.register(ctx, fmt.Sprintf("/v1/requests/%d/confirm", requestID), map[string]interface{}{
		"tx_id": txID,
	})
}

// FetchRecallableSets returns the wallet's current recall cohort.
func (c *Client) FetchRecallableSets(ctx context.Context, owner string) (*RecallableSets, error) {
	var sets RecallableSets
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("owner", owner).
		SetResult(&sets).
		Get("/v1/notes/recallable")
	if err != nil {
		return nil, fmt.Errorf("bookkeeper request /v1/notes/recallable failed: %v", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("bookkeeper returned %s for /v1/notes/recallable", resp.Status())
	}
	return &sets, nil
}

// FetchConsumableNotes returns the notes the wallet can currently claim.
func (c *Client) FetchConsumableNotes(ctx context.Context, owner string) ([]note.Note, error) {
	var result struct {
		Notes []note.Note `json:"notes"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("owner", owner).
		SetResult(&result).
		Get("/v1/notes/consumable")
	if err != nil {
		return nil, fmt.Errorf("bookkeeper request /v1/notes/consumable failed: %v", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("bookkeeper returned %s for /v1/notes/consumable", resp.Status())
	}
	return result.Notes, nil
}
