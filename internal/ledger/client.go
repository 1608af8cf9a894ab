package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/qashware/note-wallet/internal/note"
)

// Client is the HTTP glue to the ledger node's wallet RPC. It does no
// proving or validation of its own.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		Post(path)
	if err != nil {
		return fmt.Errorf("ledger request %s failed: %v", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("ledger returned %s for %s", resp.Status(), path)
	}
	return nil
}

type txResponse struct {
	TxID string `json:"tx_id"`
}

func (c *Client) CreateBatchNotes(ctx context.Context, sender string, drafts []Draft) (*BatchResult, error) {
	var result BatchResult
	body := map[string]interface{}{
		"sender": sender,
		"drafts": drafts,
	}
	if err := c.post(ctx, "/v1/notes/batch", body, &result); err != nil {
		return nil, err
	}
	if len(result.NoteIDs) != len(drafts) {
		return nil, fmt.Errorf("ledger returned %d note ids for %d drafts", len(result.NoteIDs), len(drafts))
	}
	return &result, nil
}

func (c *Client) SubmitTransaction(ctx context.Context, sender string, payload []byte) (string, error) {
	var result txResponse
	body := map[string]interface{}{
		"sender":  sender,
		"payload": payload,
	}
	if err := c.post(ctx, "/v1/transactions", body, &result); err != nil {
		return "", err
	}
	return result.TxID, nil
}

func (c *Client) ConsumeNoteByID(ctx context.Context, sender, noteID string) (string, error) {
	return c.ConsumeNotesByIDs(ctx, sender, []string{noteID})
}

func (c *Client) ConsumeNotesByIDs(ctx context.Context, sender string, noteIDs []string) (string, error) {
	var result txResponse
	body := map[string]interface{}{
		"sender":   sender,
		"note_ids": noteIDs,
	}
	if err := c.post(ctx, "/v1/notes/consume", body, &result); err != nil {
		return "", err
	}
	return result.TxID, nil
}

func (c *Client) ConsumeUnauthenticatedNote(ctx context.Context, sender string, n note.Note) (string, error) {
	var result txResponse
	body := map[string]interface{}{
		"sender": sender,
		"note":   n,
	}
	if err := c.post(ctx, "/v1/notes/consume-unauthenticated", body, &result); err != nil {
		return "", err
	}
	return result.TxID, nil
}

func (c *Client) ConsumeUnauthenticatedGiftNote(ctx context.Context, sender string, n note.Note, secret []uint64) (string, error) {
	return c.ConsumeUnauthenticatedGiftNotes(ctx, sender, []note.Note{n}, [][]uint64{secret})
}

func (c *Client) ConsumeUnauthenticatedGiftNotes(ctx context.Context, sender string, notes []note.Note, secrets [][]uint64) (string, error) {
	if len(notes) != len(secrets) {
		return "", fmt.Errorf("got %d gift notes but %d secrets", len(notes), len(secrets))
	}
	var result txResponse
	body := map[string]interface{}{
		"sender":  sender,
		"notes":   notes,
		"secrets": secrets,
	}
	if err := c.post(ctx, "/v1/notes/consume-gift", body, &result); err != nil {
		return "", err
	}
	return result.TxID, nil
}

func (c *Client) BestBlockHeight(ctx context.Context) (int64, error) {
	var result struct {
		Height int64 `json:"height"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/v1/chain/tip")
	if err != nil {
		return 0, fmt.Errorf("ledger request /v1/chain/tip failed: %v", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("ledger returned %s for /v1/chain/tip", resp.Status())
	}
	return result.Height, nil
}
