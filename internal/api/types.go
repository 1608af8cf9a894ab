package api

import (
	"github.com/golang-jwt/jwt/v4"

	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/note"
	"github.com/qashware/note-wallet/internal/orchestrator"
)

type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Countdown    *orchestrator.CountdownTask
}

type Claims struct {
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

// Gift secrets travel beside the note, never inside it: note.Note drops
// its secret on (un)marshalling, so the envelope carries it explicitly.
type ClaimRequest struct {
	Owner  string    `json:"owner"`
	Note   note.Note `json:"note"`
	Secret string    `json:"secret,omitempty"`
}

type ClaimSelectedRequest struct {
	Owner string      `json:"owner"`
	Notes []note.Note `json:"notes"`
}

// RecallRequest recalls a batch. Secrets maps a gift note's id to its
// secret.
type RecallRequest struct {
	Owner   string            `json:"owner"`
	Notes   []note.Note       `json:"notes"`
	Secrets map[string]string `json:"secrets,omitempty"`
}

type SubmitBatchRequest struct {
	Owner    string   `json:"owner"`
	DraftIDs []string `json:"draft_ids"`
}

type TransactionResponse struct {
	TxID    string `json:"txid"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type RecallResponse struct {
	TransactionTxID string   `json:"transaction_txid,omitempty"`
	GiftTxID        string   `json:"gift_txid,omitempty"`
	RecalledIDs     []string `json:"recalled_ids"`
	Status          string   `json:"status"`
	Message         string   `json:"message,omitempty"`
}

type SubmitBatchResponse struct {
	TxID        string            `json:"txid"`
	NoteIDs     []string          `json:"note_ids"`
	GiftSecrets map[string]string `json:"gift_secrets,omitempty"`
	Status      string            `json:"status"`
	Message     string            `json:"message,omitempty"`
}

type DraftRequest struct {
	Draft walletstatedb.BatchDraft `json:"draft"`
}
