package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/qashware/note-wallet/internal/batch"
	"github.com/qashware/note-wallet/internal/note"
	"github.com/qashware/note-wallet/internal/orchestrator"
)

func (s *Server) ClaimHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Secret != "" {
		req.Note.SecretHash = req.Secret
	}

	txID, err := s.Orchestrator.Claim(r.Context(), req.Owner, req.Note)
	writeJSON(w, statusFor(err), TransactionResponse{
		TxID:    txID,
		Status:  statusLabel(err),
		Message: messageFor(err),
	})
}

func (s *Server) ClaimSelectedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req ClaimSelectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	txID, err := s.Orchestrator.ClaimSelected(r.Context(), req.Owner, req.Notes)
	writeJSON(w, statusFor(err), TransactionResponse{
		TxID:    txID,
		Status:  statusLabel(err),
		Message: messageFor(err),
	})
}

func (s *Server) RecallHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req RecallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	applySecrets(req.Notes, req.Secrets)

	result, err := s.Orchestrator.RecallBatch(r.Context(), req.Owner, req.Notes)
	resp := RecallResponse{
		Status:  statusLabel(err),
		Message: messageFor(err),
	}
	if result != nil {
		resp.TransactionTxID = result.TransactionTxID
		resp.GiftTxID = result.GiftTxID
		resp.RecalledIDs = result.RecalledIDs
	}
	writeJSON(w, statusFor(err), resp)
}

func (s *Server) SubmitBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.Orchestrator.SubmitBatch(r.Context(), req.Owner, req.DraftIDs)
	resp := SubmitBatchResponse{
		Status:  statusLabel(err),
		Message: messageFor(err),
	}
	if result != nil {
		resp.TxID = result.TxID
		resp.NoteIDs = result.NoteIDs
		resp.GiftSecrets = result.GiftSecrets
	}
	writeJSON(w, statusFor(err), resp)
}

func (s *Server) ConsumableNotesHandler(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "Missing owner", http.StatusBadRequest)
		return
	}

	notes, statuses, err := s.Orchestrator.ConsumableNotes(r.Context(), owner)
	if err != nil {
		log.Printf("Failed to fetch consumable notes: %v", err)
		http.Error(w, "Failed to fetch consumable notes", http.StatusBadGateway)
		return
	}

	type entry struct {
		Note   note.Note   `json:"note"`
		Status note.Status `json:"status"`
	}
	entries := make([]entry, len(notes))
	for i := range notes {
		entries[i] = entry{Note: notes[i], Status: statuses[i]}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": entries})
}

func (s *Server) RecallableSetsHandler(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "Missing owner", http.StatusBadRequest)
		return
	}

	sets, err := s.Orchestrator.RecallableSets(r.Context(), owner)
	if err != nil {
		log.Printf("Failed to fetch recallable sets: %v", err)
		http.Error(w, "Failed to fetch recallable sets", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) CountdownHandler(w http.ResponseWriter, r *http.Request) {
	if s.Countdown == nil {
		http.Error(w, "Countdown not running", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.Countdown.Snapshot())
}

// applySecrets restores gift secrets onto the notes they unlock, keyed by
// either note id.
func applySecrets(notes []note.Note, secrets map[string]string) {
	if len(secrets) == 0 {
		return
	}
	for i := range notes {
		if s, ok := secrets[notes[i].ID]; ok {
			notes[i].SecretHash = s
		} else if s, ok := secrets[notes[i].NoteID]; ok {
			notes[i].SecretHash = s
		}
	}
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, batch.ErrEmptySelection),
		errors.Is(err, orchestrator.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, orchestrator.ErrNoteBusy):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrReconciliation):
		// The ledger settled; only bookkeeping is pending.
		return http.StatusAccepted
	default:
		return http.StatusBadGateway
	}
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, orchestrator.ErrReconciliation):
		return "ledger-settled, bookkeeping-pending"
	default:
		return "failed"
	}
}

func messageFor(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
