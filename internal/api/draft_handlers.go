package api

import (
	"encoding/json"
	"net/http"

	walletstatedb "github.com/qashware/note-wallet/internal/database"
)

// DraftsHandler serves the per-wallet draft batch: list, create, update
// and delete. Drafts never cross wallet addresses.
func (s *Server) DraftsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		owner := r.URL.Query().Get("owner")
		if owner == "" {
			http.Error(w, "Missing owner", http.StatusBadRequest)
			return
		}
		drafts, err := walletstatedb.GetBatchDrafts(owner)
		if err != nil {
			http.Error(w, "Failed to list drafts", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"drafts": drafts})

	case http.MethodPost:
		var req DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := walletstatedb.SaveBatchDraft(&req.Draft); err != nil {
			http.Error(w, "Failed to save draft", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, req.Draft)

	case http.MethodPut:
		var req DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := walletstatedb.UpdateBatchDraft(&req.Draft); err != nil {
			http.Error(w, "Failed to update draft", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req.Draft)

	case http.MethodDelete:
		owner := r.URL.Query().Get("owner")
		id := r.URL.Query().Get("id")
		if owner == "" {
			http.Error(w, "Missing owner", http.StatusBadRequest)
			return
		}
		var err error
		if id == "" {
			err = walletstatedb.ClearBatchDrafts(owner)
		} else {
			err = walletstatedb.DeleteBatchDraft(owner, id)
		}
		if err != nil {
			http.Error(w, "Failed to delete draft", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
	}
}

func (s *Server) DuplicateDraftHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Owner   string `json:"owner"`
		DraftID string `json:"draft_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	draft, err := walletstatedb.DuplicateBatchDraft(req.Owner, req.DraftID)
	if err != nil {
		http.Error(w, "Failed to duplicate draft", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}
