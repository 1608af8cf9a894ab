package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/viper"
)

// StartServer wires the handlers and blocks serving the wallet API.
func (s *Server) StartServer() error {
	mux := http.NewServeMux()

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return s.CORSMiddleware(s.JWTMiddleware(h))
	}

	mux.HandleFunc("/batch/submit", protected(s.SubmitBatchHandler))
	mux.HandleFunc("/notes/claim", protected(s.ClaimHandler))
	mux.HandleFunc("/notes/claim-selected", protected(s.ClaimSelectedHandler))
	mux.HandleFunc("/notes/recall", protected(s.RecallHandler))
	mux.HandleFunc("/notes/consumable", protected(s.ConsumableNotesHandler))
	mux.HandleFunc("/notes/recallable", protected(s.RecallableSetsHandler))
	mux.HandleFunc("/notes/countdown", protected(s.CountdownHandler))
	mux.HandleFunc("/drafts", protected(s.DraftsHandler))
	mux.HandleFunc("/drafts/duplicate", protected(s.DuplicateDraftHandler))

	port := viper.GetInt("api_port")
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Wallet API listening on %s", addr)

	if viper.GetBool("use_https") {
		return http.ListenAndServeTLS(addr, viper.GetString("cert_file"), viper.GetString("key_file"), mux)
	}
	return http.ListenAndServe(addr, mux)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
