// Package operations runs the wallet daemon: the IPC command loop, the
// countdown broadcast and the registration retry cadence.
package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/qashware/note-wallet/internal/api"
	"github.com/qashware/note-wallet/internal/ipc"
	"github.com/qashware/note-wallet/internal/logger"
	"github.com/qashware/note-wallet/internal/note"
	"github.com/qashware/note-wallet/internal/orchestrator"
)

type WalletServer struct {
	Orchestrator *orchestrator.Orchestrator
	Owner        string

	countdown *orchestrator.CountdownTask
}

func NewWalletServer(orch *orchestrator.Orchestrator, owner string) *WalletServer {
	return &WalletServer{Orchestrator: orch, Owner: owner}
}

// ServerLoop blocks running the daemon until the context is cancelled.
func (s *WalletServer) ServerLoop(ctx context.Context) error {
	ipcServer, err := ipc.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create IPC server: %v", err)
	}
	defer ipcServer.Close()

	interval := viper.GetDuration("countdown_interval")
	s.countdown = s.Orchestrator.NewCountdownTask(s.Owner, interval, func(snap orchestrator.CountdownSnapshot) {
		ipcServer.BroadcastCountdown(snap)
	})
	s.countdown.Start(ctx)
	defer s.countdown.Stop()

	apiServer := &api.Server{
		Orchestrator: s.Orchestrator,
		Countdown:    s.countdown,
	}
	go func() {
		if err := apiServer.StartServer(); err != nil {
			log.Printf("API server stopped: %v", err)
			logger.Error("API server stopped: ", err)
		}
	}()

	retryInterval := viper.GetDuration("registration_retry_interval")
	if retryInterval <= 0 {
		retryInterval = 30 * time.Second
	}
	retryTicker := time.NewTicker(retryInterval)
	defer retryTicker.Stop()

	log.Println("Wallet daemon running")
	logger.WithFields(map[string]interface{}{
		"wallet":         s.Owner,
		"retry_interval": retryInterval.String(),
	}).Info("Wallet daemon running")

	for {
		select {
		case <-ctx.Done():
			log.Println("Wallet daemon shutting down")
			return nil

		case <-retryTicker.C:
			if err := s.Orchestrator.RetryPendingRegistrations(ctx); err != nil {
				log.Printf("Pending registrations: %v", err)
			}

		case cmd := <-ipcServer.Commands():
			if cmd.Command == "exit" {
				ipcServer.SendResponse(cmd.ID, ipc.Response{ID: cmd.ID, Result: "shutting down"})
				log.Println("Wallet daemon shutting down")
				return nil
			}
			result, err := s.HandleIPCCommand(ctx, cmd)
			response := ipc.Response{ID: cmd.ID, Result: result}
			if err != nil {
				response.Error = err.Error()
			}
			ipcServer.SendResponse(cmd.ID, response)
		}
	}
}

// HandleIPCCommand dispatches one shell command to the orchestrator.
func (s *WalletServer) HandleIPCCommand(ctx context.Context, cmd ipc.Command) (interface{}, error) {
	switch cmd.Command {
	case "submit-batch":
		return s.Orchestrator.SubmitBatch(ctx, s.Owner, cmd.Args)

	case "claim-note":
		n, err := decodeNoteArg(cmd.Args)
		if err != nil {
			return nil, err
		}
		return s.Orchestrator.Claim(ctx, s.Owner, n)

	case "recall-note":
		n, err := decodeNoteArg(cmd.Args)
		if err != nil {
			return nil, err
		}
		return s.Orchestrator.Recall(ctx, s.Owner, n)

	case "recall-batch":
		notes, err := decodeRecallBatchArg(cmd.Args)
		if err != nil {
			return nil, err
		}
		return s.Orchestrator.RecallBatch(ctx, s.Owner, notes)

	case "list-consumable":
		notes, statuses, err := s.Orchestrator.ConsumableNotes(ctx, s.Owner)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"notes": notes, "statuses": statuses}, nil

	case "retry-registrations":
		return nil, s.Orchestrator.RetryPendingRegistrations(ctx)

	case "rotate-log":
		return nil, logger.RotateLog(viper.GetString("log_file"))

	default:
		return nil, fmt.Errorf("unknown command: %s", cmd.Command)
	}
}

// decodeNoteArg parses a note command argument: the JSON note, optionally
// followed by its gift secret. The secret travels as its own argument
// because the serialized note never carries it.
func decodeNoteArg(args []string) (note.Note, error) {
	if len(args) != 1 && len(args) != 2 {
		return note.Note{}, fmt.Errorf("expected a JSON note argument with an optional secret, got %d arguments", len(args))
	}
	var n note.Note
	if err := json.Unmarshal([]byte(args[0]), &n); err != nil {
		return note.Note{}, fmt.Errorf("invalid note argument: %v", err)
	}
	if len(args) == 2 {
		n.SecretHash = args[1]
	}
	return n, nil
}

// decodeRecallBatchArg parses a recall batch argument: a note list plus the
// gift secrets keyed by note id.
func decodeRecallBatchArg(args []string) ([]note.Note, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected one JSON batch argument, got %d", len(args))
	}
	var batch struct {
		Notes   []note.Note       `json:"notes"`
		Secrets map[string]string `json:"secrets"`
	}
	if err := json.Unmarshal([]byte(args[0]), &batch); err != nil {
		return nil, fmt.Errorf("invalid batch argument: %v", err)
	}
	for i := range batch.Notes {
		if s, ok := batch.Secrets[batch.Notes[i].ID]; ok {
			batch.Notes[i].SecretHash = s
		} else if s, ok := batch.Secrets[batch.Notes[i].NoteID]; ok {
			batch.Notes[i].SecretHash = s
		}
	}
	return batch.Notes, nil
}
