package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qashware/note-wallet/internal/bookkeeper"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/logger"
)

// RetryPendingRegistrations replays journaled registrations whose ledger
// side already settled. Only bookkeeping calls are made here; the ledger
// is never touched. Rows are removed once the server accepts them, and
// the server's own (noteID, txID) dedup makes replays harmless.
func (o *Orchestrator) RetryPendingRegistrations(ctx context.Context) error {
	rows, err := o.journal.Pending()
	if err != nil {
		return err
	}

	var failed int
	for _, row := range rows {
		if err := o.replayRegistration(ctx, row); err != nil {
			failed++
			logger.Warn("Registration replay failed for tx ", row.TxID, ": ", err)
			continue
		}
		if err := o.journal.RemovePending(row.ID); err != nil {
			logger.Error("Failed to remove journal row ", row.ID, ": ", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d registration(s) still pending", ErrReconciliation, failed)
	}
	return nil
}

func (o *Orchestrator) replayRegistration(ctx context.Context, row walletstatedb.PendingRegistration) error {
	switch row.Kind {
	case walletstatedb.RegistrationConsumption:
		err := o.books.RecordConsumption(ctx, []bookkeeper.ConsumptionItem{{NoteID: row.NoteID, TxID: row.TxID}})
		if err != nil {
			return err
		}
		if row.RequestID > 0 {
			return o.books.ConfirmExternalRequest(ctx, row.RequestID, row.TxID)
		}
		return nil

	case walletstatedb.RegistrationRecall:
		return o.books.RecordRecall(ctx, []bookkeeper.RecallItem{{Type: row.RecallType, ID: row.NoteID}}, row.TxID)

	case walletstatedb.RegistrationTransfer:
		var reg transferRegistration
		if err := json.Unmarshal([]byte(row.Payload), &reg); err != nil {
			return fmt.Errorf("corrupt transfer journal row %d: %v", row.ID, err)
		}
		if err := o.books.RecordTransfers(ctx, reg.Items); err != nil {
			return err
		}
		for _, id := range reg.Requests {
			if err := o.books.ConfirmExternalRequest(ctx, id, row.TxID); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown registration kind %q in journal row %d", row.Kind, row.ID)
	}
}
