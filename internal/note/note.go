package note

import (
	"time"
)

// Lifecycle status of a note. Status is always derived from the note's
// flags and the current chain height, never stored.
type Status string

const (
	StatusPending    Status = "pending"
	StatusWaiting    Status = "waiting_recallable"
	StatusRecallable Status = "recallable"
	StatusRecalled   Status = "recalled"
	StatusConsumed   Status = "consumed"
)

const (
	// SecondsPerBlock is the nominal block time of the ledger. Every
	// height<->duration conversion in the wallet goes through this constant.
	SecondsPerBlock = 5

	// NonRecallable marks a note the sender can never reclaim.
	NonRecallable int64 = -1
)

// Note type tags reported to the bookkeeping server on recall.
const (
	RecallTypeTransaction = "TRANSACTION"
	RecallTypeGift        = "GIFT"
)

type AssetMetadata struct {
	Symbol    string `json:"symbol"`
	Decimals  uint8  `json:"decimals"`
	MaxSupply uint64 `json:"max_supply"`
}

type Asset struct {
	FaucetID string        `json:"faucet_id"`
	Amount   uint64        `json:"amount"`
	Metadata AssetMetadata `json:"metadata"`
}

type Note struct {
	ID               string       `json:"id"`
	NoteID           string       `json:"note_id"`
	Sender           string       `json:"sender"`
	Recipient        string       `json:"recipient"`
	Assets           []Asset      `json:"assets"`
	IsPrivate        bool         `json:"is_private"`
	SerialNumber     SerialNumber `json:"serial_number"`
	RecallableHeight int64        `json:"recallable_height"`
	RecallableTime   int64        `json:"recallable_time"`
	IsGift           bool         `json:"is_gift"`
	Consumed         bool         `json:"consumed"`
	Recalled         bool         `json:"recalled"`
	PendingRequestID int64        `json:"pending_request_id,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`

	// SecretHash is the shared secret of a gift note. It is never
	// serialized and never logged.
	SecretHash string `json:"-"`
}

// IsRecallable reports whether the sender can ever reclaim this note.
func (n *Note) IsRecallable() bool {
	return n.RecallableHeight >= 0
}

// RecallableAt is the wall-clock point the recall window opens,
// derived from the creation time and the recallable duration.
func (n *Note) RecallableAt() time.Time {
	if !n.IsRecallable() {
		return time.Time{}
	}
	return n.CreatedAt.Add(time.Duration(n.RecallableTime) * time.Second)
}

// HeightFromDuration converts a recall window in seconds into a block
// count, rounding down. Non-positive durations mean the note is not
// recallable.
func HeightFromDuration(seconds int64) int64 {
	if seconds <= 0 {
		return NonRecallable
	}
	return seconds / SecondsPerBlock
}

// DurationFromHeight is the inverse conversion, used when a note comes
// back from the server with only its height set.
func DurationFromHeight(height int64) int64 {
	if height < 0 {
		return 0
	}
	return height * SecondsPerBlock
}
