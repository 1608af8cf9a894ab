package walletstatedb

import "time"

// Registration kinds recorded in the pending-registration journal.
const (
	RegistrationConsumption = "consumption"
	RegistrationRecall      = "recall"
	RegistrationTransfer    = "transfer"
)

// BatchDraft is a transfer composed locally but not yet submitted to the
// ledger. Drafts are strictly partitioned by the owning wallet address and
// only live until the batch they belong to is submitted or deleted.
type BatchDraft struct {
	ID               string `gorm:"primaryKey"`
	WalletAddress    string `gorm:"index;not null"`
	Recipient        string
	RecipientName    string
	Amount           string
	Message          string
	TokenAddress     string
	TokenSymbol      string
	TokenDecimals    uint8
	TokenMaxSupply   uint64
	IsPrivate        bool
	IsGift           bool
	RecallableTime   int64
	RecallableHeight int64
	NoteType         string
	PendingRequestID int64
	CreatedAt        time.Time
}

// PendingRegistration journals a ledger-settled operation whose bookkeeping
// registration has not succeeded yet. The ledger side is final; only the
// registration is replayed from these rows.
type PendingRegistration struct {
	ID         uint   `gorm:"primaryKey"`
	NoteID     string `gorm:"index"`
	TxID       string
	Kind       string // consumption, recall or transfer
	RecallType string // TRANSACTION or GIFT, recall rows only
	RequestID  int64  // external payment request to confirm, if any
	Payload    string // JSON payload for transfer rows
	CreatedAt  time.Time
}
