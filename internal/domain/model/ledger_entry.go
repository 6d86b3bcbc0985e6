package model

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind represents the type of ledger entry
type EntryKind string

const (
	EntryKindCredit   EntryKind = "credit"
	EntryKindDebit    EntryKind = "debit"
	EntryKindReversal EntryKind = "reversal"
)

// LedgerEntry is an append-only movement of an author's earnings.
// Amount is signed: credits are positive, debits negative and a reversal
// is the negation of the entry it reverses.
type LedgerEntry struct {
	Sequence         int64      `gorm:"primaryKey;autoIncrement" json:"sequence"`
	AuthorID         string     `gorm:"size:64;not null;index:idx_ledger_entries_author_sequence,priority:1" json:"author_id"`
	Kind             EntryKind  `gorm:"size:16;not null" json:"kind"`
	Amount           int64      `gorm:"not null" json:"amount"`
	Currency         string     `gorm:"size:3;not null" json:"currency"`
	PaymentEventID   *int64     `gorm:"uniqueIndex" json:"payment_event_id,omitempty"`
	SubscriptionID   *uuid.UUID `gorm:"type:uuid;index" json:"subscription_id,omitempty"`
	ReversesSequence *int64     `gorm:"uniqueIndex" json:"reverses_sequence,omitempty"`
	PayoutID         *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"payout_id,omitempty"`
	Description      string     `gorm:"size:255" json:"description"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// LedgerEntryInput is an entry to append; the ledger assigns the sequence.
type LedgerEntryInput struct {
	AuthorID         string
	Kind             EntryKind
	Amount           int64
	Currency         string
	PaymentEventID   *int64
	SubscriptionID   *uuid.UUID
	ReversesSequence *int64
	PayoutID         *uuid.UUID
	Description      string
}
