package model

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus represents the status of a payout request
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusSettled  PayoutStatus = "settled"
	PayoutStatusRejected PayoutStatus = "rejected"
)

// PayoutRequest asks the payment rail to pay out part of an author's balance.
// The ledger range records which entries the balance was read from.
type PayoutRequest struct {
	ID                 uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID           string       `gorm:"size:64;not null;index" json:"author_id"`
	Amount             int64        `gorm:"not null" json:"amount"`
	Currency           string       `gorm:"size:3;not null" json:"currency"`
	Status             PayoutStatus `gorm:"size:16;not null;index" json:"status"`
	LedgerFromSequence int64        `gorm:"not null" json:"ledger_from_sequence"`
	LedgerToSequence   int64        `gorm:"not null" json:"ledger_to_sequence"`
	DebitSequence      *int64       `json:"debit_sequence,omitempty"`
	ProviderTransferID *string      `gorm:"size:255" json:"provider_transfer_id,omitempty"`
	RejectReason       *string      `json:"reject_reason,omitempty"`
	RequestedAt        time.Time    `gorm:"autoCreateTime" json:"requested_at"`
	SettledAt          *time.Time   `json:"settled_at,omitempty"`
	RejectedAt         *time.Time   `json:"rejected_at,omitempty"`
}

// TableName specifies the table name for GORM
func (PayoutRequest) TableName() string {
	return "payout_requests"
}

// Eligibility is the payout position of an author at a point in the ledger
type Eligibility struct {
	AuthorID        string     `json:"author_id"`
	Eligible        bool       `json:"eligible"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	AsOfSequence    int64      `json:"as_of_sequence"`
	PendingPayoutID *uuid.UUID `json:"pending_payout_id,omitempty"`
}
