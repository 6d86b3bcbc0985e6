package model

import (
	"time"

	"gorm.io/datatypes"
)

// EventKind is the provider-independent meaning of a payment event
type EventKind string

const (
	KindCheckoutCompleted    EventKind = "checkout_completed"
	KindInvoicePaid          EventKind = "invoice_paid"
	KindInvoiceFailed        EventKind = "invoice_failed"
	KindSubscriptionCanceled EventKind = "subscription_canceled"
	KindUnknown              EventKind = "unknown"
)

// EventStatus represents the processing status of a payment event
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusFailed    EventStatus = "failed"
	EventStatusProcessed EventStatus = "processed"
	EventStatusRejected  EventStatus = "rejected"
	EventStatusIgnored   EventStatus = "ignored"
)

// Terminal reports whether the event will never be processed again.
func (s EventStatus) Terminal() bool {
	return s == EventStatusProcessed || s == EventStatusRejected || s == EventStatusIgnored
}

// NormalizedEvent is a verified provider event reduced to the fields the
// pipeline acts on. Provider payload shapes do not leak past this type.
type NormalizedEvent struct {
	ExternalID string
	Provider   string
	Type       string
	Kind       EventKind
	// SubscriptionRef is our subscription id when the provider echoes it
	// back, otherwise the provider's subscription id.
	SubscriptionRef         string
	ProviderSubscriptionRef string
	Amount                  int64
	Currency                string
	OccurredAt              time.Time
	PeriodStart             *time.Time
	PeriodEnd               *time.Time
	Payload                 []byte
	Checksum                string
	// RejectReason is set when the payload could not be reduced
	RejectReason string
}

// PaymentEvent is a received provider event. ID is the arrival sequence.
// Provider facts never change once stored; only processing fields do.
type PaymentEvent struct {
	ID                      int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID              string         `gorm:"size:255;not null;uniqueIndex" json:"external_id"`
	Provider                string         `gorm:"size:32;not null" json:"provider"`
	EventType               string         `gorm:"size:100;not null;index" json:"event_type"`
	Kind                    EventKind      `gorm:"size:32;not null" json:"kind"`
	SubscriptionRef         string         `gorm:"size:255;index" json:"subscription_ref"`
	ProviderSubscriptionRef string         `gorm:"size:255" json:"provider_subscription_ref"`
	Amount                  int64          `json:"amount"`
	Currency                string         `gorm:"size:3" json:"currency"`
	OccurredAt              time.Time      `json:"occurred_at"`
	PeriodStart             *time.Time     `json:"period_start,omitempty"`
	PeriodEnd               *time.Time     `json:"period_end,omitempty"`
	Checksum                string         `gorm:"size:64;not null" json:"checksum"`
	Payload                 datatypes.JSON `json:"-"`
	Status                  EventStatus    `gorm:"size:16;not null;index" json:"status"`
	RejectReason            *string        `json:"reject_reason,omitempty"`
	ProcessingAttempts      int            `gorm:"not null" json:"processing_attempts"`
	LastError               *string        `json:"last_error,omitempty"`
	NextRetryAt             *time.Time     `json:"next_retry_at,omitempty"`
	ProcessedAt             *time.Time     `json:"processed_at,omitempty"`
	ReceivedAt              time.Time      `gorm:"autoCreateTime" json:"received_at"`
}

// TableName specifies the table name for GORM
func (PaymentEvent) TableName() string {
	return "payment_events"
}

// Normalized rebuilds the normalized view of a stored event for replay.
func (e *PaymentEvent) Normalized() NormalizedEvent {
	return NormalizedEvent{
		ExternalID:              e.ExternalID,
		Provider:                e.Provider,
		Type:                    e.EventType,
		Kind:                    e.Kind,
		SubscriptionRef:         e.SubscriptionRef,
		ProviderSubscriptionRef: e.ProviderSubscriptionRef,
		Amount:                  e.Amount,
		Currency:                e.Currency,
		OccurredAt:              e.OccurredAt,
		PeriodStart:             e.PeriodStart,
		PeriodEnd:               e.PeriodEnd,
		Payload:                 e.Payload,
		Checksum:                e.Checksum,
	}
}
