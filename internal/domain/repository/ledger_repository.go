package repository

import (
	"context"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

// LedgerRepository is append-only: there is no update or delete.
type LedgerRepository interface {
	// Append inserts the entry and fills in its sequence
	Append(ctx context.Context, entry *model.LedgerEntry) error
	Get(ctx context.Context, sequence int64) (*model.LedgerEntry, error)
	// FindByPaymentEvent returns nil when no entry was made for the event
	FindByPaymentEvent(ctx context.Context, paymentEventID int64) (*model.LedgerEntry, error)
	// FindReversalOf returns nil when the entry has not been reversed
	FindReversalOf(ctx context.Context, sequence int64) (*model.LedgerEntry, error)
	// Balance sums the author's entries up to and including asOf, or all when nil
	Balance(ctx context.Context, authorID string, asOf *int64) (int64, error)
	// LastSequence returns 0 when the author has no entries
	LastSequence(ctx context.Context, authorID string) (int64, error)
	// ListAfter returns up to limit entries with sequence > after, ascending
	ListAfter(ctx context.Context, authorID string, after int64, limit int) ([]*model.LedgerEntry, error)
}
