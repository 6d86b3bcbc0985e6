package repository

import (
	"context"
	"time"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

// PaymentEventRepository stores received provider events. Status changes
// are compare-and-set from pending or failed; a lost race returns
// ErrEventAlreadyHandled.
type PaymentEventRepository interface {
	// Save inserts the event unless its external id is already stored.
	// It returns the stored record and whether this call created it.
	Save(ctx context.Context, event *model.PaymentEvent) (*model.PaymentEvent, bool, error)
	GetByID(ctx context.Context, id int64) (*model.PaymentEvent, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.PaymentEvent, error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkRejected(ctx context.Context, id int64, reason string) error
	// MarkFailed schedules a retry with exponential back-off. Once attempts
	// reach maxAttempts the event is rejected instead. Returns the new status.
	MarkFailed(ctx context.Context, id int64, cause error, maxAttempts int) (model.EventStatus, error)
	// ListRetryable returns pending or failed events due at now, oldest arrival first
	ListRetryable(ctx context.Context, now time.Time, limit int) ([]*model.PaymentEvent, error)
	List(ctx context.Context, status model.EventStatus, params entity.PaginationParams) ([]*model.PaymentEvent, int64, error)
}
