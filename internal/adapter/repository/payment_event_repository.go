package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

const (
	retryBaseDelay = 30 * time.Second
	maxRetryDelay  = 24 * time.Hour
)

type paymentEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentEventRepository {
	return &paymentEventRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save stores a new event. Redeliveries of a stored external id are not written.
func (r *paymentEventRepository) Save(ctx context.Context, event *model.PaymentEvent) (*model.PaymentEvent, bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		r.logger.Error("Failed to save payment event",
			zap.String("event_id", event.ExternalID),
			zap.String("event_type", event.EventType),
			zap.Error(result.Error))
		return nil, false, fmt.Errorf("failed to save payment event: %w", result.Error)
	}

	if result.RowsAffected == 1 {
		return event, true, nil
	}

	stored, err := r.GetByExternalID(ctx, event.ExternalID)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *paymentEventRepository) GetByID(ctx context.Context, id int64) (*model.PaymentEvent, error) {
	var event model.PaymentEvent

	err := lockedConn(ctx, r.db).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get payment event: %w", err)
	}

	return &event, nil
}

func (r *paymentEventRepository) GetByExternalID(ctx context.Context, externalID string) (*model.PaymentEvent, error) {
	var event model.PaymentEvent

	err := conn(ctx, r.db).Where("external_id = ?", externalID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get payment event: %w", err)
	}

	return &event, nil
}

// MarkProcessed marks an event as processed
func (r *paymentEventRepository) MarkProcessed(ctx context.Context, id int64) error {
	now := r.now()
	return r.transition(ctx, id, map[string]interface{}{
		"status":        model.EventStatusProcessed,
		"processed_at":  &now,
		"next_retry_at": nil,
	})
}

// MarkRejected records an event that can never apply
func (r *paymentEventRepository) MarkRejected(ctx context.Context, id int64, reason string) error {
	now := r.now()
	return r.transition(ctx, id, map[string]interface{}{
		"status":        model.EventStatusRejected,
		"reject_reason": &reason,
		"processed_at":  &now,
		"next_retry_at": nil,
	})
}

// MarkFailed records a failed attempt and schedules the next one
func (r *paymentEventRepository) MarkFailed(ctx context.Context, id int64, cause error, maxAttempts int) (model.EventStatus, error) {
	event, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	attempts := event.ProcessingAttempts + 1
	errorMsg := cause.Error()

	if attempts >= maxAttempts {
		reason := fmt.Sprintf("retry limit reached after %d attempts: %s", attempts, errorMsg)
		now := r.now()
		err := r.transition(ctx, id, map[string]interface{}{
			"status":              model.EventStatusRejected,
			"processing_attempts": attempts,
			"last_error":          &errorMsg,
			"reject_reason":       &reason,
			"processed_at":        &now,
			"next_retry_at":       nil,
		})
		return model.EventStatusRejected, err
	}

	nextRetry := r.now().Add(backoff(attempts))
	err = r.transition(ctx, id, map[string]interface{}{
		"status":              model.EventStatusFailed,
		"processing_attempts": attempts,
		"last_error":          &errorMsg,
		"next_retry_at":       &nextRetry,
	})
	return model.EventStatusFailed, err
}

// backoff doubles from retryBaseDelay: 30s, 1m, 2m, 4m, ... capped at 24h
func backoff(attempts int) time.Duration {
	if attempts > 16 {
		return maxRetryDelay
	}
	delay := retryBaseDelay << (attempts - 1)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// transition updates an event still in pending or failed
func (r *paymentEventRepository) transition(ctx context.Context, id int64, updates map[string]interface{}) error {
	result := conn(ctx, r.db).
		Model(&model.PaymentEvent{}).
		Where("id = ? AND status IN (?, ?)", id, model.EventStatusPending, model.EventStatusFailed).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to update payment event status",
			zap.Int64("event_seq", id),
			zap.Any("status", updates["status"]),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update payment event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrEventAlreadyHandled
	}
	return nil
}

// ListRetryable retrieves events due for another processing attempt
func (r *paymentEventRepository) ListRetryable(ctx context.Context, now time.Time, limit int) ([]*model.PaymentEvent, error) {
	var events []*model.PaymentEvent

	query := conn(ctx, r.db).
		Where("status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			model.EventStatusPending,
			model.EventStatusFailed,
			now.UTC()).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		r.logger.Error("Failed to get retryable payment events", zap.Error(err))
		return nil, fmt.Errorf("failed to get retryable payment events: %w", err)
	}

	return events, nil
}

func (r *paymentEventRepository) List(ctx context.Context, status model.EventStatus, params entity.PaginationParams) ([]*model.PaymentEvent, int64, error) {
	query := conn(ctx, r.db).Model(&model.PaymentEvent{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payment events: %w", err)
	}

	var events []*model.PaymentEvent
	err := query.
		Order("id DESC").
		Offset(params.CalculateOffset()).
		Limit(params.Limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payment events: %w", err)
	}

	return events, total, nil
}
