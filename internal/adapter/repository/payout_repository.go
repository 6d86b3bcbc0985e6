package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

type payoutRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPayoutRepository creates a new payout request repository
func NewPayoutRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PayoutRepository {
	return &payoutRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a pending request. The partial unique index on
// (author_id) WHERE status = 'pending' admits one per author.
func (r *payoutRepository) Create(ctx context.Context, payout *model.PayoutRequest) error {
	err := conn(ctx, r.db).Create(payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainErrors.ErrPayoutInProgress
		}
		r.logger.Error("Failed to create payout request",
			zap.String("author_id", payout.AuthorID),
			zap.Int64("amount", payout.Amount),
			zap.Error(err))
		return fmt.Errorf("failed to create payout request: %w", err)
	}
	return nil
}

func (r *payoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PayoutRequest, error) {
	var payout model.PayoutRequest

	err := lockedConn(ctx, r.db).Where("id = ?", id).First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}

	return &payout, nil
}

func (r *payoutRepository) FindPending(ctx context.Context, authorID string) (*model.PayoutRequest, error) {
	return r.findLatest(ctx, authorID, model.PayoutStatusPending)
}

func (r *payoutRepository) LastSettled(ctx context.Context, authorID string) (*model.PayoutRequest, error) {
	return r.findLatest(ctx, authorID, model.PayoutStatusSettled)
}

func (r *payoutRepository) findLatest(ctx context.Context, authorID string, status model.PayoutStatus) (*model.PayoutRequest, error) {
	var payouts []*model.PayoutRequest

	err := conn(ctx, r.db).
		Where("author_id = ? AND status = ?", authorID, status).
		Order("requested_at DESC").
		Limit(1).
		Find(&payouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find %s payout request: %w", status, err)
	}
	if len(payouts) == 0 {
		return nil, nil
	}
	return payouts[0], nil
}

func (r *payoutRepository) MarkSettled(ctx context.Context, id uuid.UUID, transferID string, debitSequence int64, at time.Time) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":               model.PayoutStatusSettled,
		"provider_transfer_id": &transferID,
		"debit_sequence":       &debitSequence,
		"settled_at":           &at,
	})
}

func (r *payoutRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":        model.PayoutStatusRejected,
		"reject_reason": &reason,
		"rejected_at":   &at,
	})
}

// transition moves a pending request; any other status is left alone
func (r *payoutRepository) transition(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := conn(ctx, r.db).
		Model(&model.PayoutRequest{}).
		Where("id = ? AND status = ?", id, model.PayoutStatusPending).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to update payout request",
			zap.String("payout_id", id.String()),
			zap.Any("status", updates["status"]),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update payout request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrPayoutNotPending
	}
	return nil
}

func (r *payoutRepository) ListByAuthor(ctx context.Context, authorID string, params entity.PaginationParams) ([]*model.PayoutRequest, int64, error) {
	query := conn(ctx, r.db).
		Model(&model.PayoutRequest{}).
		Where("author_id = ?", authorID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payout requests: %w", err)
	}

	var payouts []*model.PayoutRequest
	err := query.
		Order("requested_at DESC").
		Offset(params.CalculateOffset()).
		Limit(params.Limit).
		Find(&payouts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payout requests: %w", err)
	}

	return payouts, total, nil
}
