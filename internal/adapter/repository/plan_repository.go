package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

type planRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PlanRepository {
	return &planRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a plan version
func (r *planRepository) Create(ctx context.Context, plan *model.Plan) error {
	if err := conn(ctx, r.db).Create(plan).Error; err != nil {
		r.logger.Error("Failed to create plan",
			zap.String("plan_id", plan.ID.String()),
			zap.Int("version", plan.Version),
			zap.Error(err))
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// Get retrieves an exact plan version, active or retired
func (r *planRepository) Get(ctx context.Context, id uuid.UUID, version int) (*model.Plan, error) {
	var plan model.Plan

	err := conn(ctx, r.db).
		Where("id = ? AND version = ?", id, version).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// GetLatest retrieves the highest version of a plan
func (r *planRepository) GetLatest(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var plan model.Plan

	err := lockedConn(ctx, r.db).
		Where("id = ?", id).
		Order("version DESC").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get latest plan version: %w", err)
	}

	return &plan, nil
}

// ListVersions retrieves every version of a plan, oldest first
func (r *planRepository) ListVersions(ctx context.Context, id uuid.UUID) ([]*model.Plan, error) {
	var plans []*model.Plan

	err := conn(ctx, r.db).
		Where("id = ?", id).
		Order("version ASC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plan versions: %w", err)
	}

	return plans, nil
}

// ListActive retrieves all active plan versions
func (r *planRepository) ListActive(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan

	err := conn(ctx, r.db).
		Where("active = ?", true).
		Order("author_id ASC, name ASC").
		Find(&plans).Error
	if err != nil {
		r.logger.Error("Failed to list active plans", zap.Error(err))
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}

	return plans, nil
}

// Retire marks plan versions inactive. Rows are never deleted.
func (r *planRepository) Retire(ctx context.Context, id uuid.UUID, version *int, at time.Time) (int64, error) {
	query := conn(ctx, r.db).
		Model(&model.Plan{}).
		Where("id = ? AND active = ?", id, true)
	if version != nil {
		query = query.Where("version = ?", *version)
	}

	result := query.Updates(map[string]interface{}{
		"active":     false,
		"retired_at": at,
	})
	if result.Error != nil {
		r.logger.Error("Failed to retire plan",
			zap.String("plan_id", id.String()),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to retire plan: %w", result.Error)
	}

	return result.RowsAffected, nil
}
