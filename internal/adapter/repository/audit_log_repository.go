package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

type auditLogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AuditLogRepository {
	return &auditLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *auditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if err := conn(ctx, r.db).Create(log).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditLogRepository) List(ctx context.Context, filter model.AuditFilter, params entity.PaginationParams) ([]*model.AuditLog, int64, error) {
	query := conn(ctx, r.db).Model(&model.AuditLog{})
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []*model.AuditLog
	err := query.
		Order("id DESC").
		Offset(params.CalculateOffset()).
		Limit(params.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, total, nil
}
