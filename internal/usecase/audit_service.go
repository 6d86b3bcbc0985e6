package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

// AuditService keeps the trail of operator actions
type AuditService struct {
	auditRepo domainRepo.AuditLogRepository
	logger    *zap.Logger
}

func NewAuditService(auditRepo domainRepo.AuditLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record stores entry. A failed write is logged and otherwise ignored.
func (s *AuditService) Record(ctx context.Context, entry *model.AuditLog) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record audit log",
			zap.String("actor_id", entry.ActorID),
			zap.String("action", entry.Action),
			zap.String("resource_id", entry.ResourceID),
			zap.Int("status", entry.Status),
			zap.Error(err))
	}
}

func (s *AuditService) List(ctx context.Context, filter model.AuditFilter, params entity.PaginationParams) (*entity.Page[*model.AuditLog], error) {
	params.Validate()
	logs, total, err := s.auditRepo.List(ctx, filter, params)
	if err != nil {
		return nil, err
	}
	return entity.NewPage(logs, params, total), nil
}
