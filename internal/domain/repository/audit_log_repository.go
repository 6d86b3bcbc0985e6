package repository

import (
	"context"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	// List returns newest first
	List(ctx context.Context, filter model.AuditFilter, params entity.PaginationParams) ([]*model.AuditLog, int64, error)
}
