package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	// Get returns ErrPlanNotFound for an unknown id or version
	Get(ctx context.Context, id uuid.UUID, version int) (*model.Plan, error)
	// GetLatest returns the highest version of a plan, locked when called in a transaction
	GetLatest(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	ListVersions(ctx context.Context, id uuid.UUID) ([]*model.Plan, error)
	ListActive(ctx context.Context) ([]*model.Plan, error)
	// Retire deactivates one version, or every active version when version is nil
	Retire(ctx context.Context, id uuid.UUID, version *int, at time.Time) (int64, error)
}
