package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type PayoutRepository interface {
	// Create returns ErrPayoutInProgress when the author already has a pending request
	Create(ctx context.Context, payout *model.PayoutRequest) error
	// GetByID locks the row when called in a transaction
	GetByID(ctx context.Context, id uuid.UUID) (*model.PayoutRequest, error)
	// FindPending returns nil when the author has no pending request
	FindPending(ctx context.Context, authorID string) (*model.PayoutRequest, error)
	// LastSettled returns nil when the author was never paid out
	LastSettled(ctx context.Context, authorID string) (*model.PayoutRequest, error)
	// MarkSettled and MarkRejected only move a pending request; otherwise ErrPayoutNotPending
	MarkSettled(ctx context.Context, id uuid.UUID, transferID string, debitSequence int64, at time.Time) error
	MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
	ListByAuthor(ctx context.Context, authorID string, params entity.PaginationParams) ([]*model.PayoutRequest, int64, error)
}
