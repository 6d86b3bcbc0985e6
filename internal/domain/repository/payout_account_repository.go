package repository

import (
	"context"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type PayoutAccountRepository interface {
	Upsert(ctx context.Context, account *model.PayoutAccount) error
	// GetByAuthorID returns ErrPayoutAccountNotFound when the author has none
	GetByAuthorID(ctx context.Context, authorID string) (*model.PayoutAccount, error)
}
