package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

type payoutAccountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPayoutAccountRepository creates a new payout account repository
func NewPayoutAccountRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PayoutAccountRepository {
	return &payoutAccountRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert creates or replaces the author's payout destination
func (r *payoutAccountRepository) Upsert(ctx context.Context, account *model.PayoutAccount) error {
	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "author_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"provider_account_id", "updated_at"}),
		}).
		Create(account).Error
	if err != nil {
		r.logger.Error("Failed to upsert payout account",
			zap.String("author_id", account.AuthorID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert payout account: %w", err)
	}
	return nil
}

func (r *payoutAccountRepository) GetByAuthorID(ctx context.Context, authorID string) (*model.PayoutAccount, error) {
	var account model.PayoutAccount

	err := conn(ctx, r.db).Where("author_id = ?", authorID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPayoutAccountNotFound
		}
		return nil, fmt.Errorf("failed to get payout account: %w", err)
	}

	return &account, nil
}
