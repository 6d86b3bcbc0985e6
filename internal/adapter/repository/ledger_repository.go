package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

type ledgerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB, logger *zap.Logger) domainRepo.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts an entry. The unique payment_event_id, reverses_sequence
// and payout_id columns reject a second entry for the same origin.
func (r *ledgerRepository) Append(ctx context.Context, entry *model.LedgerEntry) error {
	err := conn(ctx, r.db).Create(entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domainErrors.InvalidEntryError{Reason: "an entry for this origin already exists"}
		}
		r.logger.Error("Failed to append ledger entry",
			zap.String("author_id", entry.AuthorID),
			zap.String("kind", string(entry.Kind)),
			zap.Int64("amount", entry.Amount),
			zap.Error(err))
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) Get(ctx context.Context, sequence int64) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry

	err := conn(ctx, r.db).Where("sequence = ?", sequence).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return &entry, nil
}

func (r *ledgerRepository) FindByPaymentEvent(ctx context.Context, paymentEventID int64) (*model.LedgerEntry, error) {
	return r.findOne(ctx, "payment_event_id = ?", paymentEventID)
}

func (r *ledgerRepository) FindReversalOf(ctx context.Context, sequence int64) (*model.LedgerEntry, error) {
	return r.findOne(ctx, "reverses_sequence = ?", sequence)
}

func (r *ledgerRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.LedgerEntry, error) {
	var entries []*model.LedgerEntry

	if err := conn(ctx, r.db).Where(query, arg).Limit(1).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to find ledger entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// Balance is derived from the entries on every call; no running total is stored.
func (r *ledgerRepository) Balance(ctx context.Context, authorID string, asOf *int64) (int64, error) {
	var balance int64

	query := conn(ctx, r.db).
		Model(&model.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("author_id = ?", authorID)
	if asOf != nil {
		query = query.Where("sequence <= ?", *asOf)
	}

	if err := query.Scan(&balance).Error; err != nil {
		r.logger.Error("Failed to compute balance",
			zap.String("author_id", authorID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}

	return balance, nil
}

func (r *ledgerRepository) LastSequence(ctx context.Context, authorID string) (int64, error) {
	var sequence int64

	err := conn(ctx, r.db).
		Model(&model.LedgerEntry{}).
		Select("COALESCE(MAX(sequence), 0)").
		Where("author_id = ?", authorID).
		Scan(&sequence).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get last ledger sequence: %w", err)
	}

	return sequence, nil
}

func (r *ledgerRepository) ListAfter(ctx context.Context, authorID string, after int64, limit int) ([]*model.LedgerEntry, error) {
	var entries []*model.LedgerEntry

	err := conn(ctx, r.db).
		Where("author_id = ? AND sequence > ?", authorID, after).
		Order("sequence ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	return entries, nil
}
