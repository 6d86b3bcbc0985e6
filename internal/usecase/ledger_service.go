package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

const defaultLedgerPageSize = 200

// LedgerService is the only writer of ledger entries. Balances are always
// derived from the entries.
type LedgerService struct {
	ledgerRepo domainRepo.LedgerRepository
	transactor domainRepo.Transactor
	locker     KeyLocker
	currency   string
	pageSize   int
	logger     *zap.Logger
}

// NewLedgerService creates a new ledger service for a single ledger currency
func NewLedgerService(
	ledgerRepo domainRepo.LedgerRepository,
	transactor domainRepo.Transactor,
	locker KeyLocker,
	currency string,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		locker:     locker,
		currency:   strings.ToLower(currency),
		pageSize:   defaultLedgerPageSize,
		logger:     logger,
	}
}

// Currency returns the ledger currency
func (s *LedgerService) Currency() string {
	return s.currency
}

// Append validates and stores an entry, assigning the next sequence.
// The caller must hold the author's key lock; Append does not take it so
// it can run inside a state transition or settlement.
func (s *LedgerService) Append(ctx context.Context, in model.LedgerEntryInput) (*model.LedgerEntry, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		AuthorID:         in.AuthorID,
		Kind:             in.Kind,
		Amount:           in.Amount,
		Currency:         strings.ToLower(in.Currency),
		PaymentEventID:   in.PaymentEventID,
		SubscriptionID:   in.SubscriptionID,
		ReversesSequence: in.ReversesSequence,
		PayoutID:         in.PayoutID,
		Description:      in.Description,
	}
	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Ledger entry appended",
		zap.Int64("sequence", entry.Sequence),
		zap.String("author_id", entry.AuthorID),
		zap.String("kind", string(entry.Kind)),
		zap.Int64("amount", entry.Amount))

	return entry, nil
}

func (s *LedgerService) validate(ctx context.Context, in model.LedgerEntryInput) error {
	if in.AuthorID == "" {
		return &domainErrors.InvalidEntryError{Reason: "author id is required"}
	}
	if !strings.EqualFold(in.Currency, s.currency) {
		return &domainErrors.InvalidEntryError{
			Reason: fmt.Sprintf("currency %q does not match ledger currency %q", in.Currency, s.currency),
		}
	}

	switch in.Kind {
	case model.EntryKindCredit:
		if in.Amount <= 0 {
			return &domainErrors.InvalidEntryError{Reason: "credit amount must be positive"}
		}
	case model.EntryKindDebit:
		if in.Amount >= 0 {
			return &domainErrors.InvalidEntryError{Reason: "debit amount must be negative"}
		}
	case model.EntryKindReversal:
		return s.validateReversal(ctx, in)
	default:
		return &domainErrors.InvalidEntryError{Reason: fmt.Sprintf("unknown entry kind %q", in.Kind)}
	}

	if in.ReversesSequence != nil {
		return &domainErrors.InvalidEntryError{Reason: "only reversals may reference another entry"}
	}
	return nil
}

func (s *LedgerService) validateReversal(ctx context.Context, in model.LedgerEntryInput) error {
	if in.ReversesSequence == nil {
		return &domainErrors.InvalidEntryError{Reason: "reversal must reference the entry it reverses"}
	}

	original, err := s.ledgerRepo.Get(ctx, *in.ReversesSequence)
	if err != nil {
		return err
	}
	if original.AuthorID != in.AuthorID {
		return &domainErrors.InvalidEntryError{Reason: "reversal author does not match the original entry"}
	}
	if in.Amount != -original.Amount {
		return &domainErrors.InvalidEntryError{
			Reason: fmt.Sprintf("reversal amount %d does not negate original amount %d", in.Amount, original.Amount),
		}
	}
	return s.ensureReversible(ctx, original)
}

// ensureReversible rejects reversals and entries that were already reversed
func (s *LedgerService) ensureReversible(ctx context.Context, original *model.LedgerEntry) error {
	if original.Kind == model.EntryKindReversal {
		return domainErrors.ErrReversalNotReversible
	}
	existing, err := s.ledgerRepo.FindReversalOf(ctx, original.Sequence)
	if err != nil {
		return err
	}
	if existing != nil {
		return domainErrors.ErrEntryAlreadyReversed
	}
	return nil
}

// Balance sums the author's entries up to asOfSequence, or all of them when nil
func (s *LedgerService) Balance(ctx context.Context, authorID string, asOfSequence *int64) (int64, error) {
	return s.ledgerRepo.Balance(ctx, authorID, asOfSequence)
}

// EntriesSince yields the author's entries with a sequence greater than
// sequence, in order. Each range over the result starts a fresh read, so the
// sequence can be iterated again from the same point.
func (s *LedgerService) EntriesSince(ctx context.Context, authorID string, sequence int64) iter.Seq2[*model.LedgerEntry, error] {
	return func(yield func(*model.LedgerEntry, error) bool) {
		after := sequence
		for {
			page, err := s.ledgerRepo.ListAfter(ctx, authorID, after, s.pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, entry := range page {
				if !yield(entry, nil) {
					return
				}
				after = entry.Sequence
			}
			if len(page) < s.pageSize {
				return
			}
		}
	}
}

// Reverse appends the negation of an entry. Each entry is reversible once.
func (s *LedgerService) Reverse(ctx context.Context, sequence int64, reason string) (*model.LedgerEntry, error) {
	original, err := s.ledgerRepo.Get(ctx, sequence)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, authorKey(original.AuthorID))
	if err != nil {
		return nil, err
	}
	defer release()

	var entry *model.LedgerEntry
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// a repeated reversal must not be reported as an overdraw
		if err := s.ensureReversible(ctx, original); err != nil {
			return err
		}
		if err := s.ensureCovered(ctx, original.AuthorID, -original.Amount); err != nil {
			return err
		}

		description := fmt.Sprintf("reversal of entry %d", original.Sequence)
		if reason != "" {
			description = fmt.Sprintf("%s: %s", description, reason)
		}

		entry, err = s.Append(ctx, model.LedgerEntryInput{
			AuthorID:         original.AuthorID,
			Kind:             model.EntryKindReversal,
			Amount:           -original.Amount,
			Currency:         original.Currency,
			SubscriptionID:   original.SubscriptionID,
			ReversesSequence: &original.Sequence,
			Description:      truncate(description, 255),
		})
		return err
	})
	if err != nil {
		var invalid *domainErrors.InvalidEntryError
		if errors.As(err, &invalid) {
			// the unique reverses_sequence index caught a concurrent reversal
			if existing, findErr := s.ledgerRepo.FindReversalOf(ctx, sequence); findErr == nil && existing != nil {
				return nil, domainErrors.ErrEntryAlreadyReversed
			}
		}
		return nil, err
	}

	return entry, nil
}

// Adjust appends a manual credit (amount > 0) or debit (amount < 0) that has
// no originating event.
func (s *LedgerService) Adjust(ctx context.Context, authorID string, amount int64, description string) (*model.LedgerEntry, error) {
	if amount == 0 {
		return nil, &domainErrors.InvalidEntryError{Reason: "adjustment amount must not be zero"}
	}

	kind := model.EntryKindCredit
	if amount < 0 {
		kind = model.EntryKindDebit
	}

	release, err := s.locker.Acquire(ctx, authorKey(authorID))
	if err != nil {
		return nil, err
	}
	defer release()

	var entry *model.LedgerEntry
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureCovered(ctx, authorID, amount); err != nil {
			return err
		}
		entry, err = s.Append(ctx, model.LedgerEntryInput{
			AuthorID:    authorID,
			Kind:        kind,
			Amount:      amount,
			Currency:    s.currency,
			Description: truncate(description, 255),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ensureCovered rejects a negative amount larger than the current balance
func (s *LedgerService) ensureCovered(ctx context.Context, authorID string, amount int64) error {
	if amount >= 0 {
		return nil
	}
	balance, err := s.ledgerRepo.Balance(ctx, authorID, nil)
	if err != nil {
		return err
	}
	if balance+amount < 0 {
		return domainErrors.NewInsufficientBalanceError(-amount, balance)
	}
	return nil
}

// truncate shortens s to at most max runes
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := 0
	for i := range s {
		if runes == max {
			return s[:i]
		}
		runes++
	}
	return s
}
