package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/entity"
	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/provider"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
	apperrors "github.com/dheerajsingh9334/mern-Blog/pkg/errors"
	"github.com/dheerajsingh9334/mern-Blog/pkg/messaging"
)

// PayoutConfig bounds payout requests and the rail call
type PayoutConfig struct {
	MinimumAmount int64
	RailTimeout   time.Duration
}

// PayoutService decides payout eligibility and records settlement outcomes.
// Money moves only through the payment rail in SettlePayout.
type PayoutService struct {
	payoutRepo  domainRepo.PayoutRepository
	accountRepo domainRepo.PayoutAccountRepository
	ledgerRepo  domainRepo.LedgerRepository
	transactor  domainRepo.Transactor
	ledger      *LedgerService
	rail        provider.PaymentRail
	locker      KeyLocker
	notifier    *notifier
	cfg         PayoutConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewPayoutService creates a new payout service
func NewPayoutService(
	payoutRepo domainRepo.PayoutRepository,
	accountRepo domainRepo.PayoutAccountRepository,
	ledgerRepo domainRepo.LedgerRepository,
	transactor domainRepo.Transactor,
	ledger *LedgerService,
	rail provider.PaymentRail,
	locker KeyLocker,
	publisher messaging.Publisher,
	cfg PayoutConfig,
	logger *zap.Logger,
) *PayoutService {
	if cfg.RailTimeout <= 0 {
		cfg.RailTimeout = 30 * time.Second
	}
	return &PayoutService{
		payoutRepo:  payoutRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		transactor:  transactor,
		ledger:      ledger,
		rail:        rail,
		locker:      locker,
		notifier:    newNotifier(publisher, logger),
		cfg:         cfg,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate reports whether the author can request a payout now. The author
// is eligible when the balance is positive and no request is pending.
func (s *PayoutService) Evaluate(ctx context.Context, authorID string) (*model.Eligibility, error) {
	asOf, err := s.ledgerRepo.LastSequence(ctx, authorID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledgerRepo.Balance(ctx, authorID, &asOf)
	if err != nil {
		return nil, err
	}
	pending, err := s.payoutRepo.FindPending(ctx, authorID)
	if err != nil {
		return nil, err
	}

	eligibility := &model.Eligibility{
		AuthorID:     authorID,
		Eligible:     balance > 0 && pending == nil,
		Amount:       balance,
		Currency:     s.ledger.Currency(),
		AsOfSequence: asOf,
	}
	if pending != nil {
		eligibility.PendingPayoutID = &pending.ID
	}
	return eligibility, nil
}

// RequestPayout opens a pending request for amount. At most one request per
// author is pending at a time.
func (s *PayoutService) RequestPayout(ctx context.Context, authorID string, amount int64) (*model.PayoutRequest, error) {
	if amount <= 0 || amount < s.cfg.MinimumAmount {
		return nil, &domainErrors.InvalidPayoutAmountError{Amount: amount, Minimum: max(s.cfg.MinimumAmount, 1)}
	}

	release, err := s.locker.Acquire(ctx, authorKey(authorID))
	if err != nil {
		return nil, err
	}
	defer release()

	var payout *model.PayoutRequest
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.payoutRepo.FindPending(ctx, authorID)
		if err != nil {
			return err
		}
		if pending != nil {
			return domainErrors.ErrPayoutInProgress
		}

		last, err := s.ledgerRepo.LastSequence(ctx, authorID)
		if err != nil {
			return err
		}
		balance, err := s.ledgerRepo.Balance(ctx, authorID, &last)
		if err != nil {
			return err
		}
		if amount > balance {
			return domainErrors.NewInsufficientBalanceError(amount, max(balance, 0))
		}

		from := int64(1)
		settled, err := s.payoutRepo.LastSettled(ctx, authorID)
		if err != nil {
			return err
		}
		if settled != nil {
			from = settled.LedgerToSequence + 1
		}

		payout = &model.PayoutRequest{
			ID:                 uuid.New(),
			AuthorID:           authorID,
			Amount:             amount,
			Currency:           s.ledger.Currency(),
			Status:             model.PayoutStatusPending,
			LedgerFromSequence: from,
			LedgerToSequence:   last,
		}
		return s.payoutRepo.Create(ctx, payout)
	})
	if err != nil {
		apperrors.LogError(s.logger, err, "Payout request refused",
			zap.String("author_id", authorID),
			zap.Int64("amount", amount))
		return nil, err
	}

	s.logger.Info("Payout requested",
		zap.String("payout_id", payout.ID.String()),
		zap.String("author_id", authorID),
		zap.Int64("amount", amount))
	s.notifier.publish(ctx, ChannelPayoutRequested, newPayoutChanged(payout))

	return payout, nil
}

// SettlePayout transfers a pending request through the payment rail and, on
// success, marks it settled together with its offsetting debit. A failed
// transfer rejects the request and appends nothing.
func (s *PayoutService) SettlePayout(ctx context.Context, requestID uuid.UUID) (*model.PayoutRequest, error) {
	payout, err := s.payoutRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		zap.String("payout_id", payout.ID.String()),
		zap.String("author_id", payout.AuthorID))

	release, err := s.locker.Acquire(ctx, authorKey(payout.AuthorID))
	if err != nil {
		return nil, err
	}
	defer release()

	// re-read under the author lock
	payout, err = s.payoutRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if payout.Status != model.PayoutStatusPending {
		return nil, domainErrors.ErrPayoutNotPending
	}

	balance, err := s.ledgerRepo.Balance(ctx, payout.AuthorID, nil)
	if err != nil {
		return nil, err
	}
	if balance < payout.Amount {
		return s.rejectLocked(ctx, payout, fmt.Sprintf("balance %d no longer covers payout", balance), logger)
	}

	account, err := s.accountRepo.GetByAuthorID(ctx, payout.AuthorID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrPayoutAccountNotFound) {
			return s.rejectLocked(ctx, payout, err.Error(), logger)
		}
		return nil, err
	}

	railCtx, cancel := context.WithTimeout(ctx, s.cfg.RailTimeout)
	transfer, err := s.rail.Transfer(railCtx, &provider.TransferRequest{
		IdempotencyKey: payout.ID.String(),
		AuthorID:       payout.AuthorID,
		Destination:    account.ProviderAccountID,
		Amount:         payout.Amount,
		Currency:       payout.Currency,
	})
	cancel()
	if err != nil {
		logger.Warn("Payment rail transfer failed", zap.Error(err))
		return s.rejectLocked(ctx, payout, fmt.Sprintf("transfer failed: %v", err), logger)
	}

	settledAt := s.now()
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.payoutRepo.GetByID(ctx, payout.ID)
		if err != nil {
			return err
		}
		if locked.Status != model.PayoutStatusPending {
			return domainErrors.ErrPayoutNotPending
		}

		debit, err := s.ledger.Append(ctx, model.LedgerEntryInput{
			AuthorID:    locked.AuthorID,
			Kind:        model.EntryKindDebit,
			Amount:      -locked.Amount,
			Currency:    locked.Currency,
			PayoutID:    &locked.ID,
			Description: fmt.Sprintf("payout %s via transfer %s", locked.ID, transfer.TransferID),
		})
		if err != nil {
			return err
		}

		if err := s.payoutRepo.MarkSettled(ctx, locked.ID, transfer.TransferID, debit.Sequence, settledAt); err != nil {
			return err
		}

		locked.Status = model.PayoutStatusSettled
		locked.DebitSequence = &debit.Sequence
		locked.ProviderTransferID = &transfer.TransferID
		locked.SettledAt = &settledAt
		payout = locked
		return nil
	})
	if err != nil {
		logger.Error("Transfer succeeded but settlement was not recorded",
			zap.String("transfer_id", transfer.TransferID),
			zap.Error(err))
		return nil, err
	}

	logger.Info("Payout settled",
		zap.String("transfer_id", transfer.TransferID),
		zap.Int64("amount", payout.Amount),
		zap.Int64("sequence", *payout.DebitSequence))
	s.notifier.publish(ctx, ChannelPayoutSettled, newPayoutChanged(payout))

	return payout, nil
}

// RejectPayout closes a pending request without touching the ledger
func (s *PayoutService) RejectPayout(ctx context.Context, requestID uuid.UUID, reason string) (*model.PayoutRequest, error) {
	payout, err := s.payoutRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, authorKey(payout.AuthorID))
	if err != nil {
		return nil, err
	}
	defer release()

	logger := s.logger.With(
		zap.String("payout_id", payout.ID.String()),
		zap.String("author_id", payout.AuthorID))
	return s.rejectLocked(ctx, payout, reason, logger)
}

func (s *PayoutService) rejectLocked(ctx context.Context, payout *model.PayoutRequest, reason string, logger *zap.Logger) (*model.PayoutRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "rejected"
	}

	rejectedAt := s.now()
	if err := s.payoutRepo.MarkRejected(ctx, payout.ID, reason, rejectedAt); err != nil {
		return nil, err
	}

	rejected := *payout
	rejected.Status = model.PayoutStatusRejected
	rejected.RejectReason = &reason
	rejected.RejectedAt = &rejectedAt

	logger.Info("Payout rejected", zap.String("reason", reason))
	s.notifier.publish(ctx, ChannelPayoutRejected, newPayoutChanged(&rejected))

	return &rejected, nil
}

func (s *PayoutService) GetPayout(ctx context.Context, requestID uuid.UUID) (*model.PayoutRequest, error) {
	return s.payoutRepo.GetByID(ctx, requestID)
}

func (s *PayoutService) ListPayouts(ctx context.Context, authorID string, params entity.PaginationParams) (*entity.Page[*model.PayoutRequest], error) {
	params.Validate()
	payouts, total, err := s.payoutRepo.ListByAuthor(ctx, authorID, params)
	if err != nil {
		return nil, err
	}
	return entity.NewPage(payouts, params, total), nil
}

// SetPayoutAccount registers where the author's payouts are transferred
func (s *PayoutService) SetPayoutAccount(ctx context.Context, authorID, providerAccountID string) (*model.PayoutAccount, error) {
	providerAccountID = strings.TrimSpace(providerAccountID)
	if providerAccountID == "" {
		return nil, domainErrors.ErrPayoutAccountRequired
	}

	account := &model.PayoutAccount{
		AuthorID:          authorID,
		ProviderAccountID: providerAccountID,
	}
	if err := s.accountRepo.Upsert(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Payout account registered",
		zap.String("author_id", authorID))
	return account, nil
}

func (s *PayoutService) GetPayoutAccount(ctx context.Context, authorID string) (*model.PayoutAccount, error) {
	return s.accountRepo.GetByAuthorID(ctx, authorID)
}
