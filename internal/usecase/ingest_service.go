package usecase

import (
	"context"
	"errors"
	"fmt"
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

// RawEvent is a webhook delivery as received
type RawEvent struct {
	Payload   []byte
	Signature string
}

// Outcome is how an ingested event was handled
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	// OutcomeDuplicate means the event was already handled; nothing changed
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeIgnored means the event type has no handler; it is stored only
	OutcomeIgnored Outcome = "ignored"
	// OutcomeRejected means the event can never apply and was recorded as rejected
	OutcomeRejected Outcome = "rejected"
	// OutcomeDeferred means the subscription is not known yet; the event is retried later
	OutcomeDeferred Outcome = "deferred"
)

// IngestResult describes the handling of one event
type IngestResult struct {
	Outcome        Outcome                 `json:"outcome"`
	EventID        int64                   `json:"event_id,omitempty"`
	ExternalID     string                  `json:"external_id"`
	Kind           model.EventKind         `json:"kind"`
	SubscriptionID *uuid.UUID              `json:"subscription_id,omitempty"`
	State          model.SubscriptionState `json:"state,omitempty"`
	Credited       int64                   `json:"credited,omitempty"`
	Reason         string                  `json:"reason,omitempty"`
}

// ReplaySummary counts the outcomes of one replay pass
type ReplaySummary struct {
	Scanned    int `json:"scanned"`
	Processed  int `json:"processed"`
	Rejected   int `json:"rejected"`
	Deferred   int `json:"deferred"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// IngestConfig holds the retry policy for events that cannot apply yet
type IngestConfig struct {
	MaxAttempts int
	BatchSize   int
}

// IngestService turns verified provider events into subscription transitions
// and ledger credits, exactly once per external event id.
type IngestService struct {
	source           provider.EventSource
	eventRepo        domainRepo.PaymentEventRepository
	subscriptionRepo domainRepo.SubscriptionRepository
	planRepo         domainRepo.PlanRepository
	transactor       domainRepo.Transactor
	ledger           *LedgerService
	locker           KeyLocker
	notifier         *notifier
	cfg              IngestConfig
	logger           *zap.Logger
	now              func() time.Time
}

// NewIngestService creates a new ingest service
func NewIngestService(
	source provider.EventSource,
	eventRepo domainRepo.PaymentEventRepository,
	subscriptionRepo domainRepo.SubscriptionRepository,
	planRepo domainRepo.PlanRepository,
	transactor domainRepo.Transactor,
	ledger *LedgerService,
	locker KeyLocker,
	publisher messaging.Publisher,
	cfg IngestConfig,
	logger *zap.Logger,
) *IngestService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &IngestService{
		source:           source,
		eventRepo:        eventRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		transactor:       transactor,
		ledger:           ledger,
		locker:           locker,
		notifier:         newNotifier(publisher, logger),
		cfg:              cfg,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Ingest verifies, stores and applies one provider event. Redelivery of an
// event that was already handled returns OutcomeDuplicate. An error means
// the event may not have been applied and the delivery should be retried.
func (s *IngestService) Ingest(ctx context.Context, raw RawEvent) (*IngestResult, error) {
	normalized, err := s.source.Normalize(raw.Payload, raw.Signature)
	if err != nil {
		s.logger.Warn("Rejected unverifiable provider event",
			zap.String("provider", s.source.GetProviderName()),
			zap.Error(err))
		return nil, err
	}

	record := newPaymentEventRecord(normalized)
	stored, created, err := s.eventRepo.Save(ctx, record)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		zap.String("event_id", stored.ExternalID),
		zap.String("event_type", stored.EventType),
		zap.Int64("event_seq", stored.ID))

	if !created {
		if stored.Checksum != normalized.Checksum {
			logger.Warn("Redelivered event payload differs from the stored payload",
				zap.String("stored_checksum", stored.Checksum),
				zap.String("received_checksum", normalized.Checksum))
		}
		if stored.Status.Terminal() {
			logger.Info("Duplicate provider event", zap.String("status", string(stored.Status)))
			return resultFor(stored, OutcomeDuplicate), nil
		}
		// stored earlier but never settled: apply it now
		return s.process(ctx, stored)
	}

	switch stored.Status {
	case model.EventStatusIgnored:
		logger.Info("Stored provider event with no handler")
		return resultFor(stored, OutcomeIgnored), nil
	case model.EventStatusRejected:
		logger.Warn("Stored malformed provider event", zap.String("reason", normalized.RejectReason))
		result := resultFor(stored, OutcomeRejected)
		result.Reason = normalized.RejectReason
		return result, nil
	}

	return s.process(ctx, stored)
}

func newPaymentEventRecord(e *model.NormalizedEvent) *model.PaymentEvent {
	record := &model.PaymentEvent{
		ExternalID:              e.ExternalID,
		Provider:                e.Provider,
		EventType:               e.Type,
		Kind:                    e.Kind,
		SubscriptionRef:         e.SubscriptionRef,
		ProviderSubscriptionRef: e.ProviderSubscriptionRef,
		Amount:                  e.Amount,
		Currency:                e.Currency,
		OccurredAt:              e.OccurredAt,
		PeriodStart:             e.PeriodStart,
		PeriodEnd:               e.PeriodEnd,
		Checksum:                e.Checksum,
		Payload:                 e.Payload,
		Status:                  model.EventStatusPending,
	}

	switch {
	case e.RejectReason != "":
		reason := e.RejectReason
		record.Status = model.EventStatusRejected
		record.RejectReason = &reason
	case e.Kind == model.KindUnknown || e.Kind == "":
		record.Kind = model.KindUnknown
		record.Status = model.EventStatusIgnored
	}
	return record
}

func resultFor(event *model.PaymentEvent, outcome Outcome) *IngestResult {
	result := &IngestResult{
		Outcome:    outcome,
		EventID:    event.ID,
		ExternalID: event.ExternalID,
		Kind:       event.Kind,
	}
	if event.RejectReason != nil {
		result.Reason = *event.RejectReason
	}
	return result
}

// applied is what a committed transition changed
type applied struct {
	subscription *model.Subscription
	from         model.SubscriptionState
	credit       *model.LedgerEntry
}

// process applies a stored pending or failed event under the subscription
// and author locks. State change, transition log, ledger credit and event
// status commit together.
func (s *IngestService) process(ctx context.Context, event *model.PaymentEvent) (*IngestResult, error) {
	logger := s.logger.With(
		zap.String("event_id", event.ExternalID),
		zap.String("kind", string(event.Kind)),
		zap.Int64("event_seq", event.ID))

	if event.SubscriptionRef == "" {
		return s.reject(ctx, event, "event does not reference a subscription", logger)
	}

	sub, err := s.subscriptionRepo.GetByReference(ctx, event.SubscriptionRef)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			return s.deferEvent(ctx, event, err, logger)
		}
		return nil, s.fail(ctx, event, err, logger)
	}
	plan, err := s.planRepo.Get(ctx, sub.PlanID, sub.PlanVersion)
	if err != nil {
		return nil, s.fail(ctx, event, err, logger)
	}

	logger = logger.With(
		zap.String("subscription_id", sub.ID.String()),
		zap.String("author_id", plan.AuthorID))

	releaseSub, err := s.locker.Acquire(ctx, subscriptionKey(sub.ID))
	if err != nil {
		logger.Warn("Subscription lock not acquired", zap.Error(err))
		return nil, err
	}
	defer releaseSub()
	releaseAuthor, err := s.locker.Acquire(ctx, authorKey(plan.AuthorID))
	if err != nil {
		logger.Warn("Author lock not acquired", zap.Error(err))
		return nil, err
	}
	defer releaseAuthor()

	var result applied
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.eventRepo.GetByID(ctx, event.ID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return domainErrors.ErrEventAlreadyHandled
		}

		locked, err := s.subscriptionRepo.GetByID(ctx, sub.ID)
		if err != nil {
			return err
		}
		result, err = s.apply(ctx, current, locked, plan)
		if err != nil {
			return err
		}
		return s.eventRepo.MarkProcessed(ctx, current.ID)
	})
	if err != nil {
		var illegal *domainErrors.IllegalTransitionError
		var invalid *domainErrors.InvalidEntryError
		switch {
		case errors.Is(err, domainErrors.ErrEventAlreadyHandled):
			logger.Info("Event was handled concurrently")
			return resultFor(event, OutcomeDuplicate), nil
		case errors.As(err, &illegal):
			illegal.SubscriptionID = sub.ID
			logger.Warn("Illegal subscription transition; event recorded as rejected",
				zap.String("state", illegal.From))
			return s.reject(ctx, event, illegal.Error(), logger)
		case errors.As(err, &invalid):
			return s.reject(ctx, event, invalid.Error(), logger)
		}
		return nil, s.fail(ctx, event, err, logger)
	}

	s.announce(ctx, event, result)

	out := resultFor(event, OutcomeProcessed)
	out.SubscriptionID = &result.subscription.ID
	out.State = result.subscription.State
	if result.credit != nil {
		out.Credited = result.credit.Amount
	}
	logger.Info("Payment event processed",
		zap.String("from", string(result.from)),
		zap.String("to", string(result.subscription.State)),
		zap.Int64("credited", out.Credited))
	return out, nil
}

// apply runs the state table for one event inside the caller's transaction
func (s *IngestService) apply(ctx context.Context, event *model.PaymentEvent, sub *model.Subscription, plan *model.Plan) (applied, error) {
	from := sub.State
	to, effect, err := Transition(from, event.Kind)
	if err != nil {
		return applied{}, err
	}

	out := applied{subscription: sub, from: from}

	switch effect {
	case EffectBindExternalRef:
		if event.ProviderSubscriptionRef != "" {
			ref := event.ProviderSubscriptionRef
			sub.ExternalRef = &ref
		}
	case EffectCreditAuthor:
		credit := plan.Credit(event.Amount)
		if credit > 0 {
			eventID := event.ID
			out.credit, err = s.ledger.Append(ctx, model.LedgerEntryInput{
				AuthorID:       plan.AuthorID,
				Kind:           model.EntryKindCredit,
				Amount:         credit,
				Currency:       event.Currency,
				PaymentEventID: &eventID,
				SubscriptionID: &sub.ID,
				Description:    fmt.Sprintf("%s share of %d %s for %s v%d", plan.RevenueShare, event.Amount, event.Currency, plan.Name, plan.Version),
			})
			if err != nil {
				return applied{}, err
			}
		}
	}

	if event.PeriodStart != nil {
		sub.CurrentPeriodStart = event.PeriodStart
	}
	if event.PeriodEnd != nil {
		sub.CurrentPeriodEnd = event.PeriodEnd
	}
	sub.State = to

	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return applied{}, err
	}

	eventID := event.ID
	err = s.subscriptionRepo.AppendTransition(ctx, &model.SubscriptionTransition{
		SubscriptionID: sub.ID,
		FromState:      from,
		ToState:        to,
		EventKind:      event.Kind,
		PaymentEventID: &eventID,
	})
	if err != nil {
		return applied{}, err
	}

	return out, nil
}

func (s *IngestService) announce(ctx context.Context, event *model.PaymentEvent, result applied) {
	sub := result.subscription
	if result.from != sub.State {
		s.notifier.publish(ctx, ChannelSubscriptionChanged, SubscriptionStateChanged{
			SubscriptionID: sub.ID,
			SubscriberID:   sub.SubscriberID,
			From:           result.from,
			To:             sub.State,
			EventKind:      event.Kind,
		})
	}
	if result.credit != nil {
		s.notifier.publish(ctx, ChannelEarningsCredited, EarningsCredited{
			AuthorID:       result.credit.AuthorID,
			Sequence:       result.credit.Sequence,
			Amount:         result.credit.Amount,
			Currency:       result.credit.Currency,
			SubscriptionID: sub.ID,
			PaymentEventID: event.ID,
		})
	}
}

func (s *IngestService) reject(ctx context.Context, event *model.PaymentEvent, reason string, logger *zap.Logger) (*IngestResult, error) {
	if err := s.eventRepo.MarkRejected(ctx, event.ID, reason); err != nil {
		if errors.Is(err, domainErrors.ErrEventAlreadyHandled) {
			return resultFor(event, OutcomeDuplicate), nil
		}
		return nil, err
	}
	logger.Warn("Payment event rejected", zap.String("reason", reason))

	result := resultFor(event, OutcomeRejected)
	result.Reason = reason
	return result, nil
}

// deferEvent keeps an event whose subscription is not known yet for a later
// replay. Providers do not guarantee delivery order.
func (s *IngestService) deferEvent(ctx context.Context, event *model.PaymentEvent, cause error, logger *zap.Logger) (*IngestResult, error) {
	status, err := s.eventRepo.MarkFailed(ctx, event.ID, cause, s.cfg.MaxAttempts)
	if err != nil {
		if errors.Is(err, domainErrors.ErrEventAlreadyHandled) {
			return resultFor(event, OutcomeDuplicate), nil
		}
		return nil, err
	}

	if status == model.EventStatusRejected {
		logger.Warn("Payment event rejected after exhausting retries",
			zap.String("subscription_ref", event.SubscriptionRef))
		result := resultFor(event, OutcomeRejected)
		result.Reason = fmt.Sprintf("subscription %s not found", event.SubscriptionRef)
		return result, nil
	}

	logger.Info("Payment event deferred until its subscription is known",
		zap.String("subscription_ref", event.SubscriptionRef))
	result := resultFor(event, OutcomeDeferred)
	result.Reason = cause.Error()
	return result, nil
}

// fail records a failed attempt for a later replay and returns err
func (s *IngestService) fail(ctx context.Context, event *model.PaymentEvent, err error, logger *zap.Logger) error {
	apperrors.LogError(logger, err, "Failed to process payment event")
	if _, markErr := s.eventRepo.MarkFailed(ctx, event.ID, err, s.cfg.MaxAttempts); markErr != nil &&
		!errors.Is(markErr, domainErrors.ErrEventAlreadyHandled) {
		logger.Error("Failed to record failed processing attempt", zap.Error(markErr))
	}
	return err
}

// Replay applies stored events that are pending or due for a retry, in
// arrival order. An event that fails again is counted and skipped.
func (s *IngestService) Replay(ctx context.Context, limit int) (*ReplaySummary, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}

	events, err := s.eventRepo.ListRetryable(ctx, s.now(), limit)
	if err != nil {
		return nil, err
	}

	summary := &ReplaySummary{Scanned: len(events)}
	for _, event := range events {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		result, err := s.process(ctx, event)
		if err != nil {
			summary.Failed++
			s.logger.Warn("Replay of payment event failed",
				zap.String("event_id", event.ExternalID),
				zap.Error(err))
			continue
		}

		switch result.Outcome {
		case OutcomeProcessed:
			summary.Processed++
		case OutcomeRejected:
			summary.Rejected++
		case OutcomeDeferred:
			summary.Deferred++
		case OutcomeDuplicate:
			summary.Duplicates++
		}
	}

	if summary.Scanned > 0 {
		s.logger.Info("Payment event replay finished",
			zap.Int("scanned", summary.Scanned),
			zap.Int("processed", summary.Processed),
			zap.Int("rejected", summary.Rejected),
			zap.Int("deferred", summary.Deferred),
			zap.Int("failed", summary.Failed))
	}
	return summary, nil
}

// ListEvents lists stored events, optionally filtered by status
func (s *IngestService) ListEvents(ctx context.Context, status model.EventStatus, params entity.PaginationParams) (*entity.Page[*model.PaymentEvent], error) {
	params.Validate()
	events, total, err := s.eventRepo.List(ctx, status, params)
	if err != nil {
		return nil, err
	}
	return entity.NewPage(events, params, total), nil
}
