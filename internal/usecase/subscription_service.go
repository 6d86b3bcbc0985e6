package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/provider"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
	"github.com/dheerajsingh9334/mern-Blog/pkg/messaging"
)

// cancellationRequested is the transition log kind for a cancellation made
// before the provider knew the subscription
const cancellationRequested model.EventKind = "cancellation_requested"

// CheckoutResult is a pending subscription and where to pay for it
type CheckoutResult struct {
	Subscription *model.Subscription `json:"subscription"`
	SessionID    string              `json:"session_id"`
	CheckoutURL  string              `json:"checkout_url"`
}

// SubscriptionService starts and ends subscriptions on behalf of subscribers.
// Provider events drive every other state change.
type SubscriptionService struct {
	subscriptionRepo domainRepo.SubscriptionRepository
	planRepo         domainRepo.PlanRepository
	transactor       domainRepo.Transactor
	checkout         provider.CheckoutProvider
	locker           KeyLocker
	notifier         *notifier
	logger           *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptionRepo domainRepo.SubscriptionRepository,
	planRepo domainRepo.PlanRepository,
	transactor domainRepo.Transactor,
	checkout provider.CheckoutProvider,
	locker KeyLocker,
	publisher messaging.Publisher,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		transactor:       transactor,
		checkout:         checkout,
		locker:           locker,
		notifier:         newNotifier(publisher, logger),
		logger:           logger,
	}
}

// BeginCheckout creates a pending subscription to a plan version and a
// provider checkout session for it. An abandoned pending subscription to the
// same version is reused and its previous session expired, so at most one
// session per subscription can be paid.
func (s *SubscriptionService) BeginCheckout(ctx context.Context, subscriberID string, planID uuid.UUID, version int) (*CheckoutResult, error) {
	plan, err := s.planRepo.Get(ctx, planID, version)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, domainErrors.ErrPlanRetired
	}

	sub := &model.Subscription{
		ID:           uuid.New(),
		SubscriberID: subscriberID,
		PlanID:       plan.ID,
		PlanVersion:  plan.Version,
		State:        model.StatePendingActivation,
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		if !errors.Is(err, domainErrors.ErrActiveSubscriptionExists) {
			return nil, err
		}
		existing, findErr := s.findPending(ctx, subscriberID, plan)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, err
		}
		sub = existing
		if err := s.expireCheckout(ctx, sub); err != nil {
			return nil, err
		}
	}

	priceID := ""
	if plan.ProviderPriceID != nil {
		priceID = *plan.ProviderPriceID
	}
	session, err := s.checkout.CreateCheckout(ctx, &provider.CheckoutRequest{
		SubscriptionID:  sub.ID,
		SubscriberID:    subscriberID,
		ProviderPriceID: priceID,
		PlanName:        plan.Name,
		Amount:          plan.Price,
		Currency:        plan.Currency,
		Interval:        plan.Interval,
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
		return nil, err
	}

	sub.CheckoutSessionID = &session.SessionID
	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Checkout started",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("subscriber_id", subscriberID),
		zap.String("plan_id", plan.ID.String()),
		zap.Int("plan_version", plan.Version))

	return &CheckoutResult{
		Subscription: sub,
		SessionID:    session.SessionID,
		CheckoutURL:  session.URL,
	}, nil
}

// expireCheckout closes the subscription's open checkout session, if any
func (s *SubscriptionService) expireCheckout(ctx context.Context, sub *model.Subscription) error {
	if sub.CheckoutSessionID == nil {
		return nil
	}
	if err := s.checkout.ExpireCheckout(ctx, *sub.CheckoutSessionID); err != nil {
		s.logger.Warn("Failed to expire checkout session",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("session_id", *sub.CheckoutSessionID),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *SubscriptionService) findPending(ctx context.Context, subscriberID string, plan *model.Plan) (*model.Subscription, error) {
	subs, err := s.subscriptionRepo.ListBySubscriber(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.PlanID == plan.ID && sub.PlanVersion == plan.Version && sub.State == model.StatePendingActivation {
			return sub, nil
		}
	}
	return nil, nil
}

// RequestCancellation asks the provider to end a subscription at the end of
// its period. A subscription the provider never activated is canceled here,
// after its checkout session is expired.
func (s *SubscriptionService) RequestCancellation(ctx context.Context, subscriptionID uuid.UUID, subscriberID string) (*model.Subscription, error) {
	sub, err := s.GetSubscription(ctx, subscriptionID, subscriberID)
	if err != nil {
		return nil, err
	}
	if sub.State == model.StateCanceled {
		return nil, &domainErrors.IllegalTransitionError{
			SubscriptionID: sub.ID,
			From:           string(sub.State),
			Event:          string(cancellationRequested),
		}
	}

	if sub.ExternalRef != nil && !sub.CancellationRequested {
		if err := s.checkout.CancelAtPeriodEnd(ctx, *sub.ExternalRef); err != nil {
			s.logger.Error("Failed to request provider cancellation",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			return nil, err
		}
	}
	if sub.ExternalRef == nil {
		if err := s.expireCheckout(ctx, sub); err != nil {
			return nil, err
		}
	}

	release, err := s.locker.Acquire(ctx, subscriptionKey(sub.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	var from model.SubscriptionState
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.subscriptionRepo.GetByID(ctx, sub.ID)
		if err != nil {
			return err
		}
		from = locked.State

		if locked.ExternalRef == nil {
			to, _, err := Transition(locked.State, model.KindSubscriptionCanceled)
			if err != nil {
				return err
			}
			locked.State = to
			if err := s.subscriptionRepo.AppendTransition(ctx, &model.SubscriptionTransition{
				SubscriptionID: locked.ID,
				FromState:      from,
				ToState:        to,
				EventKind:      cancellationRequested,
			}); err != nil {
				return err
			}
		}
		locked.CancellationRequested = true
		sub = locked
		return s.subscriptionRepo.Update(ctx, locked)
	})
	if err != nil {
		var illegal *domainErrors.IllegalTransitionError
		if errors.As(err, &illegal) {
			illegal.SubscriptionID = sub.ID
		}
		return nil, err
	}

	if from != sub.State {
		s.notifier.publish(ctx, ChannelSubscriptionChanged, SubscriptionStateChanged{
			SubscriptionID: sub.ID,
			SubscriberID:   sub.SubscriberID,
			From:           from,
			To:             sub.State,
			EventKind:      cancellationRequested,
		})
	}

	s.logger.Info("Subscription cancellation requested",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("state", string(sub.State)))

	return sub, nil
}

// GetSubscription returns a subscription owned by subscriberID. Another
// subscriber's subscription is reported as not found.
func (s *SubscriptionService) GetSubscription(ctx context.Context, id uuid.UUID, subscriberID string) (*model.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubscriberID != subscriberID {
		return nil, domainErrors.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *SubscriptionService) ListTransitions(ctx context.Context, id uuid.UUID, subscriberID string) ([]*model.SubscriptionTransition, error) {
	if _, err := s.GetSubscription(ctx, id, subscriberID); err != nil {
		return nil, err
	}
	return s.subscriptionRepo.ListTransitions(ctx, id)
}

func (s *SubscriptionService) ListBySubscriber(ctx context.Context, subscriberID string) ([]*model.Subscription, error) {
	return s.subscriptionRepo.ListBySubscriber(ctx, subscriberID)
}
