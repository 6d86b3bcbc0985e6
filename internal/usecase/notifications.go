package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/pkg/messaging"
)

// Channels published to the notification collaborator
const (
	ChannelEarningsCredited    = "earnings.credited"
	ChannelSubscriptionChanged = "subscription.state_changed"
	ChannelPayoutRequested     = "payout.requested"
	ChannelPayoutSettled       = "payout.settled"
	ChannelPayoutRejected      = "payout.rejected"
)

const notificationPublishTimeout = 2 * time.Second

// KeyLocker grants exclusive holds on a key such as one subscription or author.
type KeyLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Lock order is subscription before author. Plan keys are never held with either.
func subscriptionKey(id uuid.UUID) string { return "subscription:" + id.String() }
func authorKey(authorID string) string    { return "author:" + authorID }
func planKey(id uuid.UUID) string         { return "plan:" + id.String() }

// EarningsCredited is published after an invoice credit commits
type EarningsCredited struct {
	AuthorID       string    `json:"author_id"`
	Sequence       int64     `json:"sequence"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	PaymentEventID int64     `json:"payment_event_id"`
}

// SubscriptionStateChanged is published when a subscription leaves its state
type SubscriptionStateChanged struct {
	SubscriptionID uuid.UUID               `json:"subscription_id"`
	SubscriberID   string                  `json:"subscriber_id"`
	From           model.SubscriptionState `json:"from"`
	To             model.SubscriptionState `json:"to"`
	EventKind      model.EventKind         `json:"event_kind"`
}

// PayoutChanged is published on every payout request status change
type PayoutChanged struct {
	PayoutID uuid.UUID          `json:"payout_id"`
	AuthorID string             `json:"author_id"`
	Amount   int64              `json:"amount"`
	Currency string             `json:"currency"`
	Status   model.PayoutStatus `json:"status"`
	Reason   string             `json:"reason,omitempty"`
}

func newPayoutChanged(p *model.PayoutRequest) PayoutChanged {
	msg := PayoutChanged{
		PayoutID: p.ID,
		AuthorID: p.AuthorID,
		Amount:   p.Amount,
		Currency: p.Currency,
		Status:   p.Status,
	}
	if p.RejectReason != nil {
		msg.Reason = *p.RejectReason
	}
	return msg
}

// notifier publishes after commit. Delivery is best-effort: a failure is
// logged and never undoes the committed change.
type notifier struct {
	publisher messaging.Publisher
	logger    *zap.Logger
}

func newNotifier(publisher messaging.Publisher, logger *zap.Logger) *notifier {
	if publisher == nil {
		publisher = messaging.NewNoopPublisher()
	}
	return &notifier{publisher: publisher, logger: logger}
}

func (n *notifier) publish(ctx context.Context, channel string, message interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationPublishTimeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, channel, message); err != nil {
		n.logger.Warn("Failed to publish notification",
			zap.String("channel", channel),
			zap.Error(err))
	}
}
