package stripe

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

const ProviderName = "stripe"

// EventNormalizer verifies Stripe webhook signatures and maps Stripe events
// onto the pipeline's event kinds. Stripe payload shapes stay in this file.
type EventNormalizer struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewEventNormalizer creates a normalizer for the endpoint's signing secret
func NewEventNormalizer(webhookSecret string, logger *zap.Logger) *EventNormalizer {
	return &EventNormalizer{
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// GetProviderName returns the provider name
func (n *EventNormalizer) GetProviderName() string {
	return ProviderName
}

// Normalize verifies the signature and reduces the event.
//
//	checkout.session.completed    -> checkout_completed
//	invoice.paid                  -> invoice_paid
//	invoice.payment_failed        -> invoice_failed
//	customer.subscription.deleted -> subscription_canceled
//
// invoice.payment_succeeded is left unknown: Stripe sends it alongside
// invoice.paid for the same invoice.
func (n *EventNormalizer) Normalize(payload []byte, signature string) (*model.NormalizedEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		n.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		n.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrAuthenticity, err)
	}

	sum := sha256.Sum256(payload)
	normalized := &model.NormalizedEvent{
		ExternalID: event.ID,
		Provider:   ProviderName,
		Type:       string(event.Type),
		Kind:       model.KindUnknown,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
		Payload:    payload,
		Checksum:   hex.EncodeToString(sum[:]),
	}
	if event.Data == nil {
		return normalized, nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return n.malformed(normalized, model.KindCheckoutCompleted, err), nil
		}
		if session.Mode != stripe.CheckoutSessionModeSubscription {
			return normalized, nil
		}
		normalized.Kind = model.KindCheckoutCompleted
		normalized.Amount = session.AmountTotal
		normalized.Currency = normalizeCurrency(session.Currency)
		if session.Subscription != nil {
			normalized.ProviderSubscriptionRef = session.Subscription.ID
		}
		// client_reference_id carries our subscription id
		normalized.SubscriptionRef = session.ClientReferenceID
		if normalized.SubscriptionRef == "" {
			normalized.SubscriptionRef = normalized.ProviderSubscriptionRef
		}

	case stripe.EventTypeInvoicePaid, stripe.EventTypeInvoicePaymentFailed:
		kind := model.KindInvoicePaid
		if event.Type == stripe.EventTypeInvoicePaymentFailed {
			kind = model.KindInvoiceFailed
		}

		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return n.malformed(normalized, kind, err), nil
		}
		if invoice.Subscription == nil || invoice.Subscription.ID == "" {
			// one-off invoice, not a subscription payment
			return normalized, nil
		}
		normalized.Kind = kind
		normalized.SubscriptionRef = invoice.Subscription.ID
		normalized.ProviderSubscriptionRef = invoice.Subscription.ID
		normalized.Currency = normalizeCurrency(invoice.Currency)
		if kind == model.KindInvoicePaid {
			normalized.Amount = invoice.AmountPaid
		} else {
			normalized.Amount = invoice.AmountDue
		}
		normalized.PeriodStart, normalized.PeriodEnd = invoicePeriod(&invoice)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return n.malformed(normalized, model.KindSubscriptionCanceled, err), nil
		}
		normalized.Kind = model.KindSubscriptionCanceled
		normalized.SubscriptionRef = sub.ID
		normalized.ProviderSubscriptionRef = sub.ID
		if sub.CanceledAt > 0 {
			normalized.OccurredAt = time.Unix(sub.CanceledAt, 0).UTC()
		}
	}

	return normalized, nil
}

// malformed keeps the kind but leaves no reference, so the event is
// recorded and rejected instead of crashing the pipeline.
func (n *EventNormalizer) malformed(event *model.NormalizedEvent, kind model.EventKind, err error) *model.NormalizedEvent {
	n.logger.Warn("Failed to parse webhook object",
		zap.String("event_id", event.ExternalID),
		zap.String("event_type", event.Type),
		zap.Error(err))
	event.Kind = kind
	event.RejectReason = "malformed payload: " + err.Error()
	return event
}

// invoicePeriod prefers the subscription line's service period over the
// invoice's own period, which Stripe sets to the previous cycle.
func invoicePeriod(invoice *stripe.Invoice) (*time.Time, *time.Time) {
	if invoice.Lines != nil {
		for _, line := range invoice.Lines.Data {
			if line.Period != nil && line.Period.End > 0 {
				start := time.Unix(line.Period.Start, 0).UTC()
				end := time.Unix(line.Period.End, 0).UTC()
				return &start, &end
			}
		}
	}
	if invoice.PeriodEnd > 0 {
		start := time.Unix(invoice.PeriodStart, 0).UTC()
		end := time.Unix(invoice.PeriodEnd, 0).UTC()
		return &start, &end
	}
	return nil, nil
}

func normalizeCurrency(c stripe.Currency) string {
	return strings.ToLower(string(c))
}
