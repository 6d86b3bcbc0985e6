package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/provider"
)

// Client wraps the Stripe API for checkout, cancellation and Connect transfers.
type Client struct {
	api       *client.API
	clientURL string
	logger    *zap.Logger
}

// NewClient creates a Stripe client. backends may be nil for the live API.
func NewClient(secretKey, clientURL string, backends *stripe.Backends, logger *zap.Logger) *Client {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Client{
		api:       api,
		clientURL: clientURL,
		logger:    logger,
	}
}

// CreateCheckout opens a subscription-mode Checkout session. The subscription
// id goes out as client_reference_id and comes back on checkout.session.completed.
func (c *Client) CreateCheckout(ctx context.Context, req *provider.CheckoutRequest) (*provider.CheckoutSession, error) {
	lineItem := &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
	}
	if req.ProviderPriceID != "" {
		lineItem.Price = stripe.String(req.ProviderPriceID)
	} else {
		lineItem.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(req.Currency),
			UnitAmount: stripe.Int64(req.Amount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(req.PlanName),
			},
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(string(req.Interval)),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:         []*stripe.CheckoutSessionLineItemParams{lineItem},
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.SubscriptionID.String()),
		SuccessURL:        stripe.String(c.clientURL + "/subscriptions/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(c.clientURL + "/subscriptions/cancel"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"subscription_id": req.SubscriptionID.String(),
				"subscriber_id":   req.SubscriberID,
			},
		},
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		c.logger.Error("Failed to create checkout session",
			zap.String("subscription_id", req.SubscriptionID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &provider.CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// CancelAtPeriodEnd sets cancel_at_period_end on the Stripe subscription
func (c *Client) CancelAtPeriodEnd(ctx context.Context, externalRef string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	updated, err := c.api.Subscriptions.Update(externalRef, params)
	if err != nil {
		c.logger.Error("Failed to cancel subscription",
			zap.String("external_ref", externalRef),
			zap.Error(err))
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	c.logger.Info("Subscription set to cancel at period end",
		zap.String("external_ref", updated.ID),
		zap.Bool("cancel_at_period_end", updated.CancelAtPeriodEnd))
	return nil
}

// ExpireCheckout expires an open Checkout session. Stripe refuses to expire a
// session that is not open, so on failure the session status decides.
func (c *Client) ExpireCheckout(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	_, err := c.api.CheckoutSessions.Expire(sessionID, params)
	if err == nil {
		c.logger.Info("Checkout session expired", zap.String("session_id", sessionID))
		return nil
	}

	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx
	if session, getErr := c.api.CheckoutSessions.Get(sessionID, getParams); getErr == nil {
		switch session.Status {
		case stripe.CheckoutSessionStatusExpired:
			return nil
		case stripe.CheckoutSessionStatusComplete:
			return domainErrors.ErrCheckoutCompleted
		}
	}

	c.logger.Error("Failed to expire checkout session",
		zap.String("session_id", sessionID),
		zap.Error(err))
	return fmt.Errorf("failed to expire checkout session: %w", err)
}

// Transfer sends a Connect transfer to the author's connected account.
// Stripe deduplicates retries on the idempotency key.
func (c *Client) Transfer(ctx context.Context, req *provider.TransferRequest) (*provider.TransferResult, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		Destination:   stripe.String(req.Destination),
		TransferGroup: stripe.String("payout_" + req.IdempotencyKey),
	}
	params.AddMetadata("payout_id", req.IdempotencyKey)
	params.AddMetadata("author_id", req.AuthorID)
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.Context = ctx

	transfer, err := c.api.Transfers.New(params)
	if err != nil {
		c.logger.Error("Transfer failed",
			zap.String("payout_id", req.IdempotencyKey),
			zap.String("author_id", req.AuthorID),
			zap.Error(err))
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	return &provider.TransferResult{TransferID: transfer.ID}, nil
}
