package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/config"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/provider"
	stripeProvider "github.com/dheerajsingh9334/mern-Blog/internal/infrastructure/provider/stripe"
)

// Factory builds the provider adapters from service configuration
type Factory struct {
	config *config.ServiceConfig
	logger *zap.Logger
	client *stripeProvider.Client
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.ServiceConfig, logger *zap.Logger) (*Factory, error) {
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("Stripe secret key not configured")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("Stripe webhook secret not configured")
	}

	return &Factory{
		config: cfg,
		logger: logger,
		client: stripeProvider.NewClient(cfg.StripeSecretKey, cfg.ClientURL, nil, logger.Named("stripe")),
	}, nil
}

// EventSource returns the webhook verifier and normalizer
func (f *Factory) EventSource() provider.EventSource {
	return stripeProvider.NewEventNormalizer(f.config.StripeWebhookSecret, f.logger.Named("stripe"))
}

// Checkout returns the checkout and cancellation provider
func (f *Factory) Checkout() provider.CheckoutProvider {
	return f.client
}

// Rail returns the payout rail
func (f *Factory) Rail() provider.PaymentRail {
	return f.client
}
