package config

import "time"

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	ClientURL   string `mapstructure:"client_url"`
	// Currency is the single ledger currency; plans and events must match it.
	Currency            string       `mapstructure:"currency"`
	StripeSecretKey     string       `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string       `mapstructure:"stripe_webhook_secret"`
	Replay              ReplayConfig `mapstructure:"replay"`
	Payout              PayoutConfig `mapstructure:"payout"`
	Lock                LockConfig   `mapstructure:"lock"`
}

// ReplayConfig controls redelivery of deferred payment events.
type ReplayConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	BatchSize   int           `mapstructure:"batch_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type PayoutConfig struct {
	// MinimumAmount in minor units
	MinimumAmount int64         `mapstructure:"minimum_amount"`
	RailTimeout   time.Duration `mapstructure:"rail_timeout"`
}

type LockConfig struct {
	// Backend is local or redis
	Backend string        `mapstructure:"backend"`
	Timeout time.Duration `mapstructure:"timeout"`
	TTL     time.Duration `mapstructure:"ttl"`
}
