package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...", zap.String("dialect", db.Dialector.Name()))

	// Auto-migrate all models
	err := db.AutoMigrate(
		&model.Plan{},
		&model.Subscription{},
		&model.SubscriptionTransition{},
		&model.PaymentEvent{},
		&model.LedgerEntry{},
		&model.PayoutRequest{},
		&model.PayoutAccount{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	// Create custom indexes and constraints
	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	// Ledger rows are append-only
	if err := createLedgerGuards(db, logger); err != nil {
		logger.Error("Failed to create ledger guards", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes that GORM doesn't handle automatically.
// Both Postgres and SQLite accept this syntax.
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		// One live subscription per subscriber and plan
		`CREATE UNIQUE INDEX IF NOT EXISTS unique_live_subscription_per_plan ON subscriptions (subscriber_id, plan_id) WHERE state <> 'canceled'`,
		// One pending payout per author
		`CREATE UNIQUE INDEX IF NOT EXISTS unique_pending_payout_per_author ON payout_requests (author_id) WHERE status = 'pending'`,
		// Replay scan
		`CREATE INDEX IF NOT EXISTS idx_payment_events_unprocessed ON payment_events (id) WHERE status IN ('pending', 'failed')`,
		// At most one active version per plan
		`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_plan_version ON plans (id) WHERE active`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createLedgerGuards installs triggers that reject UPDATE and DELETE on ledger_entries
func createLedgerGuards(db *gorm.DB, logger *zap.Logger) error {
	switch db.Dialector.Name() {
	case "postgres":
		functionSQL := `
CREATE OR REPLACE FUNCTION ledger_entries_append_only() RETURNS TRIGGER AS $$
BEGIN
    RAISE EXCEPTION 'ledger_entries is append-only: % rejected', TG_OP;
END;
$$ LANGUAGE plpgsql;`
		if err := db.Exec(functionSQL).Error; err != nil {
			return err
		}
		if err := db.Exec(`DROP TRIGGER IF EXISTS ledger_entries_append_only ON ledger_entries`).Error; err != nil {
			logger.Warn("Failed to drop existing trigger", zap.String("table", "ledger_entries"), zap.Error(err))
		}
		return db.Exec(`
CREATE TRIGGER ledger_entries_append_only
    BEFORE UPDATE OR DELETE ON ledger_entries
    FOR EACH ROW EXECUTE FUNCTION ledger_entries_append_only();`).Error

	case "sqlite":
		for _, op := range []string{"UPDATE", "DELETE"} {
			triggerSQL := fmt.Sprintf(`
CREATE TRIGGER IF NOT EXISTS ledger_entries_no_%[1]s
    BEFORE %[2]s ON ledger_entries
BEGIN
    SELECT RAISE(ABORT, 'ledger_entries is append-only');
END;`, op, op)
			if err := db.Exec(triggerSQL).Error; err != nil {
				return err
			}
		}
		return nil

	default:
		logger.Warn("No ledger guard for dialect", zap.String("dialect", db.Dialector.Name()))
		return nil
	}
}
