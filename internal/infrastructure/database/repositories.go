package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dheerajsingh9334/mern-Blog/internal/adapter/repository"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Transactor    domainRepo.Transactor
	Plan          domainRepo.PlanRepository
	Subscription  domainRepo.SubscriptionRepository
	PaymentEvent  domainRepo.PaymentEventRepository
	Ledger        domainRepo.LedgerRepository
	Payout        domainRepo.PayoutRepository
	PayoutAccount domainRepo.PayoutAccountRepository
	AuditLog      domainRepo.AuditLogRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Transactor:    repository.NewTransactor(db, logger),
		Plan:          repository.NewPlanRepository(db, logger),
		Subscription:  repository.NewSubscriptionRepository(db, logger),
		PaymentEvent:  repository.NewPaymentEventRepository(db, logger),
		Ledger:        repository.NewLedgerRepository(db, logger),
		Payout:        repository.NewPayoutRepository(db, logger),
		PayoutAccount: repository.NewPayoutAccountRepository(db, logger),
		AuditLog:      repository.NewAuditLogRepository(db, logger),
	}
}
