package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

// revenue_share is stored as decimal(5,4)
const revenueSharePlaces = 4

// PlanService is the plan registry. Plan versions are immutable and never
// deleted; subscriptions resolve their terms by (id, version).
type PlanService struct {
	planRepo   domainRepo.PlanRepository
	transactor domainRepo.Transactor
	locker     KeyLocker
	validate   *validator.Validate
	currency   string
	logger     *zap.Logger
	now        func() time.Time
}

// NewPlanService creates a new plan service
func NewPlanService(
	planRepo domainRepo.PlanRepository,
	transactor domainRepo.Transactor,
	locker KeyLocker,
	currency string,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		planRepo:   planRepo,
		transactor: transactor,
		locker:     locker,
		validate:   validator.New(),
		currency:   strings.ToLower(currency),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreatePlan registers a plan. With spec.PlanID set it adds the next version
// of that plan and retires the active one in the same transaction.
func (s *PlanService) CreatePlan(ctx context.Context, spec model.PlanSpec) (*model.Plan, error) {
	if err := s.checkSpec(&spec); err != nil {
		return nil, err
	}

	plan := &model.Plan{
		AuthorID:        spec.AuthorID,
		Name:            spec.Name,
		Price:           spec.Price,
		Currency:        spec.Currency,
		Interval:        spec.Interval,
		RevenueShare:    spec.RevenueShare,
		ProviderPriceID: spec.ProviderPriceID,
		Active:          true,
	}

	if spec.PlanID == nil {
		plan.ID = uuid.New()
		plan.Version = 1
		if err := s.planRepo.Create(ctx, plan); err != nil {
			return nil, err
		}
		s.logger.Info("Plan created",
			zap.String("plan_id", plan.ID.String()),
			zap.String("author_id", plan.AuthorID),
			zap.Int64("price", plan.Price),
			zap.String("revenue_share", plan.RevenueShare.String()))
		return plan, nil
	}

	release, err := s.locker.Acquire(ctx, planKey(*spec.PlanID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		latest, err := s.planRepo.GetLatest(ctx, *spec.PlanID)
		if err != nil {
			return err
		}
		if latest.AuthorID != spec.AuthorID {
			return &domainErrors.InvalidPlanSpecError{Reason: "a new version cannot change the plan's author"}
		}

		if _, err := s.planRepo.Retire(ctx, latest.ID, nil, s.now()); err != nil {
			return err
		}

		plan.ID = latest.ID
		plan.Version = latest.Version + 1
		return s.planRepo.Create(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Plan version created",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("version", plan.Version),
		zap.Int64("price", plan.Price),
		zap.String("revenue_share", plan.RevenueShare.String()))

	return plan, nil
}

func (s *PlanService) checkSpec(spec *model.PlanSpec) error {
	spec.Currency = strings.ToLower(strings.TrimSpace(spec.Currency))
	spec.Interval = model.BillingInterval(strings.ToLower(string(spec.Interval)))

	if err := s.validate.Struct(spec); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &domainErrors.InvalidPlanSpecError{
				Reason: fmt.Sprintf("%s failed the %q rule", strings.ToLower(fe.Field()), fe.Tag()),
			}
		}
		return &domainErrors.InvalidPlanSpecError{Reason: err.Error()}
	}

	share := spec.RevenueShare
	if !share.GreaterThan(decimal.Zero) || share.GreaterThan(decimal.NewFromInt(1)) {
		return &domainErrors.InvalidPlanSpecError{Reason: fmt.Sprintf("revenue share %s is outside (0, 1]", share)}
	}
	if !share.Equal(share.Truncate(revenueSharePlaces)) {
		return &domainErrors.InvalidPlanSpecError{Reason: "revenue share has more than 4 decimal places"}
	}
	if spec.Currency != s.currency {
		return &domainErrors.InvalidPlanSpecError{
			Reason: fmt.Sprintf("currency %q does not match ledger currency %q", spec.Currency, s.currency),
		}
	}
	return nil
}

// RetirePlan stops offering every version of a plan. Existing subscriptions
// keep resolving their version.
func (s *PlanService) RetirePlan(ctx context.Context, id uuid.UUID) error {
	versions, err := s.planRepo.ListVersions(ctx, id)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return domainErrors.ErrPlanNotFound
	}

	retired, err := s.planRepo.Retire(ctx, id, nil, s.now())
	if err != nil {
		return err
	}

	s.logger.Info("Plan retired",
		zap.String("plan_id", id.String()),
		zap.Int64("versions_retired", retired))
	return nil
}

// GetPlan resolves the exact terms of a plan version, active or retired
func (s *PlanService) GetPlan(ctx context.Context, id uuid.UUID, version int) (*model.Plan, error) {
	return s.planRepo.Get(ctx, id, version)
}

func (s *PlanService) ListActivePlans(ctx context.Context) ([]*model.Plan, error) {
	return s.planRepo.ListActive(ctx)
}

func (s *PlanService) ListVersions(ctx context.Context, id uuid.UUID) ([]*model.Plan, error) {
	versions, err := s.planRepo.ListVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, domainErrors.ErrPlanNotFound
	}
	return versions, nil
}
