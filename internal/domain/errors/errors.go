// Package errors holds the coded errors of the earnings pipeline. Every
// error here implements Code() so handlers can map it to a status.
package errors

import (
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/dheerajsingh9334/mern-Blog/pkg/errors"
)

var (
	// ErrAuthenticity indicates a provider event whose signature did not verify
	ErrAuthenticity = apperrors.NewAppError(apperrors.ErrInvalidSignature, "event signature verification failed", nil)

	// ErrLockContention indicates a key lock could not be taken in time; the call is safe to retry
	ErrLockContention = apperrors.NewAppError(apperrors.ErrUnavailable, "resource is busy, retry later", nil)

	ErrPlanNotFound          = apperrors.NewAppError(apperrors.ErrNotFound, "plan not found", nil)
	ErrSubscriptionNotFound  = apperrors.NewAppError(apperrors.ErrNotFound, "subscription not found", nil)
	ErrEventNotFound         = apperrors.NewAppError(apperrors.ErrNotFound, "payment event not found", nil)
	ErrEntryNotFound         = apperrors.NewAppError(apperrors.ErrNotFound, "ledger entry not found", nil)
	ErrPayoutNotFound        = apperrors.NewAppError(apperrors.ErrNotFound, "payout request not found", nil)
	ErrPayoutAccountNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "no payout account registered for author", nil)

	ErrPayoutAccountRequired = apperrors.NewAppError(apperrors.ErrInvalidArgument, "provider account id is required", nil)

	// ErrPlanRetired indicates a checkout against a plan version that is no longer offered
	ErrPlanRetired = apperrors.NewAppError(apperrors.ErrFailedPrecondition, "plan version is retired", nil)

	// ErrActiveSubscriptionExists indicates the subscriber already holds a live subscription to the plan
	ErrActiveSubscriptionExists = apperrors.NewAppError(apperrors.ErrConflict, "subscriber already has a subscription to this plan", nil)

	// ErrCheckoutCompleted indicates the checkout was paid before it could be closed;
	// the provider's activation event is on its way
	ErrCheckoutCompleted = apperrors.NewAppError(apperrors.ErrConflict, "checkout was already completed, retry once the subscription is active", nil)

	ErrEntryAlreadyReversed  = apperrors.NewAppError(apperrors.ErrConflict, "ledger entry is already reversed", nil)
	ErrReversalNotReversible = apperrors.NewAppError(apperrors.ErrInvalidArgument, "a reversal entry cannot be reversed", nil)

	// ErrEventAlreadyHandled indicates the event left pending/failed before this call could settle it
	ErrEventAlreadyHandled = apperrors.NewAppError(apperrors.ErrConflict, "payment event already handled", nil)

	// ErrPayoutInProgress indicates the author already has a pending payout request
	ErrPayoutInProgress = apperrors.NewAppError(apperrors.ErrConflict, "a payout request is already pending", nil)

	// ErrPayoutNotPending indicates a settle or reject on a request that is no longer pending
	ErrPayoutNotPending = apperrors.NewAppError(apperrors.ErrConflict, "payout request is not pending", nil)
)

// InvalidPlanSpecError is returned when plan terms fail validation
type InvalidPlanSpecError struct {
	Reason string
}

func (e *InvalidPlanSpecError) Error() string {
	return fmt.Sprintf("invalid plan spec: %s", e.Reason)
}

func (e *InvalidPlanSpecError) Code() string { return apperrors.ErrInvalidArgument }

// InvalidEntryError is returned when a ledger entry violates its sign or currency rules
type InvalidEntryError struct {
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid ledger entry: %s", e.Reason)
}

func (e *InvalidEntryError) Code() string { return apperrors.ErrInvalidArgument }

// InvalidPayoutAmountError is returned for non-positive or below-minimum payout amounts
type InvalidPayoutAmountError struct {
	Amount  int64
	Minimum int64
}

func (e *InvalidPayoutAmountError) Error() string {
	return fmt.Sprintf("invalid payout amount %d: minimum is %d", e.Amount, e.Minimum)
}

func (e *InvalidPayoutAmountError) Code() string { return apperrors.ErrInvalidArgument }

// IllegalTransitionError is returned when an event does not apply to the
// subscription's current state. The subscription is left unchanged.
type IllegalTransitionError struct {
	SubscriptionID uuid.UUID
	From           string
	Event          string
}

func (e *IllegalTransitionError) Error() string {
	if e.SubscriptionID == uuid.Nil {
		return fmt.Sprintf("illegal transition: %s on %s", e.Event, e.From)
	}
	return fmt.Sprintf("illegal transition for subscription %s: %s on %s", e.SubscriptionID, e.Event, e.From)
}

func (e *IllegalTransitionError) Code() string { return apperrors.ErrConflict }

// InsufficientBalanceError is returned when a payout exceeds the author's balance
type InsufficientBalanceError struct {
	Requested int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Code() string { return apperrors.ErrFailedPrecondition }

// NewInsufficientBalanceError creates a new InsufficientBalanceError
func NewInsufficientBalanceError(requested, available int64) *InsufficientBalanceError {
	return &InsufficientBalanceError{
		Requested: requested,
		Available: available,
	}
}
