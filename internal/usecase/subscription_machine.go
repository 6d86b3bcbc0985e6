package usecase

import (
	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

// Effect is the side effect a transition asks the caller to apply in the
// same transaction as the state change.
type Effect int

const (
	EffectNone Effect = iota
	// EffectBindExternalRef records the provider's subscription id
	EffectBindExternalRef
	// EffectCreditAuthor appends the author's share of the invoice to the ledger
	EffectCreditAuthor
)

func (e Effect) String() string {
	switch e {
	case EffectBindExternalRef:
		return "bind_external_ref"
	case EffectCreditAuthor:
		return "credit_author"
	default:
		return "none"
	}
}

type transitionKey struct {
	from model.SubscriptionState
	kind model.EventKind
}

type transitionRule struct {
	to     model.SubscriptionState
	effect Effect
}

var transitions = map[transitionKey]transitionRule{
	{model.StatePendingActivation, model.KindCheckoutCompleted}:    {model.StateActive, EffectBindExternalRef},
	{model.StateActive, model.KindInvoicePaid}:                     {model.StateActive, EffectCreditAuthor},
	{model.StatePastDue, model.KindInvoicePaid}:                    {model.StateActive, EffectCreditAuthor},
	{model.StateActive, model.KindInvoiceFailed}:                   {model.StatePastDue, EffectNone},
	{model.StatePastDue, model.KindInvoiceFailed}:                  {model.StatePastDue, EffectNone},
	{model.StatePendingActivation, model.KindSubscriptionCanceled}: {model.StateCanceled, EffectNone},
	{model.StateActive, model.KindSubscriptionCanceled}:            {model.StateCanceled, EffectNone},
	{model.StatePastDue, model.KindSubscriptionCanceled}:           {model.StateCanceled, EffectNone},
}

// Transition returns the state a subscription in from moves to on an event
// of kind, and the effect to apply with it. Canceled is terminal: every
// event on it is illegal and leaves it canceled.
func Transition(from model.SubscriptionState, kind model.EventKind) (model.SubscriptionState, Effect, error) {
	rule, ok := transitions[transitionKey{from: from, kind: kind}]
	if !ok {
		return from, EffectNone, &domainErrors.IllegalTransitionError{
			From:  string(from),
			Event: string(kind),
		}
	}
	return rule.to, rule.effect, nil
}
