package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/provider"
	"github.com/dheerajsingh9334/mern-Blog/internal/testutil"
)

func TestSubscriptionService_BeginCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")

	env.checkout.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(req *provider.CheckoutRequest) bool {
		return req.SubscriberID == "reader-1" && req.Amount == 1000 && req.Currency == testutil.Currency
	})).Return(&provider.CheckoutSession{SessionID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}, nil).Twice()

	result, err := env.subs.BeginCheckout(ctx, "reader-1", plan.ID, plan.Version)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_test_1", result.CheckoutURL)
	assert.Equal(t, model.StatePendingActivation, result.Subscription.State)

	stored, err := env.repos.Subscription.GetByID(ctx, result.Subscription.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CheckoutSessionID)
	assert.Equal(t, "cs_test_1", *stored.CheckoutSessionID)

	// an abandoned checkout is resumed rather than duplicated, and its old session closed
	env.checkout.On("ExpireCheckout", mock.Anything, "cs_test_1").Return(nil).Once()
	again, err := env.subs.BeginCheckout(ctx, "reader-1", plan.ID, plan.Version)
	require.NoError(t, err)
	assert.Equal(t, result.Subscription.ID, again.Subscription.ID)

	env.checkout.AssertExpectations(t)
}

func TestSubscriptionService_BeginCheckoutRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")
	testutil.CreateSubscription(t, env.db, plan, "reader-1", model.StateActive, "sub_123")

	_, err := env.subs.BeginCheckout(ctx, "reader-1", plan.ID, plan.Version)
	assert.ErrorIs(t, err, domainErrors.ErrActiveSubscriptionExists)

	_, err = env.subs.BeginCheckout(ctx, "reader-2", uuid.New(), 1)
	assert.ErrorIs(t, err, domainErrors.ErrPlanNotFound)

	require.NoError(t, env.plans.RetirePlan(ctx, plan.ID))
	_, err = env.subs.BeginCheckout(ctx, "reader-2", plan.ID, plan.Version)
	assert.ErrorIs(t, err, domainErrors.ErrPlanRetired)

	env.checkout.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
}

func TestSubscriptionService_BeginCheckoutProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")

	env.checkout.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider unavailable")).Once()

	_, err := env.subs.BeginCheckout(ctx, "reader-1", plan.ID, plan.Version)
	assert.EqualError(t, err, "provider unavailable")
}

func TestSubscriptionService_RequestCancellation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")
	sub := testutil.CreateSubscription(t, env.db, plan, "reader-1", model.StateActive, "sub_123")

	env.checkout.On("CancelAtPeriodEnd", mock.Anything, "sub_123").Return(nil).Once()

	updated, err := env.subs.RequestCancellation(ctx, sub.ID, "reader-1")
	require.NoError(t, err)
	assert.True(t, updated.CancellationRequested)
	// the provider's cancellation event ends the subscription
	assert.Equal(t, model.StateActive, updated.State)

	// asking again does not call the provider twice
	_, err = env.subs.RequestCancellation(ctx, sub.ID, "reader-1")
	require.NoError(t, err)
	env.checkout.AssertExpectations(t)
}

func TestSubscriptionService_CancelBeforeActivation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")
	sub := testutil.CreateSubscription(t, env.db, plan, "reader-1", model.StatePendingActivation, "")

	updated, err := env.subs.RequestCancellation(ctx, sub.ID, "reader-1")
	require.NoError(t, err)
	assert.Equal(t, model.StateCanceled, updated.State)

	transitions, err := env.subs.ListTransitions(ctx, sub.ID, "reader-1")
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, model.StateCanceled, transitions[0].ToState)
	assert.Nil(t, transitions[0].PaymentEventID)

	assert.Equal(t, []string{ChannelSubscriptionChanged}, env.publisher.channels())

	_, err = env.subs.RequestCancellation(ctx, sub.ID, "reader-1")
	var illegal *domainErrors.IllegalTransitionError
	assert.ErrorAs(t, err, &illegal)

	env.checkout.AssertNotCalled(t, "CancelAtPeriodEnd", mock.Anything, mock.Anything)
}

func TestSubscriptionService_CancelPendingExpiresCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")

	env.checkout.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(&provider.CheckoutSession{SessionID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}, nil).Once()
	env.checkout.On("ExpireCheckout", mock.Anything, "cs_test_1").Return(nil).Once()

	started, err := env.subs.BeginCheckout(ctx, "reader-1", plan.ID, plan.Version)
	require.NoError(t, err)

	updated, err := env.subs.RequestCancellation(ctx, started.Subscription.ID, "reader-1")
	require.NoError(t, err)
	assert.Equal(t, model.StateCanceled, updated.State)

	env.checkout.AssertExpectations(t)
	env.checkout.AssertNotCalled(t, "CancelAtPeriodEnd", mock.Anything, mock.Anything)
}

func TestSubscriptionService_CancelPendingAfterPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")

	env.checkout.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(&provider.CheckoutSession{SessionID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}, nil).Once()
	env.checkout.On("ExpireCheckout", mock.Anything, "cs_test_1").
		Return(domainErrors.ErrCheckoutCompleted).Once()

	started, err := env.subs.BeginCheckout(ctx, "reader-1", plan.ID, plan.Version)
	require.NoError(t, err)
	sub := started.Subscription

	_, err = env.subs.RequestCancellation(ctx, sub.ID, "reader-1")
	assert.ErrorIs(t, err, domainErrors.ErrCheckoutCompleted)

	stored, err := env.repos.Subscription.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingActivation, stored.State)
	assert.Empty(t, env.publisher.channels())

	// the paid checkout still activates and earns
	result, err := env.ingest.Ingest(ctx, rawEvent(t, checkoutEvent("evt_checkout", sub, "sub_123")))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, result.Outcome)
	assert.Equal(t, model.StateActive, result.State)

	result, err = env.ingest.Ingest(ctx, rawEvent(t, invoicePaidEvent("evt_paid", "sub_123", 1000)))
	require.NoError(t, err)
	assert.Equal(t, int64(700), result.Credited)
	assert.Equal(t, int64(700), env.balance(t, testAuthor))

	env.checkout.AssertExpectations(t)
}

func TestSubscriptionService_OwnershipIsEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := testutil.CreatePlan(t, env.db, testAuthor, 1000, "0.7")
	sub := testutil.CreateSubscription(t, env.db, plan, "reader-1", model.StateActive, "sub_123")

	_, err := env.subs.GetSubscription(ctx, sub.ID, "reader-2")
	assert.ErrorIs(t, err, domainErrors.ErrSubscriptionNotFound)

	_, err = env.subs.RequestCancellation(ctx, sub.ID, "reader-2")
	assert.ErrorIs(t, err, domainErrors.ErrSubscriptionNotFound)

	_, err = env.subs.ListTransitions(ctx, sub.ID, "reader-2")
	assert.ErrorIs(t, err, domainErrors.ErrSubscriptionNotFound)

	subs, err := env.subs.ListBySubscriber(ctx, "reader-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
}
