package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
	"github.com/dheerajsingh9334/mern-Blog/internal/domain/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewClient("sk_test_123", "http://localhost:5173", &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}, zap.NewNop())
}

func TestClient_Transfer(t *testing.T) {
	payoutID := uuid.NewString()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		assert.Equal(t, payoutID, r.Header.Get("Idempotency-Key"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "700", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "acct_123", r.PostForm.Get("destination"))
		assert.Equal(t, payoutID, r.PostForm.Get("metadata[payout_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"tr_123","object":"transfer","amount":700,"currency":"usd"}`))
	})

	result, err := c.Transfer(context.Background(), &provider.TransferRequest{
		IdempotencyKey: payoutID,
		AuthorID:       "author-1",
		Destination:    "acct_123",
		Amount:         700,
		Currency:       "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "tr_123", result.TransferID)
}

func TestClient_TransferError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Insufficient funds in Stripe account"}}`))
	})

	_, err := c.Transfer(context.Background(), &provider.TransferRequest{
		IdempotencyKey: uuid.NewString(),
		Destination:    "acct_123",
		Amount:         700,
		Currency:       "usd",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient funds")
}

func TestClient_CreateCheckout(t *testing.T) {
	subscriptionID := uuid.New()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, subscriptionID.String(), r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "500", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "month", r.PostForm.Get("line_items[0][price_data][recurring][interval]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_test_1"}`))
	})

	session, err := c.CreateCheckout(context.Background(), &provider.CheckoutRequest{
		SubscriptionID: subscriptionID,
		SubscriberID:   "reader-1",
		PlanName:       "Supporter",
		Amount:         500,
		Currency:       "usd",
		Interval:       "month",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", session.URL)
}

func TestClient_CancelAtPeriodEnd(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions/sub_123", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "true", r.PostForm.Get("cancel_at_period_end"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sub_123","object":"subscription","cancel_at_period_end":true}`))
	})

	require.NoError(t, c.CancelAtPeriodEnd(context.Background(), "sub_123"))
}

func TestClient_ExpireCheckout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_open/expire", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_open","object":"checkout.session","status":"expired"}`))
	})

	require.NoError(t, c.ExpireCheckout(context.Background(), "cs_open"))
}

func TestClient_ExpireCheckoutNotOpen(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{name: "already expired", status: "expired"},
		{name: "already paid", status: "complete", wantErr: domainErrors.ErrCheckoutCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Method == http.MethodPost {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Only Checkout Sessions with a status of open can be expired."}}`))
					return
				}
				assert.Equal(t, "/v1/checkout/sessions/cs_1", r.URL.Path)
				_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","status":"` + tt.status + `"}`))
			})

			err := c.ExpireCheckout(context.Background(), "cs_1")
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestClient_ExpireCheckoutUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	})

	err := c.ExpireCheckout(context.Background(), "cs_1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainErrors.ErrCheckoutCompleted)
}
