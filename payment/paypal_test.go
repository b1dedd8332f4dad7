package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/internal/secrets"
	"github.com/matryer/is"
	"github.com/shopspring/decimal"
)

func paypalSecretSource(t *testing.T) *secrets.Source {
	t.Helper()
	t.Setenv("PAYPAL_CLIENT_ID", "client-id")
	t.Setenv("PAYPAL_CLIENT_SECRET", "client-secret")
	src, err := secrets.NewSource()
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestPayPalTrustedCapture(t *testing.T) {
	is := is.New(t)

	// default path: no verification, the client-confirmed order id is trusted
	g := NewPayPalGateway(paypalSecretSource(t))
	out := g.Attempt(context.Background(), &causeway.DonationRequest{
		Email:     "ada@example.com",
		Amount:    decimal.RequireFromString("10.00"),
		Frequency: causeway.FrequencyOneTime,
		OrderID:   "5O190127TN364715T",
	})
	is.Equal(out.State, causeway.OutcomeSucceeded)
	is.Equal(out.TransactionID, "5O190127TN364715T")
}

func TestPayPalMissingOrder(t *testing.T) {
	is := is.New(t)

	g := NewPayPalGateway(paypalSecretSource(t))
	out := g.Attempt(context.Background(), &causeway.DonationRequest{
		Email:  "ada@example.com",
		Amount: decimal.RequireFromString("10.00"),
	})
	is.Equal(out.State, causeway.OutcomeFailed)
	is.Equal(out.Kind, causeway.ErrKindPaymentRejected)
}

func TestPayPalVerifyOrder(t *testing.T) {
	is := is.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token": "A21AA", "token_type": "Bearer", "expires_in": 32400}`)
		case "/v2/checkout/orders/ORDER_OK":
			fmt.Fprint(w, `{"id": "ORDER_OK", "status": "COMPLETED"}`)
		case "/v2/checkout/orders/ORDER_PENDING":
			fmt.Fprint(w, `{"id": "ORDER_PENDING", "status": "APPROVED"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	PayPalBaseURL.Update(srv.URL)
	defer PayPalBaseURL.Update("https://api-m.paypal.com")

	g := NewPayPalGateway(paypalSecretSource(t))

	is.NoErr(g.VerifyOrder(context.Background(), "ORDER_OK"))

	err := g.VerifyOrder(context.Background(), "ORDER_PENDING")
	is.True(err != nil)

	err = g.VerifyOrder(context.Background(), "ORDER_MISSING")
	is.True(err != nil)
}

func TestPayPalVerificationGate(t *testing.T) {
	is := is.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			fmt.Fprint(w, `{"access_token": "A21AA", "token_type": "Bearer", "expires_in": 32400}`)
		default:
			// order lookup fails, so a gated attempt must be rejected
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	PayPalBaseURL.Update(srv.URL)
	PayPalVerifyOrders.Update(true)
	defer func() {
		PayPalBaseURL.Update("https://api-m.paypal.com")
		PayPalVerifyOrders.Update(false)
	}()

	g := NewPayPalGateway(paypalSecretSource(t))
	out := g.Attempt(context.Background(), &causeway.DonationRequest{
		Email:   "ada@example.com",
		Amount:  decimal.RequireFromString("10.00"),
		OrderID: "ORDER_MISSING",
	})
	is.Equal(out.State, causeway.OutcomeFailed)
}
