package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/internal/config"
	"github.com/causewayhq/causeway/internal/secrets"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	PayPalClientIDName = config.GenFlag("payment.paypal.client_id_secret_name", "PAYPAL_CLIENT_ID", "Name of the secret holding the PayPal client id")
	PayPalSecretName   = config.GenFlag("payment.paypal.client_secret_secret_name", "PAYPAL_CLIENT_SECRET", "Name of the secret holding the PayPal client secret")
	PayPalBaseURL      = config.GenFlag("payment.paypal.base_url", "https://api-m.paypal.com", "PayPal REST API base URL")

	// PayPalVerifyOrders gates the server-side order check. It defaults to
	// off: the main flow trusts the client-confirmed order id as-is, which is
	// a documented weaker-assurance path.
	PayPalVerifyOrders = config.GenFlag("payment.paypal.verify_orders", false, "Verify captured PayPal orders server-side before accepting them")
)

// PayPalGateway accepts redirect-based captures. The order was approved and
// captured client-side before this service ever sees it.
type PayPalGateway struct {
	secrets *secrets.Source
	client  *http.Client
}

func NewPayPalGateway(src *secrets.Source) *PayPalGateway {
	return &PayPalGateway{
		secrets: src,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *PayPalGateway) Attempt(ctx context.Context, req *causeway.DonationRequest) *causeway.PaymentOutcome {
	if req.OrderID == "" {
		return causeway.FailedOutcome(causeway.ErrKindPaymentRejected)
	}

	if PayPalVerifyOrders.Value() {
		if err := g.VerifyOrder(ctx, req.OrderID); err != nil {
			slog.WarnContext(ctx, "PayPal order verification failed",
				slog.String("order_id", req.OrderID), slog.Any("err", err))
			return causeway.FailedOutcome(causeway.ErrKindPaymentRejected)
		}
	}

	return causeway.SucceededOutcome(req.OrderID, req.Amount)
}

// VerifyOrder checks that the order exists upstream and has been captured.
// Authentication uses the OAuth2 client-credentials grant against the PayPal
// token endpoint.
func (g *PayPalGateway) VerifyOrder(ctx context.Context, orderID string) error {
	clientID, err := g.secrets.Get(ctx, PayPalClientIDName.Value())
	if err != nil {
		return fmt.Errorf("PayPal client id is not configured: %w", err)
	}
	clientSecret, err := g.secrets.Get(ctx, PayPalSecretName.Value())
	if err != nil {
		return fmt.Errorf("PayPal client secret is not configured: %w", err)
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     PayPalBaseURL.Value() + "/v1/oauth2/token",
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v2/checkout/orders/%s", PayPalBaseURL.Value(), orderID), nil)
	if err != nil {
		return err
	}
	resp, err := conf.Client(ctx).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order lookup returned status %d", resp.StatusCode)
	}

	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return err
	}
	if order.Status != "COMPLETED" {
		return fmt.Errorf("order %s has status %s, expected COMPLETED", orderID, order.Status)
	}
	return nil
}
