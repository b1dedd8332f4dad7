package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/internal/config"
	"github.com/causewayhq/causeway/internal/secrets"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

var (
	StripeKeyName = config.GenFlag("payment.stripe.key_secret_name", "STRIPE_SECRET_KEY", "Name of the secret holding the Stripe API key")

	// DonationProductID memoizes the recurring donation product across
	// restarts. It is re-validated lazily and overwritten if the upstream
	// product disappears.
	DonationProductID = config.GenFlag("payment.stripe.product_id", "", "Memoized Stripe product id for recurring donations")

	ProductName = config.GenFlag("payment.stripe.product_name", "Monthly donation", "Display name of the recurring donation product")
)

// StripeGateway handles card payments: an auto-confirmed PaymentIntent for
// one-time donations and a Customer+Subscription pair for monthly ones.
type StripeGateway struct {
	secrets *secrets.Source

	// backends overrides the Stripe API endpoints in tests.
	backends *stripe.Backends
}

func NewStripeGateway(src *secrets.Source) *StripeGateway {
	return &StripeGateway{secrets: src}
}

func (g *StripeGateway) client(ctx context.Context) (*stripe.Client, *causeway.PaymentOutcome) {
	key, err := g.secrets.Get(ctx, StripeKeyName.Value())
	if err != nil {
		slog.ErrorContext(ctx, "Stripe secret key is not configured", slog.Any("err", err))
		return nil, causeway.FailedOutcome(causeway.ErrKindInvalidRequest)
	}
	var opts []stripe.ClientOption
	if g.backends != nil {
		opts = append(opts, stripe.WithBackends(g.backends))
	}
	return stripe.NewClient(key, opts...), nil
}

func (g *StripeGateway) Attempt(ctx context.Context, req *causeway.DonationRequest) *causeway.PaymentOutcome {
	sc, failure := g.client(ctx)
	if failure != nil {
		return failure
	}
	if req.Frequency == causeway.FrequencyMonthly {
		return g.attemptSubscription(ctx, sc, req)
	}
	return g.attemptCharge(ctx, sc, req)
}

func (g *StripeGateway) attemptCharge(ctx context.Context, sc *stripe.Client, req *causeway.DonationRequest) *causeway.PaymentOutcome {
	params := &stripe.PaymentIntentCreateParams{
		Amount:             stripe.Int64(req.AmountCents()),
		Currency:           stripe.String(Currency.Value()),
		PaymentMethod:      stripe.String(req.PaymentMethod),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		ReceiptEmail:       stripe.String(req.Email),
		Description:        stripe.String("One-time donation"),
		Metadata: map[string]string{
			"donor_email": req.Email,
			"campaign_id": req.CampaignID,
		},
	}
	params.IdempotencyKey = stripe.String(uuid.NewString())

	intent, err := sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return g.classifyError(ctx, err)
	}
	return mapIntent(intent)
}

func (g *StripeGateway) attemptSubscription(ctx context.Context, sc *stripe.Client, req *causeway.DonationRequest) *causeway.PaymentOutcome {
	priceID, err := g.resolvePrice(ctx, sc, req.AmountCents())
	if err != nil {
		return g.classifyError(ctx, err)
	}

	custParams := &stripe.CustomerCreateParams{
		Email:         stripe.String(req.Email),
		Name:          stripe.String(req.DonorName()),
		PaymentMethod: stripe.String(req.PaymentMethod),
		InvoiceSettings: &stripe.CustomerCreateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(req.PaymentMethod),
		},
	}
	if req.Phone != "" {
		custParams.Phone = stripe.String(req.Phone)
	}
	if req.Address != "" {
		custParams.Address = &stripe.AddressParams{
			Line1:      stripe.String(req.Address),
			City:       stripe.String(req.City),
			State:      stripe.String(req.Province),
			PostalCode: stripe.String(req.PostalCode),
		}
	}
	cust, err := sc.V1Customers.Create(ctx, custParams)
	if err != nil {
		return g.classifyError(ctx, err)
	}

	subParams := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("allow_incomplete"),
		Metadata: map[string]string{
			"donor_email": req.Email,
			"campaign_id": req.CampaignID,
		},
	}
	subParams.AddExpand("latest_invoice.confirmation_secret")

	sub, err := sc.V1Subscriptions.Create(ctx, subParams)
	if err != nil {
		return g.classifyError(ctx, err)
	}
	return mapSubscription(sub)
}

// mapIntent normalizes a PaymentIntent into the uniform outcome. It is pure:
// the same intent always maps to the same outcome.
func mapIntent(intent *stripe.PaymentIntent) *causeway.PaymentOutcome {
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return causeway.SucceededOutcome(intent.ID, centsToAmount(intent.Amount))
	case stripe.PaymentIntentStatusRequiresAction:
		// The cardholder must complete a challenge (e.g. 3-D Secure); the
		// client finishes it with the intent's client secret.
		return causeway.RequiresActionOutcome(intent.ClientSecret)
	default:
		return causeway.FailedOutcome(causeway.ErrKindPaymentRejected)
	}
}

func mapSubscription(sub *stripe.Subscription) *causeway.PaymentOutcome {
	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		out := causeway.SucceededOutcome(sub.ID, decimal.Decimal{})
		out.SubscriptionID = sub.ID
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			out.Amount = centsToAmount(sub.Items.Data[0].Price.UnitAmount)
		}
		return out
	case stripe.SubscriptionStatusIncomplete:
		if sub.LatestInvoice != nil && sub.LatestInvoice.ConfirmationSecret != nil && sub.LatestInvoice.ConfirmationSecret.ClientSecret != "" {
			return causeway.RequiresActionOutcome(sub.LatestInvoice.ConfirmationSecret.ClientSecret)
		}
		return causeway.FailedOutcome(causeway.ErrKindSubscriptionRejected)
	default:
		return causeway.FailedOutcome(causeway.ErrKindSubscriptionRejected)
	}
}

// classifyError converts a Stripe API error into the outcome taxonomy. Only
// card declines surface the provider's own message to the user.
func (g *StripeGateway) classifyError(ctx context.Context, err error) *causeway.PaymentOutcome {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		switch sErr.Type {
		case stripe.ErrorTypeCard:
			slog.InfoContext(ctx, "Card declined", slog.String("code", string(sErr.DeclineCode)))
			return causeway.DeclinedOutcome(sErr.Msg)
		case stripe.ErrorTypeInvalidRequest:
			slog.ErrorContext(ctx, "Invalid Stripe request", slog.Any("err", err))
			return causeway.FailedOutcome(causeway.ErrKindInvalidRequest)
		case stripe.ErrorTypeAPI:
			slog.WarnContext(ctx, "Stripe API error", slog.Any("err", err))
			return causeway.FailedOutcome(causeway.ErrKindProviderUnavailable)
		default:
			slog.ErrorContext(ctx, "Unexpected Stripe error", slog.Any("err", err))
			return causeway.FailedOutcome(causeway.ErrKindUnexpected)
		}
	}
	slog.WarnContext(ctx, "Stripe call failed", slog.Any("err", err))
	return causeway.FailedOutcome(causeway.ErrKindProviderUnavailable)
}

func centsToAmount(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
