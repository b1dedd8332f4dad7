package payment

import (
	"context"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
)

// resolvePrice ensures the recurring donation product exists upstream and
// mints a monthly price for the exact requested amount. The product id is
// memoized in persistent configuration; concurrent first-time creation may
// produce duplicate products upstream, in which case the last flag write
// wins.
//
// Prices are deliberately not reused across requests for the same amount:
// every monthly attempt creates a fresh price. See DESIGN.md before changing
// that.
func (g *StripeGateway) resolvePrice(ctx context.Context, sc *stripe.Client, amountCents int64) (string, error) {
	productID := DonationProductID.Value()
	if productID != "" {
		if _, err := sc.V1Products.Retrieve(ctx, productID, nil); err != nil {
			slog.WarnContext(ctx, "Memoized donation product no longer exists, recreating",
				slog.String("product_id", productID), slog.Any("err", err))
			productID = ""
		}
	}

	if productID == "" {
		prod, err := sc.V1Products.Create(ctx, &stripe.ProductCreateParams{
			Name: stripe.String(ProductName.Value()),
		})
		if err != nil {
			return "", err
		}
		productID = prod.ID
		DonationProductID.Update(productID)
	}

	price, err := sc.V1Prices.Create(ctx, &stripe.PriceCreateParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(amountCents),
		Currency:   stripe.String(Currency.Value()),
		Recurring: &stripe.PriceCreateRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
	})
	if err != nil {
		return "", err
	}
	return price.ID, nil
}
