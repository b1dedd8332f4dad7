// Package payment wraps the supported payment providers behind a uniform
// attempt contract. Provider-specific success and error shapes are mapped to
// causeway.PaymentOutcome once, at the gateway boundary; nothing provider
// flavored escapes this package.
package payment

import (
	"context"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/internal/config"
)

var Currency = config.GenFlag("payment.currency", "usd", "ISO currency code used for all donations")

type Gateway interface {
	// Attempt runs the payment described by req to a terminal outcome. It
	// never returns nil: provider failures are classified into the outcome's
	// error taxonomy instead of being propagated.
	Attempt(ctx context.Context, req *causeway.DonationRequest) *causeway.PaymentOutcome
}
