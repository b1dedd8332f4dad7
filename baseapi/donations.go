package baseapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/integrations/prometheus"
	"github.com/causewayhq/causeway/internal/config"
	"github.com/causewayhq/causeway/payment"
)

var (
	ReceiptsEnabled = config.GenFlag("feature.donations.send_receipts", true, "Email a receipt after successful donations")
	DonorOptIn      = config.GenFlag("feature.donations.mailchimp_opt_in", false, "Add successful donors to the Mailchimp audience")

	ReceiptReplyTo = config.GenFlag("feature.donations.receipt_reply_to", "", "Reply-To address on donation receipts")
)

// ProcessDonation runs a validated donation request to a terminal outcome.
// The gateway is picked by the token the client submitted: a Stripe payment
// method token routes to cards, a PayPal order id to redirect capture. Every
// attempt lands in the audit log; the durable ledger row, the receipt and the
// audience sync only happen on success and are best-effort.
func (s *BaseAPI) ProcessDonation(ctx context.Context, req *causeway.DonationRequest) *causeway.PaymentOutcome {
	gw, source := s.stripe, causeway.DonationSourceStripe
	if req.OrderID != "" {
		gw, source = s.paypal, causeway.DonationSourcePaypal
	}

	outcome := gw.Attempt(ctx, req)
	prometheus.DonationAttempts.WithLabelValues(string(source), string(outcome.State)).Inc()

	switch outcome.State {
	case causeway.OutcomeSucceeded:
		s.recordDonation(ctx, req, source, outcome)
		s.LogUserAction(ctx, "Donation succeeded: %s %s %s by %s (txn %s)",
			outcome.Amount.StringFixed(2), payment.Currency.Value(), req.Frequency, req.Email, outcome.TransactionID)
		s.NotifyDonation(ctx, req, outcome)
		s.sendReceipt(ctx, req, outcome)
		if DonorOptIn.Value() {
			if err := s.mailchimp.Subscribe(ctx, req.Email, req.FirstName, req.LastName); err != nil {
				slog.WarnContext(ctx, "Couldn't sync donor to Mailchimp", slog.Any("err", err))
			}
		}
	case causeway.OutcomeRequiresAction:
		s.LogUserAction(ctx, "Donation pending authentication: %s %s %s by %s",
			req.Amount.StringFixed(2), payment.Currency.Value(), req.Frequency, req.Email)
	case causeway.OutcomeFailed:
		s.LogUserAction(ctx, "Donation failed (%s): %s %s %s by %s",
			outcome.Kind, req.Amount.StringFixed(2), payment.Currency.Value(), req.Frequency, req.Email)
	}

	return outcome
}

func (s *BaseAPI) recordDonation(ctx context.Context, req *causeway.DonationRequest, source causeway.DonationSource, outcome *causeway.PaymentOutcome) {
	donation := &causeway.Donation{
		DonatedAt: time.Now(),
		DonorName: req.DonorName(),
		Email:     req.Email,
		Amount:    outcome.Amount,
		Currency:  payment.Currency.Value(),

		Source:     source,
		Type:       req.Frequency,
		CampaignID: req.CampaignID,

		TransactionID: outcome.TransactionID,
	}
	// The provider already moved the money: a ledger failure is logged for
	// reconciliation, never surfaced to the donor.
	if err := s.db.AddDonation(ctx, donation); err != nil {
		slog.ErrorContext(ctx, "Couldn't persist donation ledger entry",
			slog.String("transaction_id", outcome.TransactionID), slog.Any("err", err))
	}
}

func (s *BaseAPI) sendReceipt(ctx context.Context, req *causeway.DonationRequest, outcome *causeway.PaymentOutcome) {
	if s.mailer == nil || !ReceiptsEnabled.Value() {
		return
	}
	freq := "one-time"
	if req.Frequency == causeway.FrequencyMonthly {
		freq = "monthly"
	}
	msg := &causeway.MailerMessage{
		To:      req.Email,
		Subject: "Thank you for your donation",
		ReplyTo: ReceiptReplyTo.Value(),
		PlainContent: fmt.Sprintf(
			"Dear %s,\n\nThank you for your %s donation of %s %s.\nYour reference number is %s.\n",
			req.DonorName(), freq, outcome.Amount.StringFixed(2), payment.Currency.Value(), outcome.TransactionID,
		),
	}
	if err := s.mailer.SendEmail(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Couldn't send donation receipt", slog.Any("err", err))
	}
}

func (s *BaseAPI) Donations(ctx context.Context) ([]*causeway.Donation, error) {
	donations, err := s.db.Donations(ctx)
	if err != nil {
		return nil, fmt.Errorf("Couldn't get donations: %w", err)
	}
	return donations, nil
}

// CancelSubscription marks a recurring donation's ledger row as cancelled.
// Driven by the provider webhook, not by user action.
func (s *BaseAPI) CancelSubscription(ctx context.Context, transactionID string) error {
	if err := s.db.CancelSubscription(ctx, transactionID, time.Now()); err != nil {
		return fmt.Errorf("Couldn't mark subscription as cancelled: %w", err)
	}
	s.LogSystemAction(ctx, fmt.Sprintf("Subscription %s cancelled at provider", transactionID))
	return nil
}
