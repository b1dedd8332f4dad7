package causeway

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DonationSource string

const (
	DonationSourceUnknown DonationSource = ""
	DonationSourceStripe  DonationSource = "stripe"
	DonationSourcePaypal  DonationSource = "paypal"
)

type DonationFrequency string

const (
	FrequencyUnknown DonationFrequency = ""
	FrequencyOneTime DonationFrequency = "onetime"
	FrequencyMonthly DonationFrequency = "monthly"
)

// MinimumDonation is the smallest accepted amount, in whole currency units.
var MinimumDonation = decimal.NewFromInt(1)

// DonationRequest is a single, fully validated donation submission. It is
// built per inbound request and discarded once a PaymentOutcome is produced.
type DonationRequest struct {
	FirstName string
	LastName  string
	Email     string

	Amount    decimal.Decimal
	Frequency DonationFrequency

	// PaymentMethod is the opaque token minted by the card collection client.
	// It is empty on the PayPal path, where OrderID carries the
	// client-confirmed order identifier instead.
	PaymentMethod string
	OrderID       string

	Phone      string
	Address    string
	City       string
	Province   string
	PostalCode string

	CampaignID   string
	SourcePageID int
}

// AmountCents converts the requested amount to integer minor currency units.
func (r *DonationRequest) AmountCents() int64 {
	return r.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (r *DonationRequest) DonorName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Donation is the ledger record persisted after a successful payment.
type Donation struct {
	ID        int       `json:"id"`
	DonatedAt time.Time `json:"donated_at"`

	DonorName string          `json:"donor_name"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`

	Source DonationSource    `json:"source"`
	Type   DonationFrequency `json:"type"`

	CampaignID string `json:"campaign_id"`

	TransactionID string     `json:"transaction_id"`
	CancelledAt   *time.Time `json:"cancelled_at"`
}
