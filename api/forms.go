package api

import (
	"html"
	"strings"

	"github.com/causewayhq/causeway"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

var nameValidation = []validation.Rule{validation.Required, validation.Length(1, 100)}

func checkAmount(value any) error {
	s, _ := value.(string)
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return validation.NewError("validation_amount", "must be a valid amount")
	}
	if amount.LessThan(causeway.MinimumDonation) {
		return validation.NewError("validation_amount_min", "must be at least 1.00")
	}
	return nil
}

type donationForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	Amount    string `json:"amount"`
	Frequency string `json:"frequency"`

	PaymentMethod string `json:"payment_method"`
	OrderID       string `json:"order_id"`

	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`

	CampaignID   string `json:"campaign_id"`
	SourcePageID int    `json:"source_page_id"`
}

func (f donationForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.FirstName, nameValidation...),
		validation.Field(&f.LastName, nameValidation...),
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Amount, validation.Required, validation.By(checkAmount)),
		validation.Field(&f.Frequency, validation.Required, validation.In("onetime", "monthly")),
		validation.Field(&f.PaymentMethod,
			validation.Required.When(f.OrderID == "").Error("either a payment method or a PayPal order is required")),
	)
}

// toRequest builds the domain request from an already validated form. Free
// text is trimmed and HTML-escaped here so nothing downstream has to care.
func (f donationForm) toRequest() *causeway.DonationRequest {
	amount, _ := decimal.NewFromString(strings.TrimSpace(f.Amount))
	return &causeway.DonationRequest{
		FirstName: clean(f.FirstName),
		LastName:  clean(f.LastName),
		Email:     strings.TrimSpace(f.Email),

		Amount:    amount,
		Frequency: causeway.DonationFrequency(f.Frequency),

		PaymentMethod: strings.TrimSpace(f.PaymentMethod),
		OrderID:       strings.TrimSpace(f.OrderID),

		Phone:      clean(f.Phone),
		Address:    clean(f.Address),
		City:       clean(f.City),
		Province:   clean(f.Province),
		PostalCode: clean(f.PostalCode),

		CampaignID:   clean(f.CampaignID),
		SourcePageID: f.SourcePageID,
	}
}

type signatureForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Comment   string `json:"comment"`

	OptIn bool `json:"opt_in"`
}

func (f signatureForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.FirstName, nameValidation...),
		validation.Field(&f.LastName, nameValidation...),
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Comment, validation.Length(0, 1000)),
	)
}

func (f signatureForm) toSignature() *causeway.Signature {
	return &causeway.Signature{
		FirstName: clean(f.FirstName),
		LastName:  clean(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		Comment:   clean(f.Comment),

		OptIn: f.OptIn,
	}
}

func clean(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
