package api

import (
	"net/http"

	"github.com/causewayhq/causeway"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type donationResponse struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`

	RequiresAction    bool   `json:"requires_action,omitempty"`
	ContinuationToken string `json:"continuation_token,omitempty"`
}

type validationResponse struct {
	Message string            `json:"message"`
	Errors  validation.Errors `json:"errors"`
}

func (s *API) createDonation(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	var form donationForm
	if err := decoder.Decode(&form, r.Form); err != nil {
		errorData(w, err, http.StatusBadRequest)
		return
	}

	if err := form.Validate(); err != nil {
		if verrs, ok := err.(validation.Errors); ok {
			errorData(w, validationResponse{
				Message: "Please correct the highlighted fields",
				Errors:  verrs,
			}, http.StatusBadRequest)
			return
		}
		errorData(w, err, http.StatusBadRequest)
		return
	}

	outcome := s.base.ProcessDonation(r.Context(), form.toRequest())
	switch outcome.State {
	case causeway.OutcomeSucceeded:
		returnData(w, donationResponse{
			Message:       "Thank you for your donation!",
			TransactionID: outcome.TransactionID,
		})
	case causeway.OutcomeRequiresAction:
		returnData(w, donationResponse{
			RequiresAction:    true,
			ContinuationToken: outcome.ContinuationToken,
		})
	default:
		errorData(w, donationResponse{Message: outcome.UserMessage}, http.StatusBadRequest)
	}
}

// createDonationForm handles plain HTML form posts. The outcome is reported
// by redirecting back to the originating page with a marker flag, never by a
// JSON body.
func (s *API) createDonationForm(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	var form donationForm
	if err := decoder.Decode(&form, r.Form); err != nil {
		redirectBack(w, r, "donation_error")
		return
	}
	if err := form.Validate(); err != nil {
		redirectBack(w, r, "donation_error")
		return
	}

	outcome := s.base.ProcessDonation(r.Context(), form.toRequest())
	redirectBack(w, r, donationFlag(outcome.State))
}

// donationFlag maps a payment outcome to the redirect marker the front-end
// banners key off. A pending authentication challenge can't continue without
// the async client, but it is not a failure: it gets its own flag.
func donationFlag(state causeway.OutcomeState) string {
	switch state {
	case causeway.OutcomeSucceeded:
		return "donation_success"
	case causeway.OutcomeRequiresAction:
		return "donation_pending"
	default:
		return "donation_error"
	}
}
