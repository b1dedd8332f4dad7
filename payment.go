package causeway

import "github.com/shopspring/decimal"

type ErrorKind string

const (
	ErrKindCardDeclined         ErrorKind = "card_declined"
	ErrKindPaymentRejected      ErrorKind = "payment_rejected"
	ErrKindSubscriptionRejected ErrorKind = "subscription_rejected"
	ErrKindInvalidRequest       ErrorKind = "invalid_request"
	ErrKindProviderUnavailable  ErrorKind = "provider_unavailable"
	ErrKindUnexpected           ErrorKind = "unexpected"
)

// UserMessage returns the safe, user-facing message for an error kind. Card
// declines are the only kind that surfaces provider text, and that text is
// attached separately in FailedOutcome, never here.
func (k ErrorKind) UserMessage() string {
	switch k {
	case ErrKindCardDeclined:
		return "Your card was declined. Please try a different payment method."
	case ErrKindPaymentRejected:
		return "Your payment could not be completed. Please try again."
	case ErrKindSubscriptionRejected:
		return "Your monthly donation could not be set up. Please try again."
	case ErrKindInvalidRequest:
		return "We could not process your donation due to a configuration problem. Please contact us."
	case ErrKindProviderUnavailable:
		return "Our payment provider is temporarily unavailable. Please try again later."
	default:
		return "Something went wrong while processing your donation. Please try again."
	}
}

type OutcomeState string

const (
	OutcomeSucceeded      OutcomeState = "succeeded"
	OutcomeRequiresAction OutcomeState = "requires_action"
	OutcomeFailed         OutcomeState = "failed"
)

// PaymentOutcome is the uniform result every gateway maps its provider
// responses into. Exactly one of the three states is set; the fields that are
// meaningful depend on the state.
type PaymentOutcome struct {
	State OutcomeState

	// Succeeded
	TransactionID  string
	SubscriptionID string
	CustomerID     string
	Amount         decimal.Decimal

	// RequiresAction
	ContinuationToken string

	// Failed
	Kind        ErrorKind
	UserMessage string
}

func SucceededOutcome(transactionID string, amount decimal.Decimal) *PaymentOutcome {
	return &PaymentOutcome{State: OutcomeSucceeded, TransactionID: transactionID, Amount: amount}
}

func RequiresActionOutcome(token string) *PaymentOutcome {
	return &PaymentOutcome{State: OutcomeRequiresAction, ContinuationToken: token}
}

func FailedOutcome(kind ErrorKind) *PaymentOutcome {
	return &PaymentOutcome{State: OutcomeFailed, Kind: kind, UserMessage: kind.UserMessage()}
}

// DeclinedOutcome carries the provider's own decline reason, shown verbatim.
func DeclinedOutcome(reason string) *PaymentOutcome {
	if reason == "" {
		return FailedOutcome(ErrKindCardDeclined)
	}
	return &PaymentOutcome{State: OutcomeFailed, Kind: ErrKindCardDeclined, UserMessage: reason}
}
