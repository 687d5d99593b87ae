package service

import "errors"

var (
	ErrInvalidStep     = errors.New("action not allowed at this purchase step")
	ErrNoTransaction   = errors.New("purchase returned no transaction")
	ErrPaymentRejected = errors.New("payment was not verified")
	ErrBidTooLow       = errors.New("bid below minimum")
	ErrBidderRequired  = errors.New("bidder address required")
	ErrInvalidWallet   = errors.New("invalid wallet address")
	ErrInvalidSession  = errors.New("invalid wallet session")
)

// ValidationError is a user-facing form error. Message is shown verbatim.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
