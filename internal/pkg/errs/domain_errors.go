package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers.
// Handlers map these onto HTTP statuses; nothing below 4xx/5xx semantics
// leaks into the domain packages themselves.
var (
	// Vehicle errors
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrVehicleUnavailable = errors.New("vehicle not available for booking")

	// Booking errors
	ErrBookingNotFound = errors.New("booking not found")
	ErrWindowConflict  = errors.New("window conflicts with an existing booking")
	ErrInvalidWindow   = errors.New("invalid booking window")
	ErrInvalidState    = errors.New("invalid booking state transition")

	// Pricing errors
	ErrUnknownAddOn    = errors.New("unknown add-on")
	ErrUnknownCategory = errors.New("unknown vehicle category")

	// Payment errors
	ErrPaymentDeclined = errors.New("payment authorization declined")

	// Idempotency errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrRequestInProgress      = errors.New("request with this idempotency key is in progress")
	ErrDuplicateRequest       = errors.New("idempotency key reused with different parameters")
	ErrIdempotencyCheckFailed = errors.New("idempotency check failed")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
