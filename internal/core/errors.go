package core

import "errors"

// Error kinds surfaced to API callers. Handlers map these to HTTP status
// classes with errors.Is; everything else is treated as an internal error.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrLimitExceeded    = errors.New("budget limit exceeded")
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)
