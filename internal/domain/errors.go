package domain

import "errors"

// Operation failure taxonomy. Every failure path returns one of these
// sentinels (possibly wrapped); callers branch with errors.Is.
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidState      = errors.New("invalid state for operation")
	ErrDeadlineNotPassed = errors.New("bid deadline has not passed")
	ErrAlreadyBid        = errors.New("contractor already has a bid on this contract")
	ErrAlreadyAwarded    = errors.New("contract already has an awarded bid")
	ErrAlreadyPaid       = errors.New("contract already paid")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
