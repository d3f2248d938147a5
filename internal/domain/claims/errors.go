package claims

import "errors"

// Sentinel errors returned by the claim ledger. Callers distinguish domain
// failures (recorded as batch exceptions) from infrastructure faults, which
// wrap underlying driver errors instead.
var (
	ErrClaimNotFound        = errors.New("claim not found")
	ErrInvalidAmount        = errors.New("paid amount must not be negative")
	ErrAmountExceedsCharges = errors.New("payment amount exceeds remaining charges")
	ErrDuplicateClaimNumber = errors.New("claim number already exists")
)
