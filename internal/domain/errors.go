package domain

import "errors"

// Error kinds. Every error returned by the core wraps exactly one of these so
// callers can classify it with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrStoreUnavailable  = errors.New("database not connected")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	// Not found
	ErrBankNotFound       = newError(ErrNotFound, "bank not found")
	ErrBranchNotFound     = newError(ErrNotFound, "branch not found")
	ErrAccountNotFound    = newError(ErrNotFound, "account not found")
	ErrParticularNotFound = newError(ErrNotFound, "transaction type not found")

	// Conflicts
	ErrDuplicateAccountNo     = newError(ErrConflict, "account number already exists")
	ErrDuplicateBankName      = newError(ErrConflict, "bank name already exists")
	ErrDuplicateBranchAddress = newError(ErrConflict, "branch address already exists for this bank")

	// Validation
	ErrInvalidAccountNo       = newError(ErrValidation, "invalid account number")
	ErrAccountNoTooLong       = newError(ErrValidation, "account number exceeds maximum length")
	ErrInvalidPrefix          = newError(ErrValidation, "invalid account prefix")
	ErrInvalidBankName        = newError(ErrValidation, "invalid bank name")
	ErrInvalidBranchAddress   = newError(ErrValidation, "invalid branch address")
	ErrInvalidBranch          = newError(ErrValidation, "invalid branch code or bank code")
	ErrInvalidBank            = newError(ErrValidation, "invalid bank code")
	ErrInvalidExpenseCategory = newError(ErrValidation, "invalid expense category")
	ErrInvalidAmount          = newError(ErrValidation, "amount must be positive")
	ErrAmountTooLarge         = newError(ErrValidation, "amount exceeds maximum allowed")
	ErrAmountTooSmall         = newError(ErrValidation, "amount below minimum allowed")
	ErrAmountPrecision        = newError(ErrValidation, "amount has too many decimal places")
	ErrAccountInactive        = newError(ErrValidation, "account is inactive")
	ErrInvalidEntry           = newError(ErrValidation, "entry must carry exactly one of debit or credit")

	// Auth
	ErrInvalidToken    = newError(ErrUnauthorized, "invalid token")
	ErrExpiredToken    = newError(ErrUnauthorized, "token expired")
	ErrMissingUserCode = newError(ErrUnauthorized, "user code missing from token")
)
