package billing

import "errors"

var (
	// ErrSetupRequired means the user has no billing day configured yet.
	// Recoverable by user action, surfaced as "setup required" and never as
	// a server failure.
	ErrSetupRequired = errors.New("billing day not configured")

	// ErrNothingToBill means no subscription renewal falls inside the
	// current billing window. Informational.
	ErrNothingToBill = errors.New("no charges in current billing window")

	// ErrAlreadySettled means a paid billing cycle already exists for the
	// (user, period) pair. Callers should treat this as success-equivalent.
	ErrAlreadySettled = errors.New("billing period already settled")

	// ErrInsufficientCredit means the wallet balance dropped below the
	// credit the preview planned to apply before the settlement transaction
	// could debit it. The settlement rolls back; retrying yields a fresh
	// preview against the new balance.
	ErrInsufficientCredit = errors.New("wallet balance changed during settlement")
)
