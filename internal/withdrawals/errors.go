package withdrawals

import "errors"

var (
	// ErrNotFound means the withdrawal id does not exist.
	ErrNotFound = errors.New("withdrawal not found")

	// ErrInsufficientBalance means the requested amount exceeds the agent's
	// available commission. The caller can retry with a lower amount.
	ErrInsufficientBalance = errors.New("insufficient available commission")

	// ErrReservationConflict means a concurrent reservation claimed some of the
	// candidate earning events and every retry attempt lost the race.
	ErrReservationConflict = errors.New("reservation conflict")

	// ErrAlreadyPaid means the withdrawal was settled before this call. Payout
	// callers treat it as success, not as a failure.
	ErrAlreadyPaid = errors.New("withdrawal already paid")

	// ErrAlreadyTerminal means the withdrawal is in a terminal state that the
	// requested transition cannot leave.
	ErrAlreadyTerminal = errors.New("withdrawal already terminal")
)
