package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrRelayUnavailable means the gasless relay could not be reached or
	// refused service. Recoverable: retry later or fall back to direct
	// submission.
	ErrRelayUnavailable = errors.New("relay unavailable")

	// ErrInsufficientFunds means the paying account cannot cover the
	// transaction. Terminal for this attempt; the user must top up first.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUserRejected means the wallet declined to sign. Terminal for this
	// attempt.
	ErrUserRejected = errors.New("user rejected")
)

// ChainError wraps any other failure reported by the chain with its detail
// preserved for diagnostics. Recoverable by retry.
type ChainError struct {
	Detail string
	Err    error
}

func (e *ChainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chain error: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("chain error: %s", e.Detail)
}

func (e *ChainError) Unwrap() error { return e.Err }
