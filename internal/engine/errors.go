package engine

import (
	"errors"
	"fmt"
)

// Interactive validation errors.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrSelfTip       = errors.New("cannot tip yourself")
)

// WithdrawErrorKind classifies withdrawal failures.
type WithdrawErrorKind int

const (
	// KindInvalidAddress: malformed or unverifiable destination address.
	KindInvalidAddress WithdrawErrorKind = iota
	// KindNoAddress: the user has no bound custodial address.
	KindNoAddress
	// KindAddressBusy: the custodial address is locked by a concurrent
	// operation.
	KindAddressBusy
	// KindInsufficientBalance: off-chain ledger balance below amount + fee.
	KindInsufficientBalance
	// KindInsufficientFunds: custodial on-chain balance below amount + fee.
	KindInsufficientFunds
	// KindChainUnavailable: the ledger node could not be reached.
	KindChainUnavailable
	// KindTransactionFailed: on-chain submission rejected or unconfirmed
	// after the off-chain debit was applied. The engine issues a
	// compensating credit before surfacing this.
	KindTransactionFailed
)

func (k WithdrawErrorKind) String() string {
	switch k {
	case KindInvalidAddress:
		return "invalid address"
	case KindNoAddress:
		return "no deposit address"
	case KindAddressBusy:
		return "address busy"
	case KindInsufficientBalance:
		return "insufficient balance"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindChainUnavailable:
		return "chain unavailable"
	case KindTransactionFailed:
		return "transaction failed"
	default:
		return "unknown"
	}
}

// WithdrawError carries the failure kind plus the structured fields a caller
// needs to render a useful message: the address involved and the requested
// versus available amounts in rao.
type WithdrawError struct {
	Kind      WithdrawErrorKind
	Address   string
	Requested int64
	Available int64
	Err       error
}

func (e *WithdrawError) Error() string {
	switch e.Kind {
	case KindInsufficientBalance, KindInsufficientFunds:
		return fmt.Sprintf("withdraw %s: %s (requested %d rao, available %d rao)",
			e.Address, e.Kind, e.Requested, e.Available)
	default:
		if e.Err != nil {
			return fmt.Sprintf("withdraw %s: %s: %v", e.Address, e.Kind, e.Err)
		}
		return fmt.Sprintf("withdraw %s: %s", e.Address, e.Kind)
	}
}

func (e *WithdrawError) Unwrap() error {
	return e.Err
}

// AsWithdrawError unwraps err into a *WithdrawError if it is one.
func AsWithdrawError(err error) (*WithdrawError, bool) {
	var we *WithdrawError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}
