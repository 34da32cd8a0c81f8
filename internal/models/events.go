package models

import "time"

// DepositEvent is emitted by the deposit scanner once per address whose
// on-chain balance increased since the last sweep. Amounts are in rao.
type DepositEvent struct {
	User         string
	Address      string
	Amount       int64
	NewBalance   int64
	FirstDeposit bool // the owning user has not been welcomed before
	Time         time.Time
}

// DepositInfo is returned to a user who requested a deposit address.
type DepositInfo struct {
	Address     string
	ActiveUntil time.Time
}
