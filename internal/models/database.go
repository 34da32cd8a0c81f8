package models

import "time"

// Address represents a custodial deposit address in the wallet pool. The
// private seed material is stored encrypted; only the engine ever decrypts
// it, and only for the duration of a withdrawal signature.
type Address struct {
	Address       string     `db:"address"`
	EncryptedSeed []byte     `db:"encrypted_seed"`
	User          string     `db:"user"` // empty = unbound, pool-available
	Locked        bool       `db:"locked"`
	UnlockExpiry  *time.Time `db:"unlock_expiry"`
	Balance       int64      `db:"balance"` // last known on-chain balance, rao
	Welcomed      bool       `db:"welcomed"`
	CreatedAt     time.Time  `db:"created_at"`
}

// BalanceRecord represents a user's off-chain ledger balance (hot data).
// Balances are denominated in rao, the smallest on-chain unit; conversion
// to tao happens only at the display boundary.
type BalanceRecord struct {
	User      string    `db:"user"`
	Balance   int64     `db:"balance"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TransactionRecord represents an immutable audit log entry for a deposit or
// withdrawal (cold data). Positive amount = deposit, negative = withdrawal
// including the network fee. Never used for balance computation.
type TransactionRecord struct {
	Id     string    `db:"id"`
	User   string    `db:"user"`
	Amount int64     `db:"amount"`
	Time   time.Time `db:"time"`
}

// TipRecord represents an immutable audit log entry for an internal transfer
// between two users.
type TipRecord struct {
	Id        string    `db:"id"`
	Sender    string    `db:"sender"`
	Recipient string    `db:"recipient"`
	Amount    int64     `db:"amount"`
	Time      time.Time `db:"time"`
}
