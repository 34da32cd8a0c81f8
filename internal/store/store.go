package store

import (
	"context"
	"errors"
	"time"

	"taotip-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAddressNotFound     = errors.New("address not found")
	ErrNoUnboundAddress    = errors.New("no unbound address available")
	ErrAlreadyBound        = errors.New("user already has a bound address")
)

// CreateAddressParams contains the parameters for persisting a newly
// generated custodial address. User may be empty to leave the address in the
// unbound pool.
type CreateAddressParams struct {
	Address       string
	EncryptedSeed []byte
	User          string
}

// Store defines the document-store contract the engine and scanner depend
// on. Every mutation that guards an invariant (balance non-negativity, lock
// mutual exclusion, 1:1 address binding) must be a single atomic statement
// in the implementation, never a read followed by a write.
type Store interface {
	// --- Balance ledger ---

	// GetBalance returns the off-chain balance in rao, zero if the user has
	// no record.
	GetBalance(ctx context.Context, user string) (int64, error)
	// CreditBalance atomically increments the user's balance, upserting a
	// zero record first if absent. Returns the new balance.
	CreditBalance(ctx context.Context, user string, amount int64) (int64, error)
	// DebitBalance atomically decrements the user's balance only if the
	// result stays non-negative; otherwise ErrInsufficientBalance and no
	// mutation. Returns the new balance.
	DebitBalance(ctx context.Context, user string, amount int64) (int64, error)
	// GetAllBalances returns every non-zero balance record.
	GetAllBalances(ctx context.Context) ([]models.BalanceRecord, error)

	// --- Address pool ---

	CreateAddress(ctx context.Context, params CreateAddressParams) (*models.Address, error)
	GetAddress(ctx context.Context, address string) (*models.Address, error)
	GetAddressByUser(ctx context.Context, user string) (*models.Address, error)
	// BindAddress binds an unbound pool address to the user. Returns
	// ErrAlreadyBound if the user already has one, ErrNoUnboundAddress if
	// the pool is empty.
	BindAddress(ctx context.Context, user string) (*models.Address, error)
	GetBoundAddresses(ctx context.Context) ([]models.Address, error)
	CountAddresses(ctx context.Context) (int, error)

	// AcquireLock flips the address's lock flag to locked and reports
	// whether the caller won it. Compare-and-swap semantics: true only if
	// the previous state was unlocked.
	AcquireLock(ctx context.Context, address string) (bool, error)
	// ReleaseLock unconditionally unlocks the address.
	ReleaseLock(ctx context.Context, address string) error
	// SetLockExpiry sets the absolute expiry to now + ttl.
	SetLockExpiry(ctx context.Context, address string, ttl time.Duration) error
	// ReclaimExpiredLocks bulk-unlocks every locked address whose expiry is
	// unset or in the past and clears the expiry. The user binding is
	// preserved. Returns the number of addresses reclaimed.
	ReclaimExpiredLocks(ctx context.Context) (int64, error)

	// SetAddressBalance records a freshly observed on-chain balance and
	// returns the previously recorded balance together with the bound user.
	SetAddressBalance(ctx context.Context, address string, balance int64) (prev int64, user string, err error)
	// MarkWelcomed flags the address's owner as having received onboarding
	// info.
	MarkWelcomed(ctx context.Context, address string) error

	// --- Audit records (append-only, write failures are non-fatal) ---

	RecordTransaction(ctx context.Context, user string, amount int64) error
	RecordTip(ctx context.Context, sender, recipient string, amount int64) error
	// ReverseWithdrawal credits back a withdrawal whose on-chain submission
	// failed after the off-chain debit. Idempotent per attempt id: repeated
	// calls with the same id credit at most once.
	ReverseWithdrawal(ctx context.Context, user string, amount int64, attemptId string) error
	GetTransactionHistory(ctx context.Context, user string, limit, offset int) ([]models.TransactionRecord, error)
	GetTipHistory(ctx context.Context, user string, limit, offset int) ([]models.TipRecord, error)

	// --- Lifecycle ---
	Close()
}
