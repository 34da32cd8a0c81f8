package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"taotip-go/internal/chain"
	"taotip-go/internal/database"
	"taotip-go/internal/models"
	"taotip-go/internal/store"
)

type fakeChain struct {
	balances map[string]int64
	err      error
}

func (f *fakeChain) GetBalance(_ context.Context, address string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[address], nil
}

func (f *fakeChain) GetPaymentInfo(_ context.Context, _, _ string, _ int64) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (f *fakeChain) SubmitTransfer(_ context.Context, _ chain.SignedTransfer) (*chain.TransferResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChain) IsValidAddress(_ string) bool {
	return true
}

func setupScanner(t *testing.T, notify Notifier) (*Scanner, *database.Service, *fakeChain, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	dbService, err := database.NewServiceWithDB(db)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	fc := &fakeChain{balances: make(map[string]int64)}

	sc, err := New(Config{
		Store:         dbService,
		Chain:         fc,
		ScanInterval:  time.Minute,
		SweepInterval: time.Minute,
		Notify:        notify,
	})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}
	sc.ctx = context.Background()

	return sc, dbService, fc, func() { db.Close() }
}

func createBoundAddress(t *testing.T, dbService *database.Service, address, user string) {
	t.Helper()
	_, err := dbService.CreateAddress(context.Background(), store.CreateAddressParams{
		Address:       address,
		EncryptedSeed: []byte("encrypted-seed"),
		User:          user,
	})
	if err != nil {
		t.Fatalf("CreateAddress failed: %v", err)
	}
}

func TestScanOnce_CreditsDeposit(t *testing.T) {
	var events []models.DepositEvent
	sc, dbService, fc, cleanup := setupScanner(t, func(ev models.DepositEvent) {
		events = append(events, ev)
	})
	defer cleanup()

	ctx := context.Background()
	createBoundAddress(t, dbService, "5Addr1", "alice")
	fc.balances["5Addr1"] = 5_000_000

	sc.scanOnce()

	balance, err := dbService.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 5_000_000 {
		t.Errorf("Expected credited balance 5000000, got %d", balance)
	}

	history, err := dbService.GetTransactionHistory(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Amount != 5_000_000 {
		t.Fatalf("Expected 1 deposit record of 5000000, got %+v", history)
	}

	if len(events) != 1 {
		t.Fatalf("Expected 1 deposit event, got %d", len(events))
	}
	ev := events[0]
	if ev.User != "alice" || ev.Address != "5Addr1" || ev.Amount != 5_000_000 || ev.NewBalance != 5_000_000 {
		t.Errorf("Unexpected deposit event: %+v", ev)
	}
	if !ev.FirstDeposit {
		t.Error("Expected first deposit flag on a fresh address")
	}
}

func TestScanOnce_NoDoubleCreditOnRescan(t *testing.T) {
	sc, dbService, fc, cleanup := setupScanner(t, nil)
	defer cleanup()

	ctx := context.Background()
	createBoundAddress(t, dbService, "5Addr1", "alice")
	fc.balances["5Addr1"] = 5_000_000

	sc.scanOnce()
	sc.scanOnce()

	balance, err := dbService.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 5_000_000 {
		t.Errorf("Expected balance 5000000 after rescan, got %d", balance)
	}
}

func TestScanOnce_SecondDepositNotFirst(t *testing.T) {
	var events []models.DepositEvent
	sc, dbService, fc, cleanup := setupScanner(t, func(ev models.DepositEvent) {
		events = append(events, ev)
	})
	defer cleanup()

	createBoundAddress(t, dbService, "5Addr1", "alice")
	fc.balances["5Addr1"] = 5_000_000
	sc.scanOnce()

	fc.balances["5Addr1"] = 8_000_000
	sc.scanOnce()

	if len(events) != 2 {
		t.Fatalf("Expected 2 deposit events, got %d", len(events))
	}
	if events[1].Amount != 3_000_000 {
		t.Errorf("Expected second deposit delta 3000000, got %d", events[1].Amount)
	}
	if events[1].FirstDeposit {
		t.Error("Expected second deposit to not be flagged as first")
	}
}

func TestScanOnce_OutflowNotCredited(t *testing.T) {
	sc, dbService, fc, cleanup := setupScanner(t, nil)
	defer cleanup()

	ctx := context.Background()
	createBoundAddress(t, dbService, "5Addr1", "alice")
	fc.balances["5Addr1"] = 8_000_000
	sc.scanOnce()

	// A withdrawal lowered the on-chain balance; the delta is negative and
	// must never be credited
	fc.balances["5Addr1"] = 5_000_000
	sc.scanOnce()

	balance, err := dbService.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 8_000_000 {
		t.Errorf("Expected balance unchanged at 8000000, got %d", balance)
	}
}

func TestScanOnce_ChainUnavailableSkipsCycle(t *testing.T) {
	sc, dbService, fc, cleanup := setupScanner(t, nil)
	defer cleanup()

	ctx := context.Background()
	createBoundAddress(t, dbService, "5Addr1", "alice")
	fc.balances["5Addr1"] = 5_000_000
	fc.err = fmt.Errorf("%w: connection refused", chain.ErrUnavailable)

	sc.scanOnce()

	balance, err := dbService.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("Expected no credit while node is down, got %d", balance)
	}

	// Next cycle with the node back picks the deposit up
	fc.err = nil
	sc.scanOnce()

	balance, err = dbService.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 5_000_000 {
		t.Errorf("Expected credit after recovery, got %d", balance)
	}
}

func TestSweepOnce_ReclaimsExpiredLocks(t *testing.T) {
	sc, dbService, _, cleanup := setupScanner(t, nil)
	defer cleanup()

	ctx := context.Background()
	createBoundAddress(t, dbService, "5Addr1", "alice")

	acquired, err := dbService.AcquireLock(ctx, "5Addr1")
	if err != nil || !acquired {
		t.Fatalf("Expected to acquire lock, got acquired=%v err=%v", acquired, err)
	}
	if err := dbService.SetLockExpiry(ctx, "5Addr1", -time.Minute); err != nil {
		t.Fatalf("SetLockExpiry failed: %v", err)
	}

	sc.sweepOnce()

	addr, err := dbService.GetAddress(ctx, "5Addr1")
	if err != nil {
		t.Fatalf("GetAddress failed: %v", err)
	}
	if addr.Locked {
		t.Error("Expected expired lock to be reclaimed")
	}
	if addr.User != "alice" {
		t.Errorf("Expected binding to survive the sweep, got %q", addr.User)
	}
}

func TestNew_Validation(t *testing.T) {
	dbService := &database.Service{}
	fc := &fakeChain{}

	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing store", Config{Chain: fc, ScanInterval: time.Minute, SweepInterval: time.Minute}},
		{"missing chain", Config{Store: dbService, ScanInterval: time.Minute, SweepInterval: time.Minute}},
		{"bad scan interval", Config{Store: dbService, Chain: fc, SweepInterval: time.Minute}},
		{"bad sweep interval", Config{Store: dbService, Chain: fc, ScanInterval: time.Minute}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}
