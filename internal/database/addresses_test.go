package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"taotip-go/internal/store"
)

func createTestAddress(t *testing.T, service *Service, address, user string) {
	t.Helper()
	_, err := service.CreateAddress(context.Background(), store.CreateAddressParams{
		Address:       address,
		EncryptedSeed: []byte("encrypted-seed-" + address),
		User:          user,
	})
	if err != nil {
		t.Fatalf("CreateAddress failed: %v", err)
	}
}

func TestCreateAndGetAddress(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestAddress(t, service, "5Addr1", "")

	addr, err := service.GetAddress(ctx, "5Addr1")
	if err != nil {
		t.Fatalf("GetAddress failed: %v", err)
	}
	if addr.Address != "5Addr1" {
		t.Errorf("Expected address 5Addr1, got %s", addr.Address)
	}
	if addr.User != "" {
		t.Errorf("Expected unbound address, got user %q", addr.User)
	}
	if addr.Locked {
		t.Error("Expected new address to be unlocked")
	}
	if string(addr.EncryptedSeed) != "encrypted-seed-5Addr1" {
		t.Error("Encrypted seed did not round-trip")
	}
}

func TestGetAddress_NotFound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.GetAddress(context.Background(), "missing")
	if !errors.Is(err, store.ErrAddressNotFound) {
		t.Fatalf("Expected ErrAddressNotFound, got %v", err)
	}
}

func TestGetAddressByUser_NoneBound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	addr, err := service.GetAddressByUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetAddressByUser failed: %v", err)
	}
	if addr != nil {
		t.Errorf("Expected nil for unbound user, got %v", addr)
	}
}

func TestBindAddress(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestAddress(t, service, "5Addr1", "")

	addr, err := service.BindAddress(ctx, "alice")
	if err != nil {
		t.Fatalf("BindAddress failed: %v", err)
	}
	if addr.User != "alice" {
		t.Errorf("Expected bound user alice, got %q", addr.User)
	}

	// Second bind for the same user must be rejected, the binding is 1:1
	if _, err := service.BindAddress(ctx, "alice"); !errors.Is(err, store.ErrAlreadyBound) {
		t.Fatalf("Expected ErrAlreadyBound, got %v", err)
	}

	// Pool is exhausted for the next user
	if _, err := service.BindAddress(ctx, "bob"); !errors.Is(err, store.ErrNoUnboundAddress) {
		t.Fatalf("Expected ErrNoUnboundAddress, got %v", err)
	}
}

func TestBindAddress_EmptyPool(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.BindAddress(context.Background(), "alice")
	if !errors.Is(err, store.ErrNoUnboundAddress) {
		t.Fatalf("Expected ErrNoUnboundAddress, got %v", err)
	}
}

func TestAcquireLock_ExactlyOneWinner(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestAddress(t, service, "5Addr1", "alice")

	const callers = 10
	var wg sync.WaitGroup
	wins := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, err := service.AcquireLock(ctx, "5Addr1")
			if err != nil {
				t.Errorf("AcquireLock failed: %v", err)
				return
			}
			wins <- acquired
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for acquired := range wins {
		if acquired {
			won++
		}
	}
	if won != 1 {
		t.Errorf("Expected exactly 1 lock winner, got %d", won)
	}
}

func TestReleaseLock(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestAddress(t, service, "5Addr1", "alice")

	acquired, err := service.AcquireLock(ctx, "5Addr1")
	if err != nil || !acquired {
		t.Fatalf("Expected to acquire lock, got acquired=%v err=%v", acquired, err)
	}

	if err := service.ReleaseLock(ctx, "5Addr1"); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	acquired, err = service.AcquireLock(ctx, "5Addr1")
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !acquired {
		t.Error("Expected lock to be acquirable after release")
	}
}

func TestReclaimExpiredLocks(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestAddress(t, service, "5Expired", "alice")
	createTestAddress(t, service, "5Active", "bob")
	createTestAddress(t, service, "5NoExpiry", "carol")

	for _, address := range []string{"5Expired", "5Active", "5NoExpiry"} {
		acquired, err := service.AcquireLock(ctx, address)
		if err != nil || !acquired {
			t.Fatalf("Expected to acquire lock on %s, got acquired=%v err=%v", address, acquired, err)
		}
	}

	if err := service.SetLockExpiry(ctx, "5Expired", -time.Minute); err != nil {
		t.Fatalf("SetLockExpiry failed: %v", err)
	}
	if err := service.SetLockExpiry(ctx, "5Active", time.Hour); err != nil {
		t.Fatalf("SetLockExpiry failed: %v", err)
	}

	// Expired and never-set expiries are reclaimed, the active lock is not
	count, err := service.ReclaimExpiredLocks(ctx)
	if err != nil {
		t.Fatalf("ReclaimExpiredLocks failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 reclaimed locks, got %d", count)
	}

	expired, err := service.GetAddress(ctx, "5Expired")
	if err != nil {
		t.Fatalf("GetAddress failed: %v", err)
	}
	if expired.Locked {
		t.Error("Expected expired lock to be released")
	}
	if expired.User != "alice" {
		t.Errorf("Expected binding to survive reclamation, got user %q", expired.User)
	}

	active, err := service.GetAddress(ctx, "5Active")
	if err != nil {
		t.Fatalf("GetAddress failed: %v", err)
	}
	if !active.Locked {
		t.Error("Expected active lock to be preserved")
	}
}

func TestSetAddressBalance_ReturnsPreviousAndUser(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestAddress(t, service, "5Addr1", "alice")

	prev, user, err := service.SetAddressBalance(ctx, "5Addr1", 5_000_000)
	if err != nil {
		t.Fatalf("SetAddressBalance failed: %v", err)
	}
	if prev != 0 {
		t.Errorf("Expected previous balance 0, got %d", prev)
	}
	if user != "alice" {
		t.Errorf("Expected bound user alice, got %q", user)
	}

	prev, _, err = service.SetAddressBalance(ctx, "5Addr1", 8_000_000)
	if err != nil {
		t.Fatalf("SetAddressBalance failed: %v", err)
	}
	if prev != 5_000_000 {
		t.Errorf("Expected previous balance 5000000, got %d", prev)
	}
}

func TestSetAddressBalance_UnknownAddress(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, _, err := service.SetAddressBalance(context.Background(), "missing", 1)
	if !errors.Is(err, store.ErrAddressNotFound) {
		t.Fatalf("Expected ErrAddressNotFound, got %v", err)
	}
}

func TestMarkWelcomed(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestAddress(t, service, "5Addr1", "alice")

	addr, err := service.GetAddress(ctx, "5Addr1")
	if err != nil {
		t.Fatalf("GetAddress failed: %v", err)
	}
	if addr.Welcomed {
		t.Fatal("Expected new address to be unwelcomed")
	}

	if err := service.MarkWelcomed(ctx, "5Addr1"); err != nil {
		t.Fatalf("MarkWelcomed failed: %v", err)
	}

	addr, err = service.GetAddress(ctx, "5Addr1")
	if err != nil {
		t.Fatalf("GetAddress failed: %v", err)
	}
	if !addr.Welcomed {
		t.Error("Expected address to be welcomed")
	}
}

func TestCountAddressesAndGetBound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		createTestAddress(t, service, fmt.Sprintf("5Pool%d", i), "")
	}
	createTestAddress(t, service, "5Bound", "alice")

	count, err := service.CountAddresses(ctx)
	if err != nil {
		t.Fatalf("CountAddresses failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 addresses, got %d", count)
	}

	bound, err := service.GetBoundAddresses(ctx)
	if err != nil {
		t.Fatalf("GetBoundAddresses failed: %v", err)
	}
	if len(bound) != 1 {
		t.Fatalf("Expected 1 bound address, got %d", len(bound))
	}
	if bound[0].Address != "5Bound" || bound[0].User != "alice" {
		t.Errorf("Unexpected bound address: %+v", bound[0])
	}
}
