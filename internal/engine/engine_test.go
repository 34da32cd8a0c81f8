package engine

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"taotip-go/internal/chain"
	"taotip-go/internal/database"
	"taotip-go/internal/store"
	"taotip-go/internal/vault"
)

const testPrefix uint16 = 42

// fakeChain is a scriptable in-memory ledger node.
type fakeChain struct {
	balances     map[string]int64
	fee          int64
	feeErr       error
	balanceErr   error
	submitErr    error
	submitResult *chain.TransferResult
	submitted    []chain.SignedTransfer
}

func (f *fakeChain) GetBalance(_ context.Context, address string) (int64, error) {
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	return f.balances[address], nil
}

func (f *fakeChain) GetPaymentInfo(_ context.Context, _, _ string, _ int64) (int64, error) {
	if f.feeErr != nil {
		return 0, f.feeErr
	}
	return f.fee, nil
}

func (f *fakeChain) SubmitTransfer(_ context.Context, transfer chain.SignedTransfer) (*chain.TransferResult, error) {
	f.submitted = append(f.submitted, transfer)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if f.submitResult != nil {
		return f.submitResult, nil
	}
	return &chain.TransferResult{Success: true, Hash: "0xabc", ConfirmedBalance: f.balances[transfer.From] - transfer.Amount - f.fee}, nil
}

func (f *fakeChain) IsValidAddress(address string) bool {
	return chain.IsValidSS58(address, testPrefix)
}

func testVaultKey() []byte {
	key := make([]byte, vault.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func setupEngine(t *testing.T) (*Engine, *database.Service, *fakeChain, func()) {
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

	eng, err := New(Config{
		Store:         dbService,
		Chain:         fc,
		VaultKey:      testVaultKey(),
		SS58Prefix:    testPrefix,
		LockTTL:       10 * time.Minute,
		DepositWindow: 10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	return eng, dbService, fc, func() { db.Close() }
}

// createCustodialAddress stores a fully usable custodial address bound to
// user, with a real encrypted mnemonic, and returns the address.
func createCustodialAddress(t *testing.T, dbService *database.Service, user string) string {
	t.Helper()

	keypair, err := chain.GenerateKeypair(testPrefix)
	if err != nil {
		t.Fatalf("Failed to generate keypair: %v", err)
	}
	encryptedSeed, err := vault.Encrypt([]byte(keypair.Mnemonic), testVaultKey())
	if err != nil {
		t.Fatalf("Failed to encrypt seed: %v", err)
	}
	_, err = dbService.CreateAddress(context.Background(), store.CreateAddressParams{
		Address:       keypair.Address,
		EncryptedSeed: encryptedSeed,
		User:          user,
	})
	if err != nil {
		t.Fatalf("Failed to store address: %v", err)
	}
	return keypair.Address
}

// externalAddress returns a valid destination address outside the pool.
func externalAddress(t *testing.T) string {
	t.Helper()
	keypair, err := chain.GenerateKeypair(testPrefix)
	if err != nil {
		t.Fatalf("Failed to generate keypair: %v", err)
	}
	return keypair.Address
}
