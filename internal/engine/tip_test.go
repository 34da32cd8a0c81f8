package engine

import (
	"context"
	"errors"
	"testing"

	"taotip-go/internal/store"
)

func TestSendTip(t *testing.T) {
	eng, dbService, _, cleanup := setupEngine(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := dbService.CreditBalance(ctx, "alice", 10_000_000_000); err != nil {
		t.Fatalf("CreditBalance failed: %v", err)
	}

	if err := eng.SendTip(ctx, "alice", "bob", 5_000_000_000); err != nil {
		t.Fatalf("SendTip failed: %v", err)
	}

	senderBalance, err := eng.CheckBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("CheckBalance failed: %v", err)
	}
	if senderBalance != 5_000_000_000 {
		t.Errorf("Expected sender balance 5000000000, got %d", senderBalance)
	}

	recipientBalance, err := eng.CheckBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("CheckBalance failed: %v", err)
	}
	if recipientBalance != 5_000_000_000 {
		t.Errorf("Expected recipient balance 5000000000, got %d", recipientBalance)
	}

	tips, err := dbService.GetTipHistory(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("GetTipHistory failed: %v", err)
	}
	if len(tips) != 1 {
		t.Fatalf("Expected 1 tip record, got %d", len(tips))
	}
	if tips[0].Sender != "alice" || tips[0].Recipient != "bob" || tips[0].Amount != 5_000_000_000 {
		t.Errorf("Unexpected tip record: %+v", tips[0])
	}
}

func TestSendTip_InvalidAmount(t *testing.T) {
	eng, _, _, cleanup := setupEngine(t)
	defer cleanup()

	ctx := context.Background()
	if err := eng.SendTip(ctx, "alice", "bob", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := eng.SendTip(ctx, "alice", "bob", -5); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestSendTip_SelfTip(t *testing.T) {
	eng, _, _, cleanup := setupEngine(t)
	defer cleanup()

	if err := eng.SendTip(context.Background(), "alice", "alice", 100); !errors.Is(err, ErrSelfTip) {
		t.Errorf("Expected ErrSelfTip, got %v", err)
	}
}

func TestSendTip_InsufficientBalanceNoMutation(t *testing.T) {
	eng, dbService, _, cleanup := setupEngine(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := dbService.CreditBalance(ctx, "alice", 100); err != nil {
		t.Fatalf("CreditBalance failed: %v", err)
	}

	err := eng.SendTip(ctx, "alice", "bob", 1000)
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	senderBalance, err := eng.CheckBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("CheckBalance failed: %v", err)
	}
	if senderBalance != 100 {
		t.Errorf("Expected sender balance unchanged at 100, got %d", senderBalance)
	}

	recipientBalance, err := eng.CheckBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("CheckBalance failed: %v", err)
	}
	if recipientBalance != 0 {
		t.Errorf("Expected recipient balance 0, got %d", recipientBalance)
	}
}
