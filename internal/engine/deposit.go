package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taotip-go/internal/chain"
	"taotip-go/internal/models"
	"taotip-go/internal/store"
	"taotip-go/internal/vault"

	"go.uber.org/zap"
)

// RequestDeposit resolves the user's custodial deposit address, binding one
// from the pool or generating a fresh keypair when the pool is empty. The
// binding is durable: the same user always gets the same address back.
// Deposits themselves are discovered and credited by the scanner.
func (e *Engine) RequestDeposit(ctx context.Context, user string) (*models.DepositInfo, error) {
	addr, err := e.store.GetAddressByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	if addr == nil {
		addr, err = e.store.BindAddress(ctx, user)
		if errors.Is(err, store.ErrNoUnboundAddress) {
			addr, err = e.createBoundAddress(ctx, user)
		}
		if err != nil {
			return nil, err
		}
	}

	// Refresh the deposit window so the scanner keeps this address hot and
	// the user knows how long the address is guaranteed active.
	if err := e.store.SetLockExpiry(ctx, addr.Address, e.depositWindow); err != nil {
		zap.L().Warn("Failed to refresh deposit window",
			zap.String("address", addr.Address),
			zap.Error(err))
	}

	return &models.DepositInfo{
		Address:     addr.Address,
		ActiveUntil: time.Now().Add(e.depositWindow),
	}, nil
}

// createBoundAddress generates a new custodial keypair, encrypts the seed
// material with the vault key, and persists it bound directly to the user.
func (e *Engine) createBoundAddress(ctx context.Context, user string) (*models.Address, error) {
	keypair, err := chain.GenerateKeypair(e.ss58Prefix)
	if err != nil {
		return nil, fmt.Errorf("unable to generate keypair: %w", err)
	}

	encryptedSeed, err := vault.Encrypt([]byte(keypair.Mnemonic), e.vaultKey)
	if err != nil {
		return nil, fmt.Errorf("unable to encrypt seed: %w", err)
	}

	addr, err := e.store.CreateAddress(ctx, store.CreateAddressParams{
		Address:       keypair.Address,
		EncryptedSeed: encryptedSeed,
		User:          user,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Created custodial address for user",
		zap.String("address", addr.Address),
		zap.String("user", user))
	return addr, nil
}
