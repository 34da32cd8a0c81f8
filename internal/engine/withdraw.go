/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"context"
	"errors"
	"fmt"

	"taotip-go/internal/chain"
	"taotip-go/internal/store"
	"taotip-go/internal/vault"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Withdraw moves amount rao from the user's off-chain balance to an external
// on-chain address, paying the network fee from the user's balance.
//
// The state machine is: validate destination -> resolve bound custodial
// address -> lock it -> quote the fee -> verify on-chain funds -> debit the
// off-chain ledger -> submit on-chain -> confirm. The off-chain debit lands
// before submission so the ledger never shows more available balance than
// what is actually in flight; if submission then fails, an idempotent
// compensating credit restores the debit before the error surfaces.
//
// Returns the user's new off-chain balance in rao.
func (e *Engine) Withdraw(ctx context.Context, user, dest string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	// Requested -> AddressResolved
	if !e.chain.IsValidAddress(dest) {
		return 0, &WithdrawError{Kind: KindInvalidAddress, Address: dest}
	}

	addr, err := e.store.GetAddressByUser(ctx, user)
	if err != nil {
		return 0, err
	}
	if addr == nil {
		return 0, &WithdrawError{Kind: KindNoAddress, Address: dest}
	}

	// The address lock serializes concurrent withdrawals against the same
	// custodial wallet. Expiry makes a crashed withdrawal self-heal via the
	// reclamation sweep.
	locked, err := e.store.AcquireLock(ctx, addr.Address)
	if err != nil {
		return 0, err
	}
	if !locked {
		return 0, &WithdrawError{Kind: KindAddressBusy, Address: addr.Address}
	}
	defer func() {
		if err := e.store.ReleaseLock(context.WithoutCancel(ctx), addr.Address); err != nil {
			zap.L().Error("Failed to release withdrawal lock",
				zap.String("address", addr.Address),
				zap.Error(err))
		}
	}()
	if err := e.store.SetLockExpiry(ctx, addr.Address, e.lockTTL); err != nil {
		zap.L().Warn("Failed to set withdrawal lock expiry",
			zap.String("address", addr.Address),
			zap.Error(err))
	}

	// AddressResolved -> FeeQuoted. The fee comes from a dry-run payment
	// info call; it depends on call encoding and network state.
	fee, err := e.chain.GetPaymentInfo(ctx, addr.Address, dest, amount)
	if err != nil {
		return 0, e.chainError(dest, err)
	}
	total := amount + fee

	// FeeQuoted -> BalanceReserved. The custodial wallet must cover amount
	// plus fee on-chain before we reserve anything off-chain.
	onChain, err := e.chain.GetBalance(ctx, addr.Address)
	if err != nil {
		return 0, e.chainError(dest, err)
	}
	if onChain < total {
		return 0, &WithdrawError{
			Kind:      KindInsufficientFunds,
			Address:   addr.Address,
			Requested: total,
			Available: onChain,
		}
	}

	newBalance, err := e.store.DebitBalance(ctx, user, total)
	if errors.Is(err, store.ErrInsufficientBalance) {
		available, balErr := e.store.GetBalance(ctx, user)
		if balErr != nil {
			zap.L().Warn("Failed to read balance for error detail", zap.Error(balErr))
		}
		return 0, &WithdrawError{
			Kind:      KindInsufficientBalance,
			Address:   dest,
			Requested: total,
			Available: available,
		}
	}
	if err != nil {
		return 0, err
	}

	if err := e.store.RecordTransaction(ctx, user, -total); err != nil {
		zap.L().Error("Failed to record withdrawal audit entry",
			zap.String("user", user),
			zap.Int64("amount", total),
			zap.Error(err))
	}

	// BalanceReserved -> Submitted
	attemptId := uuid.New().String()
	result, err := e.submitTransfer(ctx, addr.EncryptedSeed, addr.Address, dest, amount)
	if err != nil || !result.Success {
		e.compensate(ctx, user, total, attemptId)
		if err == nil {
			err = fmt.Errorf("transfer not confirmed")
		}
		return 0, &WithdrawError{Kind: KindTransactionFailed, Address: dest, Err: err}
	}

	// Submitted -> Confirmed: cache the custodial wallet's post-transfer
	// balance so the scanner does not misread the outflow as a deposit delta.
	if _, _, err := e.store.SetAddressBalance(ctx, addr.Address, result.ConfirmedBalance); err != nil {
		zap.L().Error("Failed to persist confirmed address balance",
			zap.String("address", addr.Address),
			zap.Error(err))
	}

	zap.L().Info("Withdrawal confirmed",
		zap.String("user", user),
		zap.String("dest", dest),
		zap.Int64("amount", amount),
		zap.Int64("fee", fee),
		zap.String("hash", result.Hash),
		zap.Int64("new_balance", newBalance))
	return newBalance, nil
}

func (e *Engine) submitTransfer(ctx context.Context, encryptedSeed []byte, from, dest string, amount int64) (*chain.TransferResult, error) {
	mnemonic, err := vault.Decrypt(encryptedSeed, e.vaultKey)
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt seed: %w", err)
	}

	keypair, err := chain.KeypairFromMnemonic(string(mnemonic), e.ss58Prefix)
	if err != nil {
		return nil, fmt.Errorf("unable to rebuild keypair: %w", err)
	}

	payload := chain.TransferPayload(from, dest, amount)
	return e.chain.SubmitTransfer(ctx, chain.SignedTransfer{
		From:      from,
		To:        dest,
		Amount:    amount,
		PublicKey: keypair.PublicKey(),
		Signature: keypair.Sign(payload),
	})
}

// compensate credits the debited total back to the user after a failed
// submission. Idempotent per attempt id at the store level, so a retry can
// never double-credit.
func (e *Engine) compensate(ctx context.Context, user string, total int64, attemptId string) {
	// The original debit must be restored even if the caller's context is
	// already done.
	ctx = context.WithoutCancel(ctx)
	if err := e.store.ReverseWithdrawal(ctx, user, total, attemptId); err != nil {
		// Worst case: funds remain reserved and reconciliation is manual.
		zap.L().Error("COMPENSATING CREDIT FAILED, manual reconciliation required",
			zap.String("user", user),
			zap.Int64("amount", total),
			zap.String("attempt_id", attemptId),
			zap.Error(err))
		return
	}
	zap.L().Info("Compensating credit applied",
		zap.String("user", user),
		zap.Int64("amount", total),
		zap.String("attempt_id", attemptId))
}

func (e *Engine) chainError(dest string, err error) error {
	if errors.Is(err, chain.ErrUnavailable) {
		return &WithdrawError{Kind: KindChainUnavailable, Address: dest, Err: err}
	}
	return err
}
