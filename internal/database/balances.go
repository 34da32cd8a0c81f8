package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taotip-go/internal/models"
	"taotip-go/internal/store"

	"go.uber.org/zap"
)

// GetBalance returns the off-chain balance in rao, zero if the user has no
// record.
func (s *Service) GetBalance(ctx context.Context, user string) (int64, error) {
	zap.L().Debug("Getting balance", zap.String("user", user))

	var balance int64
	err := s.db.QueryRowContext(ctx, queryGetBalance, user).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// No balance record means zero balance
		return 0, nil
	}
	if err != nil {
		zap.L().Error("Failed to get balance", zap.String("user", user), zap.Error(err))
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// CreditBalance atomically increments the user's balance, creating a zero
// record first if absent. The increment and the upsert are one statement so
// concurrent credits can never lose an update.
func (s *Service) CreditBalance(ctx context.Context, user string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount cannot be negative: %d", amount)
	}

	var newBalance int64
	err := s.db.QueryRowContext(ctx, queryCreditBalance, user, amount).Scan(&newBalance)
	if err != nil {
		zap.L().Error("Failed to credit balance",
			zap.String("user", user),
			zap.Int64("amount", amount),
			zap.Error(err))
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}

	zap.L().Info("Balance credited",
		zap.String("user", user),
		zap.Int64("amount", amount),
		zap.Int64("new_balance", newBalance))
	return newBalance, nil
}

// DebitBalance atomically decrements the user's balance. The sufficiency
// check is part of the UPDATE predicate, so two concurrent debits of the
// same user cannot both pass a stale balance check.
func (s *Service) DebitBalance(ctx context.Context, user string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount cannot be negative: %d", amount)
	}

	var newBalance int64
	err := s.db.QueryRowContext(ctx, queryDebitBalance, amount, user, amount).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		// Either no record or the balance would go negative
		return 0, store.ErrInsufficientBalance
	}
	if err != nil {
		zap.L().Error("Failed to debit balance",
			zap.String("user", user),
			zap.Int64("amount", amount),
			zap.Error(err))
		return 0, fmt.Errorf("failed to debit balance: %w", err)
	}

	zap.L().Info("Balance debited",
		zap.String("user", user),
		zap.Int64("amount", amount),
		zap.Int64("new_balance", newBalance))
	return newBalance, nil
}

// GetAllBalances returns every non-zero balance record.
func (s *Service) GetAllBalances(ctx context.Context) ([]models.BalanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAllBalances)
	if err != nil {
		zap.L().Error("Failed to query balances", zap.Error(err))
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var balances []models.BalanceRecord
	for rows.Next() {
		var rec models.BalanceRecord
		if err := rows.Scan(&rec.User, &rec.Balance, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		balances = append(balances, rec)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during balance row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}

	zap.L().Debug("Retrieved balances", zap.Int("count", len(balances)))
	return balances, nil
}
