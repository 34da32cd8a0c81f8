package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taotip-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordTransaction appends a deposit/withdrawal audit entry. Callers treat
// failures as non-fatal: audit trail loss is lower severity than balance
// inconsistency, so a failed insert must never roll back the balance
// mutation it documents.
func (s *Service) RecordTransaction(ctx context.Context, user string, amount int64) error {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryInsertTransaction, id, user, amount, time.Now()); err != nil {
		zap.L().Error("Failed to record transaction",
			zap.String("user", user),
			zap.Int64("amount", amount),
			zap.Error(err))
		return fmt.Errorf("unable to record transaction: %w", err)
	}

	zap.L().Info("Transaction recorded",
		zap.String("id", id),
		zap.String("user", user),
		zap.Int64("amount", amount))
	return nil
}

// RecordTip appends a tip audit entry. Same silent-fail policy as
// RecordTransaction.
func (s *Service) RecordTip(ctx context.Context, sender, recipient string, amount int64) error {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryInsertTip, id, sender, recipient, amount, time.Now()); err != nil {
		zap.L().Error("Failed to record tip",
			zap.String("sender", sender),
			zap.String("recipient", recipient),
			zap.Int64("amount", amount),
			zap.Error(err))
		return fmt.Errorf("unable to record tip: %w", err)
	}

	zap.L().Info("Tip recorded",
		zap.String("id", id),
		zap.String("sender", sender),
		zap.String("recipient", recipient),
		zap.Int64("amount", amount))
	return nil
}

// ReverseWithdrawal credits back a withdrawal whose on-chain submission
// failed after the off-chain debit was already applied. The reversal record
// id is derived from the attempt id and inserted with OR IGNORE inside the
// same transaction as the credit, so a retried reversal credits at most once.
func (s *Service) ReverseWithdrawal(ctx context.Context, user string, amount int64, attemptId string) error {
	if amount < 0 {
		return fmt.Errorf("reversal amount cannot be negative: %d", amount)
	}
	reversalId := attemptId + "-reversal"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, queryInsertTransaction, reversalId, user, amount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert reversal record: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Warn("Withdrawal already reversed, skipping",
			zap.String("user", user),
			zap.String("attempt_id", attemptId))
		return nil
	}

	var newBalance int64
	if err := tx.QueryRowContext(ctx, queryCreditBalance, user, amount).Scan(&newBalance); err != nil {
		return fmt.Errorf("failed to credit reversal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reversal: %w", err)
	}

	zap.L().Info("Withdrawal reversed",
		zap.String("user", user),
		zap.Int64("amount", amount),
		zap.String("attempt_id", attemptId),
		zap.Int64("new_balance", newBalance))
	return nil
}

// GetTransactionHistory returns paginated deposit/withdrawal history for a
// user, newest first.
func (s *Service) GetTransactionHistory(ctx context.Context, user string, limit, offset int) ([]models.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, user, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		if err := rows.Scan(&rec.Id, &rec.User, &rec.Amount, &rec.Time); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return records, nil
}

// GetTipHistory returns paginated tip history involving a user as sender or
// recipient, newest first.
func (s *Service) GetTipHistory(ctx context.Context, user string, limit, offset int) ([]models.TipRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTipHistory, user, user, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get tip history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var records []models.TipRecord
	for rows.Next() {
		var rec models.TipRecord
		if err := rows.Scan(&rec.Id, &rec.Sender, &rec.Recipient, &rec.Amount, &rec.Time); err != nil {
			return nil, fmt.Errorf("failed to scan tip: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tip rows: %w", err)
	}

	return records, nil
}
