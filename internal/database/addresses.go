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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taotip-go/internal/models"
	"taotip-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) CreateAddress(ctx context.Context, params store.CreateAddressParams) (*models.Address, error) {
	zap.L().Info("Storing address",
		zap.String("address", params.Address),
		zap.String("user", params.User))

	user := sql.NullString{String: params.User, Valid: params.User != ""}

	row := s.db.QueryRowContext(ctx, queryInsertAddress, params.Address, params.EncryptedSeed, user)
	addr, err := scanAddressRow(row)
	if err != nil {
		zap.L().Error("Failed to insert address",
			zap.String("address", params.Address),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert address: %w", err)
	}

	zap.L().Info("Address stored successfully", zap.String("address", addr.Address))
	return addr, nil
}

func (s *Service) GetAddress(ctx context.Context, address string) (*models.Address, error) {
	row := s.db.QueryRowContext(ctx, queryGetAddress, address)
	addr, err := scanAddressRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAddressNotFound
	}
	if err != nil {
		zap.L().Error("Failed to query address", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("unable to query address: %w", err)
	}
	return addr, nil
}

// GetAddressByUser returns the address bound to the user, nil if none.
func (s *Service) GetAddressByUser(ctx context.Context, user string) (*models.Address, error) {
	row := s.db.QueryRowContext(ctx, queryGetAddressByUser, user)
	addr, err := scanAddressRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to query address by user", zap.String("user", user), zap.Error(err))
		return nil, fmt.Errorf("unable to query address by user: %w", err)
	}
	return addr, nil
}

// BindAddress durably binds an unbound pool address to the user. The bind is
// a conditional update on "user IS NULL", retried on the next candidate if a
// concurrent caller won the row first.
func (s *Service) BindAddress(ctx context.Context, user string) (*models.Address, error) {
	existing, err := s.GetAddressByUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, store.ErrAlreadyBound
	}

	for {
		var candidate string
		err := s.db.QueryRowContext(ctx, queryGetBindCandidate).Scan(&candidate)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoUnboundAddress
		}
		if err != nil {
			return nil, fmt.Errorf("unable to query pool candidate: %w", err)
		}

		result, err := s.db.ExecContext(ctx, queryBindAddress, user, candidate)
		if err != nil {
			return nil, fmt.Errorf("unable to bind address: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("unable to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// Lost the candidate to a concurrent bind, pick another
			continue
		}

		zap.L().Info("Address bound to user",
			zap.String("address", candidate),
			zap.String("user", user))
		return s.GetAddress(ctx, candidate)
	}
}

func (s *Service) GetBoundAddresses(ctx context.Context) ([]models.Address, error) {
	rows, err := s.db.QueryContext(ctx, queryGetBoundAddresses)
	if err != nil {
		zap.L().Error("Failed to query bound addresses", zap.Error(err))
		return nil, fmt.Errorf("unable to query bound addresses: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var addresses []models.Address
	for rows.Next() {
		addr, err := scanAddressRow(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan address row: %w", err)
		}
		addresses = append(addresses, *addr)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during address row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating address rows: %w", err)
	}

	return addresses, nil
}

func (s *Service) CountAddresses(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountAddresses).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count addresses: %w", err)
	}
	return count, nil
}

// AcquireLock is the mutual-exclusion primitive for the address pool. The
// previous locked state is read and the flag set in a single statement:
// rows affected = 1 means the caller won the lock.
func (s *Service) AcquireLock(ctx context.Context, address string) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryAcquireLock, address)
	if err != nil {
		zap.L().Error("Failed to acquire lock", zap.String("address", address), zap.Error(err))
		return false, fmt.Errorf("unable to acquire lock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to check rows affected: %w", err)
	}

	acquired := rowsAffected == 1
	zap.L().Debug("Lock acquisition attempted",
		zap.String("address", address),
		zap.Bool("acquired", acquired))
	return acquired, nil
}

func (s *Service) ReleaseLock(ctx context.Context, address string) error {
	if _, err := s.db.ExecContext(ctx, queryReleaseLock, address); err != nil {
		zap.L().Error("Failed to release lock", zap.String("address", address), zap.Error(err))
		return fmt.Errorf("unable to release lock: %w", err)
	}
	zap.L().Debug("Lock released", zap.String("address", address))
	return nil
}

func (s *Service) SetLockExpiry(ctx context.Context, address string, ttl time.Duration) error {
	expiry := time.Now().Add(ttl)
	if _, err := s.db.ExecContext(ctx, querySetLockExpiry, expiry, address); err != nil {
		zap.L().Error("Failed to set lock expiry", zap.String("address", address), zap.Error(err))
		return fmt.Errorf("unable to set lock expiry: %w", err)
	}
	return nil
}

// ReclaimExpiredLocks bulk-unlocks every locked address whose expiry is
// unset or in the past. Stuck locks self-heal when this runs on an interval.
// The user binding is durable and survives reclamation.
func (s *Service) ReclaimExpiredLocks(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryReclaimExpiredLocks, time.Now())
	if err != nil {
		zap.L().Error("Failed to reclaim expired locks", zap.Error(err))
		return 0, fmt.Errorf("unable to reclaim expired locks: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to check rows affected: %w", err)
	}

	if count > 0 {
		zap.L().Info("Reclaimed expired locks", zap.Int64("count", count))
	}
	return count, nil
}

// SetAddressBalance persists a freshly observed on-chain balance and returns
// the previously recorded balance with the bound user. Read and write run in
// one transaction so concurrent sweeps cannot double-count a delta.
func (s *Service) SetAddressBalance(ctx context.Context, address string, balance int64) (int64, string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var prev int64
	var user sql.NullString
	err = tx.QueryRowContext(ctx, queryGetAddressBalance, address).Scan(&prev, &user)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", store.ErrAddressNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to read address balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, querySetAddressBalance, balance, address); err != nil {
		return 0, "", fmt.Errorf("failed to update address balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return prev, user.String, nil
}

func (s *Service) MarkWelcomed(ctx context.Context, address string) error {
	if _, err := s.db.ExecContext(ctx, queryMarkWelcomed, address); err != nil {
		zap.L().Error("Failed to mark address welcomed", zap.String("address", address), zap.Error(err))
		return fmt.Errorf("unable to mark address welcomed: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for address scans.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddressRow(row rowScanner) (*models.Address, error) {
	var addr models.Address
	var user sql.NullString
	var expiry sql.NullTime
	err := row.Scan(&addr.Address, &addr.EncryptedSeed, &user, &addr.Locked,
		&expiry, &addr.Balance, &addr.Welcomed, &addr.CreatedAt)
	if err != nil {
		return nil, err
	}
	addr.User = user.String
	if expiry.Valid {
		addr.UnlockExpiry = &expiry.Time
	}
	return &addr, nil
}
