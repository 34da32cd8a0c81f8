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

const (
	// Balance queries. Credit and debit are single statements so concurrent
	// callers can never interleave a stale read with a write.
	queryGetBalance = `
		SELECT balance
		FROM balances
		WHERE user = ?`

	queryCreditBalance = `
		INSERT INTO balances (user, balance) VALUES (?, ?)
		ON CONFLICT(user) DO UPDATE SET
			balance = balance + excluded.balance,
			updated_at = CURRENT_TIMESTAMP
		RETURNING balance`

	queryDebitBalance = `
		UPDATE balances
		SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		WHERE user = ? AND balance >= ?
		RETURNING balance`

	queryGetAllBalances = `
		SELECT user, balance, updated_at
		FROM balances
		WHERE balance != 0
		ORDER BY user`

	// Address queries
	queryInsertAddress = `
		INSERT INTO addresses (address, encrypted_seed, user)
		VALUES (?, ?, ?)
		RETURNING address, encrypted_seed, user, locked, unlock_expiry, balance, welcomed, created_at`

	queryGetAddress = `
		SELECT address, encrypted_seed, user, locked, unlock_expiry, balance, welcomed, created_at
		FROM addresses
		WHERE address = ?`

	queryGetAddressByUser = `
		SELECT address, encrypted_seed, user, locked, unlock_expiry, balance, welcomed, created_at
		FROM addresses
		WHERE user = ?`

	queryGetBoundAddresses = `
		SELECT address, encrypted_seed, user, locked, unlock_expiry, balance, welcomed, created_at
		FROM addresses
		WHERE user IS NOT NULL
		ORDER BY created_at`

	queryGetBindCandidate = `
		SELECT address
		FROM addresses
		WHERE user IS NULL AND locked = 0
		ORDER BY created_at
		LIMIT 1`

	queryBindAddress = `
		UPDATE addresses
		SET user = ?
		WHERE address = ? AND user IS NULL`

	queryCountAddresses = `
		SELECT COUNT(*) FROM addresses`

	// Lock queries. Acquisition reads the previous locked state and sets the
	// flag in one statement; rows affected = 0 means the lock was held.
	queryAcquireLock = `
		UPDATE addresses
		SET locked = 1
		WHERE address = ? AND locked = 0`

	queryReleaseLock = `
		UPDATE addresses
		SET locked = 0
		WHERE address = ?`

	querySetLockExpiry = `
		UPDATE addresses
		SET unlock_expiry = ?
		WHERE address = ?`

	queryReclaimExpiredLocks = `
		UPDATE addresses
		SET locked = 0, unlock_expiry = NULL
		WHERE locked = 1 AND (unlock_expiry IS NULL OR unlock_expiry <= ?)`

	queryGetAddressBalance = `
		SELECT balance, user
		FROM addresses
		WHERE address = ?`

	querySetAddressBalance = `
		UPDATE addresses
		SET balance = ?
		WHERE address = ?`

	queryMarkWelcomed = `
		UPDATE addresses
		SET welcomed = 1
		WHERE address = ?`

	// Audit record queries (append-only tables)
	queryInsertTransaction = `
		INSERT OR IGNORE INTO transactions (id, user, amount, time)
		VALUES (?, ?, ?, ?)`

	queryInsertTip = `
		INSERT INTO tips (id, sender, recipient, amount, time)
		VALUES (?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user, amount, time
		FROM transactions
		WHERE user = ?
		ORDER BY time DESC
		LIMIT ? OFFSET ?`

	queryGetTipHistory = `
		SELECT id, sender, recipient, amount, time
		FROM tips
		WHERE sender = ? OR recipient = ?
		ORDER BY time DESC
		LIMIT ? OFFSET ?`
)
