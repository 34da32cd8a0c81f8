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

package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"taotip-go/internal/models"
)

const vaultKeySize = 32

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("CHAIN_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	scanInterval, err := getEnvDuration("SCANNER_SCAN_INTERVAL", 24*time.Second)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := getEnvDuration("SCANNER_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	lockTTL, err := getEnvDuration("POOL_LOCK_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	depositWindow, err := getEnvDuration("POOL_DEPOSIT_WINDOW", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	vaultKey, err := loadVaultKey()
	if err != nil {
		return nil, err
	}

	ss58Prefix := getEnvInt("CHAIN_SS58_PREFIX", 42)
	if ss58Prefix < 0 || ss58Prefix > 16383 {
		return nil, fmt.Errorf("invalid CHAIN_SS58_PREFIX: %d", ss58Prefix)
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "taotip.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Chain: models.ChainConfig{
			Endpoint:       getEnvString("CHAIN_ENDPOINT", "http://127.0.0.1:9944"),
			Network:        getEnvString("CHAIN_NETWORK", "finney"),
			SS58Prefix:     uint16(ss58Prefix),
			RequestTimeout: requestTimeout,
		},
		Vault: models.VaultConfig{
			Key: vaultKey,
		},
		Scanner: models.ScannerConfig{
			ScanInterval:  scanInterval,
			SweepInterval: sweepInterval,
		},
		Pool: models.PoolConfig{
			LockTTL:       lockTTL,
			DepositWindow: depositWindow,
			MinAddresses:  getEnvInt("POOL_MIN_ADDRESSES", 10),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *models.Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if cfg.Chain.Endpoint == "" {
		return fmt.Errorf("chain endpoint cannot be empty")
	}
	if cfg.Scanner.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %v", cfg.Scanner.ScanInterval)
	}
	if cfg.Scanner.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %v", cfg.Scanner.SweepInterval)
	}
	if cfg.Pool.LockTTL <= 0 {
		return fmt.Errorf("lock TTL must be positive, got %v", cfg.Pool.LockTTL)
	}
	if cfg.Pool.DepositWindow <= 0 {
		return fmt.Errorf("deposit window must be positive, got %v", cfg.Pool.DepositWindow)
	}
	if cfg.Pool.MinAddresses < 0 {
		return fmt.Errorf("minimum pool size cannot be negative, got %d", cfg.Pool.MinAddresses)
	}
	return nil
}

// loadVaultKey reads the hex-encoded 256-bit seed encryption key. The key is
// required: there is no safe default for custodial key material.
func loadVaultKey() ([]byte, error) {
	raw := os.Getenv("VAULT_KEY")
	if raw == "" {
		return nil, fmt.Errorf("missing required VAULT_KEY (hex-encoded %d bytes)", vaultKeySize)
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid VAULT_KEY: %w", err)
	}
	if len(key) != vaultKeySize {
		return nil, fmt.Errorf("invalid VAULT_KEY length: expected %d bytes, got %d", vaultKeySize, len(key))
	}
	return key, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
