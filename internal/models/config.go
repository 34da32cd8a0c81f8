package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Chain    ChainConfig
	Vault    VaultConfig
	Scanner  ScannerConfig
	Pool     PoolConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ChainConfig holds ledger node client settings
type ChainConfig struct {
	Endpoint       string
	Network        string
	SS58Prefix     uint16
	RequestTimeout time.Duration
}

// VaultConfig holds the symmetric key used to encrypt custodial seed material
type VaultConfig struct {
	Key []byte
}

// ScannerConfig holds deposit scanner and lock sweep settings
type ScannerConfig struct {
	ScanInterval  time.Duration
	SweepInterval time.Duration
}

// PoolConfig holds address pool settings
type PoolConfig struct {
	LockTTL       time.Duration
	DepositWindow time.Duration
	MinAddresses  int
}
