package common

import (
	"context"
	"log"
	"strings"

	"taotip-go/internal/chain"
	"taotip-go/internal/database"
	"taotip-go/internal/engine"
	"taotip-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	Store  *database.Service
	Chain  *chain.RPCClient
	Engine *engine.Engine
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	store, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	chainClient := chain.NewRPCClient(cfg.Chain)
	zap.L().Info("Using ledger node",
		zap.String("endpoint", cfg.Chain.Endpoint),
		zap.String("network", cfg.Chain.Network))

	eng, err := engine.New(engine.Config{
		Store:         store,
		Chain:         chainClient,
		VaultKey:      cfg.Vault.Key,
		SS58Prefix:    cfg.Chain.SS58Prefix,
		LockTTL:       cfg.Pool.LockTTL,
		DepositWindow: cfg.Pool.DepositWindow,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Services{
		Store:  store,
		Chain:  chainClient,
		Engine: eng,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without the
// chain client. Useful for read-only operations like querying balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
