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

// Package engine orchestrates the custodial ledger: internal tip transfers,
// deposit address resolution, and the withdrawal state machine bridging the
// off-chain ledger to on-chain token movements.
package engine

import (
	"context"
	"fmt"
	"time"

	"taotip-go/internal/chain"
	"taotip-go/internal/store"
)

// Config wires the engine's collaborators. All dependencies are explicit;
// there is no package-level state.
type Config struct {
	Store         store.Store
	Chain         chain.Client
	VaultKey      []byte
	SS58Prefix    uint16
	LockTTL       time.Duration
	DepositWindow time.Duration
}

type Engine struct {
	store         store.Store
	chain         chain.Client
	vaultKey      []byte
	ss58Prefix    uint16
	lockTTL       time.Duration
	depositWindow time.Duration
}

func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Chain == nil {
		return nil, fmt.Errorf("chain client is required")
	}
	if len(cfg.VaultKey) == 0 {
		return nil, fmt.Errorf("vault key is required")
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("lock TTL must be positive, got %v", cfg.LockTTL)
	}
	if cfg.DepositWindow <= 0 {
		return nil, fmt.Errorf("deposit window must be positive, got %v", cfg.DepositWindow)
	}

	return &Engine{
		store:         cfg.Store,
		chain:         cfg.Chain,
		vaultKey:      cfg.VaultKey,
		ss58Prefix:    cfg.SS58Prefix,
		lockTTL:       cfg.LockTTL,
		depositWindow: cfg.DepositWindow,
	}, nil
}

// CheckBalance returns the user's off-chain ledger balance in rao.
func (e *Engine) CheckBalance(ctx context.Context, user string) (int64, error) {
	return e.store.GetBalance(ctx, user)
}
