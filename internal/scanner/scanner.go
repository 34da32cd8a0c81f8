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

// Package scanner discovers deposits by sweeping custodial address balances
// on-chain, and reclaims expired address locks. Both loops are independently
// scheduled; a failure in one cycle is logged and retried on the next tick,
// never crashing the process.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taotip-go/internal/chain"
	"taotip-go/internal/models"
	"taotip-go/internal/store"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Notifier receives one event per address whose on-chain balance increased.
// Called synchronously from the scan loop; implementations should hand off
// quickly.
type Notifier func(models.DepositEvent)

type Config struct {
	Store         store.Store
	Chain         chain.Client
	ScanInterval  time.Duration
	SweepInterval time.Duration
	Notify        Notifier
}

type Scanner struct {
	store         store.Store
	chain         chain.Client
	scanInterval  time.Duration
	sweepInterval time.Duration
	notify        Notifier

	sched gocron.Scheduler
	ctx   context.Context
}

func New(cfg Config) (*Scanner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Chain == nil {
		return nil, fmt.Errorf("chain client is required")
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("scan interval must be positive, got %v", cfg.ScanInterval)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %v", cfg.SweepInterval)
	}

	return &Scanner{
		store:         cfg.Store,
		chain:         cfg.Chain,
		scanInterval:  cfg.ScanInterval,
		sweepInterval: cfg.SweepInterval,
		notify:        cfg.Notify,
	}, nil
}

// Start schedules the deposit scan and the lock reclamation sweep.
func (s *Scanner) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("unable to create scheduler: %w", err)
	}
	s.sched = sched
	s.ctx = ctx

	if _, err := sched.NewJob(
		gocron.DurationJob(s.scanInterval),
		gocron.NewTask(s.scanOnce),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		return fmt.Errorf("unable to schedule deposit scan: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(s.sweepInterval),
		gocron.NewTask(s.sweepOnce),
	); err != nil {
		return fmt.Errorf("unable to schedule lock sweep: %w", err)
	}

	sched.Start()

	zap.L().Info("Deposit scanner started",
		zap.Duration("scan_interval", s.scanInterval),
		zap.Duration("sweep_interval", s.sweepInterval))
	return nil
}

// Stop shuts the scheduler down, waiting for in-flight jobs.
func (s *Scanner) Stop() {
	if s.sched == nil {
		return
	}
	if err := s.sched.Shutdown(); err != nil {
		zap.L().Warn("Scheduler shutdown reported error", zap.Error(err))
	}
	zap.L().Info("Deposit scanner stopped")
}

// scanOnce sweeps every bound custodial address: the delta between the
// observed on-chain balance and the last recorded balance is credited to the
// bound user as a deposit.
func (s *Scanner) scanOnce() {
	ctx := s.ctx
	addresses, err := s.store.GetBoundAddresses(ctx)
	if err != nil {
		zap.L().Error("Deposit scan: failed to list addresses", zap.Error(err))
		return
	}

	credited := 0
	for _, addr := range addresses {
		if err := s.scanAddress(ctx, addr, &credited); err != nil {
			if errors.Is(err, chain.ErrUnavailable) {
				// Node is down, retry the whole sweep on the next tick
				zap.L().Warn("Deposit scan: ledger node unavailable, skipping cycle", zap.Error(err))
				return
			}
			zap.L().Error("Deposit scan: address failed",
				zap.String("address", addr.Address),
				zap.Error(err))
		}
	}

	if credited > 0 {
		zap.L().Info("Deposit scan completed",
			zap.Int("addresses", len(addresses)),
			zap.Int("deposits", credited))
	}
}

func (s *Scanner) scanAddress(ctx context.Context, addr models.Address, credited *int) error {
	onChain, err := s.chain.GetBalance(ctx, addr.Address)
	if err != nil {
		return err
	}

	prev, user, err := s.store.SetAddressBalance(ctx, addr.Address, onChain)
	if err != nil {
		return err
	}

	delta := onChain - prev
	if delta <= 0 || user == "" {
		return nil
	}

	newBalance, err := s.store.CreditBalance(ctx, user, delta)
	if err != nil {
		return fmt.Errorf("failed to credit deposit: %w", err)
	}
	*credited++

	if err := s.store.RecordTransaction(ctx, user, delta); err != nil {
		zap.L().Error("Failed to record deposit audit entry",
			zap.String("user", user),
			zap.Int64("amount", delta),
			zap.Error(err))
	}

	firstDeposit := !addr.Welcomed
	if firstDeposit {
		if err := s.store.MarkWelcomed(ctx, addr.Address); err != nil {
			zap.L().Warn("Failed to mark address welcomed",
				zap.String("address", addr.Address),
				zap.Error(err))
		}
	}

	zap.L().Info("Deposit credited",
		zap.String("user", user),
		zap.String("address", addr.Address),
		zap.Int64("amount", delta),
		zap.Int64("new_balance", newBalance))

	if s.notify != nil {
		s.notify(models.DepositEvent{
			User:         user,
			Address:      addr.Address,
			Amount:       delta,
			NewBalance:   newBalance,
			FirstDeposit: firstDeposit,
			Time:         time.Now(),
		})
	}
	return nil
}

// sweepOnce reclaims expired address locks so stuck locks self-heal.
func (s *Scanner) sweepOnce() {
	count, err := s.store.ReclaimExpiredLocks(s.ctx)
	if err != nil {
		zap.L().Error("Lock sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		zap.L().Info("Lock sweep reclaimed locks", zap.Int64("count", count))
	}
}
