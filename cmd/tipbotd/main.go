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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taotip-go/internal/common"
	"taotip-go/internal/config"
	"taotip-go/internal/models"
	"taotip-go/internal/scanner"

	"go.uber.org/zap"
)

// ANSI color helpers for console output.
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting taotip custody daemon")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	sc, err := scanner.New(scanner.Config{
		Store:         services.Store,
		Chain:         services.Chain,
		ScanInterval:  cfg.Scanner.ScanInterval,
		SweepInterval: cfg.Scanner.SweepInterval,
		Notify:        printDeposit,
	})
	if err != nil {
		zap.L().Fatal("Failed to create deposit scanner", zap.Error(err))
	}

	if err := sc.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start deposit scanner", zap.Error(err))
	}

	fmt.Printf("%staotip custody daemon running (network: %s)%s\n", colorCyan, cfg.Chain.Network, colorReset)
	zap.L().Info("Daemon running", zap.String("network", cfg.Chain.Network))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping scanner...")
	cancel()

	done := make(chan struct{})
	go func() {
		sc.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Scanner stopped gracefully")
	case <-time.After(30 * time.Second):
		zap.L().Warn("Forced shutdown after timeout")
	}
}

// printDeposit is the console notifier; a chat integration would deliver
// these to the user instead.
func printDeposit(ev models.DepositEvent) {
	greeting := ""
	if ev.FirstDeposit {
		greeting = " (first deposit, welcome!)"
	}
	fmt.Printf("  %s✓ deposit %s tao -> %s | balance %s tao%s%s\n",
		colorGreen,
		common.FormatTao(ev.Amount),
		ev.User,
		common.FormatTao(ev.NewBalance),
		greeting,
		colorReset)
}
