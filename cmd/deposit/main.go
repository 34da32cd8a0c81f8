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

// Command deposit resolves a user's custodial deposit address, binding one
// from the pool (or generating one) on first request. Deposits sent to the
// address are credited by the running daemon's scanner.
package main

import (
	"context"
	"flag"
	"fmt"

	"taotip-go/internal/common"
	"taotip-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "User id (required)")
	flag.Parse()

	if *userFlag == "" {
		zap.L().Fatal("Flag --user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	info, err := services.Engine.RequestDeposit(ctx, *userFlag)
	if err != nil {
		zap.L().Fatal("Failed to resolve deposit address", zap.Error(err))
	}

	common.PrintHeader("DEPOSIT ADDRESS", common.DefaultWidth)
	fmt.Printf("User:         %s\n", *userFlag)
	fmt.Printf("Address:      %s\n", info.Address)
	fmt.Printf("Network:      %s\n", cfg.Chain.Network)
	fmt.Printf("Active Until: %s\n", info.ActiveUntil.Format("2006-01-02 15:04:05"))
	common.PrintSeparator("=", common.DefaultWidth)

	zap.L().Info("Deposit address resolved",
		zap.String("user", *userFlag),
		zap.String("address", info.Address))
}
