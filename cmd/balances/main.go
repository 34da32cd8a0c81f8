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

// Command balances prints off-chain ledger balances and recent transaction
// history, with amounts converted to tao at this display boundary only.
package main

import (
	"context"
	"flag"
	"fmt"

	"taotip-go/internal/common"
	"taotip-go/internal/config"
	"taotip-go/internal/database"
	"taotip-go/internal/models"

	"go.uber.org/zap"
)

const historyLimit = 10

func printBalance(rec models.BalanceRecord, isLast bool) {
	fmt.Printf("%s %-24s: %18s tao (updated: %s)\n",
		common.BoxPrefix(isLast),
		rec.User,
		common.FormatTao(rec.Balance),
		rec.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printHistory(ctx context.Context, dbService *database.Service, user string) error {
	history, err := dbService.GetTransactionHistory(ctx, user, historyLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to get transaction history: %w", err)
	}

	fmt.Printf("\n┌─ Transactions for %s (latest %d)\n", user, historyLimit)
	common.PrintBoxSeparator(common.DefaultWidth - 2)
	for i, tx := range history {
		kind := "deposit"
		if tx.Amount < 0 {
			kind = "withdrawal"
		}
		fmt.Printf("%s %-10s %18s tao  %s\n",
			common.BoxPrefix(i == len(history)-1),
			kind,
			common.FormatTao(tx.Amount),
			tx.Time.Format("2006-01-02 15:04:05"))
	}
	if len(history) == 0 {
		fmt.Println("│  (none)")
	}
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Filter by specific user (optional, also prints history)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	if *userFlag != "" {
		balance, err := dbService.GetBalance(ctx, *userFlag)
		if err != nil {
			logger.Fatal("Failed to get balance", zap.Error(err))
		}
		fmt.Printf("\n%s: %s tao\n", *userFlag, common.FormatTao(balance))

		if err := printHistory(ctx, dbService, *userFlag); err != nil {
			logger.Fatal("Failed to print history", zap.Error(err))
		}
		common.PrintFooter("Done", common.DefaultWidth)
		return
	}

	balances, err := dbService.GetAllBalances(ctx)
	if err != nil {
		logger.Fatal("Failed to get balances", zap.Error(err))
	}

	for i, rec := range balances {
		printBalance(rec, i == len(balances)-1)
	}

	summary := fmt.Sprintf("SUMMARY: %d users with non-zero balances", len(balances))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed", zap.Int("count", len(balances)))
}
