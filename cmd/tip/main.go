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

// Command tip moves tao between two users inside the off-chain ledger. No
// on-chain transaction is involved.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"taotip-go/internal/common"
	"taotip-go/internal/config"
	"taotip-go/internal/engine"
	"taotip-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fromFlag := flag.String("from", "", "Sender user id (required)")
	toFlag := flag.String("to", "", "Recipient user id (required)")
	amountFlag := flag.String("amount", "", "Amount in tao (required)")
	flag.Parse()

	if *fromFlag == "" || *toFlag == "" || *amountFlag == "" {
		zap.L().Fatal("All flags are required: --from, --to, --amount")
	}

	amount, err := common.ParseTao(*amountFlag)
	if err != nil {
		zap.L().Fatal("Invalid amount", zap.Error(err))
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

	if err := services.Engine.SendTip(ctx, *fromFlag, *toFlag, amount); err != nil {
		common.PrintHeader("TIP FAILED", common.DefaultWidth)
		switch {
		case errors.Is(err, store.ErrInsufficientBalance):
			balance, balErr := services.Engine.CheckBalance(ctx, *fromFlag)
			if balErr == nil {
				fmt.Printf("Sender balance %s tao is below %s tao\n",
					common.FormatTao(balance), common.FormatTao(amount))
			}
		case errors.Is(err, engine.ErrSelfTip):
			fmt.Println("Sender and recipient must differ")
		case errors.Is(err, engine.ErrInvalidAmount):
			fmt.Println("Amount must be positive")
		}
		common.PrintSeparator("=", common.DefaultWidth)
		zap.L().Fatal("Tip failed", zap.Error(err))
	}

	common.PrintHeader("TIP SENT", common.DefaultWidth)
	fmt.Printf("%s -> %s: %s tao\n", *fromFlag, *toFlag, common.FormatTao(amount))
	common.PrintSeparator("=", common.DefaultWidth)
}
