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
	"flag"
	"fmt"

	"taotip-go/internal/common"
	"taotip-go/internal/config"
	"taotip-go/internal/engine"

	"go.uber.org/zap"
)

type withdrawalRequest struct {
	user        string
	destination string
	amount      int64 // rao
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	userFlag := flag.String("user", "", "User id (required)")
	destinationFlag := flag.String("destination", "", "Destination address (required)")
	amountFlag := flag.String("amount", "", "Amount in tao (required)")
	flag.Parse()

	if *userFlag == "" || *destinationFlag == "" || *amountFlag == "" {
		return nil, fmt.Errorf("all flags are required: --user, --destination, --amount")
	}

	amount, err := common.ParseTao(*amountFlag)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &withdrawalRequest{
		user:        *userFlag,
		destination: *destinationFlag,
		amount:      amount,
	}, nil
}

func printFailure(req *withdrawalRequest, werr *engine.WithdrawError) {
	common.PrintHeader("WITHDRAWAL FAILED", common.DefaultWidth)
	fmt.Printf("User:              %s\n", req.user)
	fmt.Printf("Destination:       %s\n", req.destination)
	fmt.Printf("Requested Amount:  %s tao\n", common.FormatTao(req.amount))

	switch werr.Kind {
	case engine.KindInsufficientBalance, engine.KindInsufficientFunds:
		// Requested includes the network fee here
		fmt.Printf("Total With Fee:    %s tao\n", common.FormatTao(werr.Requested))
		fmt.Printf("Available:         %s tao\n", common.FormatTao(werr.Available))
		fmt.Printf("Shortfall:         %s tao\n", common.FormatTao(werr.Requested-werr.Available))
	case engine.KindChainUnavailable:
		fmt.Println("The ledger node could not be reached; no funds were moved.")
	case engine.KindTransactionFailed:
		fmt.Println("On-chain submission failed; the debited balance was restored.")
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Printf("\nError: %s\n", werr.Kind)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	zap.L().Info("Starting withdrawal",
		zap.String("user", req.user),
		zap.String("destination", req.destination),
		zap.Int64("amount", req.amount))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	newBalance, err := services.Engine.Withdraw(ctx, req.user, req.destination, req.amount)
	if err != nil {
		if werr, ok := engine.AsWithdrawError(err); ok {
			printFailure(req, werr)
			zap.L().Fatal("Withdrawal failed", zap.String("kind", werr.Kind.String()), zap.Error(err))
		}
		zap.L().Fatal("Withdrawal failed", zap.Error(err))
	}

	common.PrintHeader("WITHDRAWAL COMPLETE", common.DefaultWidth)
	fmt.Printf("User:              %s\n", req.user)
	fmt.Printf("Destination:       %s\n", req.destination)
	fmt.Printf("Amount:            %s tao\n", common.FormatTao(req.amount))
	fmt.Printf("Remaining Balance: %s tao\n", common.FormatTao(newBalance))
	common.PrintSeparator("=", common.DefaultWidth)
}
