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

// Command addresses tops the custodial address pool up to a target size and
// reports the current pool. Pre-provisioning keeps deposit requests fast:
// binding an existing pool address is cheaper than generating a keypair on
// demand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"taotip-go/internal/chain"
	"taotip-go/internal/common"
	"taotip-go/internal/config"
	"taotip-go/internal/store"
	"taotip-go/internal/vault"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type manifestEntry struct {
	Address string `yaml:"address"`
	Network string `yaml:"network"`
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	targetFlag := flag.Int("n", 0, "Target pool size; 0 uses POOL_MIN_ADDRESSES")
	manifestFlag := flag.String("manifest", "", "Optional path to write a YAML manifest of created addresses")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	target := *targetFlag
	if target == 0 {
		target = cfg.Pool.MinAddresses
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	existing, err := dbService.CountAddresses(ctx)
	if err != nil {
		logger.Fatal("Failed to count addresses", zap.Error(err))
	}

	common.PrintHeader("CUSTODIAL ADDRESS POOL", common.DefaultWidth)
	fmt.Printf("Existing addresses: %d, target: %d\n", existing, target)

	var created []manifestEntry
	for i := existing; i < target; i++ {
		keypair, err := chain.GenerateKeypair(cfg.Chain.SS58Prefix)
		if err != nil {
			logger.Fatal("Failed to generate keypair", zap.Error(err))
		}

		encryptedSeed, err := vault.Encrypt([]byte(keypair.Mnemonic), cfg.Vault.Key)
		if err != nil {
			logger.Fatal("Failed to encrypt seed", zap.Error(err))
		}

		addr, err := dbService.CreateAddress(ctx, store.CreateAddressParams{
			Address:       keypair.Address,
			EncryptedSeed: encryptedSeed,
		})
		if err != nil {
			logger.Fatal("Failed to store address", zap.Error(err))
		}

		fmt.Printf("│  created %s\n", addr.Address)
		created = append(created, manifestEntry{
			Address: addr.Address,
			Network: cfg.Chain.Network,
		})
	}

	if *manifestFlag != "" && len(created) > 0 {
		if err := writeManifest(*manifestFlag, created); err != nil {
			logger.Fatal("Failed to write manifest", zap.Error(err))
		}
		fmt.Printf("Manifest written to %s\n", *manifestFlag)
	}

	summary := fmt.Sprintf("SUMMARY: %d addresses created (%d total in pool)", len(created), existing+len(created))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Pool provisioning completed",
		zap.Int("created", len(created)),
		zap.Int("total", existing+len(created)))
}

func writeManifest(path string, entries []manifestEntry) error {
	out, err := yaml.Marshal(map[string][]manifestEntry{"addresses": entries})
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
