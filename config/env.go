package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

const (
	EnvMainnetBeta = "mainnet-beta"
	EnvMainnet     = "mainnet"
	EnvTestnet     = "testnet"
	EnvDevnet      = "devnet"
	EnvLocalnet    = "localnet"
)

var (
	ErrInvalidEnvironment = errors.New("invalid environment")
)

type NetworkConfig struct {
	Moniker      string
	LedgerRPCURL string
	ProgramID    solana.PublicKey
}

func NetworkConfigForEnv(env string) (*NetworkConfig, error) {
	var config *NetworkConfig
	switch env {
	case EnvMainnetBeta, EnvMainnet:
		config = &NetworkConfig{Moniker: EnvMainnetBeta, LedgerRPCURL: MainnetLedgerRPCURL}
	case EnvTestnet:
		config = &NetworkConfig{Moniker: EnvTestnet, LedgerRPCURL: TestnetLedgerRPCURL}
	case EnvDevnet:
		config = &NetworkConfig{Moniker: EnvDevnet, LedgerRPCURL: DevnetLedgerRPCURL}
	case EnvLocalnet:
		config = &NetworkConfig{Moniker: EnvLocalnet, LedgerRPCURL: LocalnetLedgerRPCURL}
	default:
		return nil, fmt.Errorf("%w %q, must be one of: %s, %s, %s, %s", ErrInvalidEnvironment, env, EnvMainnetBeta, EnvTestnet, EnvDevnet, EnvLocalnet)
	}

	programID, err := solana.PublicKeyFromBase58(BrickProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse program ID: %w", err)
	}
	config.ProgramID = programID

	if rpcURL := os.Getenv(EnvLedgerRPCURL); rpcURL != "" {
		config.LedgerRPCURL = rpcURL
	}
	if override := os.Getenv(EnvProgramID); override != "" {
		programID, err := solana.PublicKeyFromBase58(override)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", EnvProgramID, err)
		}
		config.ProgramID = programID
	}

	return config, nil
}
