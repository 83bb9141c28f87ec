package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	ErrKeypairRequired = errors.New("keypair is required")
	ErrInvalidKeypair  = errors.New("invalid keypair")
)

// LoadKeypair reads a signer from a solana-keygen JSON file, or from a base58
// encoded 64-byte secret when source is not a path to an existing file. An
// empty source falls back to BRICK_KEYPAIR.
func LoadKeypair(source string) (solana.PrivateKey, error) {
	if source == "" {
		source = os.Getenv(EnvKeypair)
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrKeypairRequired
	}

	if _, err := os.Stat(source); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKeypair, err)
		}
		return key, nil
	}

	raw, err := base58.Decode(source)
	if err != nil {
		return nil, fmt.Errorf("%w: not a file and not base58: %w", ErrInvalidKeypair, err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("%w: secret is %d bytes, want 64", ErrInvalidKeypair, len(raw))
	}
	return solana.PrivateKey(raw), nil
}
