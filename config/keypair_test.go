package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/config"
)

func TestConfig_LoadKeypair(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	t.Run("keygen file", func(t *testing.T) {
		t.Parallel()
		raw := make([]int, len(key))
		for i, b := range key {
			raw[i] = int(b)
		}
		data, err := json.Marshal(raw)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "id.json")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		got, err := config.LoadKeypair(path)
		require.NoError(t, err)
		require.Equal(t, key.PublicKey(), got.PublicKey())
	})

	t.Run("base58 secret", func(t *testing.T) {
		t.Parallel()
		got, err := config.LoadKeypair(" " + base58.Encode(key) + "\n")
		require.NoError(t, err)
		require.Equal(t, key.PublicKey(), got.PublicKey())
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadKeypair(base58.Encode(key[:32]))
		require.ErrorIs(t, err, config.ErrInvalidKeypair)
	})

	t.Run("garbage file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "id.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := config.LoadKeypair(path)
		require.ErrorIs(t, err, config.ErrInvalidKeypair)
	})

	t.Run("not base58", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadKeypair("0OIl")
		require.ErrorIs(t, err, config.ErrInvalidKeypair)
	})
}

func TestConfig_LoadKeypair_FromEnv(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	t.Setenv(config.EnvKeypair, "")
	_, err := config.LoadKeypair("")
	require.ErrorIs(t, err, config.ErrKeypairRequired)

	t.Setenv(config.EnvKeypair, key.String())
	got, err := config.LoadKeypair("")
	require.NoError(t, err)
	require.Equal(t, key.PublicKey(), got.PublicKey())
}

func TestConfig_LoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BRICK_LEDGER_RPC_URL=http://from-dotenv:8899\nBRICK_PROGRAM_ID=\n"), 0o600))

	t.Setenv(config.EnvProgramID, "")
	t.Setenv(config.EnvLedgerRPCURL, "")
	os.Unsetenv(config.EnvLedgerRPCURL)

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	require.Equal(t, "http://from-dotenv:8899", os.Getenv(config.EnvLedgerRPCURL))

	got, err := config.NetworkConfigForEnv(config.EnvLocalnet)
	require.NoError(t, err)
	require.Equal(t, "http://from-dotenv:8899", got.LedgerRPCURL)
}
