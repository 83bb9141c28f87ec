package config_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/config"
)

func TestConfig_NetworkConfigForEnv(t *testing.T) {
	programID := solana.MustPublicKeyFromBase58(config.BrickProgramID)

	tests := []struct {
		env     string
		want    *config.NetworkConfig
		wantErr error
	}{
		{
			env:  config.EnvMainnet,
			want: &config.NetworkConfig{Moniker: config.EnvMainnetBeta, LedgerRPCURL: config.MainnetLedgerRPCURL, ProgramID: programID},
		},
		{
			env:  config.EnvMainnetBeta,
			want: &config.NetworkConfig{Moniker: config.EnvMainnetBeta, LedgerRPCURL: config.MainnetLedgerRPCURL, ProgramID: programID},
		},
		{
			env:  config.EnvTestnet,
			want: &config.NetworkConfig{Moniker: config.EnvTestnet, LedgerRPCURL: config.TestnetLedgerRPCURL, ProgramID: programID},
		},
		{
			env:  config.EnvDevnet,
			want: &config.NetworkConfig{Moniker: config.EnvDevnet, LedgerRPCURL: config.DevnetLedgerRPCURL, ProgramID: programID},
		},
		{
			env:  config.EnvLocalnet,
			want: &config.NetworkConfig{Moniker: config.EnvLocalnet, LedgerRPCURL: config.LocalnetLedgerRPCURL, ProgramID: programID},
		},
		{
			env:     "invalid",
			wantErr: config.ErrInvalidEnvironment,
		},
	}

	for _, test := range tests {
		t.Run(test.env, func(t *testing.T) {
			t.Setenv(config.EnvLedgerRPCURL, "")
			t.Setenv(config.EnvProgramID, "")

			got, err := config.NetworkConfigForEnv(test.env)
			if test.wantErr != nil {
				require.ErrorIs(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Fatalf("NetworkConfigForEnv(%q) mismatch (-want +got):\n%s", test.env, diff)
			}
		})
	}
}

func TestConfig_NetworkConfigForEnv_OverridesFromEnvVars(t *testing.T) {
	override := solana.NewWallet().PublicKey()
	t.Setenv(config.EnvLedgerRPCURL, "https://other-rpc-url.com")
	t.Setenv(config.EnvProgramID, override.String())

	got, err := config.NetworkConfigForEnv(config.EnvMainnet)
	require.NoError(t, err)
	require.Equal(t, "https://other-rpc-url.com", got.LedgerRPCURL)
	require.Equal(t, override, got.ProgramID)

	t.Setenv(config.EnvProgramID, "not-a-key")
	_, err = config.NetworkConfigForEnv(config.EnvDevnet)
	require.ErrorContains(t, err, config.EnvProgramID)
}
