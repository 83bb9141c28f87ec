package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/config"
	"github.com/malbeclabs/brick/smartcontract/program/localnet"
	"github.com/malbeclabs/brick/smartcontract/program/processor"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

// snapshot loads a local state file into a fresh cluster for inspection.
func snapshot(t *testing.T, path string) *localnet.Cluster {
	t.Helper()
	programID := solana.MustPublicKeyFromBase58(config.BrickProgramID)
	proc, err := processor.New(programID, processor.Config{})
	require.NoError(t, err)
	cluster, err := localnet.New(localnet.Config{Logger: logger, Programs: []localnet.Program{proc}})
	require.NoError(t, err)
	t.Cleanup(cluster.Close)
	require.NoError(t, cluster.LoadFile(path))
	return cluster
}

func tokens(t *testing.T, cluster *localnet.Cluster, owner, mint solana.PublicKey) uint64 {
	t.Helper()
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	amount, err := cluster.TokenBalance(ata)
	require.NoError(t, err)
	return amount
}

func TestCLI_LocalSettlement(t *testing.T) {
	t.Parallel()

	state := filepath.Join(t.TempDir(), "ledger.snap")
	authority := solana.NewWallet().PrivateKey
	seller := solana.NewWallet().PrivateKey
	buyer := solana.NewWallet().PrivateKey
	as := func(key solana.PrivateKey, args ...string) []string {
		return append([]string{"-e", config.EnvLocalnet, "--local-state", state, "-k", key.String()}, args...)
	}

	out := mustBrick(t, as(authority, "local", "init")...)
	require.Contains(t, out, "Funded "+authority.PublicKey().String())
	_, err := execute(t, as(authority, "local", "init")...)
	require.ErrorContains(t, err, "already exists")

	mustBrick(t, as(authority, "local", "airdrop", seller.PublicKey().String(), "10")...)
	mustBrick(t, as(authority, "local", "airdrop", buyer.PublicKey().String(), "10")...)

	rewardMint := solana.MustPublicKeyFromBase58(field(t, mustBrick(t, as(authority, "local", "mint")...), "Mint"))
	payMint := solana.NewWallet().PublicKey()
	out = mustBrick(t, as(authority, "local", "mint", "--mint", payMint.String(), "--to", buyer.PublicKey().String(), "--amount", "30000")...)
	require.Equal(t, "30000", field(t, out, "Balance"))
	mustBrick(t, as(authority, "local", "mint", "--mint", payMint.String(), "--to", seller.PublicKey().String())...)
	mustBrick(t, as(authority, "local", "mint", "--mint", payMint.String(), "--to", authority.PublicKey().String())...)

	spec := filepath.Join(t.TempDir(), "marketplace.yaml")
	require.NoError(t, os.WriteFile(spec, []byte(
		"reward_mint: "+rewardMint.String()+"\n"+
			"fee_bps: 500\n"+
			"permissionless: true\n"), 0o600))
	out = mustBrick(t, as(authority, "marketplace", "init", "--config", spec)...)
	marketplace := field(t, out, "Marketplace")
	wantMarketplace, _, err := brick.DeriveMarketplacePDA(solana.MustPublicKeyFromBase58(config.BrickProgramID), authority.PublicKey())
	require.NoError(t, err)
	require.Equal(t, wantMarketplace.String(), marketplace)

	out = mustBrick(t, as(authority, "marketplace", "show")...)
	require.Contains(t, out, rewardMint.String())

	out = mustBrick(t, as(seller, "product", "create",
		"--marketplace", marketplace,
		"--id", "ebook",
		"--payment-mint", payMint.String(),
		"--price", "10000",
		"--refund-timespan", "300")...)
	product := field(t, out, "Product")

	out = mustBrick(t, as(seller, "product", "list", "--marketplace", marketplace)...)
	require.Contains(t, out, "ebook")
	require.Contains(t, out, product)

	mustBrick(t, as(buyer, "buy", "--product", product)...)

	cluster := snapshot(t, state)
	require.Equal(t, uint64(20_000), tokens(t, cluster, buyer.PublicKey(), payMint))
	require.Equal(t, uint64(9_500), tokens(t, cluster, seller.PublicKey(), payMint))
	require.Equal(t, uint64(500), tokens(t, cluster, authority.PublicKey(), payMint))

	out = mustBrick(t, as(buyer, "buy", "--product", product, "--escrow")...)
	payment := field(t, out, "Payment")

	_, err = execute(t, as(seller, "withdraw", payment)...)
	require.ErrorIs(t, err, brick.ErrCannotWithdrawYet)

	out = mustBrick(t, as(seller, "local", "warp", "10m")...)
	require.Contains(t, out, "Ledger time: ")

	_, err = execute(t, as(buyer, "refund", payment)...)
	require.Error(t, err)

	mustBrick(t, as(seller, "withdraw", payment)...)

	cluster = snapshot(t, state)
	require.Equal(t, uint64(10_000), tokens(t, cluster, buyer.PublicKey(), payMint))
	require.Equal(t, uint64(19_000), tokens(t, cluster, seller.PublicKey(), payMint))
	require.Equal(t, uint64(1_000), tokens(t, cluster, authority.PublicKey(), payMint))
	require.GreaterOrEqual(t, cluster.Now().Sub(time.Now()), 9*time.Minute)
}

func TestCLI_Refund(t *testing.T) {
	t.Parallel()

	state := filepath.Join(t.TempDir(), "ledger.snap")
	authority := solana.NewWallet().PrivateKey
	buyer := solana.NewWallet().PrivateKey
	as := func(key solana.PrivateKey, args ...string) []string {
		return append([]string{"-e", config.EnvLocalnet, "--local-state", state, "-k", key.String()}, args...)
	}

	mustBrick(t, as(authority, "local", "init")...)
	mustBrick(t, as(authority, "local", "airdrop", buyer.PublicKey().String(), "10")...)
	rewardMint := field(t, mustBrick(t, as(authority, "local", "mint")...), "Mint")
	payMint := field(t, mustBrick(t, as(authority, "local", "mint", "--to", buyer.PublicKey().String(), "--amount", "5000")...), "Mint")

	spec := filepath.Join(t.TempDir(), "marketplace.yaml")
	require.NoError(t, os.WriteFile(spec, []byte("reward_mint: "+rewardMint+"\npermissionless: true\n"), 0o600))
	marketplace := field(t, mustBrick(t, as(authority, "marketplace", "init", "-c", spec)...), "Marketplace")
	product := field(t, mustBrick(t, as(authority, "product", "create",
		"--marketplace", marketplace,
		"--id", "course",
		"--payment-mint", payMint,
		"--price", "5000",
		"--refund-timespan", "3600")...), "Product")

	payment := field(t, mustBrick(t, as(buyer, "buy", "--product", product, "--escrow")...), "Payment")
	cluster := snapshot(t, state)
	require.Zero(t, tokens(t, cluster, buyer.PublicKey(), solana.MustPublicKeyFromBase58(payMint)))

	mustBrick(t, as(buyer, "refund", payment)...)

	cluster = snapshot(t, state)
	require.Equal(t, uint64(5_000), tokens(t, cluster, buyer.PublicKey(), solana.MustPublicKeyFromBase58(payMint)))
	_, err := execute(t, as(buyer, "refund", payment)...)
	require.Error(t, err)
}

func TestCLI_Errors(t *testing.T) {
	t.Parallel()

	state := filepath.Join(t.TempDir(), "ledger.snap")
	signer := solana.NewWallet().PrivateKey
	product := solana.NewWallet().PublicKey().String()

	tests := []struct {
		name string
		args []string
		want error
		msg  string
	}{
		{
			name: "warp without local state",
			args: []string{"-e", config.EnvLocalnet, "local", "warp", "1m"},
			want: ErrLocalStateRequired,
		},
		{
			name: "buy modes are exclusive",
			args: []string{"-e", config.EnvLocalnet, "--local-state", state, "-k", signer.String(), "buy", "--product", product, "--escrow", "--reward"},
			msg:  "specify only one of",
		},
		{
			name: "invalid product key",
			args: []string{"-e", config.EnvLocalnet, "--local-state", state, "-k", signer.String(), "buy", "--product", "nope"},
			msg:  "invalid product",
		},
		{
			name: "invalid environment",
			args: []string{"-e", "moon", "--local-state", state, "local", "warp", "1m"},
			want: config.ErrInvalidEnvironment,
		},
		{
			name: "invalid keypair",
			args: []string{"-e", config.EnvLocalnet, "--local-state", state, "-k", "not-a-key", "local", "warp", "1m"},
			want: config.ErrInvalidKeypair,
		},
		{
			name: "bad warp duration",
			args: []string{"-e", config.EnvLocalnet, "--local-state", state, "local", "warp", "0s"},
			msg:  "invalid duration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
			if tt.msg != "" {
				require.ErrorContains(t, err, tt.msg)
			}
		})
	}
}

func TestCLI_PDA(t *testing.T) {
	t.Parallel()

	programID := solana.MustPublicKeyFromBase58(config.BrickProgramID)
	authority := solana.NewWallet().PublicKey()
	marketplace, _, err := brick.DeriveMarketplacePDA(programID, authority)
	require.NoError(t, err)
	accessMint, _, err := brick.DeriveAccessMintPDA(programID, marketplace)
	require.NoError(t, err)

	out := mustBrick(t, "-e", config.EnvLocalnet, "pda", "marketplace", authority.String())
	require.Contains(t, out, marketplace.String())
	require.Contains(t, out, accessMint.String())

	first, second, err := brick.SplitProductID("ebook")
	require.NoError(t, err)
	product, _, err := brick.DeriveProductPDA(programID, first, second, marketplace)
	require.NoError(t, err)
	out = mustBrick(t, "-e", config.EnvLocalnet, "pda", "product", marketplace.String(), "ebook")
	require.Contains(t, out, product.String())

	name, err := brick.GovernanceName(brick.DefaultGovernanceName)
	require.NoError(t, err)
	governance, _, err := brick.DeriveGovernancePDA(programID, name)
	require.NoError(t, err)
	out = mustBrick(t, "-e", config.EnvLocalnet, "pda", "governance")
	require.Contains(t, out, governance.String())

	_, err = execute(t, "-e", config.EnvLocalnet, "pda", "payment", product.String(), authority.String(), "yesterday")
	require.ErrorContains(t, err, "invalid timestamp")
}

func TestParseFeePayer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    brick.FeePayer
		wantErr bool
	}{
		{in: "", want: brick.FeePayerSeller},
		{in: "seller", want: brick.FeePayerSeller},
		{in: "buyer", want: brick.FeePayerBuyer},
		{in: "marketplace", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseFeePayer(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
