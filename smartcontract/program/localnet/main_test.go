package localnet_test

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/smartcontract/program/localnet"
	"github.com/malbeclabs/brick/smartcontract/program/processor"
)

var (
	log *slog.Logger
)

// TestMain sets up the test environment with a global logger.
func TestMain(m *testing.M) {
	flag.Parse()
	verbose := false
	if vFlag := flag.Lookup("test.v"); vFlag != nil && vFlag.Value.String() == "true" {
		verbose = true
	}
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	log = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.RFC3339,
		AddSource:  true,
	}))

	os.Exit(m.Run())
}

// scriptProgram runs fn for every instruction addressed to it.
type scriptProgram struct {
	id solana.PublicKey
	fn func(h processor.Host, accounts []*solana.AccountMeta, data []byte) error

	closed bool
}

func (p *scriptProgram) ProgramID() solana.PublicKey {
	return p.id
}

func (p *scriptProgram) Process(h processor.Host, accounts []*solana.AccountMeta, data []byte) error {
	return p.fn(h, accounts, data)
}

func (p *scriptProgram) Close() {
	p.closed = true
}

func send(t *testing.T, c *localnet.Cluster, payer solana.PrivateKey, skipPreflight bool, ixs ...solana.Instruction) (solana.Signature, error) {
	t.Helper()
	ctx := context.Background()
	bh, err := c.GetLatestBlockhash(ctx, solanarpc.CommitmentFinalized)
	require.NoError(t, err)
	tx, err := solana.NewTransaction(ixs, bh.Value.Blockhash, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	})
	require.NoError(t, err)
	return c.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{SkipPreflight: skipPreflight})
}
