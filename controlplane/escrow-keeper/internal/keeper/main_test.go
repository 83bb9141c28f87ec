package keeper_test

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/lmittmann/tint"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

var (
	logger *slog.Logger
)

// TestMain sets up the test environment with a global logger.
func TestMain(m *testing.M) {
	flag.Parse()
	verbose := false
	if vFlag := flag.Lookup("test.v"); vFlag != nil && vFlag.Value.String() == "true" {
		verbose = true
	}
	if verbose {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	os.Exit(m.Run())
}

type mockBrickClient struct {
	ProgramIDFunc           func() solana.PublicKey
	GetPaymentsBySellerFunc func(ctx context.Context, seller solana.PublicKey) ([]brick.Keyed[brick.Payment], error)
	GetMarketplaceFunc      func(ctx context.Context, addr solana.PublicKey) (*brick.Marketplace, error)
	WithdrawFundsFunc       func(ctx context.Context, config brick.WithdrawFundsInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error)
}

func (m *mockBrickClient) ProgramID() solana.PublicKey {
	if m.ProgramIDFunc == nil {
		return solana.PublicKey{}
	}
	return m.ProgramIDFunc()
}

func (m *mockBrickClient) GetPaymentsBySeller(ctx context.Context, seller solana.PublicKey) ([]brick.Keyed[brick.Payment], error) {
	return m.GetPaymentsBySellerFunc(ctx, seller)
}

func (m *mockBrickClient) GetMarketplace(ctx context.Context, addr solana.PublicKey) (*brick.Marketplace, error) {
	return m.GetMarketplaceFunc(ctx, addr)
}

func (m *mockBrickClient) WithdrawFunds(ctx context.Context, config brick.WithdrawFundsInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	return m.WithdrawFundsFunc(ctx, config)
}
