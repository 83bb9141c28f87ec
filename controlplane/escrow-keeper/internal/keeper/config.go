package keeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

var (
	ErrLoggerRequired   = errors.New("logger is required")
	ErrClientRequired   = errors.New("client is required")
	ErrSellerRequired   = errors.New("seller is required")
	ErrIntervalRequired = errors.New("interval is required")
)

const (
	defaultConcurrency         = 4
	defaultMarketplaceCacheTTL = 10 * time.Minute
	defaultMaxRetryElapsed     = 30 * time.Second
)

type Config struct {
	Logger *slog.Logger
	Client BrickClient
	Clock  clockwork.Clock

	// Seller is the key the keeper withdraws for. The client must sign as it.
	Seller              solana.PublicKey
	Interval            time.Duration
	Concurrency         int
	MarketplaceCacheTTL time.Duration
	MaxRetryElapsed     time.Duration
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return ErrLoggerRequired
	}
	if c.Client == nil {
		return ErrClientRequired
	}
	if c.Seller.IsZero() {
		return ErrSellerRequired
	}
	if c.Interval <= 0 {
		return ErrIntervalRequired
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.MarketplaceCacheTTL <= 0 {
		c.MarketplaceCacheTTL = defaultMarketplaceCacheTTL
	}
	if c.MaxRetryElapsed <= 0 {
		c.MaxRetryElapsed = defaultMaxRetryElapsed
	}
	return nil
}

type BrickClient interface {
	ProgramID() solana.PublicKey
	GetPaymentsBySeller(ctx context.Context, seller solana.PublicKey) ([]brick.Keyed[brick.Payment], error)
	GetMarketplace(ctx context.Context, addr solana.PublicKey) (*brick.Marketplace, error)
	WithdrawFunds(ctx context.Context, config brick.WithdrawFundsInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error)
}
