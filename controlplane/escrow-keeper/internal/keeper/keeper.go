package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/jellydator/ttlcache/v3"

	"github.com/malbeclabs/brick/controlplane/escrow-keeper/internal/metrics"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

// Keeper releases escrowed payments to their seller once the buyer's refund
// window has passed.
type Keeper struct {
	log *slog.Logger
	cfg Config

	// Marketplace address to marketplace authority, the fee recipient.
	authorities *ttlcache.Cache[solana.PublicKey, solana.PublicKey]
	pool        pond.ResultPool[withdrawal]
}

type withdrawal struct {
	payment solana.PublicKey
	sig     solana.Signature
	err     error
	notYet  bool
}

// SweepResult summarizes one pass over the seller's payments.
type SweepResult struct {
	Listed    int
	Pending   int
	Withdrawn []solana.PublicKey
	Failed    []solana.PublicKey
}

func New(cfg Config) (*Keeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Keeper{
		log: cfg.Logger,
		cfg: cfg,
		authorities: ttlcache.New(
			ttlcache.WithTTL[solana.PublicKey, solana.PublicKey](cfg.MarketplaceCacheTTL),
		),
		pool: pond.NewResultPool[withdrawal](cfg.Concurrency),
	}, nil
}

func (k *Keeper) Run(ctx context.Context) error {
	k.log.Info("Starting escrow keeper",
		"interval", k.cfg.Interval,
		"seller", k.cfg.Seller,
		"concurrency", k.cfg.Concurrency,
		"programID", k.cfg.Client.ProgramID(),
	)
	defer k.pool.StopAndWait()

	ticker := k.cfg.Clock.NewTicker(k.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.log.Info("Escrow keeper stopped by context", "error", ctx.Err())
			return nil
		case <-ticker.Chan():
			res, err := k.Sweep(ctx)
			if err != nil {
				k.log.Error("Failed to sweep payments", "error", err)
				continue
			}
			k.log.Debug("Swept payments",
				"listed", res.Listed,
				"pending", res.Pending,
				"withdrawn", len(res.Withdrawn),
				"failed", len(res.Failed),
			)
		}
	}
}

// Sweep lists the seller's open payments and withdraws every one whose
// refund window has closed.
func (k *Keeper) Sweep(ctx context.Context) (*SweepResult, error) {
	payments, err := retry(ctx, k.cfg, func() ([]brick.Keyed[brick.Payment], error) {
		return k.cfg.Client.GetPaymentsBySeller(ctx, k.cfg.Seller)
	})
	if err != nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeListPayments).Inc()
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	now := uint64(k.cfg.Clock.Now().Unix())
	res := &SweepResult{Listed: len(payments)}
	group := k.pool.NewGroupContext(ctx)
	due := 0
	for _, p := range payments {
		if p.Account.RefundConsumedAt > now {
			res.Pending++
			continue
		}
		due++
		group.SubmitErr(func() (withdrawal, error) {
			return k.withdraw(ctx, p), nil
		})
	}
	metrics.DuePayments.Set(float64(due))

	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to withdraw payments: %w", err)
	}
	for _, w := range results {
		switch {
		case w.notYet:
			res.Pending++
		case w.err != nil:
			res.Failed = append(res.Failed, w.payment)
		default:
			res.Withdrawn = append(res.Withdrawn, w.payment)
		}
	}
	metrics.PendingPayments.Set(float64(res.Pending))
	return res, nil
}

func (k *Keeper) withdraw(ctx context.Context, p brick.Keyed[brick.Payment]) withdrawal {
	w := withdrawal{payment: p.Address}
	log := k.log.With("payment", p.Address, "product", p.Account.Product, "buyer", p.Account.Buyer)

	authority, err := k.marketplaceAuthority(ctx, p.Account.Marketplace)
	if err != nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeGetMarketplace).Inc()
		log.Error("Failed to get marketplace", "marketplace", p.Account.Marketplace, "error", err)
		w.err = err
		return w
	}

	pay := p.Account
	w.sig, _, w.err = k.cfg.Client.WithdrawFunds(ctx, brick.WithdrawFundsInstructionConfig{
		Signer:               k.cfg.Seller,
		Payment:              p.Address,
		PaymentState:         &pay,
		MarketplaceAuthority: authority,
	})
	if errors.Is(w.err, brick.ErrCannotWithdrawYet) {
		// Ledger clock is behind ours; the next sweep picks it up.
		log.Debug("Payment not yet withdrawable on ledger", "refundConsumedAt", pay.RefundConsumedAt)
		w.notYet = true
		return w
	}
	if w.err != nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeWithdrawFunds).Inc()
		log.Error("Failed to withdraw payment", "error", w.err)
		return w
	}

	metrics.Withdrawals.Inc()
	metrics.WithdrawnAmount.WithLabelValues(pay.PaidMint.String()).Add(float64(pay.Price))
	log.Info("Withdrew payment", "sig", w.sig, "amount", pay.Price, "mint", pay.PaidMint)
	return w
}

func (k *Keeper) marketplaceAuthority(ctx context.Context, marketplace solana.PublicKey) (solana.PublicKey, error) {
	if item := k.authorities.Get(marketplace); item != nil {
		return item.Value(), nil
	}
	m, err := retry(ctx, k.cfg, func() (*brick.Marketplace, error) {
		m, err := k.cfg.Client.GetMarketplace(ctx, marketplace)
		if errors.Is(err, brick.ErrAccountNotFound) {
			return nil, backoff.Permanent(err)
		}
		return m, err
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	k.authorities.Set(marketplace, m.Authority, ttlcache.DefaultTTL)
	return m.Authority, nil
}

func retry[T any](ctx context.Context, cfg Config, f func() (T, error)) (T, error) {
	return backoff.Retry(ctx, f,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(cfg.MaxRetryElapsed),
	)
}
