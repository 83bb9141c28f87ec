package processor_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/smartcontract/program/processor"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type promoFixture struct {
	*harness
	authority, seller, buyer solana.PrivateKey
	governance               solana.PublicKey
	mint                     solana.PublicKey
	product                  solana.PublicKey
}

func newPromoFixture(t *testing.T, cfg processor.Config, points brick.GovernanceArgs) *promoFixture {
	t.Helper()
	h := newHarness(t, cfg)
	f := &promoFixture{harness: h, authority: h.wallet(), seller: h.wallet(), buyer: h.wallet(), mint: h.mint()}

	_, _, err := h.client(f.authority).CreateGovernance(h.ctx, brick.CreateGovernanceInstructionConfig{
		Authority: f.authority.PublicKey(),
		Name:      brick.DefaultGovernanceName,
		Mint:      f.mint,
		Args:      points,
	})
	require.NoError(t, err)
	f.governance, _, err = h.client(f.authority).GetGovernance(h.ctx, brick.DefaultGovernanceName)
	require.NoError(t, err)

	marketplace, _ := h.marketplace(f.authority, brick.NativeMint, brick.MarketplaceArgs{Permissionless: true})
	f.product = h.product(f.seller, marketplace, "promo-item", f.mint, 100_000, 0, brick.UnlimitedExemplars)

	for _, w := range []solana.PrivateKey{f.seller, f.buyer} {
		_, _, err := h.client(w).InitBonus(h.ctx, brick.InitBonusInstructionConfig{
			Signer:     w.PublicKey(),
			Governance: f.governance,
			Mint:       f.mint,
		})
		require.NoError(t, err)
	}
	return f
}

func (f *promoFixture) promoBuy(quantity uint64) error {
	c := f.client(f.buyer)
	_, g, err := c.GetGovernance(f.ctx, brick.DefaultGovernanceName)
	require.NoError(f.t, err)
	p, err := c.GetProduct(f.ctx, f.product)
	require.NoError(f.t, err)
	_, _, err = c.RegisterPromoBuy(f.ctx, brick.RegisterPromoBuyInstructionConfig{
		Signer:          f.buyer.PublicKey(),
		Governance:      f.governance,
		GovernanceState: g,
		Product:         f.product,
		ProductState:    p,
		Quantity:        quantity,
	})
	return err
}

func (f *promoFixture) editPoints(args brick.GovernanceArgs) {
	f.t.Helper()
	_, _, err := f.client(f.authority).EditPoints(f.ctx, brick.EditPointsInstructionConfig{
		Authority:  f.authority.PublicKey(),
		Governance: f.governance,
		Args:       args,
	})
	require.NoError(f.t, err)
}

func (f *promoFixture) withdrawBonus(w solana.PrivateKey) error {
	f.ata(w.PublicKey(), f.mint)
	_, _, err := f.client(w).WithdrawBonus(f.ctx, brick.WithdrawBonusInstructionConfig{
		Signer:     w.PublicKey(),
		Governance: f.governance,
		Mint:       f.mint,
	})
	return err
}

func TestProcessor_RegisterPromoBuy(t *testing.T) {
	t.Parallel()

	f := newPromoFixture(t, processor.Config{}, brick.GovernanceArgs{
		FeeBps:          200,
		FeeReductionBps: 100,
		SellerPromoBps:  50,
		BuyerPromoBps:   20,
	})
	_, gov, err := f.client(f.authority).GetGovernance(f.ctx, brick.DefaultGovernanceName)
	require.NoError(t, err)
	require.NoError(t, f.cluster.MintTo(f.mint, gov.BonusVault, f.minter.PublicKey(), 10_000))

	buyerVault := f.fund(f.buyer.PublicKey(), f.mint, 100_000)
	sellerVault := f.ata(f.seller.PublicKey(), f.mint)
	feeVault := f.ata(f.authority.PublicKey(), f.mint)

	require.NoError(t, f.promoBuy(1))

	// Paid in the governance mint, so the reduced rate of 100 bps applies.
	require.Zero(t, f.tokens(buyerVault))
	require.Equal(t, uint64(99_000), f.tokens(sellerVault))
	require.Equal(t, uint64(1_000), f.tokens(feeVault))
	require.Equal(t, uint64(9_300), f.tokens(gov.BonusVault))

	sellerBonusVault, _, err := brick.DeriveBonusVaultPDA(f.programID, f.seller.PublicKey(), f.governance)
	require.NoError(t, err)
	buyerBonusVault, _, err := brick.DeriveBonusVaultPDA(f.programID, f.buyer.PublicKey(), f.governance)
	require.NoError(t, err)
	require.Equal(t, uint64(500), f.tokens(sellerBonusVault))
	require.Equal(t, uint64(200), f.tokens(buyerBonusVault))

	bonus, err := f.client(f.seller).GetBonus(f.ctx, f.seller.PublicKey(), f.governance)
	require.NoError(t, err)
	require.Equal(t, uint64(500), bonus.Amount)

	t.Run("promotion closes when one side is zero", func(t *testing.T) {
		f.editPoints(brick.GovernanceArgs{FeeBps: 200, FeeReductionBps: 100, SellerPromoBps: 50})
		f.fund(f.buyer.PublicKey(), f.mint, 100_000)
		require.ErrorIs(t, f.promoBuy(1), brick.ErrClosedPromotion)
	})

	t.Run("withdraw blocked while a side is still open", func(t *testing.T) {
		require.ErrorIs(t, f.withdrawBonus(f.seller), brick.ErrOpenPromotion)
	})

	t.Run("withdraw after promotion ends", func(t *testing.T) {
		f.editPoints(brick.GovernanceArgs{FeeBps: 200, FeeReductionBps: 100})
		require.NoError(t, f.withdrawBonus(f.seller))
		require.Equal(t, uint64(99_500), f.tokens(sellerVault))

		_, err := f.client(f.seller).GetBonus(f.ctx, f.seller.PublicKey(), f.governance)
		require.ErrorIs(t, err, brick.ErrAccountNotFound)
	})
}

func TestProcessor_WithdrawBonus_LegacyGate(t *testing.T) {
	t.Parallel()

	f := newPromoFixture(t, processor.Config{LegacyPromotionGate: true}, brick.GovernanceArgs{SellerPromoBps: 50})
	require.NoError(t, f.withdrawBonus(f.buyer))
}

func TestProcessor_CreateGovernance_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, processor.Config{GovernanceNames: []string{"Fishnet", "Trawler"}})
	authority := h.wallet()
	mint := h.mint()
	c := h.client(authority)

	tests := []struct {
		name    string
		config  brick.CreateGovernanceInstructionConfig
		wantErr error
	}{
		{
			name:    "name not allowed",
			config:  brick.CreateGovernanceInstructionConfig{Name: "Dredger", Mint: mint},
			wantErr: brick.ErrIncorrectGovernanceName,
		},
		{
			name:    "native mint",
			config:  brick.CreateGovernanceInstructionConfig{Name: "Trawler", Mint: brick.NativeMint},
			wantErr: brick.ErrIncorrectMint,
		},
		{
			name:    "fee above 100%",
			config:  brick.CreateGovernanceInstructionConfig{Name: "Trawler", Mint: mint, Args: brick.GovernanceArgs{FeeBps: 10_001}},
			wantErr: brick.ErrIncorrectFee,
		},
		{
			name:   "second allowed name",
			config: brick.CreateGovernanceInstructionConfig{Name: "Trawler", Mint: mint},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Authority = authority.PublicKey()
			_, _, err := c.CreateGovernance(h.ctx, tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("edit points by another signer", func(t *testing.T) {
		other := h.wallet()
		governance, _, err := c.GetGovernance(h.ctx, "Trawler")
		require.NoError(t, err)
		_, _, err = h.client(other).EditPoints(h.ctx, brick.EditPointsInstructionConfig{
			Authority:  other.PublicKey(),
			Governance: governance,
		})
		require.ErrorIs(t, err, brick.ErrIncorrectAuthority)
	})
}
