package processor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/smartcontract/program/processor"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func TestProcessor_Escrow_RefundWindow(t *testing.T) {
	t.Parallel()

	h := newHarness(t, processor.Config{})
	authority, seller, early, late := h.wallet(), h.wallet(), h.wallet(), h.wallet()
	mint := h.mint()
	marketplace, _ := h.marketplace(authority, brick.NativeMint, brick.MarketplaceArgs{
		FeeBps:         1_000,
		FeePayer:       brick.FeePayerBuyer,
		Permissionless: true,
	})
	product := h.product(seller, marketplace, "escrowed", mint, 5_000, 500, brick.UnlimitedExemplars)
	earlyVault := h.fund(early.PublicKey(), mint, 5_000)
	lateVault := h.fund(late.PublicKey(), mint, 5_000)
	sellerVault := h.ata(seller.PublicKey(), mint)
	feeVault := h.ata(authority.PublicKey(), mint)

	refunded, _, err := h.client(early).EscrowBuy(h.ctx, product, 1, genesis)
	require.NoError(t, err)
	withdrawn, _, err := h.client(late).EscrowBuy(h.ctx, product, 1, genesis)
	require.NoError(t, err)

	pay, err := h.client(seller).GetPayment(h.ctx, withdrawn)
	require.NoError(t, err)
	require.Equal(t, uint64(genesis+500), pay.RefundConsumedAt)
	require.Equal(t, uint64(5_000), pay.Price)
	require.Zero(t, h.tokens(lateVault))

	p, err := h.client(seller).GetProduct(h.ctx, product)
	require.NoError(t, err)
	require.Equal(t, uint32(2), p.ActivePayments)

	payments, err := h.client(seller).GetPaymentsBySeller(h.ctx, seller.PublicKey())
	require.NoError(t, err)
	require.Len(t, payments, 2)

	t.Run("product with open payments cannot be deleted", func(t *testing.T) {
		_, _, err := h.client(seller).DeleteProduct(h.ctx, brick.DeleteProductInstructionConfig{
			Signer:  seller.PublicKey(),
			Product: product,
		})
		require.ErrorIs(t, err, brick.ErrCannotCloseProduct)
	})

	refundedState, err := h.client(early).GetPayment(h.ctx, refunded)
	require.NoError(t, err)

	h.cluster.Warp(400 * time.Second)

	t.Run("refund inside window", func(t *testing.T) {
		_, err := h.client(early).RefundPayment(h.ctx, refunded)
		require.NoError(t, err)
		require.Equal(t, uint64(5_000), h.tokens(earlyVault))

		_, err = h.client(early).GetPayment(h.ctx, refunded)
		require.ErrorIs(t, err, brick.ErrAccountNotFound)
	})

	t.Run("withdraw inside window", func(t *testing.T) {
		_, err := h.client(seller).WithdrawPayment(h.ctx, withdrawn, nil)
		require.ErrorIs(t, err, brick.ErrCannotWithdrawYet)
	})

	h.cluster.Warp(200 * time.Second)

	t.Run("refund after window", func(t *testing.T) {
		_, err := h.client(late).RefundPayment(h.ctx, withdrawn)
		require.ErrorIs(t, err, brick.ErrTimeForRefundHasConsumed)
	})

	t.Run("withdraw after window", func(t *testing.T) {
		_, err := h.client(seller).WithdrawPayment(h.ctx, withdrawn, nil)
		require.NoError(t, err)
		// The seller carries the fee on release.
		require.Equal(t, uint64(4_500), h.tokens(sellerVault))
		require.Equal(t, uint64(500), h.tokens(feeVault))
	})

	t.Run("refunded payment cannot be withdrawn", func(t *testing.T) {
		_, _, err := h.client(seller).WithdrawFunds(h.ctx, brick.WithdrawFundsInstructionConfig{
			Signer:               seller.PublicKey(),
			Payment:              refunded,
			PaymentState:         refundedState,
			MarketplaceAuthority: authority.PublicKey(),
		})
		require.ErrorIs(t, err, brick.ErrIncorrectAccountData)
		require.Equal(t, uint64(4_500), h.tokens(sellerVault))
		require.Equal(t, uint64(500), h.tokens(feeVault))
		require.Equal(t, uint64(5_000), h.tokens(earlyVault))
	})

	t.Run("product closes once payments settle", func(t *testing.T) {
		p, err := h.client(seller).GetProduct(h.ctx, product)
		require.NoError(t, err)
		require.Zero(t, p.ActivePayments)

		_, _, err = h.client(seller).DeleteProduct(h.ctx, brick.DeleteProductInstructionConfig{
			Signer:  seller.PublicKey(),
			Product: product,
		})
		require.NoError(t, err)
		_, err = h.client(seller).GetProduct(h.ctx, product)
		require.ErrorIs(t, err, brick.ErrAccountNotFound)
	})
}

func TestProcessor_Escrow_RefundRestocks(t *testing.T) {
	t.Parallel()

	h := newHarness(t, processor.Config{})
	authority, seller, buyer := h.wallet(), h.wallet(), h.wallet()
	mint := h.mint()
	marketplace, _ := h.marketplace(authority, brick.NativeMint, brick.MarketplaceArgs{Permissionless: true})
	product := h.product(seller, marketplace, "last-seat", mint, 300, 60, 1)
	h.fund(buyer.PublicKey(), mint, 600)
	c := h.client(buyer)

	payment, _, err := c.EscrowBuy(h.ctx, product, 1, genesis)
	require.NoError(t, err)
	p, err := c.GetProduct(h.ctx, product)
	require.NoError(t, err)
	require.Zero(t, p.Exemplars)

	_, err = c.RefundPayment(h.ctx, payment)
	require.NoError(t, err)
	p, err = c.GetProduct(h.ctx, product)
	require.NoError(t, err)
	require.Equal(t, int32(1), p.Exemplars)
	require.Zero(t, p.ActivePayments)

	_, _, err = c.EscrowBuy(h.ctx, product, 1, genesis)
	require.NoError(t, err)
	p, err = c.GetProduct(h.ctx, product)
	require.NoError(t, err)
	require.Zero(t, p.Exemplars)

	_, _, err = c.EscrowBuy(h.ctx, product, 1, genesis-1)
	require.ErrorIs(t, err, brick.ErrNotEnoughExemplars)
}

func TestProcessor_Escrow_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, processor.Config{})
	authority, seller, buyer := h.wallet(), h.wallet(), h.wallet()
	mint := h.mint()
	marketplace, _ := h.marketplace(authority, brick.NativeMint, brick.MarketplaceArgs{Permissionless: true})
	product := h.product(seller, marketplace, "escrow-checks", mint, 100, 60, brick.UnlimitedExemplars)
	native := h.product(seller, marketplace, "escrow-native", brick.NativeMint, 100, 60, brick.UnlimitedExemplars)
	h.fund(buyer.PublicKey(), mint, 50)
	c := h.client(buyer)

	t.Run("timestamp in the future", func(t *testing.T) {
		_, _, err := c.EscrowBuy(h.ctx, product, 1, genesis+1)
		require.ErrorIs(t, err, brick.ErrInvalidTimestamp)
	})

	t.Run("native payment mint", func(t *testing.T) {
		_, _, err := c.EscrowBuy(h.ctx, native, 1, genesis)
		require.ErrorIs(t, err, brick.ErrIncorrectMint)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		_, _, err := c.EscrowBuy(h.ctx, product, 1, genesis)
		require.ErrorIs(t, err, brick.ErrTransferError)
	})

	t.Run("refund by someone else", func(t *testing.T) {
		h.fund(buyer.PublicKey(), mint, 50)
		payment, _, err := c.EscrowBuy(h.ctx, product, 1, genesis)
		require.NoError(t, err)

		pay, err := c.GetPayment(h.ctx, payment)
		require.NoError(t, err)
		_, _, err = h.client(seller).Refund(h.ctx, brick.RefundInstructionConfig{
			Signer:       seller.PublicKey(),
			Payment:      payment,
			PaymentState: pay,
		})
		require.ErrorIs(t, err, brick.ErrIncorrectAuthority)
	})
}
