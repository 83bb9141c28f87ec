package fees_test

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/smartcontract/program/fees"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func TestFees_Distribute(t *testing.T) {
	t.Parallel()

	discount := solana.NewWallet().PublicKey()
	usdc := solana.NewWallet().PublicKey()

	tests := []struct {
		name        string
		cfg         fees.Config
		paymentMint solana.PublicKey
		amount      uint64
		want        fees.Split
		wantErr     error
	}{
		{
			name:        "seller absorbs fee",
			cfg:         fees.Config{FeeBps: 250, FeeReductionBps: 100, DiscountMint: discount, Payer: brick.FeePayerSeller},
			paymentMint: usdc,
			amount:      10_000,
			want:        fees.Split{Total: 10_000, Fee: 250, Counterparty: 9_750},
		},
		{
			name:        "discount mint lowers the rate",
			cfg:         fees.Config{FeeBps: 250, FeeReductionBps: 100, DiscountMint: discount, Payer: brick.FeePayerSeller},
			paymentMint: discount,
			amount:      10_000,
			want:        fees.Split{Total: 10_000, Fee: 150, Counterparty: 9_850},
		},
		{
			name:        "reduction larger than fee saturates at zero",
			cfg:         fees.Config{FeeBps: 100, FeeReductionBps: 500, DiscountMint: discount, Payer: brick.FeePayerSeller},
			paymentMint: discount,
			amount:      10_000,
			want:        fees.Split{Total: 10_000, Fee: 0, Counterparty: 10_000},
		},
		{
			name:        "buyer pays fee on top",
			cfg:         fees.Config{FeeBps: 500, Payer: brick.FeePayerBuyer},
			paymentMint: usdc,
			amount:      1_000,
			want:        fees.Split{Total: 1_050, Fee: 50, Counterparty: 1_000},
		},
		{
			name:        "fee floors",
			cfg:         fees.Config{FeeBps: 1, Payer: brick.FeePayerSeller},
			paymentMint: usdc,
			amount:      9_999,
			want:        fees.Split{Total: 9_999, Fee: 0, Counterparty: 9_999},
		},
		{
			name:        "full fee",
			cfg:         fees.Config{FeeBps: 10_000, Payer: brick.FeePayerSeller},
			paymentMint: usdc,
			amount:      math.MaxUint64,
			want:        fees.Split{Total: math.MaxUint64, Fee: math.MaxUint64, Counterparty: 0},
		},
		{
			name:        "buyer fee overflows",
			cfg:         fees.Config{FeeBps: 100, Payer: brick.FeePayerBuyer},
			paymentMint: usdc,
			amount:      math.MaxUint64,
			wantErr:     brick.ErrNumericalOverflow,
		},
		{
			name:        "fee above 100 percent",
			cfg:         fees.Config{FeeBps: 10_001, Payer: brick.FeePayerSeller},
			paymentMint: usdc,
			amount:      1,
			wantErr:     brick.ErrIncorrectFee,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := fees.Distribute(tt.cfg, tt.paymentMint, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFees_Distribute_Properties(t *testing.T) {
	t.Parallel()

	discount := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	amounts := []uint64{0, 1, 7, 99, 10_000, 123_456_789, math.MaxUint64 / 3, math.MaxUint64}

	for _, bps := range []uint16{0, 1, 250, 5_000, 9_999, 10_000} {
		for _, reduction := range []uint16{0, 50, 10_000} {
			cfg := fees.Config{FeeBps: bps, FeeReductionBps: reduction, DiscountMint: discount, Payer: brick.FeePayerSeller}
			for _, amount := range amounts {
				split, err := fees.Distribute(cfg, other, amount)
				require.NoError(t, err)
				require.Equal(t, amount, split.Fee+split.Counterparty, "conservation bps=%d amount=%d", bps, amount)
				require.LessOrEqual(t, split.Fee, amount)

				discounted, err := fees.Distribute(cfg, discount, amount)
				require.NoError(t, err)
				require.LessOrEqual(t, discounted.Fee, split.Fee, "discount never raises the fee")
			}
		}
	}
}

func TestFees_RewardAmount(t *testing.T) {
	t.Parallel()

	got, err := fees.RewardAmount(100, 5_000)
	require.NoError(t, err)
	require.Equal(t, uint64(50), got)

	got, err = fees.RewardAmount(0, 5_000)
	require.NoError(t, err)
	require.Zero(t, got)

	_, err = fees.RewardAmount(10_001, 5_000)
	require.ErrorIs(t, err, brick.ErrIncorrectFee)
}

func TestFees_RewardsActive(t *testing.T) {
	t.Parallel()

	trigger := solana.NewWallet().PublicKey()
	payment := solana.NewWallet().PublicKey()
	null := solana.NewWallet().PublicKey()

	require.False(t, fees.RewardsActive(false, trigger, trigger, null))
	require.False(t, fees.RewardsActive(false, null, payment, null))
	require.True(t, fees.RewardsActive(true, trigger, trigger, null))
	require.False(t, fees.RewardsActive(true, trigger, payment, null))
	require.True(t, fees.RewardsActive(true, null, payment, null))
}

func TestFees_Promotions(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	require.True(t, fees.PromotionActive(10, 20, mint, mint))
	require.False(t, fees.PromotionActive(10, 0, mint, mint))
	require.False(t, fees.PromotionActive(10, 20, mint, other))

	tests := []struct {
		name          string
		seller, buyer uint16
		legacy        bool
		wantErr       error
	}{
		{name: "closed", seller: 0, buyer: 0},
		{name: "one side open", seller: 10, buyer: 0, wantErr: brick.ErrOpenPromotion},
		{name: "both open", seller: 10, buyer: 10, wantErr: brick.ErrOpenPromotion},
		{name: "legacy one side open", seller: 10, buyer: 0, legacy: true},
		{name: "legacy both open", seller: 10, buyer: 10, legacy: true, wantErr: brick.ErrOpenPromotion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := fees.CheckWithdrawWindow(tt.seller, tt.buyer, tt.legacy)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFees_CheckedArithmetic(t *testing.T) {
	t.Parallel()

	v, err := fees.CheckedMul(3, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(21), v)

	_, err = fees.CheckedMul(math.MaxUint64, 2)
	require.ErrorIs(t, err, brick.ErrNumericalOverflow)

	_, err = fees.CheckedAdd(math.MaxUint64, 1)
	require.ErrorIs(t, err, brick.ErrNumericalOverflow)

	_, err = fees.CheckedSub(0, 1)
	require.ErrorIs(t, err, brick.ErrNumericalOverflow)

	v, err = fees.CheckedSub(10, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(6), v)
}
