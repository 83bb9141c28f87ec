// Package fees computes how a sale amount is split between the seller, the fee
// collector and the reward/bonus participants. All percentages are basis points
// (1/100 of a percent) and every result is floored.
package fees

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

// Config is the fee section of a marketplace or governance record.
type Config struct {
	FeeBps          uint16
	FeeReductionBps uint16
	DiscountMint    solana.PublicKey
	Payer           brick.FeePayer
}

// Split is the outcome of a fee distribution. Total is what leaves the buyer,
// Fee goes to the fee collector and Counterparty to the seller.
type Split struct {
	Total        uint64
	Fee          uint64
	Counterparty uint64
}

// ValidateBps fails with ErrIncorrectFee if any value is above 100%.
func ValidateBps(values ...uint16) error {
	for _, v := range values {
		if v > brick.MaxBasisPoints {
			return brick.ErrIncorrectFee
		}
	}
	return nil
}

// EffectiveBps returns the fee rate charged for a payment in paymentMint. Paying
// with the discount mint lowers the rate by the reduction, never below zero.
func (c Config) EffectiveBps(paymentMint solana.PublicKey) uint16 {
	if paymentMint.Equals(c.DiscountMint) {
		if c.FeeReductionBps >= c.FeeBps {
			return 0
		}
		return c.FeeBps - c.FeeReductionBps
	}
	return c.FeeBps
}

// Distribute splits amount according to the config. When the seller pays, the
// fee is taken out of amount. When the buyer pays, the fee is charged on top.
func Distribute(cfg Config, paymentMint solana.PublicKey, amount uint64) (Split, error) {
	if err := ValidateBps(cfg.FeeBps, cfg.FeeReductionBps); err != nil {
		return Split{}, err
	}
	fee, err := Portion(cfg.EffectiveBps(paymentMint), amount)
	if err != nil {
		return Split{}, err
	}

	switch cfg.Payer {
	case brick.FeePayerSeller:
		counterparty, err := CheckedSub(amount, fee)
		if err != nil {
			return Split{}, err
		}
		return Split{Total: amount, Fee: fee, Counterparty: counterparty}, nil
	case brick.FeePayerBuyer:
		total, err := CheckedAdd(amount, fee)
		if err != nil {
			return Split{}, err
		}
		return Split{Total: total, Fee: fee, Counterparty: amount}, nil
	default:
		return Split{}, brick.ErrIncorrectFee
	}
}

// RewardAmount is the bonus paid to a participant for a sale of amount.
func RewardAmount(bps uint16, amount uint64) (uint64, error) {
	if err := ValidateBps(bps); err != nil {
		return 0, err
	}
	return Portion(bps, amount)
}

// Portion returns floor(amount * bps / 10000) using a 256-bit intermediate.
func Portion(bps uint16, amount uint64) (uint64, error) {
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), uint256.NewInt(uint64(bps)))
	if overflow {
		return 0, brick.ErrNumericalOverflow
	}
	quotient := new(uint256.Int).Div(product, uint256.NewInt(brick.MaxBasisPoints))
	if !quotient.IsUint64() {
		return 0, brick.ErrConversionError
	}
	return quotient.Uint64(), nil
}

// RewardsActive reports whether a sale paid in paymentMint earns rewards. A
// trigger mint equal to the null sentinel matches every payment mint.
func RewardsActive(enabled bool, triggerMint, paymentMint, nullSentinel solana.PublicKey) bool {
	if !enabled {
		return false
	}
	return paymentMint.Equals(triggerMint) || triggerMint.Equals(nullSentinel)
}

// PromotionActive reports whether a promotional buy in paymentMint is allowed:
// both promo rates are set and the sale is paid in the governance mint.
func PromotionActive(sellerPromoBps, buyerPromoBps uint16, governanceMint, paymentMint solana.PublicKey) bool {
	return sellerPromoBps > 0 && buyerPromoBps > 0 && paymentMint.Equals(governanceMint)
}

// CheckWithdrawWindow fails with ErrOpenPromotion while a promotion still
// accrues bonuses. With legacy set, only a promotion where both sides are
// non-zero blocks the withdrawal.
func CheckWithdrawWindow(sellerPromoBps, buyerPromoBps uint16, legacy bool) error {
	open := sellerPromoBps > 0 || buyerPromoBps > 0
	if legacy {
		open = sellerPromoBps > 0 && buyerPromoBps > 0
	}
	if open {
		return brick.ErrOpenPromotion
	}
	return nil
}

func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, brick.ErrNumericalOverflow
	}
	return sum, nil
}

func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, brick.ErrNumericalOverflow
	}
	return diff, nil
}

func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, brick.ErrNumericalOverflow
	}
	return lo, nil
}
