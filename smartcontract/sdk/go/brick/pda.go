package brick

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Derive finds the program address and canonical bump for seeds.
func Derive(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return solana.PublicKey{}, 0, fmt.Errorf("seed %d is %d bytes, max %d: %w", i, len(seed), MaxSeedLength, ErrStringTooLong)
		}
	}
	return solana.FindProgramAddress(seeds, programID)
}

// Verify reports whether claimed is the canonical address for seeds.
func Verify(programID, claimed solana.PublicKey, seeds ...[]byte) bool {
	addr, _, err := Derive(programID, seeds...)
	return err == nil && addr.Equals(claimed)
}

// VerifySigner recreates the address from the stored bump, the same seeds the
// program signs with, and fails with ErrIncorrectSeeds if it does not match.
func VerifySigner(programID, claimed solana.PublicKey, bump uint8, seeds ...[]byte) error {
	signerSeeds := append(append([][]byte{}, seeds...), []byte{bump})
	addr, err := solana.CreateProgramAddress(signerSeeds, programID)
	if err != nil || !addr.Equals(claimed) {
		return ErrIncorrectSeeds
	}
	return nil
}

// NullSentinel is the address stored as reward trigger mint to mean "any
// payment mint".
func NullSentinel(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := Derive(programID, []byte(NullSeed))
	return addr, err
}

// SplitProductID pads id with spaces to 64 bytes and splits it in two seeds.
func SplitProductID(id string) ([ProductIDHalfLength]byte, [ProductIDHalfLength]byte, error) {
	var first, second [ProductIDHalfLength]byte
	if len(id) > ProductIDLength {
		return first, second, ErrStringTooLong
	}
	padded := id + strings.Repeat(" ", ProductIDLength-len(id))
	copy(first[:], padded[:ProductIDHalfLength])
	copy(second[:], padded[ProductIDHalfLength:])
	return first, second, nil
}

// JoinProductID is the inverse of SplitProductID.
func JoinProductID(first, second [ProductIDHalfLength]byte) string {
	return strings.TrimRight(string(first[:])+string(second[:]), " ")
}

// GovernanceName pads name with spaces to its fixed on-chain width.
func GovernanceName(name string) ([MaxGovernanceNameLength]byte, error) {
	var out [MaxGovernanceNameLength]byte
	if len(name) > MaxGovernanceNameLength {
		return out, ErrStringTooLong
	}
	copy(out[:], name+strings.Repeat(" ", MaxGovernanceNameLength-len(name)))
	return out, nil
}

func TrimName(name [MaxGovernanceNameLength]byte) string {
	return strings.TrimRight(string(name[:]), " ")
}

// Seeds: ["marketplace", authority]
func MarketplaceSeeds(authority solana.PublicKey) [][]byte {
	return [][]byte{[]byte(MarketplaceSeed), authority[:]}
}

func DeriveMarketplacePDA(programID, authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, MarketplaceSeeds(authority)...)
}

// Seeds: ["bounty_vault", marketplace, mint]
func BountyVaultSeeds(marketplace, mint solana.PublicKey) [][]byte {
	return [][]byte{[]byte(BountyVaultSeed), marketplace[:], mint[:]}
}

func DeriveBountyVaultPDA(programID, marketplace, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, BountyVaultSeeds(marketplace, mint)...)
}

// Seeds: ["access_mint", marketplace]
func AccessMintSeeds(marketplace solana.PublicKey) [][]byte {
	return [][]byte{[]byte(AccessMintSeed), marketplace[:]}
}

func DeriveAccessMintPDA(programID, marketplace solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, AccessMintSeeds(marketplace)...)
}

// Seeds: ["product", first_id, second_id, marketplace]
func ProductSeeds(first, second [ProductIDHalfLength]byte, marketplace solana.PublicKey) [][]byte {
	return [][]byte{[]byte(ProductSeed), first[:], second[:], marketplace[:]}
}

func DeriveProductPDA(programID solana.PublicKey, first, second [ProductIDHalfLength]byte, marketplace solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, ProductSeeds(first, second, marketplace)...)
}

// Seeds: ["product_mint", first_id, second_id, marketplace]
func ProductMintSeeds(first, second [ProductIDHalfLength]byte, marketplace solana.PublicKey) [][]byte {
	return [][]byte{[]byte(ProductMintSeed), first[:], second[:], marketplace[:]}
}

func DeriveProductMintPDA(programID solana.PublicKey, first, second [ProductIDHalfLength]byte, marketplace solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, ProductMintSeeds(first, second, marketplace)...)
}

// Seeds: ["reward", participant, marketplace]
func RewardSeeds(participant, marketplace solana.PublicKey) [][]byte {
	return [][]byte{[]byte(RewardSeed), participant[:], marketplace[:]}
}

func DeriveRewardPDA(programID, participant, marketplace solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, RewardSeeds(participant, marketplace)...)
}

// Seeds: ["reward_vault", participant, marketplace, mint]
func RewardVaultSeeds(participant, marketplace, mint solana.PublicKey) [][]byte {
	return [][]byte{[]byte(RewardVaultSeed), participant[:], marketplace[:], mint[:]}
}

func DeriveRewardVaultPDA(programID, participant, marketplace, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, RewardVaultSeeds(participant, marketplace, mint)...)
}

// Seeds: ["governance", name]
func GovernanceSeeds(name [MaxGovernanceNameLength]byte) [][]byte {
	return [][]byte{[]byte(GovernanceSeed), name[:]}
}

func DeriveGovernancePDA(programID solana.PublicKey, name [MaxGovernanceNameLength]byte) (solana.PublicKey, uint8, error) {
	return Derive(programID, GovernanceSeeds(name)...)
}

// Seeds: ["governance_bonus_vault", governance]
func GovernanceBonusVaultSeeds(governance solana.PublicKey) [][]byte {
	return [][]byte{[]byte(GovernanceBonusVaultSeed), governance[:]}
}

func DeriveGovernanceBonusVaultPDA(programID, governance solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, GovernanceBonusVaultSeeds(governance)...)
}

// Seeds: ["bonus", participant, governance]
func BonusSeeds(participant, governance solana.PublicKey) [][]byte {
	return [][]byte{[]byte(BonusSeed), participant[:], governance[:]}
}

func DeriveBonusPDA(programID, participant, governance solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, BonusSeeds(participant, governance)...)
}

// Seeds: ["bonus_vault", participant, governance]
func BonusVaultSeeds(participant, governance solana.PublicKey) [][]byte {
	return [][]byte{[]byte(BonusVaultSeed), participant[:], governance[:]}
}

func DeriveBonusVaultPDA(programID, participant, governance solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, BonusVaultSeeds(participant, governance)...)
}

// Seeds: ["payment_account", product_mint, buyer, timestamp as u64 LE]
func PaymentSeeds(productMint, buyer solana.PublicKey, timestamp uint64) [][]byte {
	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, timestamp)
	return [][]byte{[]byte(PaymentSeed), productMint[:], buyer[:], ts}
}

func DerivePaymentPDA(programID, productMint, buyer solana.PublicKey, timestamp uint64) (solana.PublicKey, uint8, error) {
	return Derive(programID, PaymentSeeds(productMint, buyer, timestamp)...)
}

// Seeds: ["payment_vault", payment]
func PaymentVaultSeeds(payment solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PaymentVaultSeed), payment[:]}
}

func DerivePaymentVaultPDA(programID, payment solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, PaymentVaultSeeds(payment)...)
}

// Seeds: ["request", requester, marketplace]
func RequestSeeds(requester, marketplace solana.PublicKey) [][]byte {
	return [][]byte{[]byte(RequestSeed), requester[:], marketplace[:]}
}

func DeriveRequestPDA(programID, requester, marketplace solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, RequestSeeds(requester, marketplace)...)
}

// Seeds: ["payment", buyer, product]
func PurchaseCounterSeeds(buyer, product solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PurchaseCounterSeed), buyer[:], product[:]}
}

func DerivePurchaseCounterPDA(programID, buyer, product solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, PurchaseCounterSeeds(buyer, product)...)
}
