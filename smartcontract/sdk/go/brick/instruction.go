package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// MarketplaceArgs is the parameter block shared by InitMarketplace and
// EditMarketplace.
//
// The zero value of FeePayer is FeePayerBuyer, so a marketplace built from a
// partially filled MarketplaceArgs charges its fee on top of the price. Set
// FeePayer to FeePayerSeller to deduct the fee from the seller's proceeds.
type MarketplaceArgs struct {
	FeeBps          uint16
	FeeReductionBps uint16
	FeePayer        FeePayer
	SellerRewardBps uint16
	BuyerRewardBps  uint16
	RewardsEnabled  bool
	DeliverToken    bool
	Permissionless  bool
	AllowSecondary  bool
}

type InitProductArgs struct {
	FirstID        [ProductIDHalfLength]byte
	SecondID       [ProductIDHalfLength]byte
	Price          uint64
	RefundTimespan uint64
	Exemplars      int32
}

type EditProductArgs struct {
	Price uint64
}

type GovernanceArgs struct {
	FeeBps          uint16
	FeeReductionBps uint16
	SellerPromoBps  uint16
	BuyerPromoBps   uint16
}

type CreateGovernanceArgs struct {
	Name            [MaxGovernanceNameLength]byte
	FeeBps          uint16
	FeeReductionBps uint16
	SellerPromoBps  uint16
	BuyerPromoBps   uint16
}

type BuyArgs struct {
	Quantity uint64
}

type EscrowBuyArgs struct {
	Timestamp uint64
	Quantity  uint64
}

func newInstruction(programID solana.PublicKey, index InstructionType, args any, accounts []*solana.AccountMeta) (solana.Instruction, error) {
	data := []byte{uint8(index)}
	if args != nil {
		encoded, err := borsh.Serialize(args)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize args: %w", err)
		}
		data = append(data, encoded...)
	}
	return &solana.GenericInstruction{
		ProgID:        programID,
		AccountValues: accounts,
		DataBytes:     data,
	}, nil
}

// optionalMeta passes the program ID in place of an absent optional account.
func optionalMeta(programID, key solana.PublicKey, writable bool) *solana.AccountMeta {
	if key.IsZero() {
		return &solana.AccountMeta{PublicKey: programID}
	}
	return &solana.AccountMeta{PublicKey: key, IsWritable: writable}
}

// tokenAccountFor returns override when set, else the associated token account
// of owner for mint.
func tokenAccountFor(override, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	if !override.IsZero() {
		return override, nil
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token account: %w", err)
	}
	return ata, nil
}
