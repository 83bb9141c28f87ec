package brick

import "github.com/gagliardetto/solana-go"

// InstructionType is the one-byte discriminator that prefixes every brick
// instruction payload.
type InstructionType uint8

const (
	InitMarketplaceInstructionIndex   InstructionType = 0
	EditMarketplaceInstructionIndex   InstructionType = 1
	InitBountyVaultInstructionIndex   InstructionType = 2
	InitProductInstructionIndex       InstructionType = 3
	EditProductInstructionIndex       InstructionType = 4
	DeleteProductInstructionIndex     InstructionType = 5
	InitRewardInstructionIndex        InstructionType = 6
	InitRewardVaultInstructionIndex   InstructionType = 7
	WithdrawRewardInstructionIndex    InstructionType = 8
	RegisterBuyInstructionIndex       InstructionType = 9
	RegisterRewardBuyInstructionIndex InstructionType = 10
	CreateGovernanceInstructionIndex  InstructionType = 11
	EditPointsInstructionIndex        InstructionType = 12
	InitBonusInstructionIndex         InstructionType = 13
	RegisterPromoBuyInstructionIndex  InstructionType = 14
	WithdrawBonusInstructionIndex     InstructionType = 15
	RegisterEscrowBuyInstructionIndex InstructionType = 16
	RefundInstructionIndex            InstructionType = 17
	WithdrawFundsInstructionIndex     InstructionType = 18
	RequestAccessInstructionIndex     InstructionType = 19
	AcceptAccessInstructionIndex      InstructionType = 20
	AirdropAccessInstructionIndex     InstructionType = 21
)

var instructionNames = map[InstructionType]string{
	InitMarketplaceInstructionIndex:   "InitMarketplace",
	EditMarketplaceInstructionIndex:   "EditMarketplace",
	InitBountyVaultInstructionIndex:   "InitBountyVault",
	InitProductInstructionIndex:       "InitProduct",
	EditProductInstructionIndex:       "EditProduct",
	DeleteProductInstructionIndex:     "DeleteProduct",
	InitRewardInstructionIndex:        "InitReward",
	InitRewardVaultInstructionIndex:   "InitRewardVault",
	WithdrawRewardInstructionIndex:    "WithdrawReward",
	RegisterBuyInstructionIndex:       "RegisterBuy",
	RegisterRewardBuyInstructionIndex: "RegisterRewardBuy",
	CreateGovernanceInstructionIndex:  "CreateGovernance",
	EditPointsInstructionIndex:        "EditPoints",
	InitBonusInstructionIndex:         "InitBonus",
	RegisterPromoBuyInstructionIndex:  "RegisterPromoBuy",
	WithdrawBonusInstructionIndex:     "WithdrawBonus",
	RegisterEscrowBuyInstructionIndex: "RegisterEscrowBuy",
	RefundInstructionIndex:            "Refund",
	WithdrawFundsInstructionIndex:     "WithdrawFunds",
	RequestAccessInstructionIndex:     "RequestAccess",
	AcceptAccessInstructionIndex:      "AcceptAccess",
	AirdropAccessInstructionIndex:     "AirdropAccess",
}

func (t InstructionType) String() string {
	if name, ok := instructionNames[t]; ok {
		return name
	}
	return "Unknown"
}

// PDA seeds
const (
	MarketplaceSeed          = "marketplace"
	BountyVaultSeed          = "bounty_vault"
	AccessMintSeed           = "access_mint"
	ProductSeed              = "product"
	ProductMintSeed          = "product_mint"
	RewardSeed               = "reward"
	RewardVaultSeed          = "reward_vault"
	GovernanceSeed           = "governance"
	GovernanceBonusVaultSeed = "governance_bonus_vault"
	BonusSeed                = "bonus"
	BonusVaultSeed           = "bonus_vault"
	PaymentSeed              = "payment_account"
	PaymentVaultSeed         = "payment_vault"
	RequestSeed              = "request"
	PurchaseCounterSeed      = "payment"
	NullSeed                 = "null"
)

// Limits
const (
	MaxVaults               = 5
	MaxBasisPoints          = 10_000
	MaxSeedLength           = 32
	ProductIDLength         = 64
	ProductIDHalfLength     = 32
	MaxGovernanceNameLength = 32

	// UnlimitedExemplars disables the product supply cap.
	UnlimitedExemplars int32 = -1
)

// NativeMint is the sentinel payment mint for the chain's native currency.
// Products priced in it settle with lamport transfers instead of the token
// ledger.
var NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

// DefaultGovernanceName is the only governance the program accepts unless
// configured otherwise.
const DefaultGovernanceName = "Fishnet"
