package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// RegisterBuyInstructionConfig builds RegisterBuy and RegisterRewardBuy. The
// marketplace and product records drive which optional accounts are passed.
type RegisterBuyInstructionConfig struct {
	Signer           solana.PublicKey
	Marketplace      solana.PublicKey
	MarketplaceState *Marketplace
	Product          solana.PublicKey
	ProductState     *Product
	Quantity         uint64

	// Optional token account overrides, default to associated token accounts.
	BuyerTransferVault       solana.PublicKey
	SellerTransferVault      solana.PublicKey
	MarketplaceTransferVault solana.PublicKey
	BuyerTokenVault          solana.PublicKey
}

func (c *RegisterBuyInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Marketplace.IsZero() {
		return fmt.Errorf("marketplace public key is required")
	}
	if c.MarketplaceState == nil {
		return fmt.Errorf("marketplace state is required")
	}
	if c.Product.IsZero() {
		return fmt.Errorf("product public key is required")
	}
	if c.ProductState == nil {
		return fmt.Errorf("product state is required")
	}
	return nil
}

func BuildRegisterBuyInstruction(programID solana.PublicKey, config RegisterBuyInstructionConfig) (solana.Instruction, error) {
	return buildRegisterBuy(programID, RegisterBuyInstructionIndex, config)
}

func BuildRegisterRewardBuyInstruction(programID solana.PublicKey, config RegisterBuyInstructionConfig) (solana.Instruction, error) {
	return buildRegisterBuy(programID, RegisterRewardBuyInstructionIndex, config)
}

func buildRegisterBuy(programID solana.PublicKey, index InstructionType, config RegisterBuyInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	m, p := config.MarketplaceState, config.ProductState

	var buyerVault, sellerVault, marketplaceVault solana.PublicKey
	if !p.PaymentMint.Equals(NativeMint) {
		var err error
		if buyerVault, err = tokenAccountFor(config.BuyerTransferVault, config.Signer, p.PaymentMint); err != nil {
			return nil, err
		}
		if sellerVault, err = tokenAccountFor(config.SellerTransferVault, p.Authority, p.PaymentMint); err != nil {
			return nil, err
		}
		if marketplaceVault, err = tokenAccountFor(config.MarketplaceTransferVault, m.Authority, p.PaymentMint); err != nil {
			return nil, err
		}
	}

	var buyerTokenVault, counterPDA solana.PublicKey
	if m.DeliverToken {
		var err error
		if buyerTokenVault, err = tokenAccountFor(config.BuyerTokenVault, config.Signer, p.ProductMint); err != nil {
			return nil, err
		}
	} else {
		var err error
		if counterPDA, _, err = DerivePurchaseCounterPDA(programID, config.Signer, config.Product); err != nil {
			return nil, fmt.Errorf("failed to derive purchase counter PDA: %w", err)
		}
	}

	// Reward accounts are passed whenever rewards are enabled; the program
	// ignores them when the trigger mint does not match.
	var rewardMint, bountyVault, sellerReward, sellerRewardVault, buyerReward, buyerRewardVault solana.PublicKey
	if m.Rewards.RewardsEnabled {
		var err error
		rewardMint = m.Rewards.RewardMint
		if bountyVault, _, err = DeriveBountyVaultPDA(programID, config.Marketplace, rewardMint); err != nil {
			return nil, fmt.Errorf("failed to derive bounty vault PDA: %w", err)
		}
		if sellerReward, _, err = DeriveRewardPDA(programID, p.Authority, config.Marketplace); err != nil {
			return nil, fmt.Errorf("failed to derive seller reward PDA: %w", err)
		}
		if sellerRewardVault, _, err = DeriveRewardVaultPDA(programID, p.Authority, config.Marketplace, rewardMint); err != nil {
			return nil, fmt.Errorf("failed to derive seller reward vault PDA: %w", err)
		}
		if buyerReward, _, err = DeriveRewardPDA(programID, config.Signer, config.Marketplace); err != nil {
			return nil, fmt.Errorf("failed to derive buyer reward PDA: %w", err)
		}
		if buyerRewardVault, _, err = DeriveRewardVaultPDA(programID, config.Signer, config.Marketplace, rewardMint); err != nil {
			return nil, fmt.Errorf("failed to derive buyer reward vault PDA: %w", err)
		}
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: config.Product, IsSigner: false, IsWritable: true},
		{PublicKey: p.PaymentMint, IsSigner: false, IsWritable: false},
		{PublicKey: p.ProductMint, IsSigner: false, IsWritable: true},
		{PublicKey: p.Authority, IsSigner: false, IsWritable: true},
		{PublicKey: m.Authority, IsSigner: false, IsWritable: true},
		optionalMeta(programID, buyerVault, true),
		optionalMeta(programID, sellerVault, true),
		optionalMeta(programID, marketplaceVault, true),
		optionalMeta(programID, buyerTokenVault, true),
		optionalMeta(programID, counterPDA, true),
		optionalMeta(programID, rewardMint, false),
		optionalMeta(programID, bountyVault, true),
		optionalMeta(programID, sellerReward, false),
		optionalMeta(programID, sellerRewardVault, true),
		optionalMeta(programID, buyerReward, false),
		optionalMeta(programID, buyerRewardVault, true),
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, index, BuyArgs{Quantity: config.Quantity}, accounts)
}

type RegisterPromoBuyInstructionConfig struct {
	Signer          solana.PublicKey
	Governance      solana.PublicKey
	GovernanceState *Governance
	Product         solana.PublicKey
	ProductState    *Product
	Quantity        uint64

	BuyerTransferVault      solana.PublicKey
	SellerTransferVault     solana.PublicKey
	GovernanceTransferVault solana.PublicKey
}

func (c *RegisterPromoBuyInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Governance.IsZero() {
		return fmt.Errorf("governance public key is required")
	}
	if c.GovernanceState == nil {
		return fmt.Errorf("governance state is required")
	}
	if c.Product.IsZero() {
		return fmt.Errorf("product public key is required")
	}
	if c.ProductState == nil {
		return fmt.Errorf("product state is required")
	}
	return nil
}

func BuildRegisterPromoBuyInstruction(programID solana.PublicKey, config RegisterPromoBuyInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	g, p := config.GovernanceState, config.ProductState

	buyerVault, err := tokenAccountFor(config.BuyerTransferVault, config.Signer, p.PaymentMint)
	if err != nil {
		return nil, err
	}
	sellerVault, err := tokenAccountFor(config.SellerTransferVault, p.Authority, p.PaymentMint)
	if err != nil {
		return nil, err
	}
	governanceVault, err := tokenAccountFor(config.GovernanceTransferVault, g.Authority, p.PaymentMint)
	if err != nil {
		return nil, err
	}
	sellerBonus, _, err := DeriveBonusPDA(programID, p.Authority, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive seller bonus PDA: %w", err)
	}
	sellerBonusVault, _, err := DeriveBonusVaultPDA(programID, p.Authority, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive seller bonus vault PDA: %w", err)
	}
	buyerBonus, _, err := DeriveBonusPDA(programID, config.Signer, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive buyer bonus PDA: %w", err)
	}
	buyerBonusVault, _, err := DeriveBonusVaultPDA(programID, config.Signer, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive buyer bonus vault PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Governance, IsSigner: false, IsWritable: false},
		{PublicKey: config.Product, IsSigner: false, IsWritable: true},
		{PublicKey: p.PaymentMint, IsSigner: false, IsWritable: false},
		{PublicKey: buyerVault, IsSigner: false, IsWritable: true},
		{PublicKey: sellerVault, IsSigner: false, IsWritable: true},
		{PublicKey: governanceVault, IsSigner: false, IsWritable: true},
		{PublicKey: g.BonusVault, IsSigner: false, IsWritable: true},
		{PublicKey: sellerBonus, IsSigner: false, IsWritable: true},
		{PublicKey: sellerBonusVault, IsSigner: false, IsWritable: true},
		{PublicKey: buyerBonus, IsSigner: false, IsWritable: true},
		{PublicKey: buyerBonusVault, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, RegisterPromoBuyInstructionIndex, BuyArgs{Quantity: config.Quantity}, accounts)
}
