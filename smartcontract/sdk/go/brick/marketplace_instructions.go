package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type InitMarketplaceInstructionConfig struct {
	Authority         solana.PublicKey
	RewardMint        solana.PublicKey
	DiscountMint      solana.PublicKey // optional, defaults to the null sentinel
	RewardTriggerMint solana.PublicKey // optional, defaults to the null sentinel (any mint)
	Args              MarketplaceArgs
}

func (c *InitMarketplaceInstructionConfig) Validate() error {
	if c.Authority.IsZero() {
		return fmt.Errorf("authority public key is required")
	}
	if c.RewardMint.IsZero() {
		return fmt.Errorf("reward mint public key is required")
	}
	if c.Args.FeePayer > FeePayerSeller {
		return fmt.Errorf("invalid fee payer %d", c.Args.FeePayer)
	}
	return nil
}

func BuildInitMarketplaceInstruction(programID solana.PublicKey, config InitMarketplaceInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	marketplacePDA, _, err := DeriveMarketplacePDA(programID, config.Authority)
	if err != nil {
		return nil, fmt.Errorf("failed to derive marketplace PDA: %w", err)
	}
	accessMintPDA, _, err := DeriveAccessMintPDA(programID, marketplacePDA)
	if err != nil {
		return nil, fmt.Errorf("failed to derive access mint PDA: %w", err)
	}
	bountyVaultPDA, _, err := DeriveBountyVaultPDA(programID, marketplacePDA, config.RewardMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bounty vault PDA: %w", err)
	}
	discountMint, triggerMint, err := sentinelDefaults(programID, config.DiscountMint, config.RewardTriggerMint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Authority, IsSigner: true, IsWritable: true},
		{PublicKey: marketplacePDA, IsSigner: false, IsWritable: true},
		{PublicKey: accessMintPDA, IsSigner: false, IsWritable: true},
		{PublicKey: config.RewardMint, IsSigner: false, IsWritable: false},
		{PublicKey: discountMint, IsSigner: false, IsWritable: false},
		{PublicKey: triggerMint, IsSigner: false, IsWritable: false},
		{PublicKey: bountyVaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, InitMarketplaceInstructionIndex, config.Args, accounts)
}

type EditMarketplaceInstructionConfig struct {
	Authority         solana.PublicKey
	RewardMint        solana.PublicKey
	DiscountMint      solana.PublicKey
	RewardTriggerMint solana.PublicKey
	Args              MarketplaceArgs
}

func (c *EditMarketplaceInstructionConfig) Validate() error {
	if c.Authority.IsZero() {
		return fmt.Errorf("authority public key is required")
	}
	if c.RewardMint.IsZero() {
		return fmt.Errorf("reward mint public key is required")
	}
	if c.Args.FeePayer > FeePayerSeller {
		return fmt.Errorf("invalid fee payer %d", c.Args.FeePayer)
	}
	return nil
}

func BuildEditMarketplaceInstruction(programID solana.PublicKey, config EditMarketplaceInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	marketplacePDA, _, err := DeriveMarketplacePDA(programID, config.Authority)
	if err != nil {
		return nil, fmt.Errorf("failed to derive marketplace PDA: %w", err)
	}
	discountMint, triggerMint, err := sentinelDefaults(programID, config.DiscountMint, config.RewardTriggerMint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Authority, IsSigner: true, IsWritable: false},
		{PublicKey: marketplacePDA, IsSigner: false, IsWritable: true},
		{PublicKey: config.RewardMint, IsSigner: false, IsWritable: false},
		{PublicKey: discountMint, IsSigner: false, IsWritable: false},
		{PublicKey: triggerMint, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, EditMarketplaceInstructionIndex, config.Args, accounts)
}

type InitBountyVaultInstructionConfig struct {
	Authority solana.PublicKey
	Mint      solana.PublicKey
}

func (c *InitBountyVaultInstructionConfig) Validate() error {
	if c.Authority.IsZero() {
		return fmt.Errorf("authority public key is required")
	}
	if c.Mint.IsZero() {
		return fmt.Errorf("mint public key is required")
	}
	return nil
}

func BuildInitBountyVaultInstruction(programID solana.PublicKey, config InitBountyVaultInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	marketplacePDA, _, err := DeriveMarketplacePDA(programID, config.Authority)
	if err != nil {
		return nil, fmt.Errorf("failed to derive marketplace PDA: %w", err)
	}
	bountyVaultPDA, _, err := DeriveBountyVaultPDA(programID, marketplacePDA, config.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bounty vault PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Authority, IsSigner: true, IsWritable: true},
		{PublicKey: marketplacePDA, IsSigner: false, IsWritable: true},
		{PublicKey: config.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: bountyVaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, InitBountyVaultInstructionIndex, nil, accounts)
}

func sentinelDefaults(programID, discountMint, triggerMint solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	if !discountMint.IsZero() && !triggerMint.IsZero() {
		return discountMint, triggerMint, nil
	}
	null, err := NullSentinel(programID)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("failed to derive null sentinel: %w", err)
	}
	if discountMint.IsZero() {
		discountMint = null
	}
	if triggerMint.IsZero() {
		triggerMint = null
	}
	return discountMint, triggerMint, nil
}
