package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// RewardInstructionConfig drives InitReward and InitRewardVault.
type RewardInstructionConfig struct {
	Signer      solana.PublicKey
	Marketplace solana.PublicKey
	RewardMint  solana.PublicKey
}

func (c *RewardInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Marketplace.IsZero() {
		return fmt.Errorf("marketplace public key is required")
	}
	if c.RewardMint.IsZero() {
		return fmt.Errorf("reward mint public key is required")
	}
	return nil
}

func (c *RewardInstructionConfig) accounts(programID solana.PublicKey) ([]*solana.AccountMeta, error) {
	rewardPDA, _, err := DeriveRewardPDA(programID, c.Signer, c.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reward PDA: %w", err)
	}
	vaultPDA, _, err := DeriveRewardVaultPDA(programID, c.Signer, c.Marketplace, c.RewardMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reward vault PDA: %w", err)
	}
	return []*solana.AccountMeta{
		{PublicKey: c.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: c.Marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: rewardPDA, IsSigner: false, IsWritable: true},
		{PublicKey: c.RewardMint, IsSigner: false, IsWritable: false},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}, nil
}

func BuildInitRewardInstruction(programID solana.PublicKey, config RewardInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	accounts, err := config.accounts(programID)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, InitRewardInstructionIndex, nil, accounts)
}

func BuildInitRewardVaultInstruction(programID solana.PublicKey, config RewardInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	accounts, err := config.accounts(programID)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, InitRewardVaultInstructionIndex, nil, accounts)
}

type WithdrawRewardInstructionConfig struct {
	Signer      solana.PublicKey
	Marketplace solana.PublicKey
	RewardMint  solana.PublicKey
	Receiver    solana.PublicKey // optional, defaults to the signer's associated token account
}

func (c *WithdrawRewardInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Marketplace.IsZero() {
		return fmt.Errorf("marketplace public key is required")
	}
	if c.RewardMint.IsZero() {
		return fmt.Errorf("reward mint public key is required")
	}
	return nil
}

func BuildWithdrawRewardInstruction(programID solana.PublicKey, config WithdrawRewardInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	rewardPDA, _, err := DeriveRewardPDA(programID, config.Signer, config.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reward PDA: %w", err)
	}
	vaultPDA, _, err := DeriveRewardVaultPDA(programID, config.Signer, config.Marketplace, config.RewardMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reward vault PDA: %w", err)
	}
	receiver, err := tokenAccountFor(config.Receiver, config.Signer, config.RewardMint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: rewardPDA, IsSigner: false, IsWritable: true},
		{PublicKey: config.RewardMint, IsSigner: false, IsWritable: false},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: receiver, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, WithdrawRewardInstructionIndex, nil, accounts)
}
