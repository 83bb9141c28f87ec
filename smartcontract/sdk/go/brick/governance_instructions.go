package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type CreateGovernanceInstructionConfig struct {
	Authority solana.PublicKey
	Name      string
	Mint      solana.PublicKey
	Args      GovernanceArgs
}

func (c *CreateGovernanceInstructionConfig) Validate() error {
	if c.Authority.IsZero() {
		return fmt.Errorf("authority public key is required")
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Name) > MaxGovernanceNameLength {
		return fmt.Errorf("name length %d exceeds max %d", len(c.Name), MaxGovernanceNameLength)
	}
	if c.Mint.IsZero() {
		return fmt.Errorf("mint public key is required")
	}
	return nil
}

func BuildCreateGovernanceInstruction(programID solana.PublicKey, config CreateGovernanceInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	name, err := GovernanceName(config.Name)
	if err != nil {
		return nil, err
	}
	governancePDA, _, err := DeriveGovernancePDA(programID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to derive governance PDA: %w", err)
	}
	vaultPDA, _, err := DeriveGovernanceBonusVaultPDA(programID, governancePDA)
	if err != nil {
		return nil, fmt.Errorf("failed to derive governance bonus vault PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Authority, IsSigner: true, IsWritable: true},
		{PublicKey: governancePDA, IsSigner: false, IsWritable: true},
		{PublicKey: config.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	args := CreateGovernanceArgs{
		Name:            name,
		FeeBps:          config.Args.FeeBps,
		FeeReductionBps: config.Args.FeeReductionBps,
		SellerPromoBps:  config.Args.SellerPromoBps,
		BuyerPromoBps:   config.Args.BuyerPromoBps,
	}
	return newInstruction(programID, CreateGovernanceInstructionIndex, args, accounts)
}

type EditPointsInstructionConfig struct {
	Authority  solana.PublicKey
	Governance solana.PublicKey
	Args       GovernanceArgs
}

func (c *EditPointsInstructionConfig) Validate() error {
	if c.Authority.IsZero() {
		return fmt.Errorf("authority public key is required")
	}
	if c.Governance.IsZero() {
		return fmt.Errorf("governance public key is required")
	}
	return nil
}

func BuildEditPointsInstruction(programID solana.PublicKey, config EditPointsInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Authority, IsSigner: true, IsWritable: false},
		{PublicKey: config.Governance, IsSigner: false, IsWritable: true},
	}
	return newInstruction(programID, EditPointsInstructionIndex, config.Args, accounts)
}

type InitBonusInstructionConfig struct {
	Signer     solana.PublicKey
	Governance solana.PublicKey
	Mint       solana.PublicKey
}

func (c *InitBonusInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Governance.IsZero() {
		return fmt.Errorf("governance public key is required")
	}
	if c.Mint.IsZero() {
		return fmt.Errorf("mint public key is required")
	}
	return nil
}

func BuildInitBonusInstruction(programID solana.PublicKey, config InitBonusInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	bonusPDA, _, err := DeriveBonusPDA(programID, config.Signer, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bonus PDA: %w", err)
	}
	vaultPDA, _, err := DeriveBonusVaultPDA(programID, config.Signer, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bonus vault PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Governance, IsSigner: false, IsWritable: false},
		{PublicKey: config.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: bonusPDA, IsSigner: false, IsWritable: true},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, InitBonusInstructionIndex, nil, accounts)
}

type WithdrawBonusInstructionConfig struct {
	Signer     solana.PublicKey
	Governance solana.PublicKey
	Mint       solana.PublicKey
	Receiver   solana.PublicKey // optional, defaults to the signer's associated token account
}

func (c *WithdrawBonusInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Governance.IsZero() {
		return fmt.Errorf("governance public key is required")
	}
	if c.Mint.IsZero() {
		return fmt.Errorf("mint public key is required")
	}
	return nil
}

func BuildWithdrawBonusInstruction(programID solana.PublicKey, config WithdrawBonusInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	bonusPDA, _, err := DeriveBonusPDA(programID, config.Signer, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bonus PDA: %w", err)
	}
	vaultPDA, _, err := DeriveBonusVaultPDA(programID, config.Signer, config.Governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bonus vault PDA: %w", err)
	}
	receiver, err := tokenAccountFor(config.Receiver, config.Signer, config.Mint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Governance, IsSigner: false, IsWritable: false},
		{PublicKey: bonusPDA, IsSigner: false, IsWritable: true},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: receiver, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, WithdrawBonusInstructionIndex, nil, accounts)
}
