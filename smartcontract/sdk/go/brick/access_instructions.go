package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type RequestAccessInstructionConfig struct {
	Signer      solana.PublicKey
	Marketplace solana.PublicKey
}

func (c *RequestAccessInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Marketplace.IsZero() {
		return fmt.Errorf("marketplace public key is required")
	}
	return nil
}

func BuildRequestAccessInstruction(programID solana.PublicKey, config RequestAccessInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	requestPDA, _, err := DeriveRequestPDA(programID, config.Signer, config.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive request PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: requestPDA, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, RequestAccessInstructionIndex, nil, accounts)
}

// GrantAccessInstructionConfig drives AcceptAccess and AirdropAccess.
type GrantAccessInstructionConfig struct {
	Authority   solana.PublicKey
	Receiver    solana.PublicKey
	AccessVault solana.PublicKey // optional, defaults to the receiver's associated token account
}

func (c *GrantAccessInstructionConfig) Validate() error {
	if c.Authority.IsZero() {
		return fmt.Errorf("authority public key is required")
	}
	if c.Receiver.IsZero() {
		return fmt.Errorf("receiver public key is required")
	}
	return nil
}

func (c *GrantAccessInstructionConfig) keys(programID solana.PublicKey) (marketplace, accessMint, vault solana.PublicKey, err error) {
	if marketplace, _, err = DeriveMarketplacePDA(programID, c.Authority); err != nil {
		return marketplace, accessMint, vault, fmt.Errorf("failed to derive marketplace PDA: %w", err)
	}
	if accessMint, _, err = DeriveAccessMintPDA(programID, marketplace); err != nil {
		return marketplace, accessMint, vault, fmt.Errorf("failed to derive access mint PDA: %w", err)
	}
	vault, err = tokenAccountFor(c.AccessVault, c.Receiver, accessMint)
	return marketplace, accessMint, vault, err
}

func BuildAcceptAccessInstruction(programID solana.PublicKey, config GrantAccessInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	marketplace, accessMint, vault, err := config.keys(programID)
	if err != nil {
		return nil, err
	}
	requestPDA, _, err := DeriveRequestPDA(programID, config.Receiver, marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive request PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Authority, IsSigner: true, IsWritable: true},
		{PublicKey: config.Receiver, IsSigner: false, IsWritable: true},
		{PublicKey: marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: requestPDA, IsSigner: false, IsWritable: true},
		{PublicKey: accessMint, IsSigner: false, IsWritable: true},
		{PublicKey: vault, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, AcceptAccessInstructionIndex, nil, accounts)
}

func BuildAirdropAccessInstruction(programID solana.PublicKey, config GrantAccessInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	marketplace, accessMint, vault, err := config.keys(programID)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Authority, IsSigner: true, IsWritable: false},
		{PublicKey: config.Receiver, IsSigner: false, IsWritable: false},
		{PublicKey: marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: accessMint, IsSigner: false, IsWritable: true},
		{PublicKey: vault, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, AirdropAccessInstructionIndex, nil, accounts)
}
