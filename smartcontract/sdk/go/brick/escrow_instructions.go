package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type RegisterEscrowBuyInstructionConfig struct {
	Signer             solana.PublicKey
	Marketplace        solana.PublicKey
	Product            solana.PublicKey
	ProductState       *Product
	Timestamp          uint64 // unix seconds, part of the payment address
	Quantity           uint64
	BuyerTransferVault solana.PublicKey
}

func (c *RegisterEscrowBuyInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Marketplace.IsZero() {
		return fmt.Errorf("marketplace public key is required")
	}
	if c.Product.IsZero() {
		return fmt.Errorf("product public key is required")
	}
	if c.ProductState == nil {
		return fmt.Errorf("product state is required")
	}
	if c.Timestamp == 0 {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

func BuildRegisterEscrowBuyInstruction(programID solana.PublicKey, config RegisterEscrowBuyInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	p := config.ProductState

	paymentPDA, _, err := DerivePaymentPDA(programID, p.ProductMint, config.Signer, config.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to derive payment PDA: %w", err)
	}
	vaultPDA, _, err := DerivePaymentVaultPDA(programID, paymentPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to derive payment vault PDA: %w", err)
	}
	buyerVault, err := tokenAccountFor(config.BuyerTransferVault, config.Signer, p.PaymentMint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: config.Product, IsSigner: false, IsWritable: true},
		{PublicKey: p.PaymentMint, IsSigner: false, IsWritable: false},
		{PublicKey: paymentPDA, IsSigner: false, IsWritable: true},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: buyerVault, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	args := EscrowBuyArgs{Timestamp: config.Timestamp, Quantity: config.Quantity}
	return newInstruction(programID, RegisterEscrowBuyInstructionIndex, args, accounts)
}

type RefundInstructionConfig struct {
	Signer       solana.PublicKey
	Payment      solana.PublicKey
	PaymentState *Payment
	Receiver     solana.PublicKey // optional, defaults to the buyer's associated token account
}

func (c *RefundInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Payment.IsZero() {
		return fmt.Errorf("payment public key is required")
	}
	if c.PaymentState == nil {
		return fmt.Errorf("payment state is required")
	}
	return nil
}

func BuildRefundInstruction(programID solana.PublicKey, config RefundInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	pay := config.PaymentState

	vaultPDA, _, err := DerivePaymentVaultPDA(programID, config.Payment)
	if err != nil {
		return nil, fmt.Errorf("failed to derive payment vault PDA: %w", err)
	}
	receiver, err := tokenAccountFor(config.Receiver, config.Signer, pay.PaidMint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: pay.Product, IsSigner: false, IsWritable: true},
		{PublicKey: config.Payment, IsSigner: false, IsWritable: true},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: receiver, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, RefundInstructionIndex, nil, accounts)
}

type WithdrawFundsInstructionConfig struct {
	Signer               solana.PublicKey
	Payment              solana.PublicKey
	PaymentState         *Payment
	MarketplaceAuthority solana.PublicKey
	SellerVault          solana.PublicKey // optional, defaults to the seller's associated token account
	MarketplaceVault     solana.PublicKey // optional, defaults to the marketplace authority's associated token account
}

func (c *WithdrawFundsInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Payment.IsZero() {
		return fmt.Errorf("payment public key is required")
	}
	if c.PaymentState == nil {
		return fmt.Errorf("payment state is required")
	}
	if c.MarketplaceAuthority.IsZero() {
		return fmt.Errorf("marketplace authority public key is required")
	}
	return nil
}

func BuildWithdrawFundsInstruction(programID solana.PublicKey, config WithdrawFundsInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	pay := config.PaymentState

	vaultPDA, _, err := DerivePaymentVaultPDA(programID, config.Payment)
	if err != nil {
		return nil, fmt.Errorf("failed to derive payment vault PDA: %w", err)
	}
	sellerVault, err := tokenAccountFor(config.SellerVault, config.Signer, pay.PaidMint)
	if err != nil {
		return nil, err
	}
	marketplaceVault, err := tokenAccountFor(config.MarketplaceVault, config.MarketplaceAuthority, pay.PaidMint)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: pay.Marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: pay.Product, IsSigner: false, IsWritable: true},
		{PublicKey: config.Payment, IsSigner: false, IsWritable: true},
		{PublicKey: vaultPDA, IsSigner: false, IsWritable: true},
		{PublicKey: sellerVault, IsSigner: false, IsWritable: true},
		{PublicKey: marketplaceVault, IsSigner: false, IsWritable: true},
		{PublicKey: pay.Buyer, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, WithdrawFundsInstructionIndex, nil, accounts)
}
