package brick

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type InitProductInstructionConfig struct {
	Signer         solana.PublicKey
	Marketplace    solana.PublicKey
	ProductID      string
	PaymentMint    solana.PublicKey
	Price          uint64
	RefundTimespan uint64
	Exemplars      int32            // UnlimitedExemplars for no cap
	AccessVault    solana.PublicKey // required on permissioned marketplaces
}

func (c *InitProductInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Marketplace.IsZero() {
		return fmt.Errorf("marketplace public key is required")
	}
	if c.ProductID == "" {
		return fmt.Errorf("product id is required")
	}
	if len(c.ProductID) > ProductIDLength {
		return fmt.Errorf("product id length %d exceeds max %d", len(c.ProductID), ProductIDLength)
	}
	if c.PaymentMint.IsZero() {
		return fmt.Errorf("payment mint public key is required")
	}
	if c.Exemplars < UnlimitedExemplars {
		return fmt.Errorf("invalid exemplars %d", c.Exemplars)
	}
	return nil
}

func BuildInitProductInstruction(programID solana.PublicKey, config InitProductInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	first, second, err := SplitProductID(config.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to split product id: %w", err)
	}
	productPDA, _, err := DeriveProductPDA(programID, first, second, config.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive product PDA: %w", err)
	}
	productMintPDA, _, err := DeriveProductMintPDA(programID, first, second, config.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive product mint PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Marketplace, IsSigner: false, IsWritable: false},
		{PublicKey: productPDA, IsSigner: false, IsWritable: true},
		{PublicKey: productMintPDA, IsSigner: false, IsWritable: true},
		{PublicKey: config.PaymentMint, IsSigner: false, IsWritable: false},
		optionalMeta(programID, config.AccessVault, false),
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	args := InitProductArgs{
		FirstID:        first,
		SecondID:       second,
		Price:          config.Price,
		RefundTimespan: config.RefundTimespan,
		Exemplars:      config.Exemplars,
	}
	return newInstruction(programID, InitProductInstructionIndex, args, accounts)
}

// EditProductInstructionConfig updates both the price and the payment mint.
// Pass the current values to leave one of them unchanged.
type EditProductInstructionConfig struct {
	Signer      solana.PublicKey
	Product     solana.PublicKey
	PaymentMint solana.PublicKey
	Price       uint64
}

func (c *EditProductInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Product.IsZero() {
		return fmt.Errorf("product public key is required")
	}
	if c.PaymentMint.IsZero() {
		return fmt.Errorf("payment mint public key is required")
	}
	return nil
}

func BuildEditProductInstruction(programID solana.PublicKey, config EditProductInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: false},
		{PublicKey: config.Product, IsSigner: false, IsWritable: true},
		{PublicKey: config.PaymentMint, IsSigner: false, IsWritable: false},
	}
	return newInstruction(programID, EditProductInstructionIndex, EditProductArgs{Price: config.Price}, accounts)
}

type DeleteProductInstructionConfig struct {
	Signer  solana.PublicKey
	Product solana.PublicKey
}

func (c *DeleteProductInstructionConfig) Validate() error {
	if c.Signer.IsZero() {
		return fmt.Errorf("signer public key is required")
	}
	if c.Product.IsZero() {
		return fmt.Errorf("product public key is required")
	}
	return nil
}

func BuildDeleteProductInstruction(programID solana.PublicKey, config DeleteProductInstructionConfig) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: config.Signer, IsSigner: true, IsWritable: true},
		{PublicKey: config.Product, IsSigner: false, IsWritable: true},
	}
	return newInstruction(programID, DeleteProductInstructionIndex, nil, accounts)
}
