// Package processor implements the brick program: marketplace and product
// registries, the reward and bonus ledgers, and the settlement orchestrator
// for direct, reward, promotional and escrowed purchases.
package processor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

var (
	ErrProgramIDRequired = errors.New("program id is required")
	ErrProgramMismatch   = errors.New("host program id does not match processor")
)

type Config struct {
	// GovernanceNames lists the governance names CreateGovernance accepts.
	GovernanceNames []string

	// LegacyPromotionGate blocks bonus and reward withdrawals only while both
	// promotion rates are non-zero, instead of while either one is.
	LegacyPromotionGate bool
}

func (c *Config) Validate() error {
	if len(c.GovernanceNames) == 0 {
		c.GovernanceNames = []string{brick.DefaultGovernanceName}
	}
	for _, name := range c.GovernanceNames {
		if len(name) > brick.MaxGovernanceNameLength {
			return fmt.Errorf("governance name %q exceeds %d bytes", name, brick.MaxGovernanceNameLength)
		}
	}
	return nil
}

type Processor struct {
	cfg       Config
	programID solana.PublicKey
	deriver   *brick.Deriver
	null      solana.PublicKey
}

func New(programID solana.PublicKey, cfg Config) (*Processor, error) {
	if programID.IsZero() {
		return nil, ErrProgramIDRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	deriver, err := brick.NewDeriver(programID)
	if err != nil {
		return nil, err
	}
	null, err := brick.NullSentinel(programID)
	if err != nil {
		return nil, err
	}
	return &Processor{
		cfg:       cfg,
		programID: programID,
		deriver:   deriver,
		null:      null,
	}, nil
}

func (p *Processor) ProgramID() solana.PublicKey {
	return p.programID
}

// Close releases the derivation cache.
func (p *Processor) Close() {
	p.deriver.Close()
}

// InstructionName returns the name of the instruction encoded in data.
func (p *Processor) InstructionName(data []byte) string {
	if len(data) == 0 {
		return "Unknown"
	}
	return brick.InstructionType(data[0]).String()
}

// Process executes one instruction. Any returned error aborts the enclosing
// transaction.
func (p *Processor) Process(h Host, accounts []*solana.AccountMeta, data []byte) error {
	if !h.ProgramID().Equals(p.programID) {
		return ErrProgramMismatch
	}
	if len(data) == 0 {
		return brick.ErrInvalidInstruction
	}
	ix, args := brick.InstructionType(data[0]), data[1:]
	h.Log("Instruction: " + ix.String())

	switch ix {
	case brick.InitMarketplaceInstructionIndex:
		return p.initMarketplace(h, accounts, args)
	case brick.EditMarketplaceInstructionIndex:
		return p.editMarketplace(h, accounts, args)
	case brick.InitBountyVaultInstructionIndex:
		return p.initBountyVault(h, accounts)
	case brick.InitProductInstructionIndex:
		return p.initProduct(h, accounts, args)
	case brick.EditProductInstructionIndex:
		return p.editProduct(h, accounts, args)
	case brick.DeleteProductInstructionIndex:
		return p.deleteProduct(h, accounts)
	case brick.InitRewardInstructionIndex:
		return p.initReward(h, accounts)
	case brick.InitRewardVaultInstructionIndex:
		return p.initRewardVault(h, accounts)
	case brick.WithdrawRewardInstructionIndex:
		return p.withdrawReward(h, accounts)
	case brick.RegisterBuyInstructionIndex:
		return p.registerBuy(h, accounts, args, false)
	case brick.RegisterRewardBuyInstructionIndex:
		return p.registerBuy(h, accounts, args, true)
	case brick.CreateGovernanceInstructionIndex:
		return p.createGovernance(h, accounts, args)
	case brick.EditPointsInstructionIndex:
		return p.editPoints(h, accounts, args)
	case brick.InitBonusInstructionIndex:
		return p.initBonus(h, accounts)
	case brick.RegisterPromoBuyInstructionIndex:
		return p.registerPromoBuy(h, accounts, args)
	case brick.WithdrawBonusInstructionIndex:
		return p.withdrawBonus(h, accounts)
	case brick.RegisterEscrowBuyInstructionIndex:
		return p.registerEscrowBuy(h, accounts, args)
	case brick.RefundInstructionIndex:
		return p.refund(h, accounts)
	case brick.WithdrawFundsInstructionIndex:
		return p.withdrawFunds(h, accounts)
	case brick.RequestAccessInstructionIndex:
		return p.requestAccess(h, accounts)
	case brick.AcceptAccessInstructionIndex:
		return p.acceptAccess(h, accounts)
	case brick.AirdropAccessInstructionIndex:
		return p.airdropAccess(h, accounts)
	default:
		return brick.ErrInvalidInstruction
	}
}

func (p *Processor) governanceAllowed(name [brick.MaxGovernanceNameLength]byte) bool {
	return slices.Contains(p.cfg.GovernanceNames, brick.TrimName(name))
}
