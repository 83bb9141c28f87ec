package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/program/fees"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func (p *Processor) createGovernance(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.CreateGovernanceArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 6)
	if err != nil {
		return err
	}
	signer, governance, mint, vault := accs[0], accs[1], accs[2], accs[3]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[5]); err != nil {
		return err
	}
	if !p.governanceAllowed(args.Name) {
		return brick.ErrIncorrectGovernanceName
	}
	if err := fees.ValidateBps(args.FeeBps, args.FeeReductionBps, args.SellerPromoBps, args.BuyerPromoBps); err != nil {
		return err
	}
	if mint.PublicKey.Equals(brick.NativeMint) {
		return brick.ErrIncorrectMint
	}
	if err := requireMint(h, mint.PublicKey); err != nil {
		return err
	}

	seeds := brick.GovernanceSeeds(args.Name)
	bump, err := p.deriver.Verify(governance.PublicKey, seeds...)
	if err != nil {
		return err
	}
	vaultSeeds := brick.GovernanceBonusVaultSeeds(governance.PublicKey)
	vaultBump, err := p.deriver.Verify(vault.PublicKey, vaultSeeds...)
	if err != nil {
		return err
	}

	g := &brick.Governance{
		Name:            args.Name,
		Authority:       signer.PublicKey,
		Mint:            mint.PublicKey,
		BonusVault:      vault.PublicKey,
		FeeBps:          args.FeeBps,
		FeeReductionBps: args.FeeReductionBps,
		SellerPromoBps:  args.SellerPromoBps,
		BuyerPromoBps:   args.BuyerPromoBps,
		Bump:            bump,
		VaultBump:       vaultBump,
	}
	if err := create(h, signer.PublicKey, governance.PublicKey, brick.GovernanceSize, bump, seeds, g); err != nil {
		return err
	}
	if _, err := signFor(h, vaultBump, vaultSeeds...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeAccount(signer.PublicKey, vault.PublicKey, mint.PublicKey, governance.PublicKey); err != nil {
		return fmt.Errorf("failed to initialize governance bonus vault: %w", err)
	}
	return nil
}

func (p *Processor) editPoints(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.GovernanceArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 2)
	if err != nil {
		return err
	}
	signer, governance := accs[0], accs[1]

	g, err := p.loadGovernance(h, governance.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, g.Authority); err != nil {
		return err
	}
	if err := fees.ValidateBps(args.FeeBps, args.FeeReductionBps, args.SellerPromoBps, args.BuyerPromoBps); err != nil {
		return err
	}
	g.FeeBps = args.FeeBps
	g.FeeReductionBps = args.FeeReductionBps
	g.SellerPromoBps = args.SellerPromoBps
	g.BuyerPromoBps = args.BuyerPromoBps
	return store(h, governance.PublicKey, g)
}

func (p *Processor) initBonus(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 7)
	if err != nil {
		return err
	}
	signer, governance, mint, bonus, vault := accs[0], accs[1], accs[2], accs[3], accs[4]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[6]); err != nil {
		return err
	}

	g, err := p.loadGovernance(h, governance.PublicKey)
	if err != nil {
		return err
	}
	if !mint.PublicKey.Equals(g.Mint) {
		return brick.ErrIncorrectMint
	}
	seeds := brick.BonusSeeds(signer.PublicKey, governance.PublicKey)
	bump, err := p.deriver.Verify(bonus.PublicKey, seeds...)
	if err != nil {
		return err
	}
	vaultSeeds := brick.BonusVaultSeeds(signer.PublicKey, governance.PublicKey)
	vaultBump, err := p.deriver.Verify(vault.PublicKey, vaultSeeds...)
	if err != nil {
		return err
	}

	b := &brick.Bonus{
		Authority:  signer.PublicKey,
		Governance: governance.PublicKey,
		Bump:       bump,
		VaultBump:  vaultBump,
	}
	if err := create(h, signer.PublicKey, bonus.PublicKey, brick.BonusSize, bump, seeds, b); err != nil {
		return err
	}
	if _, err := signFor(h, vaultBump, vaultSeeds...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeAccount(signer.PublicKey, vault.PublicKey, mint.PublicKey, bonus.PublicKey); err != nil {
		return fmt.Errorf("failed to initialize bonus vault: %w", err)
	}
	return nil
}

func (p *Processor) withdrawBonus(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 6)
	if err != nil {
		return err
	}
	signer, governance, bonus, vault, receiver := accs[0], accs[1], accs[2], accs[3], accs[4]
	if err := requireTokenProgram(accs[5]); err != nil {
		return err
	}

	g, err := p.loadGovernance(h, governance.PublicKey)
	if err != nil {
		return err
	}
	b, err := p.loadBonus(h, bonus.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, b.Authority); err != nil {
		return err
	}
	if !b.Governance.Equals(governance.PublicKey) {
		return brick.ErrIncorrectAccountData
	}
	if err := fees.CheckWithdrawWindow(g.SellerPromoBps, g.BuyerPromoBps, p.cfg.LegacyPromotionGate); err != nil {
		return err
	}
	if err := brick.VerifySigner(p.programID, vault.PublicKey, b.VaultBump, brick.BonusVaultSeeds(b.Authority, b.Governance)...); err != nil {
		return err
	}
	held, err := tokenAccount(h, vault.PublicKey, g.Mint, bonus.PublicKey)
	if err != nil {
		return err
	}
	if _, err := tokenAccount(h, receiver.PublicKey, g.Mint, signer.PublicKey); err != nil {
		return err
	}

	if _, err := signFor(h, b.Bump, brick.BonusSeeds(b.Authority, b.Governance)...); err != nil {
		return err
	}
	if err := transferTokens(h, vault.PublicKey, receiver.PublicKey, bonus.PublicKey, held.Amount); err != nil {
		return err
	}
	if err := closeTokenAccount(h, vault.PublicKey, signer.PublicKey, bonus.PublicKey); err != nil {
		return err
	}
	h.Log(fmt.Sprintf("Withdrew %d bonus tokens", held.Amount))
	return h.CloseAccount(bonus.PublicKey, signer.PublicKey)
}
