package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/program/fees"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func validateMarketplaceArgs(args *brick.MarketplaceArgs) error {
	if err := fees.ValidateBps(args.FeeBps, args.FeeReductionBps, args.SellerRewardBps, args.BuyerRewardBps); err != nil {
		return err
	}
	if args.FeePayer > brick.FeePayerSeller {
		return brick.ErrIncorrectFee
	}
	return nil
}

func (p *Processor) initMarketplace(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.MarketplaceArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 9)
	if err != nil {
		return err
	}
	signer, marketplace, accessMint := accs[0], accs[1], accs[2]
	rewardMint, discountMint, triggerMint, bountyVault := accs[3], accs[4], accs[5], accs[6]

	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[8]); err != nil {
		return err
	}
	if err := validateMarketplaceArgs(&args); err != nil {
		return err
	}

	seeds := brick.MarketplaceSeeds(signer.PublicKey)
	bump, err := p.deriver.Verify(marketplace.PublicKey, seeds...)
	if err != nil {
		return err
	}
	accessMintBump, err := p.deriver.Verify(accessMint.PublicKey, brick.AccessMintSeeds(marketplace.PublicKey)...)
	if err != nil {
		return err
	}
	vaultBump, err := p.deriver.Verify(bountyVault.PublicKey, brick.BountyVaultSeeds(marketplace.PublicKey, rewardMint.PublicKey)...)
	if err != nil {
		return err
	}
	if err := requireMint(h, rewardMint.PublicKey); err != nil {
		return err
	}

	m := &brick.Marketplace{
		Authority:    signer.PublicKey,
		DeliverToken: args.DeliverToken,
		Permission: brick.PermissionConfig{
			AccessMint:     accessMint.PublicKey,
			Permissionless: args.Permissionless,
			AllowSecondary: args.AllowSecondary,
		},
		Fees: brick.FeesConfig{
			DiscountMint:    discountMint.PublicKey,
			FeeBps:          args.FeeBps,
			FeeReductionBps: args.FeeReductionBps,
			FeePayer:        args.FeePayer,
		},
		Rewards: brick.RewardsConfig{
			RewardMint:        rewardMint.PublicKey,
			RewardTriggerMint: triggerMint.PublicKey,
			SellerRewardBps:   args.SellerRewardBps,
			BuyerRewardBps:    args.BuyerRewardBps,
			RewardsEnabled:    args.RewardsEnabled,
		},
		Bump:           bump,
		AccessMintBump: accessMintBump,
	}
	if err := m.BountyVaults.Append(bountyVault.PublicKey, vaultBump); err != nil {
		return err
	}
	if err := create(h, signer.PublicKey, marketplace.PublicKey, brick.MarketplaceSize, bump, seeds, m); err != nil {
		return err
	}

	if _, err := signFor(h, accessMintBump, brick.AccessMintSeeds(marketplace.PublicKey)...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeMint(signer.PublicKey, accessMint.PublicKey, 0, marketplace.PublicKey, true); err != nil {
		return fmt.Errorf("failed to initialize access mint: %w", err)
	}
	if _, err := signFor(h, vaultBump, brick.BountyVaultSeeds(marketplace.PublicKey, rewardMint.PublicKey)...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeAccount(signer.PublicKey, bountyVault.PublicKey, rewardMint.PublicKey, marketplace.PublicKey); err != nil {
		return fmt.Errorf("failed to initialize bounty vault: %w", err)
	}
	return nil
}

func (p *Processor) editMarketplace(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.MarketplaceArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 5)
	if err != nil {
		return err
	}
	signer, marketplace, rewardMint, discountMint, triggerMint := accs[0], accs[1], accs[2], accs[3], accs[4]

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, m.Authority); err != nil {
		return err
	}
	if err := validateMarketplaceArgs(&args); err != nil {
		return err
	}
	if err := requireMint(h, rewardMint.PublicKey); err != nil {
		return err
	}

	m.DeliverToken = args.DeliverToken
	m.Permission.Permissionless = args.Permissionless
	m.Permission.AllowSecondary = args.AllowSecondary
	m.Fees = brick.FeesConfig{
		DiscountMint:    discountMint.PublicKey,
		FeeBps:          args.FeeBps,
		FeeReductionBps: args.FeeReductionBps,
		FeePayer:        args.FeePayer,
	}
	m.Rewards = brick.RewardsConfig{
		RewardMint:        rewardMint.PublicKey,
		RewardTriggerMint: triggerMint.PublicKey,
		SellerRewardBps:   args.SellerRewardBps,
		BuyerRewardBps:    args.BuyerRewardBps,
		RewardsEnabled:    args.RewardsEnabled,
	}
	return store(h, marketplace.PublicKey, m)
}

func (p *Processor) initBountyVault(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 6)
	if err != nil {
		return err
	}
	signer, marketplace, mint, vault := accs[0], accs[1], accs[2], accs[3]
	if err := requireTokenProgram(accs[5]); err != nil {
		return err
	}

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, m.Authority); err != nil {
		return err
	}
	if err := requireMint(h, mint.PublicKey); err != nil {
		return err
	}
	seeds := brick.BountyVaultSeeds(marketplace.PublicKey, mint.PublicKey)
	bump, err := p.deriver.Verify(vault.PublicKey, seeds...)
	if err != nil {
		return err
	}
	if err := m.BountyVaults.Append(vault.PublicKey, bump); err != nil {
		return err
	}

	if _, err := signFor(h, bump, seeds...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeAccount(signer.PublicKey, vault.PublicKey, mint.PublicKey, marketplace.PublicKey); err != nil {
		return fmt.Errorf("failed to initialize bounty vault: %w", err)
	}
	return store(h, marketplace.PublicKey, m)
}
