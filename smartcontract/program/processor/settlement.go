package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/program/fees"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func marketplaceFees(m *brick.Marketplace) fees.Config {
	return fees.Config{
		FeeBps:          m.Fees.FeeBps,
		FeeReductionBps: m.Fees.FeeReductionBps,
		DiscountMint:    m.Fees.DiscountMint,
		Payer:           m.Fees.FeePayer,
	}
}

// payout is a bonus transfer out of a pool vault into a participant vault.
type payout struct {
	to     solana.PublicKey
	amount uint64
}

func (p *Processor) registerBuy(h Host, metas []*solana.AccountMeta, data []byte, rewardsRequired bool) error {
	var args brick.BuyArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 20)
	if err != nil {
		return err
	}
	signer, marketplace, product, paymentMint, productMint := accs[0], accs[1], accs[2], accs[3], accs[4]
	seller, marketplaceAuthority := accs[5], accs[6]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[19]); err != nil {
		return err
	}

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	prod, err := p.loadProduct(h, product.PublicKey)
	if err != nil {
		return err
	}
	if !prod.Marketplace.Equals(marketplace.PublicKey) {
		return brick.ErrIncorrectAccountData
	}
	if !paymentMint.PublicKey.Equals(prod.PaymentMint) || !productMint.PublicKey.Equals(prod.ProductMint) {
		return brick.ErrIncorrectMint
	}
	if !seller.PublicKey.Equals(prod.Authority) || !marketplaceAuthority.PublicKey.Equals(m.Authority) {
		return brick.ErrIncorrectAuthority
	}

	amount, err := quote(prod, args.Quantity)
	if err != nil {
		return err
	}
	split, err := fees.Distribute(marketplaceFees(m), prod.PaymentMint, amount)
	if err != nil {
		return err
	}

	active := fees.RewardsActive(m.Rewards.RewardsEnabled, m.Rewards.RewardTriggerMint, prod.PaymentMint, p.null)
	if rewardsRequired && !active {
		return brick.ErrClosedPromotion
	}
	var bounty solana.PublicKey
	var payouts []payout
	if active {
		bounty, payouts, err = p.prepareRewards(h, m, marketplace.PublicKey, prod, signer.PublicKey, accs[12:18], amount)
		if err != nil {
			return err
		}
	}

	// Settlement: fee first, then the seller's share.
	if prod.PaymentMint.Equals(brick.NativeMint) {
		if err := transferLamports(h, signer.PublicKey, m.Authority, split.Fee); err != nil {
			return err
		}
		if err := transferLamports(h, signer.PublicKey, prod.Authority, split.Counterparty); err != nil {
			return err
		}
	} else {
		buyerVault, sellerVault, marketplaceVault, err := p.settlementVaults(h, prod.PaymentMint, signer.PublicKey, prod.Authority, m.Authority, accs[7], accs[8], accs[9])
		if err != nil {
			return err
		}
		if err := transferTokens(h, buyerVault, marketplaceVault, signer.PublicKey, split.Fee); err != nil {
			return err
		}
		if err := transferTokens(h, buyerVault, sellerVault, signer.PublicKey, split.Counterparty); err != nil {
			return err
		}
	}

	if len(payouts) > 0 {
		if _, err := signFor(h, m.Bump, brick.MarketplaceSeeds(m.Authority)...); err != nil {
			return err
		}
		for _, po := range payouts {
			if err := transferTokens(h, bounty, po.to, marketplace.PublicKey, po.amount); err != nil {
				return err
			}
		}
	}

	if m.DeliverToken {
		if err := p.deliverToken(h, prod, product.PublicKey, signer.PublicKey, accs[10], args.Quantity); err != nil {
			return err
		}
	} else {
		if err := p.countPurchase(h, product.PublicKey, signer.PublicKey, accs[11], args.Quantity); err != nil {
			return err
		}
	}

	h.Log(fmt.Sprintf("Sold %d x %s for %d (fee %d)", args.Quantity, prod.ID(), split.Total, split.Fee))
	return store(h, product.PublicKey, prod)
}

// settlementVaults checks the three token accounts a token settlement moves
// funds between.
func (p *Processor) settlementVaults(h Host, mint, buyer, seller, collector solana.PublicKey, metas ...*solana.AccountMeta) (solana.PublicKey, solana.PublicKey, solana.PublicKey, error) {
	owners := []solana.PublicKey{buyer, seller, collector}
	keys := make([]solana.PublicKey, len(owners))
	for i, owner := range owners {
		meta, err := p.required(metas[i])
		if err != nil {
			return solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, err
		}
		if _, err := tokenAccount(h, meta.PublicKey, mint, owner); err != nil {
			return solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, err
		}
		keys[i] = meta.PublicKey
	}
	return keys[0], keys[1], keys[2], nil
}

// prepareRewards validates the reward accounts of a buy and returns the bounty
// vault with the transfers it owes. metas holds reward mint, bounty vault,
// seller reward, seller reward vault, buyer reward and buyer reward vault.
func (p *Processor) prepareRewards(h Host, m *brick.Marketplace, marketplace solana.PublicKey, prod *brick.Product, buyer solana.PublicKey, metas []*solana.AccountMeta, amount uint64) (solana.PublicKey, []payout, error) {
	resolved := make([]solana.PublicKey, len(metas))
	for i, meta := range metas {
		acc, err := p.required(meta)
		if err != nil {
			return solana.PublicKey{}, nil, err
		}
		resolved[i] = acc.PublicKey
	}
	rewardMint, bounty := resolved[0], resolved[1]

	if !rewardMint.Equals(m.Rewards.RewardMint) {
		return solana.PublicKey{}, nil, brick.ErrIncorrectMint
	}
	if !m.BountyVaults.Contains(bounty) {
		return solana.PublicKey{}, nil, brick.ErrIncorrectSeeds
	}
	if err := brick.VerifySigner(p.programID, bounty, m.BountyVaults.BumpFor(bounty), brick.BountyVaultSeeds(marketplace, rewardMint)...); err != nil {
		return solana.PublicKey{}, nil, err
	}

	sellerAmount, err := fees.RewardAmount(m.Rewards.SellerRewardBps, amount)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	buyerAmount, err := fees.RewardAmount(m.Rewards.BuyerRewardBps, amount)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}

	participants := []struct {
		authority solana.PublicKey
		reward    solana.PublicKey
		vault     solana.PublicKey
		amount    uint64
	}{
		{prod.Authority, resolved[2], resolved[3], sellerAmount},
		{buyer, resolved[4], resolved[5], buyerAmount},
	}
	payouts := make([]payout, 0, len(participants))
	for _, pt := range participants {
		r, err := p.loadReward(h, pt.reward)
		if err != nil {
			return solana.PublicKey{}, nil, err
		}
		if !r.Authority.Equals(pt.authority) || !r.Marketplace.Equals(marketplace) {
			return solana.PublicKey{}, nil, brick.ErrIncorrectAuthority
		}
		if !r.Vaults.Contains(pt.vault) {
			return solana.PublicKey{}, nil, brick.ErrIncorrectSeeds
		}
		if err := brick.VerifySigner(p.programID, pt.vault, r.Vaults.BumpFor(pt.vault), brick.RewardVaultSeeds(pt.authority, marketplace, rewardMint)...); err != nil {
			return solana.PublicKey{}, nil, err
		}
		payouts = append(payouts, payout{to: pt.vault, amount: pt.amount})
	}
	return bounty, payouts, nil
}

func (p *Processor) deliverToken(h Host, prod *brick.Product, product, buyer solana.PublicKey, meta *solana.AccountMeta, quantity uint64) error {
	vault, err := p.required(meta)
	if err != nil {
		return err
	}
	if _, err := tokenAccount(h, vault.PublicKey, prod.ProductMint, buyer); err != nil {
		return err
	}
	if _, err := signFor(h, prod.Bump, brick.ProductSeeds(prod.FirstID, prod.SecondID, prod.Marketplace)...); err != nil {
		return err
	}
	return mintTo(h, prod.ProductMint, vault.PublicKey, product, quantity)
}

// countPurchase records the purchase in the buyer's counter for the product,
// opening it on the first buy.
func (p *Processor) countPurchase(h Host, product, buyer solana.PublicKey, meta *solana.AccountMeta, quantity uint64) error {
	counter, err := p.required(meta)
	if err != nil {
		return err
	}
	seeds := brick.PurchaseCounterSeeds(buyer, product)

	found, err := exists(h, counter.PublicKey)
	if err != nil {
		return err
	}
	if !found {
		bump, err := p.deriver.Verify(counter.PublicKey, seeds...)
		if err != nil {
			return err
		}
		pc := &brick.PurchaseCounter{Buyer: buyer, Product: product, Units: quantity, Bump: bump}
		return create(h, buyer, counter.PublicKey, brick.PurchaseCounterSize, bump, seeds, pc)
	}

	var pc brick.PurchaseCounter
	if err := load(h, counter.PublicKey, &pc); err != nil {
		return err
	}
	if err := brick.VerifySigner(p.programID, counter.PublicKey, pc.Bump, seeds...); err != nil {
		return err
	}
	if pc.Units, err = fees.CheckedAdd(pc.Units, quantity); err != nil {
		return err
	}
	return store(h, counter.PublicKey, &pc)
}

func (p *Processor) registerPromoBuy(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.BuyArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 13)
	if err != nil {
		return err
	}
	signer, governance, product, paymentMint := accs[0], accs[1], accs[2], accs[3]
	governanceBonusVault := accs[7]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[12]); err != nil {
		return err
	}

	g, err := p.loadGovernance(h, governance.PublicKey)
	if err != nil {
		return err
	}
	prod, err := p.loadProduct(h, product.PublicKey)
	if err != nil {
		return err
	}
	if !paymentMint.PublicKey.Equals(prod.PaymentMint) {
		return brick.ErrIncorrectMint
	}
	if !fees.PromotionActive(g.SellerPromoBps, g.BuyerPromoBps, g.Mint, prod.PaymentMint) {
		return brick.ErrClosedPromotion
	}

	amount, err := quote(prod, args.Quantity)
	if err != nil {
		return err
	}
	split, err := fees.Distribute(fees.Config{
		FeeBps:          g.FeeBps,
		FeeReductionBps: g.FeeReductionBps,
		DiscountMint:    g.Mint,
		Payer:           brick.FeePayerSeller,
	}, prod.PaymentMint, amount)
	if err != nil {
		return err
	}
	buyerVault, sellerVault, governanceVault, err := p.settlementVaults(h, prod.PaymentMint, signer.PublicKey, prod.Authority, g.Authority, accs[4], accs[5], accs[6])
	if err != nil {
		return err
	}

	if !governanceBonusVault.PublicKey.Equals(g.BonusVault) {
		return brick.ErrIncorrectSeeds
	}
	if err := brick.VerifySigner(p.programID, g.BonusVault, g.VaultBump, brick.GovernanceBonusVaultSeeds(governance.PublicKey)...); err != nil {
		return err
	}

	sellerAmount, err := fees.RewardAmount(g.SellerPromoBps, amount)
	if err != nil {
		return err
	}
	buyerAmount, err := fees.RewardAmount(g.BuyerPromoBps, amount)
	if err != nil {
		return err
	}
	participants := []struct {
		authority solana.PublicKey
		bonus     *solana.AccountMeta
		vault     *solana.AccountMeta
		amount    uint64
	}{
		{prod.Authority, accs[8], accs[9], sellerAmount},
		{signer.PublicKey, accs[10], accs[11], buyerAmount},
	}
	bonuses := make([]*brick.Bonus, len(participants))
	for i, pt := range participants {
		var b *brick.Bonus
		if i > 0 && pt.bonus.PublicKey.Equals(participants[0].bonus.PublicKey) {
			// Seller buying their own product accrues both sides on one record.
			b = bonuses[0]
		} else if b, err = p.loadBonus(h, pt.bonus.PublicKey); err != nil {
			return err
		}
		if !b.Authority.Equals(pt.authority) || !b.Governance.Equals(governance.PublicKey) {
			return brick.ErrIncorrectAuthority
		}
		if err := brick.VerifySigner(p.programID, pt.vault.PublicKey, b.VaultBump, brick.BonusVaultSeeds(pt.authority, governance.PublicKey)...); err != nil {
			return err
		}
		if b.Amount, err = fees.CheckedAdd(b.Amount, pt.amount); err != nil {
			return err
		}
		bonuses[i] = b
	}

	if err := transferTokens(h, buyerVault, governanceVault, signer.PublicKey, split.Fee); err != nil {
		return err
	}
	if err := transferTokens(h, buyerVault, sellerVault, signer.PublicKey, split.Counterparty); err != nil {
		return err
	}
	if _, err := signFor(h, g.Bump, brick.GovernanceSeeds(g.Name)...); err != nil {
		return err
	}
	for i, pt := range participants {
		if err := transferTokens(h, g.BonusVault, pt.vault.PublicKey, governance.PublicKey, pt.amount); err != nil {
			return err
		}
		if err := store(h, pt.bonus.PublicKey, bonuses[i]); err != nil {
			return err
		}
	}

	h.Log(fmt.Sprintf("Promo sale of %d x %s for %d (fee %d)", args.Quantity, prod.ID(), split.Total, split.Fee))
	return store(h, product.PublicKey, prod)
}
