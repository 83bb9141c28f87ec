package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/program/fees"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func (p *Processor) initReward(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 7)
	if err != nil {
		return err
	}
	signer, marketplace, reward, rewardMint, vault := accs[0], accs[1], accs[2], accs[3], accs[4]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[6]); err != nil {
		return err
	}

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	if !rewardMint.PublicKey.Equals(m.Rewards.RewardMint) {
		return brick.ErrIncorrectMint
	}
	seeds := brick.RewardSeeds(signer.PublicKey, marketplace.PublicKey)
	bump, err := p.deriver.Verify(reward.PublicKey, seeds...)
	if err != nil {
		return err
	}

	r := &brick.Reward{
		Authority:   signer.PublicKey,
		Marketplace: marketplace.PublicKey,
		Bump:        bump,
	}
	if err := p.addRewardVault(h, r, signer.PublicKey, reward.PublicKey, rewardMint.PublicKey, vault.PublicKey); err != nil {
		return err
	}
	return create(h, signer.PublicKey, reward.PublicKey, brick.RewardSize, bump, seeds, r)
}

func (p *Processor) initRewardVault(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 7)
	if err != nil {
		return err
	}
	signer, marketplace, reward, rewardMint, vault := accs[0], accs[1], accs[2], accs[3], accs[4]
	if err := requireTokenProgram(accs[6]); err != nil {
		return err
	}

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	if !rewardMint.PublicKey.Equals(m.Rewards.RewardMint) {
		return brick.ErrIncorrectMint
	}
	r, err := p.loadReward(h, reward.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, r.Authority); err != nil {
		return err
	}
	if !r.Marketplace.Equals(marketplace.PublicKey) {
		return brick.ErrIncorrectAccountData
	}
	if err := p.addRewardVault(h, r, signer.PublicKey, reward.PublicKey, rewardMint.PublicKey, vault.PublicKey); err != nil {
		return err
	}
	return store(h, reward.PublicKey, r)
}

// addRewardVault records a vault for mint in r and opens the token account,
// owned by the reward record.
func (p *Processor) addRewardVault(h Host, r *brick.Reward, payer, reward, mint, vault solana.PublicKey) error {
	seeds := brick.RewardVaultSeeds(r.Authority, r.Marketplace, mint)
	bump, err := p.deriver.Verify(vault, seeds...)
	if err != nil {
		return err
	}
	if err := r.Vaults.Append(vault, bump); err != nil {
		return err
	}
	if _, err := signFor(h, bump, seeds...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeAccount(payer, vault, mint, reward); err != nil {
		return fmt.Errorf("failed to initialize reward vault: %w", err)
	}
	return nil
}

func (p *Processor) withdrawReward(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 7)
	if err != nil {
		return err
	}
	signer, marketplace, reward, rewardMint, vault, receiver := accs[0], accs[1], accs[2], accs[3], accs[4], accs[5]
	if err := requireTokenProgram(accs[6]); err != nil {
		return err
	}

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	r, err := p.loadReward(h, reward.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, r.Authority); err != nil {
		return err
	}
	if !r.Marketplace.Equals(marketplace.PublicKey) {
		return brick.ErrIncorrectAccountData
	}
	if m.Rewards.RewardsEnabled {
		if err := fees.CheckWithdrawWindow(m.Rewards.SellerRewardBps, m.Rewards.BuyerRewardBps, p.cfg.LegacyPromotionGate); err != nil {
			return err
		}
	}

	bump := r.Vaults.BumpFor(vault.PublicKey)
	if !r.Vaults.Contains(vault.PublicKey) {
		return brick.ErrIncorrectSeeds
	}
	if err := brick.VerifySigner(p.programID, vault.PublicKey, bump, brick.RewardVaultSeeds(r.Authority, r.Marketplace, rewardMint.PublicKey)...); err != nil {
		return err
	}
	held, err := tokenAccount(h, vault.PublicKey, rewardMint.PublicKey, reward.PublicKey)
	if err != nil {
		return err
	}
	if _, err := tokenAccount(h, receiver.PublicKey, rewardMint.PublicKey, signer.PublicKey); err != nil {
		return err
	}

	if _, err := signFor(h, r.Bump, brick.RewardSeeds(r.Authority, r.Marketplace)...); err != nil {
		return err
	}
	if err := transferTokens(h, vault.PublicKey, receiver.PublicKey, reward.PublicKey, held.Amount); err != nil {
		return err
	}
	if err := closeTokenAccount(h, vault.PublicKey, signer.PublicKey, reward.PublicKey); err != nil {
		return err
	}
	r.Vaults.Remove(vault.PublicKey)
	h.Log(fmt.Sprintf("Withdrew %d reward tokens", held.Amount))
	return store(h, reward.PublicKey, r)
}
