package processor

import (
	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func (p *Processor) requestAccess(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 4)
	if err != nil {
		return err
	}
	signer, marketplace, request := accs[0], accs[1], accs[2]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if _, err := p.loadMarketplace(h, marketplace.PublicKey); err != nil {
		return err
	}
	seeds := brick.RequestSeeds(signer.PublicKey, marketplace.PublicKey)
	bump, err := p.deriver.Verify(request.PublicKey, seeds...)
	if err != nil {
		return err
	}
	r := &brick.Request{Authority: signer.PublicKey, Marketplace: marketplace.PublicKey, Bump: bump}
	return create(h, signer.PublicKey, request.PublicKey, brick.RequestSize, bump, seeds, r)
}

func (p *Processor) acceptAccess(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 7)
	if err != nil {
		return err
	}
	signer, requester, marketplace, request, accessMint, vault := accs[0], accs[1], accs[2], accs[3], accs[4], accs[5]
	if err := requireTokenProgram(accs[6]); err != nil {
		return err
	}

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, m.Authority); err != nil {
		return err
	}
	r, err := p.loadRequest(h, request.PublicKey)
	if err != nil {
		return err
	}
	if !r.Authority.Equals(requester.PublicKey) || !r.Marketplace.Equals(marketplace.PublicKey) {
		return brick.ErrIncorrectAuthority
	}
	if err := p.grantAccess(h, m, marketplace.PublicKey, accessMint.PublicKey, vault.PublicKey, requester.PublicKey); err != nil {
		return err
	}
	return h.CloseAccount(request.PublicKey, requester.PublicKey)
}

func (p *Processor) airdropAccess(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 6)
	if err != nil {
		return err
	}
	signer, receiver, marketplace, accessMint, vault := accs[0], accs[1], accs[2], accs[3], accs[4]
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
	return p.grantAccess(h, m, marketplace.PublicKey, accessMint.PublicKey, vault.PublicKey, receiver.PublicKey)
}

// grantAccess mints one access token into the receiver's vault.
func (p *Processor) grantAccess(h Host, m *brick.Marketplace, marketplace, accessMint, vault, receiver solana.PublicKey) error {
	if !accessMint.Equals(m.Permission.AccessMint) {
		return brick.ErrIncorrectMint
	}
	if err := brick.VerifySigner(p.programID, accessMint, m.AccessMintBump, brick.AccessMintSeeds(marketplace)...); err != nil {
		return err
	}
	if _, err := tokenAccount(h, vault, accessMint, receiver); err != nil {
		return err
	}
	if _, err := signFor(h, m.Bump, brick.MarketplaceSeeds(m.Authority)...); err != nil {
		return err
	}
	return mintTo(h, accessMint, vault, marketplace, 1)
}
