package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func (p *Processor) initProduct(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.InitProductArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 8)
	if err != nil {
		return err
	}
	signer, marketplace, product, productMint, paymentMint := accs[0], accs[1], accs[2], accs[3], accs[4]

	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[7]); err != nil {
		return err
	}
	if args.Exemplars < brick.UnlimitedExemplars {
		return brick.ErrIncorrectQuantity
	}

	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	if !m.Permission.Permissionless {
		if err := p.checkAccess(h, m, signer.PublicKey, accs[5]); err != nil {
			return err
		}
	}
	if err := requireMint(h, paymentMint.PublicKey); err != nil {
		return err
	}

	seeds := brick.ProductSeeds(args.FirstID, args.SecondID, marketplace.PublicKey)
	bump, err := p.deriver.Verify(product.PublicKey, seeds...)
	if err != nil {
		return err
	}
	mintSeeds := brick.ProductMintSeeds(args.FirstID, args.SecondID, marketplace.PublicKey)
	mintBump, err := p.deriver.Verify(productMint.PublicKey, mintSeeds...)
	if err != nil {
		return err
	}

	prod := &brick.Product{
		FirstID:        args.FirstID,
		SecondID:       args.SecondID,
		Authority:      signer.PublicKey,
		Marketplace:    marketplace.PublicKey,
		ProductMint:    productMint.PublicKey,
		PaymentMint:    paymentMint.PublicKey,
		Price:          args.Price,
		RefundTimespan: args.RefundTimespan,
		Exemplars:      args.Exemplars,
		Bump:           bump,
		MintBump:       mintBump,
	}
	if err := create(h, signer.PublicKey, product.PublicKey, brick.ProductSize, bump, seeds, prod); err != nil {
		return err
	}
	if _, err := signFor(h, mintBump, mintSeeds...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeMint(signer.PublicKey, productMint.PublicKey, 0, product.PublicKey, !m.Permission.AllowSecondary); err != nil {
		return fmt.Errorf("failed to initialize product mint: %w", err)
	}
	h.Log(fmt.Sprintf("Product %s listed at %d", prod.ID(), prod.Price))
	return nil
}

// checkAccess requires a non-empty access token account for permissioned
// marketplaces.
func (p *Processor) checkAccess(h Host, m *brick.Marketplace, seller solana.PublicKey, meta *solana.AccountMeta) error {
	vault, err := p.required(meta)
	if err != nil {
		return err
	}
	ta, err := h.Tokens().TokenAccount(vault.PublicKey)
	if err != nil {
		return brick.ErrNotInWhitelist
	}
	if !ta.Mint.Equals(m.Permission.AccessMint) {
		return brick.ErrIncorrectMint
	}
	if !ta.Owner.Equals(seller) {
		return brick.ErrIncorrectTokenAuthority
	}
	if ta.Amount == 0 {
		return brick.ErrNotInWhitelist
	}
	return nil
}

func (p *Processor) editProduct(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.EditProductArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 3)
	if err != nil {
		return err
	}
	signer, product, paymentMint := accs[0], accs[1], accs[2]

	prod, err := p.loadProduct(h, product.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, prod.Authority); err != nil {
		return err
	}
	if err := requireMint(h, paymentMint.PublicKey); err != nil {
		return err
	}
	prod.Price = args.Price
	prod.PaymentMint = paymentMint.PublicKey
	return store(h, product.PublicKey, prod)
}

func (p *Processor) deleteProduct(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 2)
	if err != nil {
		return err
	}
	signer, product := accs[0], accs[1]

	prod, err := p.loadProduct(h, product.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, prod.Authority); err != nil {
		return err
	}
	if prod.ActivePayments > 0 {
		return brick.ErrCannotCloseProduct
	}
	return h.CloseAccount(product.PublicKey, signer.PublicKey)
}
