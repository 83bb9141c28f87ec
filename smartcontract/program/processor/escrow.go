package processor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/program/fees"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func (p *Processor) registerEscrowBuy(h Host, metas []*solana.AccountMeta, data []byte) error {
	var args brick.EscrowBuyArgs
	if err := decodeArgs(data, &args); err != nil {
		return err
	}
	accs, err := expectAccounts(metas, 9)
	if err != nil {
		return err
	}
	signer, marketplace, product, paymentMint := accs[0], accs[1], accs[2], accs[3]
	payment, vault, buyerVault := accs[4], accs[5], accs[6]
	if err := requireSigner(signer); err != nil {
		return err
	}
	if err := requireTokenProgram(accs[8]); err != nil {
		return err
	}
	if args.Timestamp > now(h) {
		return brick.ErrInvalidTimestamp
	}

	if _, err := p.loadMarketplace(h, marketplace.PublicKey); err != nil {
		return err
	}
	prod, err := p.loadProduct(h, product.PublicKey)
	if err != nil {
		return err
	}
	if !prod.Marketplace.Equals(marketplace.PublicKey) {
		return brick.ErrIncorrectAccountData
	}
	if !paymentMint.PublicKey.Equals(prod.PaymentMint) || prod.PaymentMint.Equals(brick.NativeMint) {
		return brick.ErrIncorrectMint
	}

	amount, err := quote(prod, args.Quantity)
	if err != nil {
		return err
	}
	consumedAt, err := fees.CheckedAdd(args.Timestamp, prod.RefundTimespan)
	if err != nil {
		return err
	}
	if prod.ActivePayments == ^uint32(0) {
		return brick.ErrNumericalOverflow
	}
	prod.ActivePayments++

	seeds := brick.PaymentSeeds(prod.ProductMint, signer.PublicKey, args.Timestamp)
	bump, err := p.deriver.Verify(payment.PublicKey, seeds...)
	if err != nil {
		return err
	}
	vaultSeeds := brick.PaymentVaultSeeds(payment.PublicKey)
	vaultBump, err := p.deriver.Verify(vault.PublicKey, vaultSeeds...)
	if err != nil {
		return err
	}
	if _, err := tokenAccount(h, buyerVault.PublicKey, prod.PaymentMint, signer.PublicKey); err != nil {
		return err
	}

	pay := &brick.Payment{
		Product:          product.PublicKey,
		ProductMint:      prod.ProductMint,
		PaidMint:         prod.PaymentMint,
		Seller:           prod.Authority,
		Buyer:            signer.PublicKey,
		Marketplace:      marketplace.PublicKey,
		Price:            amount,
		Quantity:         args.Quantity,
		PaymentTimestamp: args.Timestamp,
		RefundConsumedAt: consumedAt,
		Bump:             bump,
		VaultBump:        vaultBump,
	}
	if err := create(h, signer.PublicKey, payment.PublicKey, brick.PaymentSize, bump, seeds, pay); err != nil {
		return err
	}
	if _, err := signFor(h, vaultBump, vaultSeeds...); err != nil {
		return err
	}
	if err := h.Tokens().InitializeAccount(signer.PublicKey, vault.PublicKey, prod.PaymentMint, payment.PublicKey); err != nil {
		return fmt.Errorf("failed to initialize payment vault: %w", err)
	}
	if err := transferTokens(h, buyerVault.PublicKey, vault.PublicKey, signer.PublicKey, amount); err != nil {
		return err
	}

	h.Log(fmt.Sprintf("Escrowed %d for %s until %d", amount, prod.ID(), consumedAt))
	return store(h, product.PublicKey, prod)
}

// releasePayment drains the escrow vault through transfer and closes the vault
// and the payment record, returning their rent to the buyer.
func (p *Processor) releasePayment(h Host, pay *brick.Payment, prod *brick.Product, product, payment, vault solana.PublicKey, transfer func() error) error {
	if err := brick.VerifySigner(p.programID, vault, pay.VaultBump, brick.PaymentVaultSeeds(payment)...); err != nil {
		return err
	}
	if _, err := tokenAccount(h, vault, pay.PaidMint, payment); err != nil {
		return err
	}
	if _, err := signFor(h, pay.Bump, brick.PaymentSeeds(pay.ProductMint, pay.Buyer, pay.PaymentTimestamp)...); err != nil {
		return err
	}
	if err := transfer(); err != nil {
		return err
	}
	if err := closeTokenAccount(h, vault, pay.Buyer, payment); err != nil {
		return err
	}
	if err := h.CloseAccount(payment, pay.Buyer); err != nil {
		return err
	}
	if prod.ActivePayments == 0 {
		return brick.ErrNumericalOverflow
	}
	prod.ActivePayments--
	return store(h, product, prod)
}

func (p *Processor) refund(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 6)
	if err != nil {
		return err
	}
	signer, product, payment, vault, receiver := accs[0], accs[1], accs[2], accs[3], accs[4]
	if err := requireTokenProgram(accs[5]); err != nil {
		return err
	}

	pay, err := p.loadPayment(h, payment.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, pay.Buyer); err != nil {
		return err
	}
	if !product.PublicKey.Equals(pay.Product) {
		return brick.ErrIncorrectAccountData
	}
	prod, err := p.loadProduct(h, product.PublicKey)
	if err != nil {
		return err
	}
	if pay.RefundConsumedAt < now(h) {
		return brick.ErrTimeForRefundHasConsumed
	}
	if _, err := tokenAccount(h, receiver.PublicKey, pay.PaidMint, signer.PublicKey); err != nil {
		return err
	}
	if err := restock(prod, pay.Quantity); err != nil {
		return err
	}

	return p.releasePayment(h, pay, prod, product.PublicKey, payment.PublicKey, vault.PublicKey, func() error {
		h.Log(fmt.Sprintf("Refunded %d", pay.Price))
		return transferTokens(h, vault.PublicKey, receiver.PublicKey, payment.PublicKey, pay.Price)
	})
}

func (p *Processor) withdrawFunds(h Host, metas []*solana.AccountMeta) error {
	accs, err := expectAccounts(metas, 9)
	if err != nil {
		return err
	}
	signer, marketplace, product, payment, vault := accs[0], accs[1], accs[2], accs[3], accs[4]
	sellerVault, marketplaceVault, buyer := accs[5], accs[6], accs[7]
	if err := requireTokenProgram(accs[8]); err != nil {
		return err
	}

	pay, err := p.loadPayment(h, payment.PublicKey)
	if err != nil {
		return err
	}
	if err := requireAuthority(signer, pay.Seller); err != nil {
		return err
	}
	if !buyer.PublicKey.Equals(pay.Buyer) {
		return brick.ErrIncorrectAuthority
	}
	if !marketplace.PublicKey.Equals(pay.Marketplace) || !product.PublicKey.Equals(pay.Product) {
		return brick.ErrIncorrectAccountData
	}
	m, err := p.loadMarketplace(h, marketplace.PublicKey)
	if err != nil {
		return err
	}
	prod, err := p.loadProduct(h, product.PublicKey)
	if err != nil {
		return err
	}
	if pay.RefundConsumedAt > now(h) {
		return brick.ErrCannotWithdrawYet
	}
	if _, err := tokenAccount(h, sellerVault.PublicKey, pay.PaidMint, signer.PublicKey); err != nil {
		return err
	}
	if _, err := tokenAccount(h, marketplaceVault.PublicKey, pay.PaidMint, m.Authority); err != nil {
		return err
	}

	// The buyer already paid the escrowed amount, so the seller carries the fee.
	cfg := marketplaceFees(m)
	cfg.Payer = brick.FeePayerSeller
	split, err := fees.Distribute(cfg, pay.PaidMint, pay.Price)
	if err != nil {
		return err
	}

	return p.releasePayment(h, pay, prod, product.PublicKey, payment.PublicKey, vault.PublicKey, func() error {
		if err := transferTokens(h, vault.PublicKey, marketplaceVault.PublicKey, payment.PublicKey, split.Fee); err != nil {
			return err
		}
		h.Log(fmt.Sprintf("Released %d to seller (fee %d)", split.Counterparty, split.Fee))
		return transferTokens(h, vault.PublicKey, sellerVault.PublicKey, payment.PublicKey, split.Counterparty)
	})
}
