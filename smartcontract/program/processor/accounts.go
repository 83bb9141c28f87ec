package processor

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"

	"github.com/malbeclabs/brick/smartcontract/program/fees"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type record interface {
	Serialize(io.Writer) error
	Deserialize([]byte) error
}

func decodeArgs(data []byte, v any) error {
	if err := borsh.Deserialize(v, data); err != nil {
		return brick.ErrInvalidInstruction
	}
	return nil
}

func expectAccounts(metas []*solana.AccountMeta, n int) ([]*solana.AccountMeta, error) {
	if len(metas) < n {
		return nil, brick.ErrNotEnoughAccounts
	}
	for _, m := range metas[:n] {
		if m == nil {
			return nil, brick.ErrNotEnoughAccounts
		}
	}
	return metas[:n], nil
}

func requireSigner(meta *solana.AccountMeta) error {
	if !meta.IsSigner {
		return brick.ErrMissingSigner
	}
	return nil
}

// requireAuthority checks that meta signed and is the expected authority.
func requireAuthority(meta *solana.AccountMeta, authority solana.PublicKey) error {
	if err := requireSigner(meta); err != nil {
		return err
	}
	if !meta.PublicKey.Equals(authority) {
		return brick.ErrIncorrectAuthority
	}
	return nil
}

func requireTokenProgram(meta *solana.AccountMeta) error {
	if !meta.PublicKey.Equals(solana.TokenProgramID) {
		return brick.ErrIncorrectTokenProgram
	}
	return nil
}

// optional returns nil when the program ID stands in for an omitted account.
func (p *Processor) optional(meta *solana.AccountMeta) *solana.AccountMeta {
	if meta.PublicKey.Equals(p.programID) {
		return nil
	}
	return meta
}

func (p *Processor) required(meta *solana.AccountMeta) (*solana.AccountMeta, error) {
	if m := p.optional(meta); m != nil {
		return m, nil
	}
	return nil, brick.ErrOptionalAccountNotProvided
}

func load(h Host, key solana.PublicKey, v record) error {
	acct, err := h.Account(key)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return brick.ErrIncorrectAccountData
		}
		return err
	}
	if !acct.Owner.Equals(h.ProgramID()) {
		return brick.ErrIncorrectAccountData
	}
	if err := v.Deserialize(acct.Data); err != nil {
		return brick.ErrIncorrectAccountData
	}
	return nil
}

func exists(h Host, key solana.PublicKey) (bool, error) {
	_, err := h.Account(key)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}

func store(h Host, key solana.PublicKey, v record) error {
	data, err := brick.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	return h.WriteAccount(key, data)
}

func signFor(h Host, bump uint8, seeds ...[]byte) (solana.PublicKey, error) {
	return h.SignWithSeeds(append(append([][]byte{}, seeds...), []byte{bump})...)
}

// create allocates a program-owned record at the address of seeds and writes v.
func create(h Host, payer, key solana.PublicKey, space uint64, bump uint8, seeds [][]byte, v record) error {
	if _, err := signFor(h, bump, seeds...); err != nil {
		return err
	}
	if err := h.CreateAccount(payer, key, space, h.ProgramID()); err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}
	return store(h, key, v)
}

func (p *Processor) loadMarketplace(h Host, key solana.PublicKey) (*brick.Marketplace, error) {
	var m brick.Marketplace
	if err := load(h, key, &m); err != nil {
		return nil, err
	}
	if err := brick.VerifySigner(p.programID, key, m.Bump, brick.MarketplaceSeeds(m.Authority)...); err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *Processor) loadProduct(h Host, key solana.PublicKey) (*brick.Product, error) {
	var prod brick.Product
	if err := load(h, key, &prod); err != nil {
		return nil, err
	}
	if err := brick.VerifySigner(p.programID, key, prod.Bump, brick.ProductSeeds(prod.FirstID, prod.SecondID, prod.Marketplace)...); err != nil {
		return nil, err
	}
	return &prod, nil
}

func (p *Processor) loadGovernance(h Host, key solana.PublicKey) (*brick.Governance, error) {
	var g brick.Governance
	if err := load(h, key, &g); err != nil {
		return nil, err
	}
	if err := brick.VerifySigner(p.programID, key, g.Bump, brick.GovernanceSeeds(g.Name)...); err != nil {
		return nil, err
	}
	return &g, nil
}

func (p *Processor) loadReward(h Host, key solana.PublicKey) (*brick.Reward, error) {
	var r brick.Reward
	if err := load(h, key, &r); err != nil {
		return nil, err
	}
	if err := brick.VerifySigner(p.programID, key, r.Bump, brick.RewardSeeds(r.Authority, r.Marketplace)...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Processor) loadBonus(h Host, key solana.PublicKey) (*brick.Bonus, error) {
	var b brick.Bonus
	if err := load(h, key, &b); err != nil {
		return nil, err
	}
	if err := brick.VerifySigner(p.programID, key, b.Bump, brick.BonusSeeds(b.Authority, b.Governance)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *Processor) loadPayment(h Host, key solana.PublicKey) (*brick.Payment, error) {
	var pay brick.Payment
	if err := load(h, key, &pay); err != nil {
		return nil, err
	}
	if err := brick.VerifySigner(p.programID, key, pay.Bump, brick.PaymentSeeds(pay.ProductMint, pay.Buyer, pay.PaymentTimestamp)...); err != nil {
		return nil, err
	}
	return &pay, nil
}

func (p *Processor) loadRequest(h Host, key solana.PublicKey) (*brick.Request, error) {
	var r brick.Request
	if err := load(h, key, &r); err != nil {
		return nil, err
	}
	if err := brick.VerifySigner(p.programID, key, r.Bump, brick.RequestSeeds(r.Authority, r.Marketplace)...); err != nil {
		return nil, err
	}
	return &r, nil
}

// tokenAccount loads key and checks it holds mint on behalf of owner.
func tokenAccount(h Host, key, mint, owner solana.PublicKey) (*TokenAccount, error) {
	ta, err := h.Tokens().TokenAccount(key)
	if err != nil {
		return nil, brick.ErrIncorrectATA
	}
	if !ta.Mint.Equals(mint) {
		return nil, brick.ErrIncorrectATA
	}
	if !ta.Owner.Equals(owner) {
		return nil, brick.ErrIncorrectTokenAuthority
	}
	return ta, nil
}

func requireMint(h Host, key solana.PublicKey) error {
	if key.Equals(brick.NativeMint) {
		return nil
	}
	if _, err := h.Tokens().Mint(key); err != nil {
		return brick.ErrIncorrectMint
	}
	return nil
}

func transferTokens(h Host, from, to, authority solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := h.Tokens().Transfer(from, to, authority, amount); err != nil {
		h.Log(fmt.Sprintf("transfer failed: %v", err))
		return brick.ErrTransferError
	}
	return nil
}

func transferLamports(h Host, from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := h.TransferLamports(from, to, amount); err != nil {
		h.Log(fmt.Sprintf("transfer failed: %v", err))
		return brick.ErrTransferError
	}
	return nil
}

func mintTo(h Host, mint, to, authority solana.PublicKey, amount uint64) error {
	if err := h.Tokens().MintTo(mint, to, authority, amount); err != nil {
		h.Log(fmt.Sprintf("mint to failed: %v", err))
		return brick.ErrMintToError
	}
	return nil
}

func closeTokenAccount(h Host, account, destination, authority solana.PublicKey) error {
	if err := h.Tokens().CloseAccount(account, destination, authority); err != nil {
		h.Log(fmt.Sprintf("close account failed: %v", err))
		return brick.ErrCloseAccountError
	}
	return nil
}

func now(h Host) uint64 {
	return uint64(max(h.Now(), 0))
}

// quote returns the amount owed for quantity units and takes them from the
// product's stock.
func quote(prod *brick.Product, quantity uint64) (uint64, error) {
	if quantity == 0 {
		return 0, brick.ErrIncorrectQuantity
	}
	amount, err := fees.CheckedMul(prod.Price, quantity)
	if err != nil {
		return 0, err
	}
	if prod.Exemplars != brick.UnlimitedExemplars {
		if quantity > uint64(prod.Exemplars) {
			return 0, brick.ErrNotEnoughExemplars
		}
		prod.Exemplars -= int32(quantity)
	}
	return amount, nil
}

// restock returns refunded units to a capped product.
func restock(prod *brick.Product, quantity uint64) error {
	if prod.Exemplars == brick.UnlimitedExemplars {
		return nil
	}
	total, err := fees.CheckedAdd(uint64(prod.Exemplars), quantity)
	if err != nil || total > math.MaxInt32 {
		return brick.ErrNumericalOverflow
	}
	prod.Exemplars = int32(total)
	return nil
}
