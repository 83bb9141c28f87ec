package localnet

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/program/processor"
)

// SPL token record sizes. Mints carry one extra byte flagging the
// non-transferable extension.
const (
	MintSize         = 82 + 1
	TokenAccountSize = 165

	tokenAccountInitialized = 1
)

var (
	ErrNotTokenAccount      = errors.New("account is not a token account")
	ErrNotMint              = errors.New("account is not a mint")
	ErrMintMismatch         = errors.New("account not associated with this mint")
	ErrOwnerMismatch        = errors.New("owner does not match")
	ErrInsufficientTokens   = errors.New("insufficient token funds")
	ErrNonTransferable      = errors.New("transfer is disabled for this mint")
	ErrNonZeroTokenBalance  = errors.New("non-native account can only be closed if its balance is zero")
	ErrTokenSupplyOverflow  = errors.New("token supply overflow")
	ErrNoMintAuthority      = errors.New("mint has no minting authority")
	ErrMintAuthorityInvalid = errors.New("mint authority does not match")
)

type mintRecord struct {
	authority       *solana.PublicKey
	supply          uint64
	decimals        uint8
	nonTransferable bool
}

func (m *mintRecord) marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := encodeOptionKey(enc, m.authority); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(m.supply, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte{m.decimals, 1}, false); err != nil {
		return nil, err
	}
	// No freeze authority.
	if err := encodeOptionKey(enc, nil); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte{boolByte(m.nonTransferable)}, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *mintRecord) unmarshal(data []byte) error {
	if len(data) != MintSize {
		return ErrNotMint
	}
	dec := bin.NewBinDecoder(data)
	var err error
	if m.authority, err = decodeOptionKey(dec); err != nil {
		return err
	}
	if m.supply, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	flags, err := dec.ReadBytes(2)
	if err != nil {
		return err
	}
	if flags[1] != 1 {
		return ErrNotMint
	}
	m.decimals = flags[0]
	if _, err := decodeOptionKey(dec); err != nil {
		return err
	}
	ext, err := dec.ReadBytes(1)
	if err != nil {
		return err
	}
	m.nonTransferable = ext[0] == 1
	return nil
}

type tokenRecord struct {
	mint   solana.PublicKey
	owner  solana.PublicKey
	amount uint64
}

func (t *tokenRecord) marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteBytes(t.mint[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(t.owner[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(t.amount, bin.LE); err != nil {
		return nil, err
	}
	// Delegate, state, native flag, delegated amount and close authority.
	if err := encodeOptionKey(enc, nil); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte{tokenAccountInitialized}, false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(make([]byte, 4+8+8), false); err != nil {
		return nil, err
	}
	if err := encodeOptionKey(enc, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *tokenRecord) unmarshal(data []byte) error {
	if len(data) != TokenAccountSize {
		return ErrNotTokenAccount
	}
	dec := bin.NewBinDecoder(data)
	mint, err := dec.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	owner, err := dec.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	t.mint = solana.PublicKeyFromBytes(mint)
	t.owner = solana.PublicKeyFromBytes(owner)
	if t.amount, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	return nil
}

func encodeOptionKey(enc *bin.Encoder, key *solana.PublicKey) error {
	if key == nil {
		if err := enc.WriteUint32(0, bin.LE); err != nil {
			return err
		}
		return enc.WriteBytes(make([]byte, solana.PublicKeyLength), false)
	}
	if err := enc.WriteUint32(1, bin.LE); err != nil {
		return err
	}
	return enc.WriteBytes(key[:], false)
}

func decodeOptionKey(dec *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	raw, err := dec.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	key := solana.PublicKeyFromBytes(raw)
	return &key, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// tokenLedger executes token operations against the invocation's state the
// way the token program would when invoked from the calling program.
type tokenLedger struct {
	inv *invocation
}

func (l *tokenLedger) loadMint(key solana.PublicKey) (*mintRecord, error) {
	a, ok := l.inv.state.get(key)
	if !ok || !a.owner.Equals(solana.TokenProgramID) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotMint)
	}
	var m mintRecord
	if err := m.unmarshal(a.data); err != nil {
		return nil, fmt.Errorf("%s: %w", key, ErrNotMint)
	}
	return &m, nil
}

func (l *tokenLedger) loadAccount(key solana.PublicKey) (*tokenRecord, error) {
	a, ok := l.inv.state.get(key)
	if !ok || !a.owner.Equals(solana.TokenProgramID) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotTokenAccount)
	}
	var t tokenRecord
	if err := t.unmarshal(a.data); err != nil {
		return nil, fmt.Errorf("%s: %w", key, ErrNotTokenAccount)
	}
	return &t, nil
}

type marshaler interface {
	marshal() ([]byte, error)
}

func (l *tokenLedger) save(key solana.PublicKey, rec marshaler) error {
	data, err := rec.marshal()
	if err != nil {
		return err
	}
	return l.inv.writeOwned(key, solana.TokenProgramID, data)
}

func (l *tokenLedger) requireSigner(authority solana.PublicKey) error {
	if !l.inv.signers[authority] {
		return fmt.Errorf("%s: %w", authority, ErrMissingRequiredSignature)
	}
	return nil
}

func (l *tokenLedger) InitializeMint(payer, mint solana.PublicKey, decimals uint8, authority solana.PublicKey, nonTransferable bool) error {
	if err := l.inv.allocate(payer, mint, MintSize, solana.TokenProgramID); err != nil {
		return err
	}
	return l.save(mint, &mintRecord{authority: &authority, decimals: decimals, nonTransferable: nonTransferable})
}

func (l *tokenLedger) InitializeAccount(payer, account, mint, owner solana.PublicKey) error {
	if _, err := l.loadMint(mint); err != nil {
		return err
	}
	if err := l.inv.allocate(payer, account, TokenAccountSize, solana.TokenProgramID); err != nil {
		return err
	}
	return l.save(account, &tokenRecord{mint: mint, owner: owner})
}

func (l *tokenLedger) Transfer(from, to, authority solana.PublicKey, amount uint64) error {
	src, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	dst, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	if !src.mint.Equals(dst.mint) {
		return ErrMintMismatch
	}
	m, err := l.loadMint(src.mint)
	if err != nil {
		return err
	}
	if m.nonTransferable {
		return ErrNonTransferable
	}
	if !src.owner.Equals(authority) {
		return ErrOwnerMismatch
	}
	if err := l.requireSigner(authority); err != nil {
		return err
	}
	if src.amount < amount {
		return ErrInsufficientTokens
	}
	if from.Equals(to) {
		return nil
	}
	if dst.amount+amount < dst.amount {
		return ErrTokenSupplyOverflow
	}
	src.amount -= amount
	dst.amount += amount
	if err := l.save(from, src); err != nil {
		return err
	}
	return l.save(to, dst)
}

func (l *tokenLedger) MintTo(mint, to, authority solana.PublicKey, amount uint64) error {
	m, err := l.loadMint(mint)
	if err != nil {
		return err
	}
	dst, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	if !dst.mint.Equals(mint) {
		return ErrMintMismatch
	}
	if m.authority == nil {
		return ErrNoMintAuthority
	}
	if !m.authority.Equals(authority) {
		return ErrMintAuthorityInvalid
	}
	if err := l.requireSigner(authority); err != nil {
		return err
	}
	if m.supply+amount < m.supply {
		return ErrTokenSupplyOverflow
	}
	m.supply += amount
	dst.amount += amount
	if err := l.save(mint, m); err != nil {
		return err
	}
	return l.save(to, dst)
}

func (l *tokenLedger) Burn(mint, from, authority solana.PublicKey, amount uint64) error {
	m, err := l.loadMint(mint)
	if err != nil {
		return err
	}
	src, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	if !src.mint.Equals(mint) {
		return ErrMintMismatch
	}
	if !src.owner.Equals(authority) {
		return ErrOwnerMismatch
	}
	if err := l.requireSigner(authority); err != nil {
		return err
	}
	if src.amount < amount {
		return ErrInsufficientTokens
	}
	src.amount -= amount
	m.supply -= amount
	if err := l.save(from, src); err != nil {
		return err
	}
	return l.save(mint, m)
}

func (l *tokenLedger) CloseAccount(account, destination, authority solana.PublicKey) error {
	t, err := l.loadAccount(account)
	if err != nil {
		return err
	}
	if !t.owner.Equals(authority) {
		return ErrOwnerMismatch
	}
	if err := l.requireSigner(authority); err != nil {
		return err
	}
	if t.amount != 0 {
		return ErrNonZeroTokenBalance
	}
	return l.inv.closeOwned(account, solana.TokenProgramID, destination)
}

func (l *tokenLedger) TokenAccount(key solana.PublicKey) (*processor.TokenAccount, error) {
	t, err := l.loadAccount(key)
	if err != nil {
		return nil, err
	}
	return &processor.TokenAccount{Mint: t.mint, Owner: t.owner, Amount: t.amount}, nil
}

func (l *tokenLedger) Mint(key solana.PublicKey) (*processor.Mint, error) {
	m, err := l.loadMint(key)
	if err != nil {
		return nil, err
	}
	out := &processor.Mint{Supply: m.supply, Decimals: m.decimals, NonTransferable: m.nonTransferable}
	if m.authority != nil {
		out.Authority = *m.authority
	}
	return out, nil
}
