// Package localnet runs brick programs in-process against an account bank,
// exposing the RPC surface the SDK client needs. Transactions are executed
// one at a time and either commit every change or none.
package localnet

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/brick/smartcontract/program/localnet/internal/metrics"
	"github.com/malbeclabs/brick/smartcontract/program/processor"
)

const (
	LamportsPerSignature = 5000
	LamportsPerSOL       = 1_000_000_000

	rentLamportsPerByteYear = 3480
	rentExemptionYears      = 2
	accountStorageOverhead  = 128

	maxBlockhashAge = 150
)

var (
	ErrLoggerRequired          = errors.New("logger is required")
	ErrBlockhashNotFound       = errors.New("blockhash not found")
	ErrAlreadyProcessed        = errors.New("transaction already processed")
	ErrInsufficientFundsForFee = errors.New("insufficient funds for fee")
	ErrProgramNotFound         = errors.New("program not found")
	ErrTransactionNotSigned    = errors.New("transaction is not signed")
)

// RentExempt returns the minimum balance for an account holding space bytes.
func RentExempt(space uint64) uint64 {
	return (accountStorageOverhead + space) * rentLamportsPerByteYear * rentExemptionYears
}

// Program is an on-chain program the localnet can dispatch instructions to.
type Program interface {
	ProgramID() solana.PublicKey
	Process(h processor.Host, accounts []*solana.AccountMeta, data []byte) error
}

type instructionNamer interface {
	InstructionName(data []byte) string
}

type closer interface {
	Close()
}

type Config struct {
	Logger   *slog.Logger
	Clock    clockwork.Clock
	Programs []Program
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return ErrLoggerRequired
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

type txRecord struct {
	slot uint64
	meta *solanarpc.TransactionMeta
}

type Cluster struct {
	log   *slog.Logger
	clock clockwork.Clock

	mu          sync.Mutex
	programs    map[solana.PublicKey]Program
	accounts    bank
	txs         map[solana.Signature]*txRecord
	blockhashes map[solana.Hash]uint64
	blockhash   solana.Hash
	slot        uint64
	warp        time.Duration
}

func New(cfg Config) (*Cluster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c := &Cluster{
		log:         cfg.Logger,
		clock:       cfg.Clock,
		programs:    make(map[solana.PublicKey]Program),
		accounts:    make(bank),
		txs:         make(map[solana.Signature]*txRecord),
		blockhashes: make(map[solana.Hash]uint64),
	}
	for _, p := range cfg.Programs {
		c.programs[p.ProgramID()] = p
	}
	c.advance()
	return c, nil
}

// Close releases the resources held by the loaded programs.
func (c *Cluster) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.programs {
		if cl, ok := p.(closer); ok {
			cl.Close()
		}
	}
}

// Now is the cluster time: the configured clock plus any warp.
func (c *Cluster) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}

func (c *Cluster) now() time.Time {
	return c.clock.Now().Add(c.warp)
}

// Warp moves cluster time forward by d.
func (c *Cluster) Warp(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warp += d
	c.log.Debug("localnet: warped clock", "by", d, "now", c.now())
}

// advance produces a new slot and blockhash and forgets expired hashes.
func (c *Cluster) advance() {
	c.slot++
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], c.slot)
	c.blockhash = solana.Hash(sha256.Sum256(append(c.blockhash[:], buf[:]...)))
	c.blockhashes[c.blockhash] = c.slot
	for h, slot := range c.blockhashes {
		if c.slot-slot > maxBlockhashAge {
			delete(c.blockhashes, h)
		}
	}
	metrics.Slot.Set(float64(c.slot))
}

func (c *Cluster) Slot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// Airdrop credits lamports to key, creating a system account if needed.
func (c *Cluster) Airdrop(key solana.PublicKey, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accounts.get(key)
	if !ok {
		a = &account{owner: solana.SystemProgramID}
		c.accounts.put(key, a)
	}
	a.lamports += lamports
	c.advance()
}

// Balance returns the lamports held by key.
func (c *Cluster) Balance(key solana.PublicKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.accounts.get(key); ok {
		return a.lamports
	}
	return 0
}

// CreateMint provisions a token mint at key with authority as minting
// authority. Rent is paid by payer.
func (c *Cluster) CreateMint(payer, key, authority solana.PublicKey, decimals uint8) error {
	return c.provision(payer, func(inv *invocation) error {
		inv.signers[key] = true
		inv.writable[key] = true
		return inv.Tokens().InitializeMint(payer, key, decimals, authority, false)
	})
}

// CreateAssociatedTokenAccount opens owner's associated token account for
// mint and returns its address.
func (c *Cluster) CreateAssociatedTokenAccount(payer, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	err = c.provision(payer, func(inv *invocation) error {
		inv.signers[ata] = true
		inv.writable[ata] = true
		return inv.Tokens().InitializeAccount(payer, ata, mint, owner)
	})
	return ata, err
}

// MintTo mints amount of mint into the token account to. The mint authority
// is assumed to have signed.
func (c *Cluster) MintTo(mint, to, authority solana.PublicKey, amount uint64) error {
	return c.provision(authority, func(inv *invocation) error {
		inv.writable[mint] = true
		inv.writable[to] = true
		return inv.Tokens().MintTo(mint, to, authority, amount)
	})
}

// Burn destroys amount tokens held in from. The token account owner is
// assumed to have signed.
func (c *Cluster) Burn(mint, from, owner solana.PublicKey, amount uint64) error {
	return c.provision(owner, func(inv *invocation) error {
		inv.writable[mint] = true
		inv.writable[from] = true
		return inv.Tokens().Burn(mint, from, owner, amount)
	})
}

// TokenBalance returns the amount held by a token account.
func (c *Cluster) TokenBalance(key solana.PublicKey) (uint64, error) {
	var amount uint64
	err := c.view(func(inv *invocation) error {
		ta, err := inv.Tokens().TokenAccount(key)
		if err != nil {
			return err
		}
		amount = ta.Amount
		return nil
	})
	return amount, err
}

// TokenSupply returns the circulating supply of a mint.
func (c *Cluster) TokenSupply(key solana.PublicKey) (uint64, error) {
	var supply uint64
	err := c.view(func(inv *invocation) error {
		m, err := inv.Tokens().Mint(key)
		if err != nil {
			return err
		}
		supply = m.Supply
		return nil
	})
	return supply, err
}

// provision runs fn as the token program on behalf of signer, outside any
// user transaction.
func (c *Cluster) provision(signer solana.PublicKey, fn func(*invocation) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var logs []string
	state := newOverlay(c.accounts)
	inv := newInvocation(state, solana.TokenProgramID, []*solana.AccountMeta{
		{PublicKey: signer, IsSigner: true, IsWritable: true},
	}, c.now().Unix(), &logs)
	if err := fn(inv); err != nil {
		return err
	}
	state.commit()
	c.advance()
	return nil
}

func (c *Cluster) view(fn func(*invocation) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var logs []string
	return fn(newInvocation(newOverlay(c.accounts), solana.TokenProgramID, nil, c.now().Unix(), &logs))
}
