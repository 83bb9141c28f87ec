package processor

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrAccountNotFound is returned by a Host when an address holds no account.
	ErrAccountNotFound = errors.New("account not found")
)

// Account is the raw state of an address as seen by the program.
type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Host is the runtime a program executes in. All mutations made through it
// during one transaction are applied together or not at all.
type Host interface {
	ProgramID() solana.PublicKey

	// Now returns the cluster clock in unix seconds.
	Now() int64

	// Log appends a line to the transaction's program log.
	Log(msg string)

	Account(key solana.PublicKey) (*Account, error)

	// CreateAccount allocates space zeroed bytes at key, owned by owner, and
	// funds it rent-exempt from payer. key must be a transaction signer or an
	// address signed for with SignWithSeeds.
	CreateAccount(payer, key solana.PublicKey, space uint64, owner solana.PublicKey) error

	// WriteAccount replaces the data of a writable, program-owned account.
	WriteAccount(key solana.PublicKey, data []byte) error

	// CloseAccount deletes a program-owned account and moves its lamports to
	// destination.
	CloseAccount(key, destination solana.PublicKey) error

	// TransferLamports moves native currency out of a signer.
	TransferLamports(from, to solana.PublicKey, amount uint64) error

	// SignWithSeeds makes the program address for seeds (bump included) a
	// signer for the rest of the instruction.
	SignWithSeeds(seeds ...[]byte) (solana.PublicKey, error)

	Tokens() TokenLedger
}

type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

type Mint struct {
	Authority       solana.PublicKey
	Supply          uint64
	Decimals        uint8
	NonTransferable bool
}

// TokenLedger is the fungible token capability. Authorities must be signers
// of the current instruction.
type TokenLedger interface {
	InitializeMint(payer, mint solana.PublicKey, decimals uint8, authority solana.PublicKey, nonTransferable bool) error
	InitializeAccount(payer, account, mint, owner solana.PublicKey) error
	Transfer(from, to, authority solana.PublicKey, amount uint64) error
	MintTo(mint, to, authority solana.PublicKey, amount uint64) error
	Burn(mint, from, authority solana.PublicKey, amount uint64) error
	CloseAccount(account, destination, authority solana.PublicKey) error
	TokenAccount(key solana.PublicKey) (*TokenAccount, error)
	Mint(key solana.PublicKey) (*Mint, error)
}
