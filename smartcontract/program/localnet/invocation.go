package localnet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/brick/smartcontract/program/processor"
)

var (
	ErrAccountInUse               = errors.New("account already in use")
	ErrReadonlyAccount            = errors.New("instruction modified a readonly account")
	ErrMissingRequiredSignature   = errors.New("missing required signature for instruction")
	ErrExternalAccountModified    = errors.New("instruction modified data of an account it does not own")
	ErrAccountDataSizeChanged     = errors.New("instruction changed the size of account data")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInvalidSeeds               = errors.New("provided seeds do not result in a valid address")
	ErrLamportOverflow            = errors.New("lamport balance overflow")
	ErrTransferFromNonSystemOwned = errors.New("from account must be owned by the system program")
)

// invocation is the Host handed to a program for one instruction.
type invocation struct {
	state     *overlay
	programID solana.PublicKey
	signers   map[solana.PublicKey]bool
	writable  map[solana.PublicKey]bool
	now       int64
	logs      *[]string
}

func newInvocation(state *overlay, programID solana.PublicKey, metas []*solana.AccountMeta, now int64, logs *[]string) *invocation {
	inv := &invocation{
		state:     state,
		programID: programID,
		signers:   make(map[solana.PublicKey]bool),
		writable:  make(map[solana.PublicKey]bool),
		now:       now,
		logs:      logs,
	}
	for _, m := range metas {
		if m.IsSigner {
			inv.signers[m.PublicKey] = true
		}
		if m.IsWritable {
			inv.writable[m.PublicKey] = true
		}
	}
	return inv
}

func (inv *invocation) ProgramID() solana.PublicKey {
	return inv.programID
}

func (inv *invocation) Now() int64 {
	return inv.now
}

func (inv *invocation) Log(msg string) {
	*inv.logs = append(*inv.logs, "Program log: "+msg)
}

func (inv *invocation) Account(key solana.PublicKey) (*processor.Account, error) {
	a, ok := inv.state.get(key)
	if !ok {
		return nil, processor.ErrAccountNotFound
	}
	return &processor.Account{Owner: a.owner, Lamports: a.lamports, Data: bytes.Clone(a.data)}, nil
}

func (inv *invocation) CreateAccount(payer, key solana.PublicKey, space uint64, owner solana.PublicKey) error {
	return inv.allocate(payer, key, space, owner)
}

// allocate funds a new rent-exempt account of space bytes from payer.
func (inv *invocation) allocate(payer, key solana.PublicKey, space uint64, owner solana.PublicKey) error {
	if !inv.signers[payer] || !inv.signers[key] {
		return ErrMissingRequiredSignature
	}
	if !inv.writable[payer] || !inv.writable[key] {
		return ErrReadonlyAccount
	}
	if existing, ok := inv.state.get(key); ok && (existing.lamports > 0 || len(existing.data) > 0) {
		return fmt.Errorf("%s: %w", key, ErrAccountInUse)
	}
	if err := inv.debit(payer, RentExempt(space)); err != nil {
		return err
	}
	inv.state.put(key, &account{owner: owner, lamports: RentExempt(space), data: make([]byte, space)})
	return nil
}

func (inv *invocation) WriteAccount(key solana.PublicKey, data []byte) error {
	return inv.writeOwned(key, inv.programID, data)
}

func (inv *invocation) writeOwned(key, owner solana.PublicKey, data []byte) error {
	if !inv.writable[key] {
		return fmt.Errorf("%s: %w", key, ErrReadonlyAccount)
	}
	a, ok := inv.state.mutable(key)
	if !ok {
		return processor.ErrAccountNotFound
	}
	if !a.owner.Equals(owner) {
		return ErrExternalAccountModified
	}
	if len(a.data) != len(data) {
		return ErrAccountDataSizeChanged
	}
	copy(a.data, data)
	return nil
}

func (inv *invocation) CloseAccount(key, destination solana.PublicKey) error {
	return inv.closeOwned(key, inv.programID, destination)
}

func (inv *invocation) closeOwned(key, owner, destination solana.PublicKey) error {
	if !inv.writable[key] || !inv.writable[destination] {
		return ErrReadonlyAccount
	}
	a, ok := inv.state.get(key)
	if !ok {
		return processor.ErrAccountNotFound
	}
	if !a.owner.Equals(owner) {
		return ErrExternalAccountModified
	}
	if err := inv.credit(destination, a.lamports); err != nil {
		return err
	}
	inv.state.del(key)
	return nil
}

func (inv *invocation) TransferLamports(from, to solana.PublicKey, amount uint64) error {
	if !inv.signers[from] {
		return ErrMissingRequiredSignature
	}
	if !inv.writable[from] || !inv.writable[to] {
		return ErrReadonlyAccount
	}
	if a, ok := inv.state.get(from); ok && !a.owner.Equals(solana.SystemProgramID) {
		return ErrTransferFromNonSystemOwned
	}
	if err := inv.debit(from, amount); err != nil {
		return err
	}
	return inv.credit(to, amount)
}

func (inv *invocation) SignWithSeeds(seeds ...[]byte) (solana.PublicKey, error) {
	addr, err := solana.CreateProgramAddress(seeds, inv.programID)
	if err != nil {
		return solana.PublicKey{}, ErrInvalidSeeds
	}
	inv.signers[addr] = true
	return addr, nil
}

func (inv *invocation) Tokens() processor.TokenLedger {
	return &tokenLedger{inv: inv}
}

func (inv *invocation) debit(key solana.PublicKey, amount uint64) error {
	a, ok := inv.state.mutable(key)
	if !ok || a.lamports < amount {
		return fmt.Errorf("%s: %w", key, ErrInsufficientFunds)
	}
	a.lamports -= amount
	return nil
}

func (inv *invocation) credit(key solana.PublicKey, amount uint64) error {
	a, ok := inv.state.mutable(key)
	if !ok {
		inv.state.put(key, &account{owner: solana.SystemProgramID, lamports: amount})
		return nil
	}
	if a.lamports+amount < a.lamports {
		return ErrLamportOverflow
	}
	a.lamports += amount
	return nil
}
