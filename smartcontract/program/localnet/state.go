package localnet

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

type account struct {
	owner    solana.PublicKey
	lamports uint64
	data     []byte
}

func (a *account) clone() *account {
	return &account{owner: a.owner, lamports: a.lamports, data: bytes.Clone(a.data)}
}

type accountStore interface {
	get(key solana.PublicKey) (*account, bool)
	put(key solana.PublicKey, a *account)
	del(key solana.PublicKey)
}

// bank is the committed account state.
type bank map[solana.PublicKey]*account

func (b bank) get(key solana.PublicKey) (*account, bool) {
	a, ok := b[key]
	return a, ok
}

func (b bank) put(key solana.PublicKey, a *account) {
	b[key] = a
}

func (b bank) del(key solana.PublicKey) {
	delete(b, key)
}

// overlay records writes on top of a parent store until committed. A nil
// entry marks a deleted account.
type overlay struct {
	parent  accountStore
	changes map[solana.PublicKey]*account
}

func newOverlay(parent accountStore) *overlay {
	return &overlay{parent: parent, changes: make(map[solana.PublicKey]*account)}
}

func (o *overlay) get(key solana.PublicKey) (*account, bool) {
	if a, ok := o.changes[key]; ok {
		return a, a != nil
	}
	return o.parent.get(key)
}

// mutable returns a copy of the account owned by this overlay.
func (o *overlay) mutable(key solana.PublicKey) (*account, bool) {
	if a, ok := o.changes[key]; ok {
		return a, a != nil
	}
	a, ok := o.parent.get(key)
	if !ok {
		return nil, false
	}
	a = a.clone()
	o.changes[key] = a
	return a, true
}

func (o *overlay) put(key solana.PublicKey, a *account) {
	o.changes[key] = a
}

func (o *overlay) del(key solana.PublicKey) {
	o.changes[key] = nil
}

func (o *overlay) commit() {
	for key, a := range o.changes {
		if a == nil {
			o.parent.del(key)
			continue
		}
		o.parent.put(key, a)
	}
	clear(o.changes)
}
