package brick

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto"
	"github.com/gagliardetto/solana-go"
)

type derivation struct {
	addr solana.PublicKey
	bump uint8
}

// Deriver memoizes program address derivations for a single program.
type Deriver struct {
	programID solana.PublicKey
	cache     *ristretto.Cache
}

func NewDeriver(programID solana.PublicKey) (*Deriver, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create derivation cache: %w", err)
	}
	return &Deriver{programID: programID, cache: cache}, nil
}

func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

func (d *Deriver) Derive(seeds ...[]byte) (solana.PublicKey, uint8, error) {
	key := cacheKey(seeds)
	if val, ok := d.cache.Get(key); ok {
		r := val.(derivation)
		return r.addr, r.bump, nil
	}

	addr, bump, err := Derive(d.programID, seeds...)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	d.cache.Set(key, derivation{addr: addr, bump: bump}, 1)
	return addr, bump, nil
}

// Verify checks claimed against the canonical derivation of seeds and fails
// with ErrIncorrectSeeds on mismatch.
func (d *Deriver) Verify(claimed solana.PublicKey, seeds ...[]byte) (uint8, error) {
	addr, bump, err := d.Derive(seeds...)
	if err != nil {
		return 0, err
	}
	if !addr.Equals(claimed) {
		return 0, ErrIncorrectSeeds
	}
	return bump, nil
}

// Close stops the cache. Derivations still work afterwards, uncached.
func (d *Deriver) Close() {
	d.cache.Close()
}

func cacheKey(seeds [][]byte) string {
	var b strings.Builder
	for _, s := range seeds {
		b.WriteByte(byte(len(s)))
		b.Write(s)
	}
	return b.String()
}
