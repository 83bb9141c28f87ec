package localnet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/klauspost/compress/zstd"
)

const snapshotMagic = "BRKSNAP1"

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Save writes the committed accounts and clock state as a zstd-compressed
// snapshot. Transaction history is not kept.
func (c *Cluster) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	keys := make([]solana.PublicKey, 0, len(c.accounts))
	for key := range c.accounts {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b solana.PublicKey) int { return bytes.Compare(a[:], b[:]) })

	if err := enc.WriteBytes([]byte(snapshotMagic), false); err != nil {
		return err
	}
	if err := enc.WriteUint64(c.slot, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint64(uint64(c.warp), bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(keys)), bin.LE); err != nil {
		return err
	}
	for _, key := range keys {
		a := c.accounts[key]
		if err := enc.WriteBytes(key[:], false); err != nil {
			return err
		}
		if err := enc.WriteBytes(a.owner[:], false); err != nil {
			return err
		}
		if err := enc.WriteUint64(a.lamports, bin.LE); err != nil {
			return err
		}
		if err := enc.WriteUint32(uint32(len(a.data)), bin.LE); err != nil {
			return err
		}
		if err := enc.WriteBytes(a.data, false); err != nil {
			return err
		}
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := zw.Write(buf.Bytes()); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return zw.Close()
}

// Load replaces the cluster state with a snapshot written by Save.
func (c *Cluster) Load(r io.Reader) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	dec := bin.NewBinDecoder(raw)
	magic, err := dec.ReadBytes(len(snapshotMagic))
	if err != nil || string(magic) != snapshotMagic {
		return ErrInvalidSnapshot
	}
	slot, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	warp, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	count, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	accounts := make(bank, count)
	for range count {
		key, err := dec.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		owner, err := dec.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		lamports, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		size, err := dec.ReadUint32(bin.LE)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		data, err := dec.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		accounts[solana.PublicKeyFromBytes(key)] = &account{
			owner:    solana.PublicKeyFromBytes(owner),
			lamports: lamports,
			data:     bytes.Clone(data),
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = accounts
	c.txs = make(map[solana.Signature]*txRecord)
	c.blockhashes = make(map[solana.Hash]uint64)
	c.slot = slot
	c.warp = time.Duration(warp)
	c.advance()
	return nil
}

func (c *Cluster) SaveFile(path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(f.Name())
	if err := c.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// LoadFile loads a snapshot from path. A missing file leaves the cluster
// empty and is not an error.
func (c *Cluster) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
