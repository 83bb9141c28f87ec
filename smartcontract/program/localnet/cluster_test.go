package localnet_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/smartcontract/program/localnet"
	"github.com/malbeclabs/brick/smartcontract/program/processor"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func newCluster(t *testing.T, programs ...localnet.Program) *localnet.Cluster {
	t.Helper()
	c, err := localnet.New(localnet.Config{
		Logger:   log,
		Clock:    clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0)),
		Programs: programs,
	})
	require.NoError(t, err)
	return c
}

func TestLocalnet_Config_RequiresLogger(t *testing.T) {
	t.Parallel()

	_, err := localnet.New(localnet.Config{})
	require.ErrorIs(t, err, localnet.ErrLoggerRequired)
}

func TestLocalnet_RentExempt(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(890_880), localnet.RentExempt(0))
	require.Equal(t, uint64(2_039_280), localnet.RentExempt(localnet.TokenAccountSize))
}

func TestLocalnet_Airdrop(t *testing.T) {
	t.Parallel()

	c := newCluster(t)
	key := solana.NewWallet().PublicKey()
	require.Zero(t, c.Balance(key))

	slot := c.Slot()
	c.Airdrop(key, 5)
	c.Airdrop(key, 7)
	require.Equal(t, uint64(12), c.Balance(key))
	require.Greater(t, c.Slot(), slot)

	info, err := c.GetAccountInfo(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, solana.SystemProgramID, info.Value.Owner)
}

func TestLocalnet_GetAccountInfo_NotFound(t *testing.T) {
	t.Parallel()

	c := newCluster(t)
	_, err := c.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, solanarpc.ErrNotFound)
}

func TestLocalnet_Tokens(t *testing.T) {
	t.Parallel()

	c := newCluster(t)
	payer := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	c.Airdrop(payer, localnet.LamportsPerSOL)

	require.NoError(t, c.CreateMint(payer, mint, authority, 6))
	ata, err := c.CreateAssociatedTokenAccount(payer, owner, mint)
	require.NoError(t, err)
	expected, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	require.Equal(t, expected, ata)

	require.NoError(t, c.MintTo(mint, ata, authority, 1_000))
	balance, err := c.TokenBalance(ata)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), balance)
	supply, err := c.TokenSupply(mint)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), supply)

	require.Equal(t, localnet.LamportsPerSOL-localnet.RentExempt(localnet.MintSize)-localnet.RentExempt(localnet.TokenAccountSize), c.Balance(payer))

	t.Run("wrong mint authority", func(t *testing.T) {
		err := c.MintTo(mint, ata, solana.NewWallet().PublicKey(), 1)
		require.ErrorIs(t, err, localnet.ErrMintAuthorityInvalid)
	})

	t.Run("account already exists", func(t *testing.T) {
		_, err := c.CreateAssociatedTokenAccount(payer, owner, mint)
		require.ErrorIs(t, err, localnet.ErrAccountInUse)
	})

	t.Run("burn", func(t *testing.T) {
		require.NoError(t, c.Burn(mint, ata, owner, 400))
		balance, err := c.TokenBalance(ata)
		require.NoError(t, err)
		require.Equal(t, uint64(600), balance)
		supply, err := c.TokenSupply(mint)
		require.NoError(t, err)
		require.Equal(t, uint64(600), supply)

		require.ErrorIs(t, c.Burn(mint, ata, owner, 601), localnet.ErrInsufficientTokens)
		require.ErrorIs(t, c.Burn(mint, ata, authority, 1), localnet.ErrOwnerMismatch)
	})

	t.Run("not a token account", func(t *testing.T) {
		_, err := c.TokenBalance(payer)
		require.ErrorIs(t, err, localnet.ErrNotTokenAccount)
	})
}

func TestLocalnet_SendTransaction_CommitsOnSuccess(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	seed := []byte("counter")
	pda, bump, err := solana.FindProgramAddress([][]byte{seed}, programID)
	require.NoError(t, err)

	program := &scriptProgram{id: programID, fn: func(h processor.Host, accounts []*solana.AccountMeta, data []byte) error {
		if _, err := h.SignWithSeeds(seed, []byte{bump}); err != nil {
			return err
		}
		if err := h.CreateAccount(accounts[0].PublicKey, pda, 8, h.ProgramID()); err != nil {
			return err
		}
		h.Log("created")
		return h.WriteAccount(pda, data)
	}}
	c := newCluster(t, program)
	payer := solana.NewWallet().PrivateKey
	c.Airdrop(payer.PublicKey(), localnet.LamportsPerSOL)

	sig, err := send(t, c, payer, false, &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
			{PublicKey: pda, IsWritable: true},
		},
		DataBytes: []byte{1, 2, 3, 4, 5, 6, 7, 8},
	})
	require.NoError(t, err)

	info, err := c.GetAccountInfo(context.Background(), pda)
	require.NoError(t, err)
	require.Equal(t, programID, info.Value.Owner)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, info.Value.Data.GetBinary())
	require.Equal(t, localnet.RentExempt(8), info.Value.Lamports)
	require.Equal(t, localnet.LamportsPerSOL-localnet.RentExempt(8)-localnet.LamportsPerSignature, c.Balance(payer.PublicKey()))

	tx, err := c.GetTransaction(context.Background(), sig, nil)
	require.NoError(t, err)
	require.Nil(t, tx.Meta.Err)
	require.Contains(t, tx.Meta.LogMessages, "Program log: created")

	statuses, err := c.GetSignatureStatuses(context.Background(), true, sig)
	require.NoError(t, err)
	require.Equal(t, solanarpc.ConfirmationStatusFinalized, statuses.Value[0].ConfirmationStatus)
}

func TestLocalnet_SendTransaction_RollsBackOnFailure(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	seed := []byte("doomed")
	pda, bump, err := solana.FindProgramAddress([][]byte{seed}, programID)
	require.NoError(t, err)

	program := &scriptProgram{id: programID, fn: func(h processor.Host, accounts []*solana.AccountMeta, _ []byte) error {
		if _, err := h.SignWithSeeds(seed, []byte{bump}); err != nil {
			return err
		}
		if err := h.CreateAccount(accounts[0].PublicKey, pda, 8, h.ProgramID()); err != nil {
			return err
		}
		return brick.ErrNotEnoughExemplars
	}}
	c := newCluster(t, program)
	payer := solana.NewWallet().PrivateKey
	c.Airdrop(payer.PublicKey(), localnet.LamportsPerSOL)

	ix := &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
			{PublicKey: pda, IsWritable: true},
		},
	}

	t.Run("preflight", func(t *testing.T) {
		_, err := send(t, c, payer, false, ix)
		require.Error(t, err)
		var rpcErr *jsonrpc.RPCError
		require.True(t, errors.As(err, &rpcErr))
		code, ok := brick.ProgramError(err)
		require.True(t, ok)
		require.Equal(t, brick.ErrNotEnoughExemplars, code)
		require.Equal(t, uint64(localnet.LamportsPerSOL), c.Balance(payer.PublicKey()))
	})

	t.Run("skip preflight", func(t *testing.T) {
		sig, err := send(t, c, payer, true, ix)
		require.NoError(t, err)

		_, err = c.GetAccountInfo(context.Background(), pda)
		require.ErrorIs(t, err, solanarpc.ErrNotFound)
		require.Equal(t, uint64(localnet.LamportsPerSOL-localnet.LamportsPerSignature), c.Balance(payer.PublicKey()))

		tx, err := c.GetTransaction(context.Background(), sig, nil)
		require.NoError(t, err)
		code, ok := brick.ProgramError(tx.Meta.Err)
		require.True(t, ok)
		require.Equal(t, brick.ErrNotEnoughExemplars, code)
	})
}

func TestLocalnet_SendTransaction_Rejections(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	program := &scriptProgram{id: programID, fn: func(processor.Host, []*solana.AccountMeta, []byte) error { return nil }}
	c := newCluster(t, program)
	payer := solana.NewWallet().PrivateKey
	ix := &solana.GenericInstruction{
		ProgID:        programID,
		AccountValues: []*solana.AccountMeta{{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true}},
	}

	_, err := send(t, c, payer, false, ix)
	require.ErrorIs(t, err, localnet.ErrInsufficientFundsForFee)

	c.Airdrop(payer.PublicKey(), localnet.LamportsPerSOL)
	ctx := context.Background()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{9}, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(solana.PublicKey) *solana.PrivateKey { return &payer })
	require.NoError(t, err)
	_, err = c.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{})
	require.ErrorIs(t, err, localnet.ErrBlockhashNotFound)

	bh, err := c.GetLatestBlockhash(ctx, solanarpc.CommitmentFinalized)
	require.NoError(t, err)
	tx, err = solana.NewTransaction([]solana.Instruction{ix}, bh.Value.Blockhash, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(solana.PublicKey) *solana.PrivateKey { return &payer })
	require.NoError(t, err)
	_, err = c.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{})
	require.NoError(t, err)
	_, err = c.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{})
	require.ErrorIs(t, err, localnet.ErrAlreadyProcessed)

	unknown := &solana.GenericInstruction{
		ProgID:        solana.NewWallet().PublicKey(),
		AccountValues: []*solana.AccountMeta{{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true}},
	}
	_, err = send(t, c, payer, false, unknown)
	require.ErrorContains(t, err, "program not found")
}

func TestLocalnet_GetProgramAccounts_Filters(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	type entry struct {
		seed string
		data []byte
	}
	entries := []entry{
		{"a", []byte{1, 1, 1, 1}},
		{"b", []byte{1, 2, 2, 2}},
		{"c", []byte{2, 2, 2}},
	}
	program := &scriptProgram{id: programID, fn: func(h processor.Host, accounts []*solana.AccountMeta, _ []byte) error {
		for i, e := range entries {
			pda, bump, err := solana.FindProgramAddress([][]byte{[]byte(e.seed)}, programID)
			if err != nil {
				return err
			}
			if _, err := h.SignWithSeeds([]byte(e.seed), []byte{bump}); err != nil {
				return err
			}
			if err := h.CreateAccount(accounts[0].PublicKey, pda, uint64(len(e.data)), h.ProgramID()); err != nil {
				return err
			}
			if err := h.WriteAccount(pda, entries[i].data); err != nil {
				return err
			}
		}
		return nil
	}}
	c := newCluster(t, program)
	payer := solana.NewWallet().PrivateKey
	c.Airdrop(payer.PublicKey(), localnet.LamportsPerSOL)

	metas := []*solana.AccountMeta{{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true}}
	for _, e := range entries {
		pda, _, err := solana.FindProgramAddress([][]byte{[]byte(e.seed)}, programID)
		require.NoError(t, err)
		metas = append(metas, &solana.AccountMeta{PublicKey: pda, IsWritable: true})
	}
	_, err := send(t, c, payer, false, &solana.GenericInstruction{ProgID: programID, AccountValues: metas})
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters []solanarpc.RPCFilter
		want    int
	}{
		{name: "no filters", want: 3},
		{name: "data size", filters: []solanarpc.RPCFilter{{DataSize: 4}}, want: 2},
		{name: "memcmp prefix", filters: []solanarpc.RPCFilter{{Memcmp: &solanarpc.RPCFilterMemcmp{Offset: 0, Bytes: solana.Base58([]byte{1})}}}, want: 2},
		{name: "memcmp offset", filters: []solanarpc.RPCFilter{{Memcmp: &solanarpc.RPCFilterMemcmp{Offset: 1, Bytes: solana.Base58([]byte{2, 2})}}}, want: 2},
		{name: "memcmp past end", filters: []solanarpc.RPCFilter{{Memcmp: &solanarpc.RPCFilterMemcmp{Offset: 3, Bytes: solana.Base58([]byte{2, 2})}}}, want: 0},
		{name: "combined", filters: []solanarpc.RPCFilter{{DataSize: 4}, {Memcmp: &solanarpc.RPCFilterMemcmp{Offset: 1, Bytes: solana.Base58([]byte{2})}}}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.GetProgramAccountsWithOpts(context.Background(), programID, &solanarpc.GetProgramAccountsOpts{Filters: tt.filters})
			require.NoError(t, err)
			require.Len(t, got, tt.want)
		})
	}
}

func TestLocalnet_Snapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newCluster(t)
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	c.Airdrop(payer, localnet.LamportsPerSOL)
	require.NoError(t, c.CreateMint(payer, mint, payer, 0))
	ata, err := c.CreateAssociatedTokenAccount(payer, payer, mint)
	require.NoError(t, err)
	require.NoError(t, c.MintTo(mint, ata, payer, 42))
	c.Warp(time.Hour)

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := newCluster(t)
	require.NoError(t, restored.Load(&buf))
	require.Equal(t, c.Balance(payer), restored.Balance(payer))
	balance, err := restored.TokenBalance(ata)
	require.NoError(t, err)
	require.Equal(t, uint64(42), balance)
	require.Equal(t, c.Now(), restored.Now())
	require.Greater(t, restored.Slot(), c.Slot())

	require.ErrorIs(t, restored.Load(bytes.NewReader([]byte("not a snapshot"))), localnet.ErrInvalidSnapshot)
}

func TestLocalnet_SnapshotFile_MissingIsEmpty(t *testing.T) {
	t.Parallel()

	c := newCluster(t)
	path := t.TempDir() + "/state.zst"
	require.NoError(t, c.LoadFile(path))

	key := solana.NewWallet().PublicKey()
	c.Airdrop(key, 10)
	require.NoError(t, c.SaveFile(path))

	restored := newCluster(t)
	require.NoError(t, restored.LoadFile(path))
	require.Equal(t, uint64(10), restored.Balance(key))
}

func TestLocalnet_Close(t *testing.T) {
	t.Parallel()

	program := &scriptProgram{id: solana.NewWallet().PublicKey(), fn: func(processor.Host, []*solana.AccountMeta, []byte) error { return nil }}
	c := newCluster(t, program)
	require.False(t, program.closed)
	c.Close()
	require.True(t, program.closed)
}

func TestLocalnet_Clock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	var seen int64
	programID := solana.NewWallet().PublicKey()
	program := &scriptProgram{id: programID, fn: func(h processor.Host, _ []*solana.AccountMeta, _ []byte) error {
		seen = h.Now()
		return nil
	}}
	c, err := localnet.New(localnet.Config{Logger: log, Clock: clock, Programs: []localnet.Program{program}})
	require.NoError(t, err)
	payer := solana.NewWallet().PrivateKey
	c.Airdrop(payer.PublicKey(), localnet.LamportsPerSOL)
	ix := &solana.GenericInstruction{
		ProgID:        programID,
		AccountValues: []*solana.AccountMeta{{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true}},
	}

	_, err = send(t, c, payer, false, ix)
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_000), seen)

	clock.Advance(10 * time.Second)
	c.Warp(time.Minute)
	_, err = send(t, c, payer, false, ix)
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_070), seen)
}
