package localnet

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/malbeclabs/brick/smartcontract/program/localnet/internal/metrics"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

// Preflight failure code used by the RPC for failed simulations.
const rpcErrSimulationFailed = -32002

var _ brick.RPCClient = (*Cluster)(nil)

type execution struct {
	fee   *overlay
	state *overlay
	logs  []string
	err   error
	txErr any
}

func (c *Cluster) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig, err := c.sanitize(tx)
	if err != nil {
		metrics.Transactions.WithLabelValues(metrics.ResultRejected).Inc()
		return solana.Signature{}, err
	}

	exec := c.execute(tx)
	if exec.err != nil && !opts.SkipPreflight {
		metrics.Transactions.WithLabelValues(metrics.ResultSimulationFailed).Inc()
		c.log.Debug("localnet: simulation failed", "sig", sig, "error", exec.err)
		return solana.Signature{}, &jsonrpc.RPCError{
			Code:    rpcErrSimulationFailed,
			Message: fmt.Sprintf("Transaction simulation failed: %v", exec.err),
			Data: map[string]any{
				"err":  exec.txErr,
				"logs": exec.logs,
			},
		}
	}

	fee := uint64(len(tx.Signatures)) * LamportsPerSignature
	if exec.err == nil {
		exec.state.commit()
		metrics.Transactions.WithLabelValues(metrics.ResultCommitted).Inc()
	} else {
		metrics.Transactions.WithLabelValues(metrics.ResultFailed).Inc()
	}
	exec.fee.commit()
	metrics.FeeLamports.Add(float64(fee))

	c.txs[sig] = &txRecord{
		slot: c.slot,
		meta: &solanarpc.TransactionMeta{
			Err:         exec.txErr,
			Fee:         fee,
			LogMessages: exec.logs,
		},
	}
	c.advance()
	c.log.Debug("localnet: transaction processed", "sig", sig, "slot", c.slot, "error", exec.err)
	return sig, nil
}

// sanitize performs the checks that reject a transaction before it runs.
func (c *Cluster) sanitize(tx *solana.Transaction) (solana.Signature, error) {
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, ErrTransactionNotSigned
	}
	if int(tx.Message.Header.NumRequiredSignatures) != len(tx.Signatures) {
		return solana.Signature{}, ErrTransactionNotSigned
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("signature verification failed: %w", err)
	}
	sig := tx.Signatures[0]
	if _, ok := c.txs[sig]; ok {
		return solana.Signature{}, ErrAlreadyProcessed
	}
	if _, ok := c.blockhashes[tx.Message.RecentBlockhash]; !ok {
		return solana.Signature{}, ErrBlockhashNotFound
	}
	payer := tx.Message.AccountKeys[0]
	fee := uint64(len(tx.Signatures)) * LamportsPerSignature
	if a, ok := c.accounts.get(payer); !ok || a.lamports < fee {
		return solana.Signature{}, ErrInsufficientFundsForFee
	}
	return sig, nil
}

// execute runs every instruction against an overlay. The fee overlay holds
// only the fee debit so it can be committed even when execution fails.
func (c *Cluster) execute(tx *solana.Transaction) *execution {
	msg := tx.Message
	keys := msg.AccountKeys
	exec := &execution{fee: newOverlay(c.accounts)}

	payer, _ := exec.fee.mutable(keys[0])
	payer.lamports -= uint64(len(tx.Signatures)) * LamportsPerSignature
	exec.state = newOverlay(exec.fee)

	numSigners := int(msg.Header.NumRequiredSignatures)
	writableSigners := numSigners - int(msg.Header.NumReadonlySignedAccounts)
	writableUnsigned := len(keys) - int(msg.Header.NumReadonlyUnsignedAccounts)
	isWritable := func(i int) bool {
		if i < numSigners {
			return i < writableSigners
		}
		return i < writableUnsigned
	}

	now := c.now().Unix()
	for idx, inst := range msg.Instructions {
		programID := keys[inst.ProgramIDIndex]
		exec.logs = append(exec.logs, fmt.Sprintf("Program %s invoke [1]", programID))

		metas := make([]*solana.AccountMeta, 0, len(inst.Accounts))
		for _, ai := range inst.Accounts {
			i := int(ai)
			metas = append(metas, &solana.AccountMeta{
				PublicKey:  keys[i],
				IsSigner:   i < numSigners,
				IsWritable: isWritable(i),
			})
		}

		err := c.invoke(exec, programID, metas, inst.Data, now)
		if err != nil {
			exec.logs = append(exec.logs, fmt.Sprintf("Program %s failed: %v", programID, err))
			exec.err = err
			exec.txErr = brick.InstructionError(idx, err)
			return exec
		}
		exec.logs = append(exec.logs, fmt.Sprintf("Program %s success", programID))
	}
	return exec
}

func (c *Cluster) invoke(exec *execution, programID solana.PublicKey, metas []*solana.AccountMeta, data []byte, now int64) error {
	program, ok := c.programs[programID]
	if !ok {
		return fmt.Errorf("%s: %w", programID, ErrProgramNotFound)
	}
	name := "unknown"
	if n, ok := program.(instructionNamer); ok {
		name = n.InstructionName(data)
	}

	inv := newInvocation(exec.state, programID, metas, now, &exec.logs)
	err := program.Process(inv, metas, data)

	label := "ok"
	if err != nil {
		label = err.Error()
		if code, ok := brick.ProgramError(err); ok {
			label = code.Name()
		}
	}
	metrics.Instructions.WithLabelValues(name, label).Inc()
	return err
}

func (c *Cluster) GetLatestBlockhash(_ context.Context, _ solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &solanarpc.GetLatestBlockhashResult{
		Value: &solanarpc.LatestBlockhashResult{
			Blockhash:            c.blockhash,
			LastValidBlockHeight: c.slot + maxBlockhashAge,
		},
	}, nil
}

// GetSignatureStatuses reports every processed transaction as finalized.
func (c *Cluster) GetSignatureStatuses(_ context.Context, _ bool, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := &solanarpc.GetSignatureStatusesResult{
		Value: make([]*solanarpc.SignatureStatusesResult, len(sigs)),
	}
	for i, sig := range sigs {
		rec, ok := c.txs[sig]
		if !ok {
			continue
		}
		out.Value[i] = &solanarpc.SignatureStatusesResult{
			Slot:               rec.slot,
			Err:                rec.meta.Err,
			ConfirmationStatus: solanarpc.ConfirmationStatusFinalized,
		}
	}
	return out, nil
}

func (c *Cluster) GetTransaction(_ context.Context, sig solana.Signature, _ *solanarpc.GetTransactionOpts) (*solanarpc.GetTransactionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.txs[sig]
	if !ok {
		return nil, solanarpc.ErrNotFound
	}
	return &solanarpc.GetTransactionResult{
		Slot: rec.slot,
		Meta: rec.meta,
	}, nil
}

func (c *Cluster) GetAccountInfo(_ context.Context, key solana.PublicKey) (*solanarpc.GetAccountInfoResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accounts.get(key)
	if !ok {
		return nil, solanarpc.ErrNotFound
	}
	return &solanarpc.GetAccountInfoResult{Value: rpcAccount(a)}, nil
}

func (c *Cluster) GetProgramAccountsWithOpts(_ context.Context, programID solana.PublicKey, opts *solanarpc.GetProgramAccountsOpts) (solanarpc.GetProgramAccountsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var filters []solanarpc.RPCFilter
	if opts != nil {
		filters = opts.Filters
	}
	out := solanarpc.GetProgramAccountsResult{}
	for key, a := range c.accounts {
		if !a.owner.Equals(programID) || !matchesFilters(a.data, filters) {
			continue
		}
		out = append(out, &solanarpc.KeyedAccount{Pubkey: key, Account: rpcAccount(a)})
	}
	slices.SortFunc(out, func(a, b *solanarpc.KeyedAccount) int {
		return bytes.Compare(a.Pubkey[:], b.Pubkey[:])
	})
	return out, nil
}

func matchesFilters(data []byte, filters []solanarpc.RPCFilter) bool {
	for _, f := range filters {
		if f.DataSize != 0 && uint64(len(data)) != f.DataSize {
			return false
		}
		if f.Memcmp != nil {
			offset, want := f.Memcmp.Offset, []byte(f.Memcmp.Bytes)
			if offset+uint64(len(want)) > uint64(len(data)) {
				return false
			}
			if !bytes.Equal(data[offset:offset+uint64(len(want))], want) {
				return false
			}
		}
	}
	return true
}

func rpcAccount(a *account) *solanarpc.Account {
	return &solanarpc.Account{
		Lamports: a.lamports,
		Owner:    a.owner,
		Data:     solanarpc.DataBytesOrJSONFromBytes(append([]byte(nil), a.data...)),
	}
}
