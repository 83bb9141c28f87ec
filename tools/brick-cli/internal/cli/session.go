package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/config"
	"github.com/malbeclabs/brick/smartcontract/program/localnet"
	"github.com/malbeclabs/brick/smartcontract/program/processor"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/ledgerrpc"
)

var (
	ErrLocalStateRequired = errors.New("command requires --local-state")
)

// session carries what every command needs: the program, an RPC surface, the
// optional signer and, with --local-state, the in-process cluster.
type session struct {
	ctx       context.Context
	log       *slog.Logger
	out       io.Writer
	programID solana.PublicKey
	rpc       brick.RPCClient
	signer    *solana.PrivateKey

	cluster   *localnet.Cluster
	statePath string
}

func (s *session) client() *brick.Client {
	return brick.New(s.log, s.rpc, s.signer, s.programID)
}

func (s *session) signerKey() (solana.PublicKey, error) {
	if s.signer == nil {
		return solana.PublicKey{}, config.ErrKeypairRequired
	}
	return s.signer.PublicKey(), nil
}

func (s *session) requireLocal() (*localnet.Cluster, error) {
	if s.cluster == nil {
		return nil, ErrLocalStateRequired
	}
	return s.cluster, nil
}

// now is the ledger time used to stamp escrow purchases.
func (s *session) now() time.Time {
	if s.cluster != nil {
		return s.cluster.Now()
	}
	return time.Now()
}

func withSession(f func(s *session, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		flags := cmd.Root().PersistentFlags()
		verbose, err := flags.GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		env, err := flags.GetString("env")
		if err != nil {
			return fmt.Errorf("failed to get env flag: %w", err)
		}
		keypair, err := flags.GetString("keypair")
		if err != nil {
			return fmt.Errorf("failed to get keypair flag: %w", err)
		}
		statePath, err := flags.GetString("local-state")
		if err != nil {
			return fmt.Errorf("failed to get local-state flag: %w", err)
		}

		networkConfig, err := config.NetworkConfigForEnv(env)
		if err != nil {
			return err
		}

		s := &session{
			ctx:       ctx,
			log:       newLogger(verbose),
			out:       cmd.OutOrStdout(),
			programID: networkConfig.ProgramID,
			statePath: statePath,
		}

		key, err := config.LoadKeypair(keypair)
		switch {
		case err == nil:
			s.signer = &key
		case errors.Is(err, config.ErrKeypairRequired):
		default:
			return err
		}

		if statePath == "" {
			s.rpc = ledgerrpc.New(networkConfig.LedgerRPCURL, nil)
			return f(s, cmd, args)
		}

		proc, err := processor.New(s.programID, processor.Config{})
		if err != nil {
			return fmt.Errorf("failed to create processor: %w", err)
		}
		cluster, err := localnet.New(localnet.Config{
			Logger:   s.log,
			Programs: []localnet.Program{proc},
		})
		if err != nil {
			proc.Close()
			return fmt.Errorf("failed to create local cluster: %w", err)
		}
		defer cluster.Close()
		if err := cluster.LoadFile(statePath); err != nil {
			return err
		}
		s.cluster = cluster
		s.rpc = cluster

		if err := f(s, cmd, args); err != nil {
			return err
		}
		s.log.Debug("Saving local state", "path", statePath, "slot", cluster.Slot())
		return cluster.SaveFile(statePath)
	}
}
