package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/config"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeError
	}
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

// NewRootCmd builds the brick command tree writing results to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "brick",
		Short:         "Operate brick marketplaces, products and settlements.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().StringP("env", "e", config.EnvDevnet, "the network environment (localnet, devnet, testnet, mainnet-beta)")
	rootCmd.PersistentFlags().StringP("keypair", "k", "", "signer keypair file or base58 secret (env: "+config.EnvKeypair+")")
	rootCmd.PersistentFlags().String("local-state", "", "run against a local snapshot file instead of the ledger RPC")

	rootCmd.AddCommand(
		NewMarketplaceCmd().Command(),
		NewProductCmd().Command(),
		NewBuyCmd().Command(),
		NewRefundCmd().Command(),
		NewWithdrawCmd().Command(),
		NewGovernanceCmd().Command(),
		NewBonusCmd().Command(),
		NewRewardCmd().Command(),
		NewAccessCmd().Command(),
		NewLocalCmd().Command(),
		NewPDACmd().Command(),
	)

	return rootCmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
