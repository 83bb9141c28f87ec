package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/smartcontract/program/localnet"
)

const defaultLocalAirdropSOL = 100

type LocalCmd struct{}

func NewLocalCmd() *LocalCmd {
	return &LocalCmd{}
}

func (c *LocalCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Manage the local state used with --local-state",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty local state, funding the signer when one is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Root().PersistentFlags().GetString("local-state")
			if err != nil {
				return fmt.Errorf("failed to get local-state flag: %w", err)
			}
			if path == "" {
				return ErrLocalStateRequired
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to replace it", path)
			}
			if force {
				if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to remove %s: %w", path, err)
				}
			}
			return withSession(func(s *session, cmd *cobra.Command, args []string) error {
				if s.signer != nil {
					s.cluster.Airdrop(s.signer.PublicKey(), defaultLocalAirdropSOL*localnet.LamportsPerSOL)
					fmt.Fprintf(s.out, "Funded %s with %d SOL\n", s.signer.PublicKey(), defaultLocalAirdropSOL)
				}
				fmt.Fprintf(s.out, "Local state: %s\n", path)
				return nil
			})(cmd, args)
		},
	}
	initCmd.Flags().Bool("force", false, "replace an existing local state")

	airdropCmd := &cobra.Command{
		Use:   "airdrop <address> <sol>",
		Short: "Credit SOL to an address",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			cluster, err := s.requireLocal()
			if err != nil {
				return err
			}
			to, err := parseKey("address", args[0])
			if err != nil {
				return err
			}
			sol, err := strconv.ParseFloat(args[1], 64)
			if err != nil || sol <= 0 {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			cluster.Airdrop(to, uint64(sol*localnet.LamportsPerSOL))
			fmt.Fprintf(s.out, "Balance: %d lamports\n", cluster.Balance(to))
			return nil
		}),
	}

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Create a token mint owned by the signer and optionally mint to an owner",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			cluster, err := s.requireLocal()
			if err != nil {
				return err
			}
			authority, err := s.signerKey()
			if err != nil {
				return err
			}
			mint, err := keyFlag(cmd, "mint", false)
			if err != nil {
				return err
			}
			if mint.IsZero() {
				mint = solana.NewWallet().PublicKey()
			}
			if _, err := cluster.TokenSupply(mint); errors.Is(err, localnet.ErrNotMint) {
				decimals, _ := cmd.Flags().GetUint8("decimals")
				if err := cluster.CreateMint(authority, mint, authority, decimals); err != nil {
					return fmt.Errorf("failed to create mint: %w", err)
				}
			} else if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Mint: %s\n", mint)

			owner, err := keyFlag(cmd, "to", false)
			if err != nil || owner.IsZero() {
				return err
			}
			ata, err := cluster.CreateAssociatedTokenAccount(authority, owner, mint)
			if err != nil && !errors.Is(err, localnet.ErrAccountInUse) {
				return fmt.Errorf("failed to open token account: %w", err)
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			if amount > 0 {
				if err := cluster.MintTo(mint, ata, authority, amount); err != nil {
					return fmt.Errorf("failed to mint: %w", err)
				}
			}
			balance, err := cluster.TokenBalance(ata)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Token account: %s\nBalance: %d\n", ata, balance)
			return nil
		}),
	}
	mintCmd.Flags().String("mint", "", "mint address, created when it does not exist; random when empty")
	mintCmd.Flags().Uint8("decimals", 6, "decimals of a new mint")
	mintCmd.Flags().String("to", "", "owner to open an associated token account for")
	mintCmd.Flags().Uint64("amount", 0, "base units to mint to the owner")

	warpCmd := &cobra.Command{
		Use:   "warp <duration>",
		Short: "Move the local ledger clock forward",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			cluster, err := s.requireLocal()
			if err != nil {
				return err
			}
			d, err := time.ParseDuration(args[0])
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid duration %q", args[0])
			}
			cluster.Warp(d)
			fmt.Fprintf(s.out, "Ledger time: %s\n", cluster.Now().UTC().Format(time.RFC3339))
			return nil
		}),
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Show the lamports and, for token accounts, the token amount of an address",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			cluster, err := s.requireLocal()
			if err != nil {
				return err
			}
			addr, err := parseKey("address", args[0])
			if err != nil {
				return err
			}
			fields := [][2]string{
				{"Address", addr.String()},
				{"Lamports", strconv.FormatUint(cluster.Balance(addr), 10)},
			}
			if amount, err := cluster.TokenBalance(addr); err == nil {
				fields = append(fields, [2]string{"Tokens", strconv.FormatUint(amount, 10)})
			}
			printFields(s.out, fields)
			return nil
		}),
	}

	cmd.AddCommand(initCmd, airdropCmd, mintCmd, warpCmd, balanceCmd)
	return cmd
}
