package cli

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/config"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type PDACmd struct{}

func NewPDACmd() *PDACmd {
	return &PDACmd{}
}

type derived struct {
	name string
	addr solana.PublicKey
	bump uint8
}

// deriver collects named derivations, stopping at the first error.
type deriver struct {
	programID solana.PublicKey
	rows      []derived
	err       error
}

func (d *deriver) add(name string, fn func(programID solana.PublicKey) (solana.PublicKey, uint8, error)) solana.PublicKey {
	if d.err != nil {
		return solana.PublicKey{}
	}
	addr, bump, err := fn(d.programID)
	if err != nil {
		d.err = fmt.Errorf("failed to derive %s: %w", name, err)
		return solana.PublicKey{}
	}
	d.rows = append(d.rows, derived{name: name, addr: addr, bump: bump})
	return addr
}

func (c *PDACmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pda",
		Short: "Derive program addresses without touching the ledger",
	}

	run := func(minArgs, maxArgs int, use, short string, fill func(d *deriver, cmd *cobra.Command, args []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.RangeArgs(minArgs, maxArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := cmd.Root().PersistentFlags().GetString("env")
				if err != nil {
					return fmt.Errorf("failed to get env flag: %w", err)
				}
				networkConfig, err := config.NetworkConfigForEnv(env)
				if err != nil {
					return err
				}
				d := &deriver{programID: networkConfig.ProgramID}
				if err := fill(d, cmd, args); err != nil {
					return err
				}
				if d.err != nil {
					return d.err
				}
				table := newTable(cmd.OutOrStdout(), "Account", "Address", "Bump")
				for _, r := range d.rows {
					table.Append([]string{r.name, r.addr.String(), strconv.Itoa(int(r.bump))})
				}
				table.Render()
				return nil
			},
		}
	}

	marketplaceCmd := run(1, 1, "marketplace <authority>", "Marketplace and access mint of an authority",
		func(d *deriver, cmd *cobra.Command, args []string) error {
			authority, err := parseKey("authority", args[0])
			if err != nil {
				return err
			}
			marketplace := d.add("marketplace", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveMarketplacePDA(p, authority)
			})
			d.add("access mint", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveAccessMintPDA(p, marketplace)
			})
			return nil
		})

	productCmd := run(2, 2, "product <marketplace> <id>", "Product and product mint",
		func(d *deriver, cmd *cobra.Command, args []string) error {
			marketplace, err := parseKey("marketplace", args[0])
			if err != nil {
				return err
			}
			first, second, err := brick.SplitProductID(args[1])
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[1], err)
			}
			d.add("product", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveProductPDA(p, first, second, marketplace)
			})
			d.add("product mint", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveProductMintPDA(p, first, second, marketplace)
			})
			return nil
		})

	paymentCmd := run(3, 3, "payment <product-mint> <buyer> <timestamp>", "Escrow payment and its vault",
		func(d *deriver, cmd *cobra.Command, args []string) error {
			productMint, err := parseKey("product mint", args[0])
			if err != nil {
				return err
			}
			buyer, err := parseKey("buyer", args[1])
			if err != nil {
				return err
			}
			ts, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[2], err)
			}
			payment := d.add("payment", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DerivePaymentPDA(p, productMint, buyer, ts)
			})
			d.add("payment vault", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DerivePaymentVaultPDA(p, payment)
			})
			return nil
		})

	governanceCmd := run(0, 1, "governance [name]", "Governance and its bonus vault",
		func(d *deriver, cmd *cobra.Command, args []string) error {
			name := brick.DefaultGovernanceName
			if len(args) == 1 {
				name = args[0]
			}
			padded, err := brick.GovernanceName(name)
			if err != nil {
				return fmt.Errorf("invalid governance name %q: %w", name, err)
			}
			governance := d.add("governance", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveGovernancePDA(p, padded)
			})
			d.add("bonus vault", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveGovernanceBonusVaultPDA(p, governance)
			})
			return nil
		})

	rewardCmd := run(2, 2, "reward <participant> <marketplace>", "Reward record and, with --mint, its vault",
		func(d *deriver, cmd *cobra.Command, args []string) error {
			participant, err := parseKey("participant", args[0])
			if err != nil {
				return err
			}
			marketplace, err := parseKey("marketplace", args[1])
			if err != nil {
				return err
			}
			mint, err := keyFlag(cmd, "mint", false)
			if err != nil {
				return err
			}
			d.add("reward", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveRewardPDA(p, participant, marketplace)
			})
			if !mint.IsZero() {
				d.add("reward vault", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
					return brick.DeriveRewardVaultPDA(p, participant, marketplace, mint)
				})
			}
			return nil
		})
	rewardCmd.Flags().String("mint", "", "reward mint of the vault")

	bonusCmd := run(1, 1, "bonus <participant>", "Bonus record and vault under a governance",
		func(d *deriver, cmd *cobra.Command, args []string) error {
			participant, err := parseKey("participant", args[0])
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("governance")
			padded, err := brick.GovernanceName(name)
			if err != nil {
				return fmt.Errorf("invalid governance name %q: %w", name, err)
			}
			governance, _, err := brick.DeriveGovernancePDA(d.programID, padded)
			if err != nil {
				return err
			}
			d.add("bonus", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveBonusPDA(p, participant, governance)
			})
			d.add("bonus vault", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveBonusVaultPDA(p, participant, governance)
			})
			return nil
		})
	bonusCmd.Flags().String("governance", brick.DefaultGovernanceName, "governance name")

	requestCmd := run(2, 2, "request <requester> <marketplace>", "Pending access request",
		func(d *deriver, cmd *cobra.Command, args []string) error {
			requester, err := parseKey("requester", args[0])
			if err != nil {
				return err
			}
			marketplace, err := parseKey("marketplace", args[1])
			if err != nil {
				return err
			}
			d.add("request", func(p solana.PublicKey) (solana.PublicKey, uint8, error) {
				return brick.DeriveRequestPDA(p, requester, marketplace)
			})
			return nil
		})

	cmd.AddCommand(marketplaceCmd, productCmd, paymentCmd, governanceCmd, rewardCmd, bonusCmd, requestCmd)
	return cmd
}
