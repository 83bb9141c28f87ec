package cli

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type governanceSpec struct {
	Name            string `yaml:"name"`
	Mint            string `yaml:"mint"`
	FeeBps          uint16 `yaml:"fee_bps"`
	FeeReductionBps uint16 `yaml:"fee_reduction_bps"`
	SellerPromoBps  uint16 `yaml:"seller_promo_bps"`
	BuyerPromoBps   uint16 `yaml:"buyer_promo_bps"`
}

func (g *governanceSpec) args() brick.GovernanceArgs {
	return brick.GovernanceArgs{
		FeeBps:          g.FeeBps,
		FeeReductionBps: g.FeeReductionBps,
		SellerPromoBps:  g.SellerPromoBps,
		BuyerPromoBps:   g.BuyerPromoBps,
	}
}

func loadGovernanceSpec(cmd *cobra.Command) (*governanceSpec, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var spec governanceSpec
	if err := readYAML(path, &spec); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		spec.Name = brick.DefaultGovernanceName
	}
	return &spec, nil
}

type GovernanceCmd struct{}

func NewGovernanceCmd() *GovernanceCmd {
	return &GovernanceCmd{}
}

func (c *GovernanceCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "governance",
		Short: "Create and tune governance promotions",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a governance from a YAML parameter file",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			authority, err := s.signerKey()
			if err != nil {
				return err
			}
			spec, err := loadGovernanceSpec(cmd)
			if err != nil {
				return err
			}
			mint, err := parseKey("mint", spec.Mint)
			if err != nil {
				return err
			}
			client := s.client()
			sig, _, err := client.CreateGovernance(s.ctx, brick.CreateGovernanceInstructionConfig{
				Authority: authority,
				Name:      spec.Name,
				Mint:      mint,
				Args:      spec.args(),
			})
			if err != nil {
				return fmt.Errorf("failed to create governance: %w", err)
			}
			gov, _, err := client.GetGovernance(s.ctx, spec.Name)
			if err != nil {
				return fmt.Errorf("failed to get governance: %w", err)
			}
			fmt.Fprintf(s.out, "Governance: %s\n", gov)
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	createCmd.Flags().StringP("config", "c", "", "governance parameter file (YAML)")
	_ = createCmd.MarkFlagRequired("config")

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Replace a governance's fee and promotion rates",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			authority, err := s.signerKey()
			if err != nil {
				return err
			}
			spec, err := loadGovernanceSpec(cmd)
			if err != nil {
				return err
			}
			client := s.client()
			gov, _, err := client.GetGovernance(s.ctx, spec.Name)
			if err != nil {
				return fmt.Errorf("failed to get governance: %w", err)
			}
			sig, _, err := client.EditPoints(s.ctx, brick.EditPointsInstructionConfig{
				Authority:  authority,
				Governance: gov,
				Args:       spec.args(),
			})
			if err != nil {
				return fmt.Errorf("failed to edit governance: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	editCmd.Flags().StringP("config", "c", "", "governance parameter file (YAML)")
	_ = editCmd.MarkFlagRequired("config")

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a governance",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			name := brick.DefaultGovernanceName
			if len(args) == 1 {
				name = args[0]
			}
			gov, g, err := s.client().GetGovernance(s.ctx, name)
			if err != nil {
				return fmt.Errorf("failed to get governance: %w", err)
			}
			printFields(s.out, [][2]string{
				{"Address", gov.String()},
				{"Name", brick.TrimName(g.Name)},
				{"Authority", g.Authority.String()},
				{"Mint", g.Mint.String()},
				{"Bonus vault", g.BonusVault.String()},
				{"Fee (bps)", strconv.Itoa(int(g.FeeBps))},
				{"Fee reduction (bps)", strconv.Itoa(int(g.FeeReductionBps))},
				{"Seller promo (bps)", strconv.Itoa(int(g.SellerPromoBps))},
				{"Buyer promo (bps)", strconv.Itoa(int(g.BuyerPromoBps))},
			})
			return nil
		}),
	}

	cmd.AddCommand(createCmd, editCmd, showCmd)
	return cmd
}

type BonusCmd struct{}

func NewBonusCmd() *BonusCmd {
	return &BonusCmd{}
}

func (c *BonusCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonus",
		Short: "Manage the signer's governance bonus",
	}

	governanceOf := func(s *session, cmd *cobra.Command) (solana.PublicKey, *brick.Governance, error) {
		name, _ := cmd.Flags().GetString("governance")
		gov, g, err := s.client().GetGovernance(s.ctx, name)
		if err != nil {
			return solana.PublicKey{}, nil, fmt.Errorf("failed to get governance: %w", err)
		}
		return gov, g, nil
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Open the signer's bonus record and vault",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			signer, err := s.signerKey()
			if err != nil {
				return err
			}
			gov, g, err := governanceOf(s, cmd)
			if err != nil {
				return err
			}
			sig, _, err := s.client().InitBonus(s.ctx, brick.InitBonusInstructionConfig{
				Signer:     signer,
				Governance: gov,
				Mint:       g.Mint,
			})
			if err != nil {
				return fmt.Errorf("failed to open bonus: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	initCmd.Flags().String("governance", brick.DefaultGovernanceName, "governance name")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw the signer's accrued bonus once the promotion is closed",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			signer, err := s.signerKey()
			if err != nil {
				return err
			}
			gov, g, err := governanceOf(s, cmd)
			if err != nil {
				return err
			}
			receiver, err := keyFlag(cmd, "receiver", false)
			if err != nil {
				return err
			}
			sig, _, err := s.client().WithdrawBonus(s.ctx, brick.WithdrawBonusInstructionConfig{
				Signer:     signer,
				Governance: gov,
				Mint:       g.Mint,
				Receiver:   receiver,
			})
			if err != nil {
				return fmt.Errorf("failed to withdraw bonus: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	withdrawCmd.Flags().String("governance", brick.DefaultGovernanceName, "governance name")
	withdrawCmd.Flags().String("receiver", "", "token account to receive the bonus, the signer's associated account by default")

	cmd.AddCommand(initCmd, withdrawCmd)
	return cmd
}
