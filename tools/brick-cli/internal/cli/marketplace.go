package cli

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

// marketplaceSpec is the YAML form of a marketplace's parameters.
type marketplaceSpec struct {
	RewardMint        string `yaml:"reward_mint"`
	DiscountMint      string `yaml:"discount_mint"`
	RewardTriggerMint string `yaml:"reward_trigger_mint"`
	FeeBps            uint16 `yaml:"fee_bps"`
	FeeReductionBps   uint16 `yaml:"fee_reduction_bps"`
	FeePayer          string `yaml:"fee_payer"`
	SellerRewardBps   uint16 `yaml:"seller_reward_bps"`
	BuyerRewardBps    uint16 `yaml:"buyer_reward_bps"`
	RewardsEnabled    bool   `yaml:"rewards_enabled"`
	DeliverToken      bool   `yaml:"deliver_token"`
	Permissionless    bool   `yaml:"permissionless"`
	AllowSecondary    bool   `yaml:"allow_secondary"`
}

type marketplaceKeys struct {
	rewardMint, discountMint, triggerMint solana.PublicKey
}

func (m *marketplaceSpec) keys() (marketplaceKeys, error) {
	var k marketplaceKeys
	var err error
	if k.rewardMint, err = parseOptionalKey("reward_mint", m.RewardMint); err != nil {
		return k, err
	}
	if k.discountMint, err = parseOptionalKey("discount_mint", m.DiscountMint); err != nil {
		return k, err
	}
	if k.triggerMint, err = parseOptionalKey("reward_trigger_mint", m.RewardTriggerMint); err != nil {
		return k, err
	}
	return k, nil
}

func (m *marketplaceSpec) args() (brick.MarketplaceArgs, error) {
	payer, err := parseFeePayer(m.FeePayer)
	if err != nil {
		return brick.MarketplaceArgs{}, err
	}
	return brick.MarketplaceArgs{
		FeeBps:          m.FeeBps,
		FeeReductionBps: m.FeeReductionBps,
		FeePayer:        payer,
		SellerRewardBps: m.SellerRewardBps,
		BuyerRewardBps:  m.BuyerRewardBps,
		RewardsEnabled:  m.RewardsEnabled,
		DeliverToken:    m.DeliverToken,
		Permissionless:  m.Permissionless,
		AllowSecondary:  m.AllowSecondary,
	}, nil
}

// parseFeePayer maps the YAML fee payer. The seller pays when unset.
func parseFeePayer(v string) (brick.FeePayer, error) {
	switch v {
	case "", brick.FeePayerSeller.String():
		return brick.FeePayerSeller, nil
	case brick.FeePayerBuyer.String():
		return brick.FeePayerBuyer, nil
	}
	return 0, fmt.Errorf("invalid fee_payer %q, must be buyer or seller", v)
}

type MarketplaceCmd struct{}

func NewMarketplaceCmd() *MarketplaceCmd {
	return &MarketplaceCmd{}
}

func (c *MarketplaceCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marketplace",
		Short: "Create, edit and inspect marketplaces",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the signer's marketplace from a YAML parameter file",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			authority, err := s.signerKey()
			if err != nil {
				return err
			}
			spec, keys, margs, err := loadMarketplaceSpec(cmd)
			if err != nil {
				return err
			}
			if keys.rewardMint.IsZero() {
				return fmt.Errorf("reward_mint is required")
			}
			sig, _, err := s.client().InitMarketplace(s.ctx, brick.InitMarketplaceInstructionConfig{
				Authority:         authority,
				RewardMint:        keys.rewardMint,
				DiscountMint:      keys.discountMint,
				RewardTriggerMint: keys.triggerMint,
				Args:              margs,
			})
			if err != nil {
				return fmt.Errorf("failed to create marketplace: %w", err)
			}
			marketplace, _, err := brick.DeriveMarketplacePDA(s.programID, authority)
			if err != nil {
				return err
			}
			s.log.Debug("Created marketplace", "marketplace", marketplace, "spec", spec)
			fmt.Fprintf(s.out, "Marketplace: %s\n", marketplace)
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	initCmd.Flags().StringP("config", "c", "", "marketplace parameter file (YAML)")
	_ = initCmd.MarkFlagRequired("config")

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Replace the signer's marketplace parameters with a YAML parameter file",
		Long:  "Replace the signer's marketplace parameters with a YAML parameter file. An empty reward_mint keeps the current one; other empty mints reset to unset.",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			authority, err := s.signerKey()
			if err != nil {
				return err
			}
			_, keys, margs, err := loadMarketplaceSpec(cmd)
			if err != nil {
				return err
			}
			client := s.client()
			if keys.rewardMint.IsZero() {
				_, current, err := client.GetMarketplaceByAuthority(s.ctx, authority)
				if err != nil {
					return fmt.Errorf("failed to get marketplace: %w", err)
				}
				keys.rewardMint = current.Rewards.RewardMint
			}
			sig, _, err := client.EditMarketplace(s.ctx, brick.EditMarketplaceInstructionConfig{
				Authority:         authority,
				RewardMint:        keys.rewardMint,
				DiscountMint:      keys.discountMint,
				RewardTriggerMint: keys.triggerMint,
				Args:              margs,
			})
			if err != nil {
				return fmt.Errorf("failed to edit marketplace: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	editCmd.Flags().StringP("config", "c", "", "marketplace parameter file (YAML)")
	_ = editCmd.MarkFlagRequired("config")

	showCmd := &cobra.Command{
		Use:   "show [authority]",
		Short: "Show a marketplace by its authority, the signer by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			var authority solana.PublicKey
			var err error
			if len(args) == 1 {
				authority, err = parseKey("authority", args[0])
			} else {
				authority, err = s.signerKey()
			}
			if err != nil {
				return err
			}
			addr, m, err := s.client().GetMarketplaceByAuthority(s.ctx, authority)
			if err != nil {
				return fmt.Errorf("failed to get marketplace: %w", err)
			}
			printMarketplace(s, addr, m)
			return nil
		}),
	}

	addVaultCmd := &cobra.Command{
		Use:   "add-vault",
		Short: "Open a bounty vault for a reward mint on the signer's marketplace",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			authority, err := s.signerKey()
			if err != nil {
				return err
			}
			mint, err := keyFlag(cmd, "mint", true)
			if err != nil {
				return err
			}
			sig, _, err := s.client().InitBountyVault(s.ctx, brick.InitBountyVaultInstructionConfig{
				Authority: authority,
				Mint:      mint,
			})
			if err != nil {
				return fmt.Errorf("failed to open bounty vault: %w", err)
			}
			marketplace, _, err := brick.DeriveMarketplacePDA(s.programID, authority)
			if err != nil {
				return err
			}
			vault, _, err := brick.DeriveBountyVaultPDA(s.programID, marketplace, mint)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Bounty vault: %s\n", vault)
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	addVaultCmd.Flags().String("mint", "", "reward mint of the vault")

	cmd.AddCommand(initCmd, editCmd, showCmd, addVaultCmd)
	return cmd
}

func loadMarketplaceSpec(cmd *cobra.Command) (*marketplaceSpec, marketplaceKeys, brick.MarketplaceArgs, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, marketplaceKeys{}, brick.MarketplaceArgs{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var spec marketplaceSpec
	if err := readYAML(path, &spec); err != nil {
		return nil, marketplaceKeys{}, brick.MarketplaceArgs{}, err
	}
	keys, err := spec.keys()
	if err != nil {
		return nil, marketplaceKeys{}, brick.MarketplaceArgs{}, err
	}
	margs, err := spec.args()
	if err != nil {
		return nil, marketplaceKeys{}, brick.MarketplaceArgs{}, err
	}
	return &spec, keys, margs, nil
}

func printMarketplace(s *session, addr solana.PublicKey, m *brick.Marketplace) {
	fields := [][2]string{
		{"Address", addr.String()},
		{"Authority", m.Authority.String()},
		{"Deliver token", strconv.FormatBool(m.DeliverToken)},
		{"Access mint", m.Permission.AccessMint.String()},
		{"Permissionless", strconv.FormatBool(m.Permission.Permissionless)},
		{"Allow secondary", strconv.FormatBool(m.Permission.AllowSecondary)},
		{"Discount mint", m.Fees.DiscountMint.String()},
		{"Fee (bps)", strconv.Itoa(int(m.Fees.FeeBps))},
		{"Fee reduction (bps)", strconv.Itoa(int(m.Fees.FeeReductionBps))},
		{"Fee payer", m.Fees.FeePayer.String()},
		{"Reward mint", m.Rewards.RewardMint.String()},
		{"Reward trigger mint", m.Rewards.RewardTriggerMint.String()},
		{"Seller reward (bps)", strconv.Itoa(int(m.Rewards.SellerRewardBps))},
		{"Buyer reward (bps)", strconv.Itoa(int(m.Rewards.BuyerRewardBps))},
		{"Rewards enabled", strconv.FormatBool(m.Rewards.RewardsEnabled)},
	}
	for i, v := range m.BountyVaults.List() {
		fields = append(fields, [2]string{fmt.Sprintf("Bounty vault %d", i+1), v.Address.String()})
	}
	printFields(s.out, fields)
}
