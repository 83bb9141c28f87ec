package cli

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type RewardCmd struct{}

func NewRewardCmd() *RewardCmd {
	return &RewardCmd{}
}

func (c *RewardCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward",
		Short: "Manage the signer's marketplace reward vaults",
	}

	// rewardConfig resolves the flags shared by the reward subcommands. The
	// mint defaults to the marketplace's current reward mint.
	rewardConfig := func(s *session, cmd *cobra.Command) (solana.PublicKey, solana.PublicKey, solana.PublicKey, error) {
		signer, err := s.signerKey()
		if err != nil {
			return signer, solana.PublicKey{}, solana.PublicKey{}, err
		}
		marketplace, err := keyFlag(cmd, "marketplace", true)
		if err != nil {
			return signer, marketplace, solana.PublicKey{}, err
		}
		mint, err := keyFlag(cmd, "mint", false)
		if err != nil {
			return signer, marketplace, mint, err
		}
		if mint.IsZero() {
			m, err := s.client().GetMarketplace(s.ctx, marketplace)
			if err != nil {
				return signer, marketplace, mint, fmt.Errorf("failed to get marketplace: %w", err)
			}
			mint = m.Rewards.RewardMint
		}
		return signer, marketplace, mint, nil
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Open the signer's reward record and vault",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			signer, marketplace, mint, err := rewardConfig(s, cmd)
			if err != nil {
				return err
			}
			config := brick.RewardInstructionConfig{Signer: signer, Marketplace: marketplace, RewardMint: mint}
			addVault, _ := cmd.Flags().GetBool("add-vault")
			client := s.client()
			var sig solana.Signature
			if addVault {
				sig, _, err = client.InitRewardVault(s.ctx, config)
			} else {
				sig, _, err = client.InitReward(s.ctx, config)
			}
			if err != nil {
				return fmt.Errorf("failed to open reward: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	initCmd.Flags().String("marketplace", "", "marketplace address")
	initCmd.Flags().String("mint", "", "reward mint, the marketplace's by default")
	initCmd.Flags().Bool("add-vault", false, "add a vault to an existing reward record after the marketplace reward mint changed")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw a reward vault once the promotion is closed",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			signer, marketplace, mint, err := rewardConfig(s, cmd)
			if err != nil {
				return err
			}
			receiver, err := keyFlag(cmd, "receiver", false)
			if err != nil {
				return err
			}
			sig, _, err := s.client().WithdrawReward(s.ctx, brick.WithdrawRewardInstructionConfig{
				Signer:      signer,
				Marketplace: marketplace,
				RewardMint:  mint,
				Receiver:    receiver,
			})
			if err != nil {
				return fmt.Errorf("failed to withdraw reward: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	withdrawCmd.Flags().String("marketplace", "", "marketplace address")
	withdrawCmd.Flags().String("mint", "", "reward mint, the marketplace's by default")
	withdrawCmd.Flags().String("receiver", "", "token account to receive the reward, the signer's associated account by default")

	cmd.AddCommand(initCmd, withdrawCmd)
	return cmd
}
