package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type AccessCmd struct{}

func NewAccessCmd() *AccessCmd {
	return &AccessCmd{}
}

func (c *AccessCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Seller access on permissioned marketplaces",
	}

	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Ask a marketplace authority for seller access",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			signer, err := s.signerKey()
			if err != nil {
				return err
			}
			marketplace, err := keyFlag(cmd, "marketplace", true)
			if err != nil {
				return err
			}
			sig, _, err := s.client().RequestAccess(s.ctx, brick.RequestAccessInstructionConfig{
				Signer:      signer,
				Marketplace: marketplace,
			})
			if err != nil {
				return fmt.Errorf("failed to request access: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	requestCmd.Flags().String("marketplace", "", "marketplace address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending access requests of a marketplace",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			marketplace, err := keyFlag(cmd, "marketplace", true)
			if err != nil {
				return err
			}
			requests, err := s.client().GetRequests(s.ctx, marketplace)
			if err != nil {
				return fmt.Errorf("failed to list requests: %w", err)
			}
			table := newTable(s.out, "Request", "Requester")
			for _, r := range requests {
				table.Append([]string{r.Address.String(), r.Account.Authority.String()})
			}
			table.Render()
			return nil
		}),
	}
	listCmd.Flags().String("marketplace", "", "marketplace address")

	grant := func(accept bool) func(s *session, cmd *cobra.Command, args []string) error {
		return func(s *session, cmd *cobra.Command, args []string) error {
			authority, err := s.signerKey()
			if err != nil {
				return err
			}
			receiver, err := parseKey("receiver", args[0])
			if err != nil {
				return err
			}
			vault, err := keyFlag(cmd, "vault", false)
			if err != nil {
				return err
			}
			config := brick.GrantAccessInstructionConfig{
				Authority:   authority,
				Receiver:    receiver,
				AccessVault: vault,
			}
			client := s.client()
			if accept {
				sig, _, err := client.AcceptAccess(s.ctx, config)
				if err != nil {
					return fmt.Errorf("failed to accept access: %w", err)
				}
				printSignature(s.out, "Signature", sig)
				return nil
			}
			sig, _, err := client.AirdropAccess(s.ctx, config)
			if err != nil {
				return fmt.Errorf("failed to airdrop access: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}
	}

	acceptCmd := &cobra.Command{
		Use:   "accept <requester>",
		Short: "Accept a pending request and mint the access token",
		Args:  cobra.ExactArgs(1),
		RunE:  withSession(grant(true)),
	}
	acceptCmd.Flags().String("vault", "", "receiver's access token account, associated account by default")

	airdropCmd := &cobra.Command{
		Use:   "airdrop <receiver>",
		Short: "Mint an access token to a seller without a request",
		Args:  cobra.ExactArgs(1),
		RunE:  withSession(grant(false)),
	}
	airdropCmd.Flags().String("vault", "", "receiver's access token account, associated account by default")

	cmd.AddCommand(requestCmd, listCmd, acceptCmd, airdropCmd)
	return cmd
}
