package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type BuyCmd struct{}

func NewBuyCmd() *BuyCmd {
	return &BuyCmd{}
}

func (c *BuyCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy a product directly, through a governance promotion, or into escrow",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			buyer, err := s.signerKey()
			if err != nil {
				return err
			}
			product, err := keyFlag(cmd, "product", true)
			if err != nil {
				return err
			}
			quantity, _ := cmd.Flags().GetUint64("quantity")
			reward, _ := cmd.Flags().GetBool("reward")
			escrow, _ := cmd.Flags().GetBool("escrow")
			governance, _ := cmd.Flags().GetString("governance")
			timestamp, _ := cmd.Flags().GetUint64("timestamp")

			modes := 0
			for _, set := range []bool{reward, escrow, governance != ""} {
				if set {
					modes++
				}
			}
			if modes > 1 {
				return errors.New("specify only one of: --reward, --escrow, --governance")
			}

			client := s.client()
			switch {
			case escrow:
				if timestamp == 0 {
					timestamp = uint64(s.now().Unix())
				}
				payment, sig, err := client.EscrowBuy(s.ctx, product, quantity, timestamp)
				if err != nil {
					return fmt.Errorf("failed to buy into escrow: %w", err)
				}
				fmt.Fprintf(s.out, "Payment: %s\n", payment)
				printSignature(s.out, "Signature", sig)
			case governance != "":
				gov, g, err := client.GetGovernance(s.ctx, governance)
				if err != nil {
					return fmt.Errorf("failed to get governance: %w", err)
				}
				p, err := client.GetProduct(s.ctx, product)
				if err != nil {
					return fmt.Errorf("failed to get product: %w", err)
				}
				sig, _, err := client.RegisterPromoBuy(s.ctx, brick.RegisterPromoBuyInstructionConfig{
					Signer:          buyer,
					Governance:      gov,
					GovernanceState: g,
					Product:         product,
					ProductState:    p,
					Quantity:        quantity,
				})
				if err != nil {
					return fmt.Errorf("failed to buy: %w", err)
				}
				printSignature(s.out, "Signature", sig)
			default:
				sig, err := client.Buy(s.ctx, product, quantity, reward)
				if err != nil {
					return fmt.Errorf("failed to buy: %w", err)
				}
				printSignature(s.out, "Signature", sig)
			}
			return nil
		}),
	}
	cmd.Flags().String("product", "", "product address")
	cmd.Flags().Uint64("quantity", 1, "units to buy")
	cmd.Flags().Bool("reward", false, "require the marketplace reward promotion to be open")
	cmd.Flags().Bool("escrow", false, "hold the payment in escrow until the refund window closes")
	cmd.Flags().String("governance", "", "buy through the named governance promotion")
	cmd.Flags().Uint64("timestamp", 0, "escrow payment timestamp, ledger time when zero")
	return cmd
}

type RefundCmd struct{}

func NewRefundCmd() *RefundCmd {
	return &RefundCmd{}
}

func (c *RefundCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "refund <payment>",
		Short: "Return an escrowed payment to the buyer inside its refund window",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			payment, err := parseKey("payment", args[0])
			if err != nil {
				return err
			}
			sig, err := s.client().RefundPayment(s.ctx, payment)
			if err != nil {
				return fmt.Errorf("failed to refund: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
}

type WithdrawCmd struct{}

func NewWithdrawCmd() *WithdrawCmd {
	return &WithdrawCmd{}
}

func (c *WithdrawCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <payment>",
		Short: "Release an escrowed payment to the seller after its refund window",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			payment, err := parseKey("payment", args[0])
			if err != nil {
				return err
			}
			sig, err := s.client().WithdrawPayment(s.ctx, payment, nil)
			if err != nil {
				return fmt.Errorf("failed to withdraw: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
}
