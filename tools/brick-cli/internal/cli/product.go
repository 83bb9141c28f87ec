package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

type ProductCmd struct{}

func NewProductCmd() *ProductCmd {
	return &ProductCmd{}
}

func (c *ProductCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "List and manage products",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "List a new product on a marketplace",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			seller, err := s.signerKey()
			if err != nil {
				return err
			}
			marketplace, err := keyFlag(cmd, "marketplace", true)
			if err != nil {
				return err
			}
			paymentMint, err := keyFlag(cmd, "payment-mint", true)
			if err != nil {
				return err
			}
			accessVault, err := keyFlag(cmd, "access-vault", false)
			if err != nil {
				return err
			}
			id, _ := cmd.Flags().GetString("id")
			price, _ := cmd.Flags().GetUint64("price")
			refundTimespan, _ := cmd.Flags().GetUint64("refund-timespan")
			exemplars, _ := cmd.Flags().GetInt32("exemplars")

			client := s.client()
			sig, _, err := client.InitProduct(s.ctx, brick.InitProductInstructionConfig{
				Signer:         seller,
				Marketplace:    marketplace,
				ProductID:      id,
				PaymentMint:    paymentMint,
				Price:          price,
				RefundTimespan: refundTimespan,
				Exemplars:      exemplars,
				AccessVault:    accessVault,
			})
			if err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}
			first, second, err := brick.SplitProductID(id)
			if err != nil {
				return err
			}
			product, _, err := brick.DeriveProductPDA(s.programID, first, second, marketplace)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Product: %s\n", product)
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	createCmd.Flags().String("marketplace", "", "marketplace address")
	createCmd.Flags().String("id", "", "product id, up to 64 bytes")
	createCmd.Flags().String("payment-mint", brick.NativeMint.String(), "mint buyers pay in")
	createCmd.Flags().Uint64("price", 0, "unit price in base units of the payment mint")
	createCmd.Flags().Uint64("refund-timespan", 0, "escrow refund window in seconds")
	createCmd.Flags().Int32("exemplars", brick.UnlimitedExemplars, "units available, -1 for unlimited")
	createCmd.Flags().String("access-vault", "", "seller's access token account on permissioned marketplaces")
	_ = createCmd.MarkFlagRequired("id")

	editCmd := &cobra.Command{
		Use:   "edit <product>",
		Short: "Change a product's price and payment mint",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			seller, err := s.signerKey()
			if err != nil {
				return err
			}
			product, err := parseKey("product", args[0])
			if err != nil {
				return err
			}
			client := s.client()
			current, err := client.GetProduct(s.ctx, product)
			if err != nil {
				return fmt.Errorf("failed to get product: %w", err)
			}
			paymentMint, err := keyFlag(cmd, "payment-mint", false)
			if err != nil {
				return err
			}
			if paymentMint.IsZero() {
				paymentMint = current.PaymentMint
			}
			price := current.Price
			if cmd.Flags().Changed("price") {
				price, _ = cmd.Flags().GetUint64("price")
			}
			sig, _, err := client.EditProduct(s.ctx, brick.EditProductInstructionConfig{
				Signer:      seller,
				Product:     product,
				PaymentMint: paymentMint,
				Price:       price,
			})
			if err != nil {
				return fmt.Errorf("failed to edit product: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}
	editCmd.Flags().String("payment-mint", "", "new payment mint, unchanged when empty")
	editCmd.Flags().Uint64("price", 0, "new unit price")

	deleteCmd := &cobra.Command{
		Use:   "delete <product>",
		Short: "Delist a product with no open escrow payments",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			seller, err := s.signerKey()
			if err != nil {
				return err
			}
			product, err := parseKey("product", args[0])
			if err != nil {
				return err
			}
			sig, _, err := s.client().DeleteProduct(s.ctx, brick.DeleteProductInstructionConfig{
				Signer:  seller,
				Product: product,
			})
			if err != nil {
				return fmt.Errorf("failed to delete product: %w", err)
			}
			printSignature(s.out, "Signature", sig)
			return nil
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the products of a marketplace",
		RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
			marketplace, err := keyFlag(cmd, "marketplace", true)
			if err != nil {
				return err
			}
			products, err := s.client().GetProducts(s.ctx, marketplace)
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}
			table := newTable(s.out, "Address", "ID", "Seller", "Payment mint", "Price", "Refund (s)", "Exemplars", "Open payments")
			for _, p := range products {
				exemplars := strconv.Itoa(int(p.Account.Exemplars))
				if p.Account.Exemplars == brick.UnlimitedExemplars {
					exemplars = "unlimited"
				}
				table.Append([]string{
					p.Address.String(),
					p.Account.ID(),
					p.Account.Authority.String(),
					p.Account.PaymentMint.String(),
					strconv.FormatUint(p.Account.Price, 10),
					strconv.FormatUint(p.Account.RefundTimespan, 10),
					exemplars,
					strconv.Itoa(int(p.Account.ActivePayments)),
				})
			}
			table.Render()
			return nil
		}),
	}
	listCmd.Flags().String("marketplace", "", "marketplace address")

	cmd.AddCommand(createCmd, editCmd, deleteCmd, listCmd)
	return cmd
}
