package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclerk/clerk/internal/api"
)

var (
	checkoutName    string
	checkoutLine1   string
	checkoutCity    string
	checkoutState   string
	checkoutPostal  string
	checkoutCountry string
	checkoutToken   string
)

// ordersCmd represents the orders command
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List your orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sessionClient(cmd.Context())
		if err != nil {
			return err
		}
		orders, err := client.Orders(cmd.Context())
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Println("No orders yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tITEMS\tTOTAL\tPLACED")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f %s\t%s\n",
				o.ID, o.Status, len(o.Items), o.Total, o.Currency, o.CreatedAt)
		}
		w.Flush()
		return nil
	},
}

// orderShowCmd represents the orders show command
var orderShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sessionClient(cmd.Context())
		if err != nil {
			return err
		}
		o, err := client.Order(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Order %s (%s)\n", o.ID, o.Status)
		for _, item := range o.Items {
			fmt.Printf("  %dx %s  %.2f\n", item.Quantity, item.Name, item.Price)
		}
		fmt.Printf("Total: %.2f %s\n", o.Total, o.Currency)
		return nil
	},
}

// checkoutCmd represents the checkout command
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order from the current cart",
	Long: `Place an order from the current cart.

The shipping address fields and a payment token are required:

  clerk checkout --name "Jo Doe" --line1 "1 Main St" --city Springfield \
      --state OR --postal 97477 --country US --payment-token tok_visa`,
	RunE: func(cmd *cobra.Command, args []string) error {
		for flag, value := range map[string]string{
			"name": checkoutName, "line1": checkoutLine1, "city": checkoutCity,
			"postal": checkoutPostal, "country": checkoutCountry, "payment-token": checkoutToken,
		} {
			if value == "" {
				return fmt.Errorf("--%s is required", flag)
			}
		}

		client, err := sessionClient(cmd.Context())
		if err != nil {
			return err
		}
		order, err := client.Checkout(cmd.Context(), api.CheckoutRequest{
			ShippingAddress: api.ShippingAddress{
				Name:       checkoutName,
				Line1:      checkoutLine1,
				City:       checkoutCity,
				State:      checkoutState,
				PostalCode: checkoutPostal,
				Country:    checkoutCountry,
			},
			PaymentMethod: api.PaymentMethod{Type: "card", Token: checkoutToken},
		})
		if err != nil {
			return err
		}

		fmt.Printf("🎉 Order placed: %s (%s)\n", order.ID, order.Status)
		fmt.Printf("Total: %.2f %s\n", order.Total, order.Currency)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(orderShowCmd)
	rootCmd.AddCommand(checkoutCmd)

	checkoutCmd.Flags().StringVar(&checkoutName, "name", "", "Recipient name")
	checkoutCmd.Flags().StringVar(&checkoutLine1, "line1", "", "Address line")
	checkoutCmd.Flags().StringVar(&checkoutCity, "city", "", "City")
	checkoutCmd.Flags().StringVar(&checkoutState, "state", "", "State or region")
	checkoutCmd.Flags().StringVar(&checkoutPostal, "postal", "", "Postal code")
	checkoutCmd.Flags().StringVar(&checkoutCountry, "country", "", "Country code")
	checkoutCmd.Flags().StringVar(&checkoutToken, "payment-token", "", "Tokenized payment reference")
}
