package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclerk/clerk/internal/api"
)

// cartCmd represents the cart command
var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the current cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sessionClient(cmd.Context())
		if err != nil {
			return err
		}
		cart, err := client.Cart(cmd.Context())
		if err != nil {
			return err
		}
		printCart(cart)
		return nil
	},
}

// cartAddCmd represents the cart add command
var cartAddCmd = &cobra.Command{
	Use:   "add <product-id> <variant-id> <quantity>",
	Short: "Add a product variant to the cart",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := strconv.Atoi(args[2])
		if err != nil || quantity <= 0 {
			return fmt.Errorf("quantity must be a positive number, got %q", args[2])
		}

		client, err := sessionClient(cmd.Context())
		if err != nil {
			return err
		}
		if err := client.AddCartItem(cmd.Context(), args[0], args[1], quantity); err != nil {
			return err
		}
		cart, err := client.Cart(cmd.Context())
		if err != nil {
			return err
		}
		printCart(cart)
		return nil
	},
}

// cartUpdateCmd represents the cart update command
var cartUpdateCmd = &cobra.Command{
	Use:   "update <item-id> <quantity>",
	Short: "Change the quantity of a cart line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := strconv.Atoi(args[1])
		if err != nil || quantity <= 0 {
			return fmt.Errorf("quantity must be a positive number, got %q", args[1])
		}

		client, err := sessionClient(cmd.Context())
		if err != nil {
			return err
		}
		if err := client.UpdateCartItem(cmd.Context(), args[0], quantity); err != nil {
			return err
		}
		cart, err := client.Cart(cmd.Context())
		if err != nil {
			return err
		}
		printCart(cart)
		return nil
	},
}

// cartRemoveCmd represents the cart remove command
var cartRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sessionClient(cmd.Context())
		if err != nil {
			return err
		}
		if err := client.RemoveCartItem(cmd.Context(), args[0]); err != nil {
			return err
		}
		cart, err := client.Cart(cmd.Context())
		if err != nil {
			return err
		}
		printCart(cart)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartUpdateCmd)
	cartCmd.AddCommand(cartRemoveCmd)
}

// sessionClient builds an API client with a negotiated session, since the
// cart is keyed by session on the backend.
func sessionClient(ctx context.Context) (*api.Client, error) {
	ids, err := newIdentityStore()
	if err != nil {
		return nil, err
	}
	client := newAPIClient(ids)
	if _, err := client.EnsureSession(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func printCart(cart *api.Cart) {
	if cart == nil || len(cart.Items) == 0 {
		fmt.Println("Your cart is empty.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tQTY\tPRICE")
	for _, item := range cart.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", item.ItemID, name, item.Quantity, item.Price)
	}
	w.Flush()

	fmt.Printf("\nSubtotal: %.2f %s\n", cart.Subtotal, cart.Currency)
	if cart.Tax > 0 {
		fmt.Printf("Tax:      %.2f %s\n", cart.Tax, cart.Currency)
	}
	if cart.Shipping > 0 {
		fmt.Printf("Shipping: %.2f %s\n", cart.Shipping, cart.Currency)
	}
	if cart.Discount > 0 {
		fmt.Printf("Discount: -%.2f %s\n", cart.Discount, cart.Currency)
	}
	fmt.Printf("Total:    %.2f %s\n", cart.Total, cart.Currency)
}
