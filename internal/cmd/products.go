package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclerk/clerk/internal/api"
)

var (
	productCategory string
	productPage     int
	productLimit    int
)

// productsCmd represents the products command
var productsCmd = &cobra.Command{
	Use:   "products [query]",
	Short: "Search the product catalog",
	Long: `Search the product catalog, optionally filtered by a free-text
query and a category:

  clerk products
  clerk products "leather boots" --category footwear --page 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := newIdentityStore()
		if err != nil {
			return err
		}
		client := newAPIClient(ids)

		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		products, page, err := client.Products(cmd.Context(), api.ProductQuery{
			Query:    query,
			Category: productCategory,
			Page:     productPage,
			Limit:    productLimit,
		})
		if err != nil {
			return err
		}

		if len(products) == 0 {
			fmt.Println("No products found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tRATING")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f %s\t%.1f\n",
				p.ID, p.Name, p.Category, p.Price, p.Currency, p.Rating)
		}
		w.Flush()

		if page != nil && page.TotalPages > 1 {
			fmt.Printf("\nPage %d of %d (%d products)\n", page.Page, page.TotalPages, page.Total)
		}
		return nil
	},
}

// productShowCmd represents the products show command
var productShowCmd = &cobra.Command{
	Use:   "show <product-id>",
	Short: "Show one product with its variants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := newIdentityStore()
		if err != nil {
			return err
		}
		client := newAPIClient(ids)

		p, err := client.Product(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", p.Name, p.ID)
		fmt.Printf("  Category: %s\n", p.Category)
		fmt.Printf("  Price:    %.2f %s\n", p.Price, p.Currency)
		fmt.Printf("  Rating:   %.1f\n", p.Rating)
		if p.Description != "" {
			fmt.Printf("  %s\n", p.Description)
		}
		if len(p.Variants) > 0 {
			fmt.Println("  Variants:")
			for _, v := range p.Variants {
				stock := "in stock"
				if !v.InStock {
					stock = "out of stock"
				}
				details := []string{}
				if v.Size != "" {
					details = append(details, "size "+v.Size)
				}
				if v.Color != "" {
					details = append(details, v.Color)
				}
				fmt.Printf("    %s  %s (%s)\n", v.ID, strings.Join(details, ", "), stock)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productShowCmd)

	productsCmd.Flags().StringVar(&productCategory, "category", "", "Filter by category")
	productsCmd.Flags().IntVar(&productPage, "page", 0, "Result page (1-based)")
	productsCmd.Flags().IntVar(&productLimit, "limit", 0, "Results per page")
}
