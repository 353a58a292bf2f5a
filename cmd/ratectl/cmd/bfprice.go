package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
	"github.com/AiBunty/BoxCostPro-sub007/internal/repository"
)

var (
	bfPriceBF    float64
	bfPricePrice float64
)

var bfPriceCmd = &cobra.Command{
	Use:   "bfprice",
	Short: "Manage per-tenant base prices by burst factor",
}

var bfPriceSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the base price for a burst factor",
	Long: `Insert or update a tenant's base price for a burst factor (BF).

Examples:
  ratectl bfprice set --tenant-id=<uuid> --bf=16 --price=32.50
  ratectl bfprice set --tenant-id=<uuid> --bf=22 --price=41.00`,
	RunE: runBFPriceSet,
}

var bfPriceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's configured BF prices",
	Long: `Display all burst factor base prices configured for a tenant.

Examples:
  ratectl bfprice list --tenant-id=<uuid>`,
	RunE: runBFPriceList,
}

func init() {
	rootCmd.AddCommand(bfPriceCmd)
	bfPriceCmd.AddCommand(bfPriceSetCmd)
	bfPriceCmd.AddCommand(bfPriceListCmd)

	bfPriceSetCmd.Flags().Float64Var(&bfPriceBF, "bf", 0, "Burst factor (required)")
	bfPriceSetCmd.Flags().Float64Var(&bfPricePrice, "price", 0, "Base price per kg (required)")

	bfPriceSetCmd.MarkFlagRequired("bf")
	bfPriceSetCmd.MarkFlagRequired("price")
}

func runBFPriceSet(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}
	if bfPriceBF <= 0 {
		return fmt.Errorf("--bf must be positive")
	}
	if bfPricePrice <= 0 {
		return fmt.Errorf("--price must be positive")
	}

	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewPricingRepository(db)
	entry := pricing.BFPriceEntry{BF: bfPriceBF, BasePrice: bfPricePrice}

	if err := repo.UpsertBFPrice(context.Background(), tenantID, entry); err != nil {
		return fmt.Errorf("failed to save BF price: %w", err)
	}

	fmt.Printf("✅ BF %g base price set to %.2f for tenant %s\n", entry.BF, entry.BasePrice, tenantID)
	return nil
}

func runBFPriceList(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}

	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewPricingRepository(db)
	snap, err := repo.FetchSnapshot(context.Background(), tenantID)
	if err != nil {
		return fmt.Errorf("failed to load pricing data: %w", err)
	}

	printSnapshot(snap)
	return nil
}

func printSnapshot(snap *pricing.Snapshot) {
	fmt.Println()
	fmt.Printf("Pricing for tenant %s\n", tenantID)
	fmt.Println()

	if len(snap.BFPrices) == 0 {
		fmt.Println("No BF prices configured.")
		fmt.Println()
		fmt.Println("Create one with:")
		fmt.Printf("  ratectl bfprice set --tenant-id=%s --bf=16 --price=32.50\n", tenantID)
		fmt.Println()
		return
	}

	entries := make([]pricing.BFPriceEntry, len(snap.BFPrices))
	copy(entries, snap.BFPrices)
	sort.Slice(entries, func(i, j int) bool { return entries[i].BF < entries[j].BF })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BF\tBASE PRICE")
	fmt.Fprintln(w, "--\t----------")
	for _, e := range entries {
		fmt.Fprintf(w, "%g\t%.2f\n", e.BF, e.BasePrice)
	}
	w.Flush()
	fmt.Println()

	if len(snap.ShadePremiums) > 0 {
		fmt.Println("Shade premiums:")
		for _, s := range snap.ShadePremiums {
			fmt.Printf("  • %s: %+.2f\n", s.Shade, s.Premium)
		}
		fmt.Println()
	}

	if snap.Rules != nil {
		r := snap.Rules
		fmt.Printf("Rules: GSM < %g → %+.2f, GSM >= %g → %+.2f, market %+.2f\n",
			r.LowGSMLimit, r.LowGSMAdjustment, r.HighGSMLimit, r.HighGSMAdjustment, r.MarketAdjustment)
		fmt.Println()
	}
}
