package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
	"github.com/AiBunty/BoxCostPro-sub007/internal/repository"
)

var (
	quoteBF    float64
	quoteGSM   float64
	quoteShade string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute a rate breakdown against live pricing data",
	Long: `Fetch the tenant's current pricing data and print the full rate breakdown
for a paper spec. No quote event is recorded; this is a dry run against the
same calculation the server uses.

Examples:
  ratectl quote --tenant-id=<uuid> --bf=20 --gsm=150 --shade=golden
  ratectl quote --tenant-id=<uuid> --bf=16 --gsm=90`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Float64Var(&quoteBF, "bf", 0, "Burst factor (required)")
	quoteCmd.Flags().Float64Var(&quoteGSM, "gsm", 0, "Grams per square meter (required)")
	quoteCmd.Flags().StringVar(&quoteShade, "shade", "", "Paper shade, optional")

	quoteCmd.MarkFlagRequired("bf")
	quoteCmd.MarkFlagRequired("gsm")
}

func runQuote(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}
	if quoteBF <= 0 || quoteGSM <= 0 {
		return fmt.Errorf("--bf and --gsm must be positive")
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

	calc := pricing.NewCalculator()
	spec := pricing.PaperSpec{BF: quoteBF, GSM: quoteGSM, Shade: quoteShade}

	breakdown := calc.CalculateRate(spec, *snap)
	if breakdown == nil {
		return fmt.Errorf("rate not available for BF %g (no base price configured)", quoteBF)
	}

	printBreakdown(spec, breakdown)
	return nil
}

func printBreakdown(spec pricing.PaperSpec, b *pricing.Breakdown) {
	fmt.Println()
	fmt.Printf("Quote for BF %g / GSM %g", spec.BF, spec.GSM)
	if spec.Shade != "" {
		fmt.Printf(" / shade %q", spec.Shade)
	}
	fmt.Println()
	fmt.Println()
	fmt.Printf("  Base price:        %10.2f\n", b.BFBasePrice)
	fmt.Printf("  GSM adjustment:    %+10.2f\n", b.GSMAdjustment)
	fmt.Printf("  Shade premium:     %+10.2f\n", b.ShadePremium)
	fmt.Printf("  Market adjustment: %+10.2f\n", b.MarketAdjustment)
	fmt.Printf("  Final rate:        %10.2f per kg\n", b.FinalRate)
	fmt.Println()
	fmt.Println("Notes:")
	for _, note := range b.Notes {
		fmt.Printf("  • %s\n", note)
	}
	fmt.Println()
}
