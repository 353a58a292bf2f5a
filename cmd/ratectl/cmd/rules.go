package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
	"github.com/AiBunty/BoxCostPro-sub007/internal/repository"
)

var (
	rulesLowLimit  float64
	rulesHighLimit float64
	rulesLowAdj    float64
	rulesHighAdj   float64
	rulesMarketAdj float64
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage per-tenant pricing rules",
}

var rulesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a tenant's GSM band and market adjustments",
	Long: `Replace a tenant's pricing rules. GSM below the low limit gets the low
adjustment, GSM at or above the high limit gets the high adjustment, and
everything in between gets neither. The market adjustment applies to every
quote. Leaving a limit at 0 keeps the default band (100/200).

Examples:
  ratectl rules set --tenant-id=<uuid> --low-gsm=100 --high-gsm=200 --low-adj=2 --high-adj=3
  ratectl rules set --tenant-id=<uuid> --market-adj=-1.50`,
	RunE: runRulesSet,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesSetCmd)

	rulesSetCmd.Flags().Float64Var(&rulesLowLimit, "low-gsm", 0, "Low GSM band limit (0 keeps the default)")
	rulesSetCmd.Flags().Float64Var(&rulesHighLimit, "high-gsm", 0, "High GSM band limit (0 keeps the default)")
	rulesSetCmd.Flags().Float64Var(&rulesLowAdj, "low-adj", 0, "Adjustment below the low limit")
	rulesSetCmd.Flags().Float64Var(&rulesHighAdj, "high-adj", 0, "Adjustment at or above the high limit")
	rulesSetCmd.Flags().Float64Var(&rulesMarketAdj, "market-adj", 0, "Market adjustment applied to every quote")
}

func runRulesSet(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}
	if rulesLowLimit < 0 || rulesHighLimit < 0 {
		return fmt.Errorf("GSM limits must not be negative")
	}
	if rulesLowLimit > 0 && rulesHighLimit > 0 && rulesLowLimit >= rulesHighLimit {
		return fmt.Errorf("--low-gsm must be below --high-gsm")
	}

	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewPricingRepository(db)
	rules := pricing.Rules{
		LowGSMLimit:       rulesLowLimit,
		HighGSMLimit:      rulesHighLimit,
		LowGSMAdjustment:  rulesLowAdj,
		HighGSMAdjustment: rulesHighAdj,
		MarketAdjustment:  rulesMarketAdj,
	}

	if err := repo.UpdateRules(context.Background(), tenantID, rules); err != nil {
		return fmt.Errorf("failed to save pricing rules: %w", err)
	}

	fmt.Printf("✅ Pricing rules updated for tenant %s\n", tenantID)
	return nil
}
