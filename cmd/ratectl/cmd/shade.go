package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
	"github.com/AiBunty/BoxCostPro-sub007/internal/repository"
)

var (
	shadeName    string
	shadePremium float64
)

var shadeCmd = &cobra.Command{
	Use:   "shade",
	Short: "Manage per-tenant shade premiums",
}

var shadeSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the premium for a paper shade",
	Long: `Insert or update a tenant's premium for a paper shade. Shade matching
is case-insensitive on the quote path.

Examples:
  ratectl shade set --tenant-id=<uuid> --shade=golden --premium=1.50
  ratectl shade set --tenant-id=<uuid> --shade=white --premium=2.25`,
	RunE: runShadeSet,
}

func init() {
	rootCmd.AddCommand(shadeCmd)
	shadeCmd.AddCommand(shadeSetCmd)

	shadeSetCmd.Flags().StringVar(&shadeName, "shade", "", "Shade name (required)")
	shadeSetCmd.Flags().Float64Var(&shadePremium, "premium", 0, "Premium per kg (required)")

	shadeSetCmd.MarkFlagRequired("shade")
	shadeSetCmd.MarkFlagRequired("premium")
}

func runShadeSet(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}
	if shadeName == "" {
		return fmt.Errorf("--shade must not be empty")
	}

	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewPricingRepository(db)
	premium := pricing.ShadePremium{Shade: shadeName, Premium: shadePremium}

	if err := repo.UpsertShadePremium(context.Background(), tenantID, premium); err != nil {
		return fmt.Errorf("failed to save shade premium: %w", err)
	}

	fmt.Printf("✅ Shade %q premium set to %+.2f for tenant %s\n", premium.Shade, premium.Premium, tenantID)
	return nil
}
