package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
	"github.com/AiBunty/BoxCostPro-sub007/internal/repository"
)

var (
	overrideUserID  string
	overrideKey     string
	overrideKind    string
	overrideEnabled bool
	overrideLimit   int64
	overrideExpires string
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage per-user entitlement overrides",
}

var overrideGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant a feature or quota override to a user",
	Long: `Create an entitlement override. Feature overrides force a feature on or
off; quota overrides replace the plan's limit for one quota. Overrides never
make an inactive subscription active.

Examples:
  ratectl override grant --user-id=<uuid> --key=apiAccess --kind=feature --enabled
  ratectl override grant --user-id=<uuid> --key=quotes --kind=quota --limit=500
  ratectl override grant --user-id=<uuid> --key=pdfExport --kind=feature --enabled --expires="2027-01-31"`,
	RunE: runOverrideGrant,
}

var overrideRevokeCmd = &cobra.Command{
	Use:   "revoke <override-id>",
	Short: "Revoke an override by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverrideRevoke,
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all overrides for a user",
	Long: `Display every override recorded for a user, including revoked and
expired ones.

Examples:
  ratectl override list --user-id=<uuid>`,
	RunE: runOverrideList,
}

func init() {
	rootCmd.AddCommand(overrideCmd)
	overrideCmd.AddCommand(overrideGrantCmd)
	overrideCmd.AddCommand(overrideRevokeCmd)
	overrideCmd.AddCommand(overrideListCmd)

	overrideGrantCmd.Flags().StringVar(&overrideUserID, "user-id", "", "User UUID (required)")
	overrideGrantCmd.Flags().StringVar(&overrideKey, "key", "", "Feature or quota key (required)")
	overrideGrantCmd.Flags().StringVar(&overrideKind, "kind", "feature", "Override kind: feature or quota")
	overrideGrantCmd.Flags().BoolVar(&overrideEnabled, "enabled", false, "Feature value (feature overrides only)")
	overrideGrantCmd.Flags().Int64Var(&overrideLimit, "limit", 0, "Quota limit (quota overrides only)")
	overrideGrantCmd.Flags().StringVar(&overrideExpires, "expires", "", "Expiration date (YYYY-MM-DD), optional")

	overrideGrantCmd.MarkFlagRequired("user-id")
	overrideGrantCmd.MarkFlagRequired("key")

	overrideListCmd.Flags().StringVar(&overrideUserID, "user-id", "", "User UUID (required)")
	overrideListCmd.MarkFlagRequired("user-id")
}

func runOverrideGrant(cmd *cobra.Command, args []string) error {
	kind := entitlement.OverrideKind(overrideKind)
	if kind != entitlement.OverrideFeature && kind != entitlement.OverrideQuota {
		return fmt.Errorf("invalid kind: must be 'feature' or 'quota'")
	}
	if kind == entitlement.OverrideQuota && overrideLimit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	var expiresAt *time.Time
	if overrideExpires != "" {
		parsed, err := time.Parse("2006-01-02", overrideExpires)
		if err != nil {
			return fmt.Errorf("invalid expiration date format (use YYYY-MM-DD): %w", err)
		}
		expiresAt = &parsed
	}

	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewOverrideRepository(db)
	id, err := repo.Create(context.Background(), overrideUserID, entitlement.Override{
		Key:       overrideKey,
		Kind:      kind,
		Enabled:   overrideEnabled,
		Limit:     overrideLimit,
		ExpiresAt: expiresAt,
		IsActive:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create override: %w", err)
	}

	fmt.Printf("✅ Override %s granted to user %s (%s %s)\n", id, overrideUserID, kind, overrideKey)
	if expiresAt != nil {
		fmt.Printf("   Expires: %s\n", expiresAt.Format("2006-01-02"))
	}
	fmt.Println("   The user's cached decision refreshes on its TTL; revoke via the API to invalidate immediately.")
	return nil
}

func runOverrideRevoke(cmd *cobra.Command, args []string) error {
	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewOverrideRepository(db)
	userID, err := repo.Revoke(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to revoke override: %w", err)
	}

	fmt.Printf("✅ Override %s revoked (user %s)\n", args[0], userID)
	return nil
}

func runOverrideList(cmd *cobra.Command, args []string) error {
	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewOverrideRepository(db)
	overrides, err := repo.ListForUser(context.Background(), overrideUserID)
	if err != nil {
		return fmt.Errorf("failed to list overrides: %w", err)
	}

	printOverrides(overrides)
	return nil
}

func printOverrides(overrides []entitlement.Override) {
	fmt.Println()
	fmt.Printf("Overrides for user %s\n", overrideUserID)
	fmt.Println()

	if len(overrides) == 0 {
		fmt.Println("No overrides found.")
		fmt.Println()
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tKEY\tVALUE\tSTATUS\tEXPIRES")
	fmt.Fprintln(w, "--\t----\t---\t-----\t------\t-------")

	now := time.Now().UTC()
	for _, o := range overrides {
		value := fmt.Sprintf("%v", o.Enabled)
		if o.Kind == entitlement.OverrideQuota {
			value = fmt.Sprintf("%d", o.Limit)
		}

		status := "✅ Active"
		if !o.IsActive {
			status = "❌ Revoked"
		} else if o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
			status = "⏰ Expired"
		}

		expires := "Never"
		if o.ExpiresAt != nil {
			expires = o.ExpiresAt.Format("2006-01-02")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.Kind, o.Key, value, status, expires)
	}
	w.Flush()
	fmt.Println()
}
