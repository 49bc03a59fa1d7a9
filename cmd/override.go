package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/relist-cli/internal/classify"
	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/store"
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manually promote or reject candidates",
	Long: `Manual overrides are keyed by resolved id and win over rule results on every
later classify run. Each change is kept in an append-only audit trail.`,
}

// openBook opens the database and loads the override book.
func openBook(ctx context.Context) (*classify.Book, *store.SQLiteStore, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	book := classify.NewBook(st)
	if err := book.Load(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}
	return book, st, nil
}

var overridePromoteCmd = &cobra.Command{
	Use:   "promote <resolved-id>",
	Short: "Promote a candidate to tier A",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		book, st, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		note, _ := cmd.Flags().GetString("note")
		entry, err := book.Promote(ctx, args[0], userFlag(cmd), note)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (%s)\n", entry.RecordID, fromTier(entry.FromTier), entry.ToTier, entry.Status)
		return nil
	},
}

var overrideRejectCmd = &cobra.Command{
	Use:   "reject <resolved-id>",
	Short: "Reject a candidate to tier C or X",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		book, st, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		note, _ := cmd.Flags().GetString("note")
		tier, _ := cmd.Flags().GetString("tier")
		entry, err := book.Reject(ctx, args[0], model.Tier(strings.ToUpper(tier)), userFlag(cmd), note)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (%s)\n", entry.RecordID, fromTier(entry.FromTier), entry.ToTier, entry.Status)
		return nil
	},
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List manual overrides",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		book, st, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		overrides := book.List()
		if len(overrides) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No overrides.")
			return nil
		}
		formatOverrides(cmd.OutOrStdout(), overrides)
		return nil
	},
}

var overrideAuditCmd = &cobra.Command{
	Use:   "audit <resolved-id>",
	Short: "Show the audit trail of one candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		book, st, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		return writeJSON(cmd.OutOrStdout(), book.Audit(args[0]))
	},
}

func fromTier(t model.Tier) string {
	if t == model.TierUnclassified {
		return "rule"
	}
	return string(t)
}

func init() {
	for _, c := range []*cobra.Command{overridePromoteCmd, overrideRejectCmd} {
		c.Flags().String("note", "", "free-text note kept in the audit trail")
		c.Flags().String("user", "", "reviewer recorded in the audit trail (default from config)")
	}
	overrideRejectCmd.Flags().String("tier", string(model.TierX), "target tier: C or X")

	overrideCmd.AddCommand(overridePromoteCmd)
	overrideCmd.AddCommand(overrideRejectCmd)
	overrideCmd.AddCommand(overrideListCmd)
	overrideCmd.AddCommand(overrideAuditCmd)
	rootCmd.AddCommand(overrideCmd)
}
