package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/relist-cli/internal/safety"
)

var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Manage the banned-term dictionary",
}

var safetyCheckCmd = &cobra.Command{
	Use:   "check <text>...",
	Short: "Evaluate free text against the dictionary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		sf, err := initSafety()
		if err != nil {
			return err
		}
		v := safety.Evaluate(strings.Join(args, " "), sf.Dictionary(), th.Snapshot())
		return writeJSON(cmd.OutOrStdout(), v)
	},
}

var safetyAddCmd = &cobra.Command{
	Use:   "add <category> <term>",
	Short: "Add a term to a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := initSafety()
		if err != nil {
			return err
		}
		changed, err := sf.AddTerm(args[0], args[1])
		if err != nil {
			return err
		}
		if !changed {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q already in %s\n", args[1], safety.CategoryKey(args[0]))
			return nil
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %q to %s\n", args[1], safety.CategoryKey(args[0]))
		return nil
	},
}

var safetyRemoveCmd = &cobra.Command{
	Use:   "remove <category> <term>",
	Short: "Remove a term from a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := initSafety()
		if err != nil {
			return err
		}
		changed, err := sf.RemoveTerm(args[0], args[1])
		if err != nil {
			return err
		}
		if !changed {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q not in %s\n", args[1], safety.CategoryKey(args[0]))
			return nil
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %q from %s\n", args[1], safety.CategoryKey(args[0]))
		return nil
	},
}

var safetyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in dictionary, or one read from a YAML/JSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sf, err := initSafety()
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		force, _ := cmd.Flags().GetBool("force")

		if sf.Unreadable() && !force {
			return eris.Errorf("safety: %s exists but could not be loaded, use --force to replace it", sf.Path())
		}
		if sf.Dictionary().Len() > 0 && !force {
			return eris.Errorf("safety: %s already has terms, use --force to replace", sf.Path())
		}

		dict := safety.DefaultDictionary()
		if from != "" {
			if dict, err = readDictionary(from); err != nil {
				return err
			}
		}
		if err := sf.Replace(dict); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d terms in %d categories to %s\n",
			dict.Len(), len(dict.Categories()), sf.Path())
		return nil
	},
}

var safetyListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List dictionary terms",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := initSafety()
		if err != nil {
			return err
		}
		dict := sf.Dictionary()
		cats := dict.Categories()
		if len(args) == 1 {
			cats = []string{safety.CategoryKey(args[0])}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CATEGORY\tRISK\tTERMS")
		for _, c := range cats {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c, safety.RiskOf(c), strings.Join(dict.Terms(c), ", "))
		}
		return w.Flush()
	},
}

// readDictionary parses a dictionary file by extension.
func readDictionary(path string) (safety.Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return safety.Dictionary{}, eris.Wrapf(err, "safety: read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return safety.ParseYAML(data)
	default:
		return safety.ParseJSON(data)
	}
}

func init() {
	safetyInitCmd.Flags().String("from", "", "seed from this YAML or JSON file instead of the built-in list")
	safetyInitCmd.Flags().Bool("force", false, "overwrite an existing dictionary")

	safetyCmd.AddCommand(safetyCheckCmd)
	safetyCmd.AddCommand(safetyAddCmd)
	safetyCmd.AddCommand(safetyRemoveCmd)
	safetyCmd.AddCommand(safetyInitCmd)
	safetyCmd.AddCommand(safetyListCmd)
	rootCmd.AddCommand(safetyCmd)
}
