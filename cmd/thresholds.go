package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/relist-cli/internal/thresholds"
)

var thresholdsCmd = &cobra.Command{
	Use:     "thresholds",
	Aliases: []string{"config"},
	Short:   "Inspect and change classification thresholds",
	Long:    "Commands for reading, updating, exporting and auditing the versioned threshold config.",
}

// -- thresholds get --

var thresholdsGetCmd = &cobra.Command{
	Use:   "get [category.key]",
	Short: "Print one threshold or the whole config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return writeJSON(cmd.OutOrStdout(), th.Document())
		}
		category, key, err := splitPath(args[0])
		if err != nil {
			return err
		}
		v := th.Get(category, key, nil)
		if v == nil {
			return eris.Errorf("thresholds: %s is not set", args[0])
		}
		return writeJSON(cmd.OutOrStdout(), v)
	},
}

// -- thresholds set --

var thresholdsSetCmd = &cobra.Command{
	Use:   "set <category.key> <value>",
	Short: "Set one threshold value",
	Long:  "Values are parsed as JSON when possible (numbers, booleans, arrays), otherwise stored as strings.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		category, key, err := splitPath(args[0])
		if err != nil {
			return err
		}
		if err := th.Set(category, key, parseValue(args[1]), userFlag(cmd)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (revision %d)\n", args[0], args[1], th.Snapshot().Revision())
		return nil
	},
}

// -- thresholds preset --

var thresholdsPresetCmd = &cobra.Command{
	Use:   "preset <name>",
	Short: "Apply a named preset (" + strings.Join(thresholds.Presets(), ", ") + ")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		if err := th.ApplyPreset(args[0], userFlag(cmd)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "applied preset %s (revision %d)\n", args[0], th.Snapshot().Revision())
		return nil
	},
}

// -- thresholds reset --

var thresholdsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the balanced defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		if err := th.Reset(userFlag(cmd)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reset to defaults (revision %d)\n", th.Snapshot().Revision())
		return nil
	},
}

// -- thresholds export --

var thresholdsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the config as JSON or YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		data, err := th.ExportSnapshot()
		if err != nil {
			return err
		}
		switch format {
		case "json":
		case "yaml":
			if data, err = jsonToYAML(data); err != nil {
				return err
			}
		default:
			return eris.Errorf("thresholds: unknown format %q", format)
		}

		if output == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := ensureDir(output); err != nil {
			return err
		}
		return eris.Wrap(os.WriteFile(output, data, 0o644), "thresholds: write export")
	},
}

// -- thresholds import --

var thresholdsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the config with an exported snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "thresholds: read import")
		}
		ext := strings.ToLower(filepath.Ext(args[0]))
		if ext == ".yaml" || ext == ".yml" {
			if data, err = yamlToJSON(data); err != nil {
				return err
			}
		}
		if err := th.ImportSnapshot(data, userFlag(cmd)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %s (revision %d)\n", args[0], th.Snapshot().Revision())
		return nil
	},
}

// -- thresholds history --

var thresholdsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the config change history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		th, err := initThresholds()
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		entries := th.History()
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No history.")
			return nil
		}
		formatHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{thresholdsSetCmd, thresholdsPresetCmd, thresholdsResetCmd, thresholdsImportCmd} {
		c.Flags().String("user", "", "user recorded in the history (default from config)")
	}
	thresholdsExportCmd.Flags().String("format", "json", "export format: json or yaml")
	thresholdsExportCmd.Flags().String("output", "", "write to this file instead of stdout")
	thresholdsHistoryCmd.Flags().Bool("json", false, "print entries as JSON")

	thresholdsCmd.AddCommand(thresholdsGetCmd)
	thresholdsCmd.AddCommand(thresholdsSetCmd)
	thresholdsCmd.AddCommand(thresholdsPresetCmd)
	thresholdsCmd.AddCommand(thresholdsResetCmd)
	thresholdsCmd.AddCommand(thresholdsExportCmd)
	thresholdsCmd.AddCommand(thresholdsImportCmd)
	thresholdsCmd.AddCommand(thresholdsHistoryCmd)
	rootCmd.AddCommand(thresholdsCmd)
}

// splitPath splits "category.key" at the first dot.
func splitPath(path string) (string, string, error) {
	category, key, ok := strings.Cut(path, ".")
	if !ok || category == "" || key == "" {
		return "", "", eris.Errorf("thresholds: want category.key, got %q", path)
	}
	return category, key, nil
}

// parseValue decodes s as JSON, falling back to the raw string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

// userFlag returns --user if set, else the configured user.
func userFlag(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	return cfg.User
}

func jsonToYAML(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "thresholds: decode export")
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "thresholds: encode yaml")
	}
	return out, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "thresholds: decode yaml")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "thresholds: encode json")
	}
	return out, nil
}
