package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/autoheader/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect header configuration",
		Long: `Inspect the header configuration search chain.

Files are searched in this order and the first one that loads wins:
  1. <workspace>/.auto-header.toml
  2. <user config dir>/zed/auto-header.toml
  3. ~/.auto-header.toml`,
		Example: `  # Show which candidate files exist
  auto-header-server config paths

  # Show the resolved configuration as YAML
  auto-header-server config show --format yaml`,
	}

	cmd.AddCommand(newConfigPathsCmd(opts))
	cmd.AddCommand(newConfigShowCmd(opts))

	return cmd
}

func newConfigPathsCmd(opts *options) *cobra.Command {
	var workspaceDir string

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "List the configuration search chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := workspaceRoot(workspaceDir)
			if err != nil {
				return err
			}
			return printCandidates(cmd.OutOrStdout(), opts.newResolver().Inspect(root))
		},
	}

	cmd.Flags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace root (default: current directory)")
	return cmd
}

func newConfigShowCmd(opts *options) *cobra.Command {
	var (
		workspaceDir string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := workspaceRoot(workspaceDir)
			if err != nil {
				return err
			}
			cfg, source := opts.newResolver().Load(root)
			return writeConfig(cmd.OutOrStdout(), cfg, source, format)
		},
	}

	cmd.Flags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace root (default: current directory)")
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "Output format: toml, yaml, json")
	return cmd
}

func workspaceRoot(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return abs, nil
}

func printCandidates(w io.Writer, candidates []config.Candidate) error {
	for _, c := range candidates {
		status := "missing"
		switch {
		case c.Selected:
			status = "selected"
		case c.Err != nil:
			status = "invalid"
		case c.Present:
			status = "shadowed"
		}
		if _, err := fmt.Fprintf(w, "%-9s %s\n", status, c.Path); err != nil {
			return err
		}
		if c.Err != nil {
			if _, err := fmt.Fprintf(w, "          %v\n", c.Err); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeConfig(w io.Writer, cfg config.Config, source, format string) error {
	label := source
	if label == "" {
		label = "built-in defaults"
	}

	switch format {
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		_, err = fmt.Fprintf(w, "# source: %s\n%s", label, data)
		return err
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = fmt.Fprintf(w, "# source: %s\n%s", label, data)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Source string        `json:"source"`
			Config config.Config `json:"config"`
		}{Source: source, Config: cfg})
	default:
		return fmt.Errorf("unknown format %q (want toml, yaml, or json)", format)
	}
}
