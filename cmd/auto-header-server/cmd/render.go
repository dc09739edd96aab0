package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/autoheader/internal/header"
	"github.com/dshills/autoheader/internal/lsp"
	"github.com/dshills/autoheader/internal/trigger"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		workspaceDir string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Print the header that would be inserted for a file",
		Long: `Print the header the server would insert if <path> were opened empty.

The same opt-in rule applies as in the editor: without a configuration
file in the search chain nothing is rendered unless --force is given, in
which case the built-in defaults are used.`,
		Example: `  # Preview the header for a new Rust file in the current project
  auto-header-server render src/lib.rs

  # Preview with defaults when no config file exists
  auto-header-server render --force notes.py`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0], workspaceDir, force)
		},
	}

	cmd.Flags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace root (default: current directory)")
	cmd.Flags().BoolVar(&force, "force", false, "Render with defaults when no configuration file exists")

	return cmd
}

func runRender(cmd *cobra.Command, opts *options, path, workspaceDir string, force bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	root, err := workspaceRoot(workspaceDir)
	if err != nil {
		return err
	}

	reg, policy := opts.components()
	if err := reg.Initialize(root); err != nil {
		return fmt.Errorf("register workspace: %w", err)
	}

	d := policy.Decide(lsp.FilePathToURI(abs), "")
	text := d.Edit.NewText
	if !d.Insert() {
		if !force || d.Reason != trigger.ReasonNoConfig {
			return errors.New(string(d.Reason) + " (use --force to render with defaults)")
		}
		cfg := opts.newResolver().Resolve(d.WorkspaceRoot)
		text = header.NewRenderer().Render(cfg, abs)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}
