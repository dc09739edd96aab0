// Package cmd provides the CLI commands for auto-header-server.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/autoheader/internal/config"
	"github.com/dshills/autoheader/internal/header"
	"github.com/dshills/autoheader/internal/logging"
	"github.com/dshills/autoheader/internal/trigger"
	"github.com/dshills/autoheader/internal/workspace"
)

// options holds the persistent flags and the state shared by subcommands.
type options struct {
	logLevel  string
	logFormat string
	logFile   string
	appDir    string
	match     string
	stdio     bool

	logger   *slog.Logger
	cleanup  func()
	exitCode int
}

// NewRootCmd creates the root command. Without a subcommand it serves LSP
// on stdio.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auto-header-server",
		Short: "Language server that inserts file headers into new files",
		Long: `auto-header-server speaks the Language Server Protocol on stdio.

When the editor opens an empty file and a .auto-header.toml exists in the
workspace root, the user config directory, or the home directory, the
server inserts a comment header rendered from that configuration.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			opts.close()
		},
	}

	cmd.SetVersionTemplate("auto-header-server version {{.Version}}\n")

	logDefaults := logging.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", logDefaults.Level, "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", string(logDefaults.Format), "Log format: text, json")
	pf.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	pf.StringVar(&opts.appDir, "config-app-dir", config.DefaultAppDir, "Sub-directory of the user config directory holding auto-header.toml")
	pf.StringVar(&opts.match, "match", workspace.FirstMatch.String(), "Workspace root selection for nested roots: first, longest")
	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "Communicate over stdio (always on)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	opts := &options{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		opts.close()
		return 1
	}
	return opts.exitCode
}

func (o *options) setup() error {
	if !logging.ValidLevel(o.logLevel) {
		return fmt.Errorf("invalid --log-level %q", o.logLevel)
	}
	if _, err := workspace.ParseMatchPolicy(o.match); err != nil {
		return fmt.Errorf("invalid --match: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = o.logLevel
	logCfg.Format = logging.Format(o.logFormat)
	logCfg.FilePath = o.logFile
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	o.logger = logger
	o.cleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func (o *options) close() {
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
}

func (o *options) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

func (o *options) newResolver() *config.Resolver {
	return config.NewResolver(
		config.WithAppDir(o.appDir),
		config.WithLogger(o.log()),
	)
}

func (o *options) newRegistry() *workspace.Registry {
	p, _ := workspace.ParseMatchPolicy(o.match)
	return workspace.New(workspace.WithMatchPolicy(p))
}

// components builds the registry and the trigger policy that consults it.
func (o *options) components() (*workspace.Registry, *trigger.Policy) {
	reg := o.newRegistry()
	policy := trigger.New(o.newResolver(), header.NewRenderer(), reg, o.log())
	return reg, policy
}
