package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/dshills/autoheader/internal/lsp"
	"github.com/dshills/autoheader/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Language Server Protocol on stdio",
		Long: `Serve the Language Server Protocol on stdin/stdout.

This is what editors launch. Standard output carries only protocol
messages; logs go to stderr or --log-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "Communicate over stdio (always on)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := cmd.InOrStdin()
	logger := opts.log()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		logger.Warn("stdin is a terminal; auto-header-server expects an LSP client on stdio")
	}

	reg, policy := opts.components()
	srv := server.New(policy, reg, server.WithLogger(logger), server.WithVersion(Version))

	r, closer := interruptible(in)
	tr := lsp.NewTransport(r, cmd.OutOrStdout(), closer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, tr)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			logger.Info("stopping", "reason", context.Cause(gctx))
			return tr.Close()
		case <-tr.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	opts.exitCode = srv.ExitCode()
	logger.Debug("server stopped", "exit_code", opts.exitCode)
	return nil
}

// interruptible copies src through a pipe so that closing the returned
// closer unblocks a pending read even when src itself cannot be
// interrupted, as with a blocking stdin descriptor.
func interruptible(src io.Reader) (io.Reader, io.Closer) {
	pr, pw := io.Pipe()
	go func() {
		_, err := io.Copy(pw, src)
		_ = pw.CloseWithError(err)
	}()
	return pr, pr
}
