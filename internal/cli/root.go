// Package cli implements the replctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/client"
	"github.com/spf13/cobra"
)

// Version is the replctl release
const Version = "0.1.0"

const defaultServer = "http://localhost:8000"

// options are the persistent flags shared by every subcommand
type options struct {
	server  string
	timeout time.Duration
	jsonOut bool
}

func (o *options) client() *client.Client {
	cfg := client.DefaultConfig(o.server)
	if o.timeout+time.Minute > cfg.Timeout {
		cfg.Timeout = o.timeout + time.Minute
	}
	return client.New(cfg)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "replctl",
		Short:   "Drive a replbridge console from the command line",
		Version: Version,
		Long: `replctl talks to a running replbridge server.

It evaluates code in the server's console session, manages the session
lifecycle and reports health. Point it at a server with --server or the
REPLBRIDGE_URL environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("REPLBRIDGE_URL")
	if server == "" {
		server = defaultServer
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", server, "replbridge server URL")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Execution timeout override (0 uses the server default)")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print raw JSON replies")

	root.AddCommand(
		newRunCmd(opts),
		newConnectCmd(opts),
		newDisconnectCmd(opts),
		newRestartCmd(opts),
		newHealthCmd(opts),
		newServicesCmd(opts),
	)
	return root
}

// Execute runs the root command and returns an exit code.
// The caller (main) should call os.Exit with this code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if code, ok := IsSilentExit(err); ok {
			return code
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}
