package cli

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/spf13/cobra"
)

func newConnectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Start the console and wait for its prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.lifecycle(cmd, opts.client().Connect, func(res *types.Result) string {
				if already, _ := res.Data["already_running"].(bool); already {
					return fmt.Sprintf("Console already running (pid %v)", res.Data["pid"])
				}
				return fmt.Sprintf("Console ready (pid %v, session %v)", res.Data["pid"], res.Data["session_id"])
			})
		},
	}
}

func newDisconnectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "disconnect",
		Aliases: []string{"stop"},
		Short:   "Terminate the console session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.lifecycle(cmd, opts.client().Disconnect, func(*types.Result) string {
				return "Console stopped"
			})
		},
	}
}

func newRestartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Terminate and start the console again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.lifecycle(cmd, opts.client().Restart, func(res *types.Result) string {
				return fmt.Sprintf("Console restarted (pid %v)", res.Data["pid"])
			})
		},
	}
}

func (o *options) lifecycle(cmd *cobra.Command, call func(context.Context) (*types.Result, error), describe func(*types.Result) string) error {
	res, err := call(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case o.jsonOut:
		if err := printJSON(out, res); err != nil {
			return err
		}
	case res.Success:
		fmt.Fprintln(out, successStyle.Render("✓"), describe(res))
	default:
		printResult(out, res)
	}

	if !res.Success {
		return NewSilentExit(1)
	}
	return nil
}
