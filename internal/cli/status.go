package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "health",
		Aliases: []string{"status"},
		Short:   "Show server and console health",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.client().Health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, h)
			}

			status := successStyle.Render(h.Status)
			if h.Status != "healthy" {
				status = warnStyle.Render(h.Status)
			}
			printField(out, "Server", status)
			printField(out, "Console", h.Console.State)
			if h.Console.Pid != 0 {
				printField(out, "PID", h.Console.Pid)
			}
			if h.Console.SessionID != "" {
				printField(out, "Session", h.Console.SessionID)
			}
			printField(out, "Command", h.Console.Command)
			printField(out, "Directory", h.Console.WorkingDir)
			printField(out, "Executions", h.Console.Executions)
			if h.Console.LastError != "" {
				printField(out, "Last error", errorStyle.Render(h.Console.LastError))
			}
			return nil
		},
	}
}

func newServicesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the server's services and tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := opts.client().Services(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, services)
			}

			for _, svc := range services {
				fmt.Fprintf(out, "%s %s\n", successStyle.Render(svc.ID), dimStyle.Render(svc.Description))
				for _, tool := range svc.Tools {
					params := make([]string, 0, len(tool.Parameters))
					for _, p := range tool.Parameters {
						name := p.Name
						if !p.Required {
							name += "?"
						}
						params = append(params, name)
					}
					fmt.Fprintf(out, "  %-28s %s\n", tool.ID+"("+strings.Join(params, ", ")+")", tool.Description)
				}
			}
			return nil
		},
	}
}
