package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/client"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const watchDebounce = 200 * time.Millisecond

func newRunCmd(opts *options) *cobra.Command {
	var (
		file  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:     "run [code...]",
		Aliases: []string{"exec", "x"},
		Short:   "Evaluate code in the console",
		Long: `Evaluate code in the server's console session.

Arguments are joined into one command. With no arguments, code comes from
stdin: piped input is evaluated as a single script and a terminal starts
an interactive prompt (exit with "exit" or Ctrl-D).`,
		Example: `  replctl run 'User.count'
  replctl run -f scripts/backfill.rb
  replctl run -f scratch.rb --watch
  echo 'Rails.env' | replctl run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && file == "" {
				return errors.New("--watch requires --file")
			}

			c := opts.client()
			switch {
			case file != "" && watch:
				return opts.watchScript(cmd, c, file)
			case file != "":
				code, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				return opts.evaluate(cmd, c, string(code))
			case len(args) > 0:
				return opts.evaluate(cmd, c, strings.Join(args, " "))
			case isTerminal(cmd.InOrStdin()):
				return opts.prompt(cmd, c)
			default:
				code, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				return opts.evaluate(cmd, c, string(code))
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Evaluate a script file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run --file whenever it changes")
	return cmd
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// evaluate sends code as a single command or, when it spans lines, as a
// script. A console-side failure is printed and turned into exit code 1.
func (o *options) evaluate(cmd *cobra.Command, c *client.Client, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("no code given")
	}

	var (
		res *types.Result
		err error
	)
	if strings.Contains(code, "\n") {
		res, err = c.RunScript(cmd.Context(), code, o.timeout)
	} else {
		res, err = c.Run(cmd.Context(), code, o.timeout)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.jsonOut {
		if err := printJSON(out, res); err != nil {
			return err
		}
	} else {
		printResult(out, res)
	}

	if !res.Success {
		return NewSilentExit(1)
	}
	return nil
}

func (o *options) prompt(cmd *cobra.Command, c *client.Client) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	fmt.Fprintln(out, dimStyle.Render("Connected to "+o.server+". Type exit to quit."))
	fmt.Fprint(out, promptStyle.Render(">> "))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := o.evaluate(cmd, c, line); err != nil {
				if _, silent := IsSilentExit(err); !silent {
					fmt.Fprintln(out, errorStyle.Render(err.Error()))
				}
			}
		}
		if cmd.Context().Err() != nil {
			return nil
		}
		fmt.Fprint(out, promptStyle.Render(">> "))
	}
	return scanner.Err()
}

func (o *options) watchScript(cmd *cobra.Command, c *client.Client, path string) error {
	w, err := newFileWatcher(path, watchDebounce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	run := func() {
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("── %s @ %s", path, time.Now().Format("15:04:05"))))
		code, err := os.ReadFile(path)
		if err == nil {
			err = o.evaluate(cmd, c, string(code))
		}
		if err != nil {
			if _, silent := IsSilentExit(err); !silent {
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
			}
		}
	}

	run()
	fmt.Fprintln(out, dimStyle.Render("Watching "+path+" for changes (Ctrl-C to stop)"))
	w.Run(cmd.Context(), run, func(err error) {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("watch: "+err.Error()))
	})
	return nil
}
