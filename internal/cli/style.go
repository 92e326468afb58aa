package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#787fa0"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Width(14)
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7")).Bold(true)
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders an execution result: output on success, the
// formatted error (and any partial output) on failure.
func printResult(w io.Writer, res *types.Result) {
	output, _ := res.Data["output"].(string)

	if res.Success {
		if output != "" {
			fmt.Fprintln(w, output)
		}
		return
	}

	if timedOut, _ := res.Data["timed_out"].(bool); timedOut && output != "" {
		fmt.Fprintln(w, dimStyle.Render(output))
	}
	msg := "command failed"
	if res.Error != nil {
		msg = *res.Error
	}
	fmt.Fprintln(w, errorStyle.Render(msg))
}

func printField(w io.Writer, label string, value interface{}) {
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label), value)
}
