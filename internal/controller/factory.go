package controller

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Option configures UI construction.
type Option func(*uiConfig)

type uiConfig struct {
	colored bool
}

// WithColor toggles colorized output for UIs that support it.
func WithColor(colored bool) Option {
	return func(c *uiConfig) {
		c.colored = colored
	}
}

// NewUI creates a UI based on whether TTY mode is enabled.
// When useTTY is true, it returns a TUI (interactive).
// When useTTY is false, it returns a SimpleUI (plain text).
func NewUI(cmd *cobra.Command, useTTY bool, options ...Option) UI {
	if useTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd, options...)
}

// IsTTY checks if the given writer is a terminal.
func IsTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := file.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}
