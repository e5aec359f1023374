// Package commands implements the resload subcommands.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/resload/internal/cli/config"
	"github.com/leapstack-labs/resload/internal/cli/output"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer the root
// command stored for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:      config.GetCurrentConfig(),
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.FromContext(cmd.Context()),
	}
}
