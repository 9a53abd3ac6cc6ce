package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/subslayer/internal/app"
	mcpinternal "github.com/felixgeelhaar/subslayer/internal/mcp"
)

var container *app.Container

// SetContainer sets the container the MCP server runs against.
func SetContainer(c *app.Container) {
	container = c
}

// Cmd is the MCP command group.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage the SubSlayer MCP interface",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return errors.New("mcp serve requires a database connection")
		}
		cliApp := mcpinternal.NewCLIApp(container)
		err := mcpinternal.Serve(cmd.Context(), container.Config, cliApp, container.Logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	Cmd.AddCommand(serveCmd)
}
