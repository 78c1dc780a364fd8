package cmd

import (
	"github.com/huangsam/hydrocheck/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Hydrocheck MCP server",
	Long:  `Launch an MCP server that allows AI agents to run stability checks via standard tools.`,
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Tools pass their own results file; headers are suppressed by core
		// to avoid polluting stdio which is used for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
