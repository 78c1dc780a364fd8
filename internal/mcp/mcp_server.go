// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Hydrocheck MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Hydrocheck Stability Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: check_stability ---
	s.AddTool(mcp.NewTool("check_stability",
		mcp.WithDescription("Run the stability detector over an exported FMP results file and list unstable nodes."),
		mcp.WithString("input_path", mcp.Description("Path to the results file (csv, csv.gz, json or parquet)."), mcp.Required()),
		mcp.WithString("kind", mcp.Description("Series to analyze. Defaults to 'stage'."), mcp.Enum("stage", "flow")),
		mcp.WithString("node", mcp.Description("Comma-separated node names to restrict the analysis to.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of node summaries returned.")),
		mcp.WithNumber("stage_tolerance", mcp.Description("Second derivative magnitude tolerance for stage.")),
		mcp.WithNumber("flow_tolerance", mcp.Description("Second derivative magnitude tolerance for flow.")),
		mcp.WithNumber("ratio_tolerance", mcp.Description("Ratio between second and first derivative ranges.")),
	), h.handleCheckStability)

	// --- 2. Tool: get_node_diagnostics ---
	s.AddTool(mcp.NewTool("get_node_diagnostics",
		mcp.WithDescription("Return the per-sample detector trace (raw, smoothed, derivatives, flags) of one node."),
		mcp.WithString("input_path", mcp.Description("Path to the results file."), mcp.Required()),
		mcp.WithString("node", mcp.Description("Name of the node to trace."), mcp.Required()),
		mcp.WithString("kind", mcp.Description("Series to analyze. Defaults to 'stage'."), mcp.Enum("stage", "flow")),
	), h.handleGetNodeDiagnostics)

	return s
}

// StartMCPServer starts the Hydrocheck MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
