package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/hydrocheck/core"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// configFor clones the base config and applies the arguments shared by every tool.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	path := request.GetString("input_path", "")
	if path == "" {
		return nil, errors.New("input_path is required")
	}
	cfg, err := h.baseCfg.CloneWithInput(path)
	if err != nil {
		return nil, err
	}
	if k := request.GetString("kind", ""); k != "" {
		kind := schema.SeriesKind(strings.ToLower(k))
		if _, ok := schema.ValidSeriesKinds[kind]; !ok {
			return nil, fmt.Errorf("invalid kind '%s'. must be stage, flow", k)
		}
		cfg.Kind = kind
	}
	return cfg, nil
}

func (h *toolHandler) handleCheckStability(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if nodes := request.GetString("node", ""); nodes != "" {
		cfg.NodeFilter = nil
		for n := range strings.SplitSeq(nodes, ",") {
			if n = strings.TrimSpace(n); n != "" && !slices.Contains(cfg.NodeFilter, n) {
				cfg.NodeFilter = append(cfg.NodeFilter, n)
			}
		}
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}

	cfg.Tolerances.StageSecondDerivative = request.GetFloat("stage_tolerance", cfg.Tolerances.StageSecondDerivative)
	cfg.Tolerances.FlowSecondDerivative = request.GetFloat("flow_tolerance", cfg.Tolerances.FlowSecondDerivative)
	cfg.Tolerances.Ratio = request.GetFloat("ratio_tolerance", cfg.Tolerances.Ratio)
	if err := contract.ValidateTolerances(cfg.Tolerances); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, err := core.GetStabilityResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	report := schema.BuildReport(cfg.InputPath, result, cfg.ResultLimit)
	jsonData, _ := json.MarshalIndent(report, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetNodeDiagnostics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node := strings.TrimSpace(request.GetString("node", ""))
	if node == "" {
		return mcp.NewToolResultError("invalid parameters: node is required"), nil
	}
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	diag, err := core.GetNodeDiagnostics(ctx, cfg, h.mgr, node)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(diag, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
