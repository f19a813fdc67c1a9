package complianced

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/raphi011/complianced/internal/model"
)

// runMCP serves the four operations as MCP tools over stdio, for agent
// callers that speak MCP instead of HTTP.
func (s *Server) runMCP() error {
	m := server.NewMCPServer(
		"complianced",
		version,
		server.WithToolCapabilities(false),
	)

	listTool := mcp.NewTool("list_suites",
		mcp.WithDescription("List the available compliance test suites and their documentation"),
	)
	m.AddTool(listTool, s.handleListSuites)

	executeTool := mcp.NewTool("execute_suite",
		mcp.WithDescription("Execute a compliance test suite by name and return the aggregated outcome"),
		mcp.WithString("suite_name",
			mcp.Required(),
			mcp.Description("Name of the suite to execute (file stem of the suite definition)"),
		),
	)
	m.AddTool(executeTool, s.handleExecuteSuite)

	latestTool := mcp.NewTool("latest_results",
		mcp.WithDescription("Load the most recent execution report without re-executing"),
		mcp.WithString("suite_name",
			mcp.Description("Suite to load results for; the most recent report across all suites when empty"),
		),
	)
	m.AddTool(latestTool, s.handleLatestResults)

	searchTool := mcp.NewTool("search_logs",
		mcp.WithDescription("Search execution report log messages by keyword and minimum severity"),
		mcp.WithString("keyword",
			mcp.Description("Case-insensitive substring to search for; empty matches every message"),
		),
		mcp.WithString("min_level",
			mcp.Description("Minimum severity: TRACE, DEBUG, INFO, WARN, ERROR or FAIL. Defaults to FAIL"),
		),
		mcp.WithString("suite_name",
			mcp.Description("Restrict the search to one suite's latest report"),
		),
	)
	m.AddTool(searchTool, s.handleSearchLogs)

	s.log.Info("serving mcp tools over stdio")

	return server.ServeStdio(m)
}

func (s *Server) handleListSuites(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.ListSuites())
}

func (s *Server) handleExecuteSuite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	suiteName, err := request.RequireString("suite_name")
	if err != nil {
		return mcp.NewToolResultError("suite_name parameter is required"), nil
	}

	outcome, err := s.Execute(ctx, suiteName)
	if err != nil {
		return toolError(err), nil
	}

	return toolResult(outcome)
}

func (s *Server) handleLatestResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	suiteName, _ := args["suite_name"].(string)

	report, err := s.LatestResult(suiteName)
	if err != nil {
		return toolError(err), nil
	}

	return toolResult(report)
}

func (s *Server) handleSearchLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	keyword, _ := args["keyword"].(string)
	suiteName, _ := args["suite_name"].(string)

	minLevel := model.LevelFail

	if levelArg, ok := args["min_level"].(string); ok && levelArg != "" {
		var err error

		minLevel, err = model.ParseLogLevel(levelArg)
		if err != nil {
			return toolError(err), nil
		}
	}

	matches, err := s.SearchLogs(suiteName, keyword, minLevel)
	if err != nil {
		return toolError(err), nil
	}

	return toolResult(matches)
}

func toolResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(body)), nil
}

func toolError(err error) *mcp.CallToolResult {
	body, marshalErr := json.Marshal(errorBody{
		Error:  model.ErrorKind(err),
		Detail: err.Error(),
	})
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error())
	}

	return mcp.NewToolResultError(string(body))
}
