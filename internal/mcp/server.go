package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/adreview/internal/export"
	"github.com/joescharf/adreview/internal/models"
	"github.com/joescharf/adreview/internal/review"
)

// Server exposes a review session as MCP tools.
type Server struct {
	session *review.Session
	version string
}

// NewServer creates the MCP server wrapper around session.
func NewServer(session *review.Session, version string) *Server {
	return &Server{session: session, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("adreview", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.addURLsTool())
	srv.AddTool(s.stateTool())
	srv.AddTool(s.setCriterionTool())
	srv.AddTool(s.decideTool())
	srv.AddTool(s.clearTool())
	srv.AddTool(s.exportCSVTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stateSummary is the compact view returned to agents.
type stateSummary struct {
	Phase    models.Phase            `json:"phase"`
	Cursor   int                     `json:"cursor"`
	Queued   int                     `json:"queued"`
	Current  *models.QueueItem       `json:"current,omitempty"`
	Criteria []models.CriterionEntry `json:"criteria"`
	Ratings  []string                `json:"ratings"`
	Results  int                     `json:"results"`
	Message  string                  `json:"message,omitempty"`
}

func summarize(st models.SessionState) stateSummary {
	return stateSummary{
		Phase:    st.Phase,
		Cursor:   st.Cursor,
		Queued:   len(st.Queue),
		Current:  st.Current,
		Criteria: st.Criteria,
		Ratings:  st.Ratings,
		Results:  len(st.Results),
		Message:  st.Message,
	}
}

// review_add_urls
func (s *Server) addURLsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_add_urls",
		mcp.WithDescription("Add video URLs to the review queue, one per line. Blank lines are ignored. The first item is selected automatically when the queue was empty."),
		mcp.WithString("urls", mcp.Required(), mcp.Description("Newline-separated video URLs")),
	)
	return tool, s.handleAddURLs
}

func (s *Server) handleAddURLs(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("urls")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	added := s.session.AddURLList(text)
	return jsonResult(map[string]any{
		"added": added,
		"state": summarize(s.session.State()),
	})
}

// review_state
func (s *Server) stateTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_state",
		mcp.WithDescription("Get the review session state: phase, current item, criteria panel and number of results."),
	)
	return tool, s.handleState
}

func (s *Server) handleState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(summarize(s.session.State()))
}

// review_set_criterion
func (s *Server) setCriterionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_set_criterion",
		mcp.WithDescription("Set the rating and note of one criterion row for the current item."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based criterion row index")),
		mcp.WithString("rating", mcp.Description("Rating value, or empty to clear")),
		mcp.WithString("note", mcp.Description("Free-form note")),
	)
	return tool, s.handleSetCriterion
}

func (s *Server) handleSetCriterion(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rating := request.GetString("rating", "")
	note := request.GetString("note", "")
	if err := s.session.SetCriterion(index, rating, note); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set criterion: %v", err)), nil
	}
	return jsonResult(summarize(s.session.State()))
}

// review_decide
func (s *Server) decideTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_decide",
		mcp.WithDescription("Record accept or reject for the current item and advance to the next one. Does nothing when no item is under review."),
		mcp.WithString("decision", mcp.Required(), mcp.Description("accept or reject"), mcp.Enum("accept", "reject")),
	)
	return tool, s.handleDecide
}

func (s *Server) handleDecide(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("decision")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	decision, err := models.ParseDecision(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := map[string]any{"recorded": false}
	if rec, ok := s.session.Decide(decision); ok {
		out["recorded"] = true
		out["record"] = rec
	}
	out["state"] = summarize(s.session.State())
	return jsonResult(out)
}

// review_clear
func (s *Server) clearTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_clear",
		mcp.WithDescription("Clear the queue and discard all recorded results."),
	)
	return tool, s.handleClear
}

func (s *Server) handleClear(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.session.Clear(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear queue: %v", err)), nil
	}
	return jsonResult(summarize(s.session.State()))
}

// review_export_csv
func (s *Server) exportCSVTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_export_csv",
		mcp.WithDescription("Export recorded results as CSV text (one row per result and criterion)."),
	)
	return tool, s.handleExportCSV
}

func (s *Server) handleExportCSV(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := export.CSV(&buf, s.session.Results()); err != nil {
		if errors.Is(err, export.ErrNoResults) {
			return mcp.NewToolResultError("No results yet."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to export: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
