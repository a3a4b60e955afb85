package mcp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"maraudit/internal/config"
	"maraudit/internal/mar"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	marService *mar.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, marService *mar.Service) (*Server, error) {
	if marService == nil {
		return nil, fmt.Errorf("marService cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		marService: marService,
		mcpServer:  mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	auditRunTool := mcp.NewTool(
		"mar_audit_run",
		mcp.WithDescription("Run the hold-rule audit of a MAR chart for one calendar day"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Chart PDF path, absolute or relative to the chart directory"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Audit date as MM-DD-YYYY; its day-of-month selects the grid column"),
		),
		mcp.WithNumber("workers",
			mcp.Description("Page worker count (0 uses the server default)"),
		),
		mcp.WithBoolean("write_files",
			mcp.Description("Also write the JSON blob and text checklist to the output directory"),
		),
	)
	s.mcpServer.AddTool(auditRunTool, s.handleAuditRun)

	validateFileTool := mcp.NewTool(
		"mar_validate_file",
		mcp.WithDescription("Validate that a file is an auditable MAR chart"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Chart PDF path, absolute or relative to the chart directory"),
		),
	)
	s.mcpServer.AddTool(validateFileTool, s.handleValidateFile)

	roomLookupTool := mcp.NewTool(
		"mar_room_lookup",
		mcp.WithDescription("Resolve a room token to its canonical room and hall"),
		mcp.WithString("room",
			mcp.Required(),
			mcp.Description("Room token such as 204-1, 201A, or 312-B"),
		),
	)
	s.mcpServer.AddTool(roomLookupTool, s.handleRoomLookup)

	searchDirectoryTool := mcp.NewTool(
		"mar_search_directory",
		mcp.WithDescription("Search for MAR chart PDFs with optional fuzzy filename matching"),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses the chart directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional fuzzy filename query"),
		),
	)
	s.mcpServer.AddTool(searchDirectoryTool, s.handleSearchDirectory)

	serverInfoTool := mcp.NewTool(
		"mar_server_info",
		mcp.WithDescription("Get server information, available tools, chart directory contents, and usage guidance"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleAuditRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	workers := s.config.Workers
	if w, ok := args["workers"].(float64); ok && w > 0 {
		workers = int(w)
	}

	writeFiles := false
	if wf, ok := args["write_files"].(bool); ok {
		writeFiles = wf
	}

	req := mar.AuditRunRequest{
		Path:       path,
		Date:       date,
		Workers:    workers,
		WriteFiles: writeFiles,
	}
	result, err := s.marService.AuditRun(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatAuditRunResult(result)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := mar.ValidateFileRequest{Path: path}
	result, err := s.marService.ValidateFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("Chart %s is valid and auditable (%d pages)", result.Path, result.Pages)
		if len(result.Warnings) > 0 {
			responseText += "\nWarnings:\n"
			for _, w := range result.Warnings {
				responseText += fmt.Sprintf("  - %s\n", w)
			}
		}
	} else {
		responseText = fmt.Sprintf("Chart validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleRoomLookup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	room, err := request.RequireString("room")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := mar.RoomLookupRequest{Room: room}
	result, err := s.marService.RoomLookup(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatRoomLookupResult(result)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := s.config.MARDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	req := mar.SearchDirectoryRequest{
		Directory: directory,
		Query:     query,
	}

	result, err := s.marService.SearchDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No chart PDFs found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := mar.ServerInfoRequest{}
	result, err := s.marService.ServerInfo(req, s.config.ServerName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatServerInfoResult(result)
	return mcp.NewToolResultText(responseText), nil
}

// Formatting methods
func (s *Server) formatAuditRunResult(result *mar.AuditRunResult) string {
	text := fmt.Sprintf("Audit of %s for %s\n", result.Path, result.Date)
	if result.Hall != "" {
		text += fmt.Sprintf("Hall: %s\n", result.Hall)
	}
	text += fmt.Sprintf("Reviewed: %d\n", result.Summary.Reviewed)
	text += fmt.Sprintf("Hold-Miss: %d\n", result.Summary.HoldMiss)
	text += fmt.Sprintf("Held-Appropriate: %d\n", result.Summary.HeldOK)
	text += fmt.Sprintf("Compliant: %d\n", result.Summary.Compliant)
	text += fmt.Sprintf("DC'D: %d\n", result.Summary.DCd)

	if len(result.Records) > 0 {
		text += "\nFindings:\n"
		for i, rec := range result.Records {
			text += fmt.Sprintf("%d. [%s] %s (%s)", i+1, rec.Decision, rec.Room, rec.Track)
			if rec.Notes != "" {
				text += fmt.Sprintf(": %s", rec.Notes)
			}
			text += "\n"
		}
	}

	diag := result.Diagnostics
	if len(diag.NoGridPages) > 0 || len(diag.RejectedRules) > 0 || len(diag.Warnings) > 0 {
		text += "\nDiagnostics:\n"
		if len(diag.NoGridPages) > 0 {
			pages := make([]string, len(diag.NoGridPages))
			for i, p := range diag.NoGridPages {
				pages[i] = fmt.Sprintf("%d", p)
			}
			text += fmt.Sprintf("  Pages without a detected grid: %s\n", strings.Join(pages, ", "))
		}
		for _, r := range diag.RejectedRules {
			text += fmt.Sprintf("  Rejected rule: %s\n", r)
		}
		for _, w := range diag.Warnings {
			text += fmt.Sprintf("  Warning: %s\n", w)
		}
	}

	if result.JSONPath != "" {
		text += fmt.Sprintf("\nJSON: %s (sha256 %s)\n", result.JSONPath, result.JSONSHA256)
	}
	if result.ChecklistPath != "" {
		text += fmt.Sprintf("Checklist: %s\n", result.ChecklistPath)
	}

	return text
}

func (s *Server) formatRoomLookupResult(result *mar.RoomLookupResult) string {
	text := fmt.Sprintf("Room %s resolves to %s\n", result.Input, result.Canonical)
	text += fmt.Sprintf("Hall: %s (%d rooms)\n", result.Hall, len(result.HallRooms))
	return text
}

func (s *Server) formatSearchDirectoryResult(result *mar.SearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d chart PDF(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatServerInfoResult(result *mar.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Chart Directory: %s\n", result.ChartDirectory)
	text += fmt.Sprintf("📄 Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n\n", result.MaxFileSize/(1024*1024))

	// Directory contents
	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d chart files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No chart PDFs found in chart directory\n\n"
	}

	// Available tools
	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	// Usage guidance
	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting MAR audit MCP server in stdio mode")
		log.Printf("Chart directory: %s", s.config.MARDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
