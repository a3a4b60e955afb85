package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"maraudit/internal/audit"
	"maraudit/internal/config"
	"maraudit/internal/decision"
	"maraudit/internal/mar"
)

func testConfig(chartDir string) *config.Config {
	return &config.Config{
		Mode:            "stdio",
		Host:            "127.0.0.1",
		Port:            8080,
		MARDirectory:    chartDir,
		OutputDirectory: filepath.Join(chartDir, "reports"),
		Version:         "1.0.0",
		ServerName:      "test-server",
		LogLevel:        "info",
		MaxFileSize:     1024 * 1024,
	}
}

func testService(t *testing.T, cfg *config.Config) *mar.Service {
	t.Helper()
	svc, err := mar.NewService(cfg.MaxFileSize, cfg.MARDirectory, cfg.OutputDirectory, cfg.Version)
	if err != nil {
		t.Fatalf("Failed to create MAR service: %v", err)
	}
	return svc
}

func TestNewServer(t *testing.T) {
	tempDir := t.TempDir()
	cfg := testConfig(tempDir)
	marService := testService(t, cfg)

	tests := []struct {
		name        string
		config      *config.Config
		expectError bool
	}{
		{
			name:        "valid stdio mode config",
			config:      cfg,
			expectError: false,
		},
		{
			name: "valid server mode config",
			config: func() *config.Config {
				c := testConfig(tempDir)
				c.Mode = "server"
				return c
			}(),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, marService)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.expectError {
				if server == nil {
					t.Fatal("server should not be nil")
				}
				if server.config != tt.config {
					t.Error("server config not set correctly")
				}
				if server.marService != marService {
					t.Error("server marService not set correctly")
				}
				if server.mcpServer == nil {
					t.Error("mcpServer should be initialized")
				}
			}
		})
	}
}

func TestNewServerNilService(t *testing.T) {
	cfg := testConfig(t.TempDir())
	if _, err := NewServer(cfg, nil); err == nil {
		t.Error("expected error for nil service")
	}
}

func TestServer_HandleValidateFile(t *testing.T) {
	tempDir := t.TempDir()

	// Not a parseable PDF, so validation should fail cleanly.
	testFile := filepath.Join(tempDir, "chart.pdf")
	if err := os.WriteFile(testFile, make([]byte, 1024), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg := testConfig(tempDir)
	server, err := NewServer(cfg, testService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"path": testFile,
			},
		},
	}

	result, err := server.handleValidateFile(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "Chart validation failed") {
		t.Errorf("expected validation to fail, got: %s", resultText)
	}
}

func TestServer_HandleSearchDirectory(t *testing.T) {
	tempDir := t.TempDir()

	testFiles := []string{"mercer_09-2026.pdf", "holaday_09-2026.pdf", "notes.txt"}
	for _, filename := range testFiles {
		filePath := filepath.Join(tempDir, filename)
		if err := os.WriteFile(filePath, make([]byte, 1024), 0o644); err != nil {
			t.Fatalf("failed to create test file %s: %v", filename, err)
		}
	}

	cfg := testConfig(tempDir)
	server, err := NewServer(cfg, testService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"directory": tempDir,
				"query":     "",
			},
		},
	}

	result, err := server.handleSearchDirectory(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "Found 2 chart PDF(s)") {
		t.Errorf("content should mention 2 chart PDFs, got: %s", resultText)
	}
}

func TestServer_HandleRoomLookup(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, testService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"room": "201A",
			},
		},
	}

	result, err := server.handleRoomLookup(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "201-1") {
		t.Errorf("content should contain the canonical room, got: %s", resultText)
	}
	if !strings.Contains(resultText, "Holaday") {
		t.Errorf("content should contain the hall, got: %s", resultText)
	}
}

func TestServer_HandleRoomLookupUnknownRoom(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, testService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"room": "999-1",
			},
		},
	}

	result, err := server.handleRoomLookup(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !result.IsError {
		t.Errorf("expected error result for unknown room, got: %s", extractTextFromResult(result))
	}
}

func TestServer_DefaultDirectory(t *testing.T) {
	tempDir := t.TempDir()
	cfg := testConfig(tempDir)
	server, err := NewServer(cfg, testService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	// Create request without directory (should use the chart directory)
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"query": "",
			},
		},
	}

	result, err := server.handleSearchDirectory(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, tempDir) {
		t.Errorf("content should mention chart directory %s, got: %s", tempDir, resultText)
	}
}

func TestServer_InvalidArguments(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, testService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	emptyRequest := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	handlers := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		{"AuditRun", server.handleAuditRun},
		{"ValidateFile", server.handleValidateFile},
		{"RoomLookup", server.handleRoomLookup},
	}

	for _, h := range handlers {
		t.Run(h.name, func(t *testing.T) {
			result, err := h.handler(context.Background(), emptyRequest)
			if err != nil {
				t.Errorf("handler should not return error, got: %v", err)
			}
			if result == nil {
				t.Fatal("result should not be nil")
			}

			resultText := extractTextFromResult(result)
			if !strings.Contains(resultText, "required") && !strings.Contains(resultText, "missing") &&
				!strings.Contains(resultText, "error") {
				t.Errorf("expected error message for missing arguments, got: %s", resultText)
			}
		})
	}
}

func TestFormatMethods(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, testService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	// Test formatSearchDirectoryResult
	searchResult := &mar.SearchDirectoryResult{
		Files: []mar.FileInfo{
			{
				Name:         "mercer_09-2026.pdf",
				Path:         "/charts/mercer_09-2026.pdf",
				Size:         1024,
				ModifiedTime: "2026-09-01 12:00:00",
			},
		},
		TotalCount:  1,
		Directory:   "/charts",
		SearchQuery: "mercer",
	}

	formatted := server.formatSearchDirectoryResult(searchResult)
	if !strings.Contains(formatted, "Found 1 chart PDF(s)") {
		t.Error("formatted result should contain file count")
	}
	if !strings.Contains(formatted, "mercer_09-2026.pdf") {
		t.Error("formatted result should contain filename")
	}

	// Test formatAuditRunResult
	sbp := 165
	auditResult := &mar.AuditRunResult{
		Path: "/charts/holaday_09-2026.pdf",
		Date: "09-14-2026",
		Hall: "Holaday",
		Summary: decision.Summary{
			Reviewed: 2,
			HoldMiss: 1,
			DCd:      1,
		},
		Records: []decision.Record{
			{
				Room:     "204-1",
				Hall:     "Holaday",
				Track:    decision.TrackAM,
				Decision: decision.HoldMiss,
				Notes:    "Hold if SBP > 160; BP 165/70; given 08:00",
				Measured: decision.Measured{SBP: &sbp},
			},
		},
		Diagnostics: audit.Diagnostics{NoGridPages: []int{3}},
		JSONPath:    "/reports/audit_09-14-2026.json",
		JSONSHA256:  strings.Repeat("ab", 32),
	}

	formatted = server.formatAuditRunResult(auditResult)
	if !strings.Contains(formatted, "Hold-Miss: 1") {
		t.Error("formatted result should contain the summary counts")
	}
	if !strings.Contains(formatted, "[HOLD-MISS] 204-1 (AM)") {
		t.Error("formatted result should contain the finding line")
	}
	if !strings.Contains(formatted, "Pages without a detected grid: 3") {
		t.Error("formatted result should contain the diagnostics")
	}
	if !strings.Contains(formatted, "audit_09-14-2026.json") {
		t.Error("formatted result should contain the JSON path")
	}

	// Test formatRoomLookupResult
	roomResult := &mar.RoomLookupResult{
		Input:     "201A",
		Canonical: "201-1",
		Hall:      "Holaday",
		HallRooms: []string{"201-1", "201-2"},
	}

	formatted = server.formatRoomLookupResult(roomResult)
	if !strings.Contains(formatted, "201A resolves to 201-1") {
		t.Error("formatted result should contain the resolution")
	}
	if !strings.Contains(formatted, "Holaday (2 rooms)") {
		t.Error("formatted result should contain the hall")
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	// Try to extract text content
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		// Handle pointer to TextContent as well
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
