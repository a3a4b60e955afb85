package mar

import (
	"maraudit/internal/audit"
	"maraudit/internal/decision"
)

// FileInfo describes one chart file found during discovery.
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ToolInfo describes one tool exposed by the server.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// AuditRunRequest asks for a full hold-rule audit of one MAR chart.
type AuditRunRequest struct {
	// Path is the chart PDF, absolute or relative to the chart directory.
	Path string `json:"path"`
	// Date is the audit date in MM-DD-YYYY form; its day-of-month
	// selects the grid column to audit.
	Date string `json:"date"`
	// Workers bounds the page pool; 0 means max(1, NumCPU-1).
	Workers int `json:"workers,omitempty"`
	// WriteFiles also writes the JSON blob and text checklist into the
	// output directory.
	WriteFiles bool `json:"write_files,omitempty"`
}

// AuditRunResult is the outcome of one audit run.
type AuditRunResult struct {
	Path          string            `json:"path"`
	Date          string            `json:"date"`
	Hall          string            `json:"hall,omitempty"`
	Summary       decision.Summary  `json:"summary"`
	Records       []decision.Record `json:"records"`
	Diagnostics   audit.Diagnostics `json:"diagnostics"`
	JSONPath      string            `json:"json_path,omitempty"`
	JSONSHA256    string            `json:"json_sha256,omitempty"`
	ChecklistPath string            `json:"checklist_path,omitempty"`
}

// ValidateFileRequest asks whether a file is an auditable MAR chart.
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// ValidateFileResult reports the validation outcome. Valid false with
// a Message is a normal result, not an error.
type ValidateFileResult struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Pages    int      `json:"pages,omitempty"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// RoomLookupRequest asks for the hall a room number belongs to.
type RoomLookupRequest struct {
	Room string `json:"room"`
}

// RoomLookupResult carries the canonical room and its hall.
type RoomLookupResult struct {
	Input     string   `json:"input"`
	Canonical string   `json:"canonical"`
	Hall      string   `json:"hall"`
	HallRooms []string `json:"hall_rooms,omitempty"`
}

// SearchDirectoryRequest asks for chart PDFs under a directory.
type SearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query,omitempty"`
}

// SearchDirectoryResult lists the charts found.
type SearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// ServerInfoRequest asks for server information and usage guidance.
type ServerInfoRequest struct{}

// ServerInfoResult describes the server, its tools, and the charts
// currently visible in the chart directory.
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	ChartDirectory    string     `json:"chart_directory"`
	OutputDirectory   string     `json:"output_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}
