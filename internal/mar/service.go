// Package mar is the service layer behind the tool surface. It
// orchestrates chart discovery, validation, audit runs, and exports,
// and confines every file operation to the configured chart directory.
package mar

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"maraudit/internal/audit"
	"maraudit/internal/decision"
	"maraudit/internal/docsource"
	"maraudit/internal/export"
	"maraudit/internal/mar/security"
	"maraudit/internal/rooms"
)

// auditDateLayout is the MM-DD-YYYY form used across requests,
// exports, and checklist headers.
const auditDateLayout = "01-02-2006"

// Service handles MAR audit operations.
type Service struct {
	maxFileSize     int64
	outputDirectory string
	version         string
	runner          *audit.Runner
	search          *Search
	validator       *Validator
	pathValidator   *security.PathValidator
}

// NewService creates a service backed by the real document backends.
// The layout cache inside the runner is shared across all runs.
func NewService(maxFileSize int64, chartDirectory, outputDirectory, version string) (*Service, error) {
	runner := audit.NewRunner(docsource.NewFactory(), audit.NewLayoutCache())
	return NewServiceWithRunner(maxFileSize, chartDirectory, outputDirectory, version, runner)
}

// NewServiceWithRunner creates a service around an existing runner.
func NewServiceWithRunner(maxFileSize int64, chartDirectory, outputDirectory, version string,
	runner *audit.Runner,
) (*Service, error) {
	pathValidator, err := security.NewPathValidator(chartDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	return &Service{
		maxFileSize:     maxFileSize,
		outputDirectory: outputDirectory,
		version:         version,
		runner:          runner,
		search:          NewSearch(maxFileSize),
		validator:       NewValidator(maxFileSize),
		pathValidator:   pathValidator,
	}, nil
}

// AuditRun audits one chart for the day-of-month of the request date
// and optionally writes the JSON blob and text checklist.
func (s *Service) AuditRun(ctx context.Context, req AuditRunRequest) (*AuditRunResult, error) {
	path, err := s.pathValidator.NormalizePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	date, err := time.Parse(auditDateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("date must be MM-DD-YYYY: %q", req.Date)
	}

	if err := s.validator.CheckPath(path); err != nil {
		return nil, err
	}

	run, err := s.runner.Run(ctx, path, audit.Options{
		Date:    req.Date,
		Day:     date.Day(),
		Workers: req.Workers,
	})
	if err != nil {
		return nil, err
	}

	records := run.Records
	if records == nil {
		records = []decision.Record{}
	}

	result := &AuditRunResult{
		Path:        path,
		Date:        req.Date,
		Hall:        run.Hall,
		Summary:     run.Summary,
		Records:     records,
		Diagnostics: run.Diagnostics,
	}

	if req.WriteFiles {
		if err := s.writeExports(result, path); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// writeExports writes the JSON blob and checklist for a finished run
// and records their paths and the blob digest on the result.
func (s *Service) writeExports(result *AuditRunResult, chartPath string) error {
	source := filepath.Base(chartPath)
	day := 0
	if d, err := time.Parse(auditDateLayout, result.Date); err == nil {
		day = d.Day()
	}

	jsonPath := filepath.Join(s.outputDirectory, fmt.Sprintf("audit_%s.json", result.Date))
	meta := export.Meta{
		Date:    result.Date,
		Hall:    result.Hall,
		Source:  source,
		Day:     day,
		Version: s.version,
	}
	if err := export.WriteJSON(jsonPath, result.Records, result.Summary, meta); err != nil {
		return fmt.Errorf("failed to write audit JSON: %w", err)
	}

	digest, err := export.FileSHA256(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to digest audit JSON: %w", err)
	}

	checklistPath := filepath.Join(s.outputDirectory, fmt.Sprintf("checklist_%s.txt", result.Date))
	header := export.Header{
		Date:    result.Date,
		Hall:    result.Hall,
		Source:  source,
		Version: s.version,
	}
	if err := export.WriteChecklist(checklistPath, header, result.Summary, result.Records); err != nil {
		return fmt.Errorf("failed to write checklist: %w", err)
	}

	result.JSONPath = jsonPath
	result.JSONSHA256 = digest
	result.ChecklistPath = checklistPath
	return nil
}

// ValidateFile checks whether a file is an auditable chart. A failed
// validation is a normal result with Valid false, not an error.
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.pathValidator.NormalizePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	result := &ValidateFileResult{Path: path}

	if err := s.validator.CheckPath(path); err != nil {
		result.Message = err.Error()
		return result, nil
	}

	pages, warnings, err := s.runner.Validate(path)
	if err != nil {
		result.Message = err.Error()
		result.Warnings = warnings
		return result, nil
	}

	result.Valid = true
	result.Pages = pages
	result.Warnings = warnings
	return result, nil
}

// RoomLookup resolves a raw room token to its canonical form and hall.
func (s *Service) RoomLookup(req RoomLookupRequest) (*RoomLookupResult, error) {
	canonical, err := rooms.CanonicalRoom(req.Room)
	if err != nil {
		return nil, err
	}

	hall, err := rooms.HallOf(canonical)
	if err != nil {
		return nil, err
	}

	hallRooms, err := rooms.RoomsInHall(hall)
	if err != nil {
		return nil, err
	}

	return &RoomLookupResult{
		Input:     req.Room,
		Canonical: canonical,
		Hall:      hall,
		HallRooms: hallRooms,
	}, nil
}

// SearchDirectory finds chart PDFs, defaulting to the chart directory.
func (s *Service) SearchDirectory(req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.ChartDirectory()
	}

	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.SearchDirectory(req)
}

// MaxFileSize returns the configured file size ceiling.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// IsAuditableChart reports whether the file passes the cheap checks
// and opens under at least one backend.
func (s *Service) IsAuditableChart(path string) bool {
	if err := s.validator.CheckPath(path); err != nil {
		return false
	}
	_, _, err := s.runner.Validate(path)
	return err == nil
}

// CountCharts counts the chart PDFs under directory.
func (s *Service) CountCharts(directory string) (int, error) {
	return s.search.CountCharts(directory)
}

// ServerInfo reports server details, the tool inventory, and a bounded
// listing of the chart directory.
func (s *Service) ServerInfo(_ ServerInfoRequest, serverName string) (*ServerInfoResult, error) {
	chartDir := s.pathValidator.ChartDirectory()

	// Bounded directory scan so a huge or hung share cannot stall the
	// info call.
	directoryContents := []FileInfo{}
	resultChan := make(chan []FileInfo, 1)
	errorChan := make(chan error, 1)
	go func() {
		files, err := s.search.FindChartsLimited(chartDir, 100)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- files
	}()
	select {
	case files := <-resultChan:
		directoryContents = files
	case <-errorChan:
	case <-time.After(5 * time.Second):
	}

	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           s.version,
		ChartDirectory:    chartDir,
		OutputDirectory:   s.outputDirectory,
		MaxFileSize:       s.maxFileSize,
		AvailableTools:    availableTools(),
		DirectoryContents: directoryContents,
		UsageGuidance:     usageGuidance(s.maxFileSize),
	}, nil
}
