package mar

import (
	"fmt"

	"maraudit/internal/descriptions"
)

// availableTools is the tool inventory reported by mar_server_info.
func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "mar_audit_run",
			Description: descriptions.GetToolDescription("mar_audit_run"),
			Usage:       "Run the hold-rule audit of one chart for the day-of-month of the given date.",
			Parameters: "path (required): chart PDF, absolute or relative to the chart directory; " +
				"date (required): audit date as MM-DD-YYYY; " +
				"workers (optional): page worker count; " +
				"write_files (optional): also write the JSON blob and checklist",
		},
		{
			Name:        "mar_validate_file",
			Description: descriptions.GetToolDescription("mar_validate_file"),
			Usage:       "Check that a file is an auditable chart before running the audit.",
			Parameters:  "path (required): chart PDF, absolute or relative to the chart directory",
		},
		{
			Name:        "mar_room_lookup",
			Description: descriptions.GetToolDescription("mar_room_lookup"),
			Usage:       "Resolve a raw room token to its canonical room and hall.",
			Parameters:  "room (required): room token such as 204-1, 201A, or 312-B",
		},
		{
			Name:        "mar_search_directory",
			Description: descriptions.GetToolDescription("mar_search_directory"),
			Usage:       "Find chart PDFs, with optional fuzzy filename matching.",
			Parameters: "directory (optional): directory to search (chart directory if empty); " +
				"query (optional): fuzzy filename query",
		},
		{
			Name:        "mar_server_info",
			Description: descriptions.GetToolDescription("mar_server_info"),
			Usage:       "Get server configuration, the tool inventory, and visible charts.",
			Parameters:  "none",
		},
	}
}

// usageGuidance is the free-form guidance block of mar_server_info.
func usageGuidance(maxFileSize int64) string {
	return `MAR Audit Server Usage Guide:

1. START WITH DISCOVERY:
   - Use 'mar_search_directory' to find the chart PDFs for the month

2. VALIDATE CHARTS:
   - Use 'mar_validate_file' before auditing; a result with valid=false
     and a message is normal output, not a failure

3. RUN THE AUDIT:
   - Use 'mar_audit_run' with the chart path and an MM-DD-YYYY date;
     the day-of-month selects the grid column
   - Read the summary first, then the records; the decision kinds are
     HOLD-MISS, HELD-APPROPRIATE, COMPLIANT, and DC'D
   - Check diagnostics for pages with no detected grid and for
     rejected rule lines before trusting an empty summary

4. EXPORT WHEN NEEDED:
   - Pass write_files=true to write the JSON blob and the text
     checklist into the output directory; both are private files and
     every checklist line passes the identifier scrub

5. INTERPRET ROOMS:
   - Use 'mar_room_lookup' to resolve room tokens and halls

IMPORTANT NOTES:
- Chart paths are confined to the configured chart directory
- The server can handle files up to ` + fmt.Sprintf("%d", maxFileSize/(1024*1024)) + `MB
- Scanned charts without a text layer cannot be audited; re-export the
  chart from the eMAR instead`
}
