package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	MARAuditRunDescription = `Run a full hold-rule audit of one MAR chart for a given date.

**When to use:** Auditing a month's medication administration record against its hold rules (SBP and HR thresholds) for one calendar day.

**Why it's useful:** Checks every due cell in the day's column against the parameter strip readings and produces decision records, a summary, and run diagnostics in one pass.

**Examples:**
• Daily audit: "Audit mercer_09-2026.pdf for 09-14-2026 and show the hold misses"
• Close-out: "Run the audit for 09-30-2026 with write_files so the JSON and checklist land in the reports directory"

**Common workflows:**
1. Discovery: mar_search_directory → mar_validate_file → mar_audit_run
2. Reporting: mar_audit_run with write_files → review checklist → distribute

**Best practices:** Validate the chart first; check the diagnostics section of the result for pages with no detected grid before trusting an empty summary.`

	MARValidateFileDescription = `Verify a file is an auditable MAR chart before running an audit.

**When to use:** Before mar_audit_run, especially in automated workflows or when the chart came from a scanner or an unfamiliar share.

**Why it's useful:** Catches missing, oversized, empty, or unparseable files early, and reports which document backend accepted the chart along with any fallback warnings.

**Examples:**
• Pre-flight: "Validate holaday_09-2026.pdf before auditing it"
• Batch safety: "Validate every chart found in the directory before the nightly run"

**Common workflows:**
1. Automated runs: validate → audit if valid → surface validation messages otherwise
2. Intake: validate new charts → reject unreadable scans → request re-export

**Best practices:** A result with valid=false and a message is normal output, not a failure; read the message to decide the next step.`

	MARRoomLookupDescription = `Resolve a room number to its canonical form and hall.

**When to use:** Interpreting audit records, checking which hall a room belongs to, or normalizing raw room tokens like 201A or 201-B.

**Why it's useful:** Applies the building master table, so bed suffixes and hall aliases resolve the same way the auditor resolves them.

**Examples:**
• Record interpretation: "Which hall is room 204-1 in?"
• Normalization: "What is the canonical form of 312B?"

**Common workflows:**
1. Review: audit run → look up unfamiliar rooms → group findings by hall
2. Data entry: normalize raw room tokens → store canonical forms

**Best practices:** Unknown rooms return errors; treat them as data problems in the chart, not as rooms to invent.`

	MARSearchDirectoryDescription = `Discover MAR chart PDFs in the chart directory with fuzzy filename search.

**When to use:** Finding charts by hall or month, exploring the chart share, or building the worklist for a batch audit.

**Why it's useful:** Locates charts without manual browsing, skips invalid or oversized files, and supports partial-name matching.

**Examples:**
• Find a hall's charts: "Search for 'mercer' charts"
• Month sweep: "List every chart containing '09-2026'"

**Common workflows:**
1. Batch audit: search → validate each → audit in sequence
2. Intake check: search the share → compare against the expected hall list

**Best practices:** Leave directory empty to search the configured chart directory; searches are confined to it either way.`

	MARServerInfoDescription = `Get server status, configuration, available tools, and chart directory contents.

**When to use:** Starting a session, troubleshooting why charts are not found, or discovering what the server can do.

**Why it's useful:** Shows the configured chart and output directories, the size ceiling, the tool inventory, and a bounded listing of visible charts.

**Examples:**
• Session start: "Show the server info before the first audit"
• Debugging: "Check which directory the server is actually scanning"

**Common workflows:**
1. Startup: server info → verify directories → plan the run
2. Debugging: server info → compare directory contents with expectations

**Best practices:** The directory listing is capped at 100 charts; use mar_search_directory for the full picture.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"mar_audit_run":        MARAuditRunDescription,
	"mar_validate_file":    MARValidateFileDescription,
	"mar_room_lookup":      MARRoomLookupDescription,
	"mar_search_directory": MARSearchDirectoryDescription,
	"mar_server_info":      MARServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
