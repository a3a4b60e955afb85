package export

import (
	"fmt"
	"strings"
	"time"

	"maraudit/internal/decision"
)

// Header is the checklist preamble.
type Header struct {
	Date    string
	Hall    string
	Source  string
	Version string
}

// Sections groups rendered checklist lines by decision kind.
type Sections map[decision.Kind][]string

// sectionOrder is the fixed rendering order; empty sections are
// omitted entirely.
var sectionOrder = []decision.Kind{
	decision.HoldMiss,
	decision.HeldAppropriate,
	decision.Compliant,
	decision.DCd,
}

// central is the facility's wall clock for the Generated stamp.
var central = time.FixedZone("Central", -5*60*60)

// RenderLine renders one checklist line for a record.
func RenderLine(rec decision.Record) string {
	return fmt.Sprintf("%s (%s) - %s", rec.Room, rec.Track, rec.Notes)
}

// CollectSections renders every record into its decision section,
// preserving record order within a section.
func CollectSections(records []decision.Record) Sections {
	sections := Sections{}
	for _, rec := range records {
		sections[rec.Decision] = append(sections[rec.Decision], RenderLine(rec))
	}
	return sections
}

// RenderChecklist produces the full checklist text: header, summary
// counts, the non-empty sections in fixed order, and a generation
// stamp. Every content line is scrubbed of stray identifiers.
func RenderChecklist(header Header, summary decision.Summary, sections Sections, generated time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Date: %s\n", SanitizeLine(header.Date))
	fmt.Fprintf(&b, "Hall: %s\n", SanitizeLine(header.Hall))
	if header.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", SanitizeLine(header.Source))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Reviewed: %d\n", summary.Reviewed)
	fmt.Fprintf(&b, "Hold-Miss: %d\n", summary.HoldMiss)
	fmt.Fprintf(&b, "Held-Appropriate: %d\n", summary.HeldOK)
	fmt.Fprintf(&b, "Compliant: %d\n", summary.Compliant)
	fmt.Fprintf(&b, "DC'D: %d\n", summary.DCd)
	b.WriteString("\n")

	for _, kind := range sectionOrder {
		var clean []string
		for _, line := range sections[kind] {
			if s := SanitizeLine(line); s != "" {
				clean = append(clean, s)
			}
		}
		if len(clean) == 0 {
			continue
		}
		b.WriteString(string(kind))
		b.WriteString("\n")
		for _, line := range clean {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	stamp := generated.In(central).Format("01-02-2006 15:04")
	version := header.Version
	if version == "" {
		version = "0.0.0"
	}
	fmt.Fprintf(&b, "Generated: %s (Central) • v%s\n", stamp, version)
	return b.String()
}

// WriteChecklist renders and writes the checklist for a set of
// records.
func WriteChecklist(path string, header Header, summary decision.Summary, records []decision.Record) error {
	text := RenderChecklist(header, summary, CollectSections(records), time.Now())
	return writePrivate(path, []byte(text))
}
