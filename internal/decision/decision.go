// Package decision turns one dose slot's rule set and cell tokens into
// audit decision records, and aggregates records into run summaries.
// Decide is a pure function: the same inputs always produce the same
// records, in the same order.
package decision

import (
	"fmt"
	"strings"

	"maraudit/internal/rules"
	"maraudit/internal/token"
)

// Kind is the audit category of one decision record.
type Kind string

const (
	HoldMiss        Kind = "HOLD-MISS"
	HeldAppropriate Kind = "HELD-APPROPRIATE"
	Compliant       Kind = "COMPLIANT"
	DCd             Kind = "DC'D"
)

// Track is the dose slot row: morning or evening pass.
type Track string

const (
	TrackAM Track = "AM"
	TrackPM Track = "PM"
)

// AllowedHeldCodes are the clerical chart codes accepted as a
// documented, appropriate hold. Any other code is ambiguous and the
// slot is excluded from every count.
var AllowedHeldCodes = map[int]bool{4: true, 6: true, 11: true, 12: true, 15: true}

// Measured carries the vitals documented for the slot.
type Measured struct {
	SBP *int `json:"sbp"`
	DBP *int `json:"dbp"`
	HR  *int `json:"hr"`
}

// Admin carries what the chart says happened with the dose.
type Admin struct {
	Given     bool   `json:"given"`
	Time      string `json:"time,omitempty"`
	ChartCode *int   `json:"chart_code,omitempty"`
	XMark     bool   `json:"x_mark"`
}

// Source locates the cell a record was decided from.
type Source struct {
	Page  int          `json:"page"`
	Col   int          `json:"col"`
	Rules []rules.Rule `json:"rules,omitempty"`
}

// Record is one audit finding for a dose slot.
type Record struct {
	Room     string      `json:"room"`
	Hall     string      `json:"hall"`
	Date     string      `json:"date"`
	Track    Track       `json:"time_track"`
	Reviewed bool        `json:"reviewed"`
	Decision Kind        `json:"decision"`
	Rule     *rules.Rule `json:"rule,omitempty"`
	Measured Measured    `json:"measured"`
	Admin    Admin       `json:"admin"`
	Notes    string      `json:"notes"`
	Source   Source      `json:"source"`
}

// Input is everything Decide needs for one dose slot. BP is the
// separate vitals cell when the schedule carries one; its readings
// take precedence over readings found inside the due cell.
type Input struct {
	Room   string
	Hall   string
	Date   string
	Track  Track
	Rules  []rules.Rule
	Due    token.CellTokens
	BP     *token.CellTokens
	Source Source
}

// Decide applies the fixed precedence order: a crossed-out mark wins
// over everything, then a clerical chart code, then the given path.
// A slot with none of those is not reviewable and emits nothing.
func Decide(in Input) []Record {
	if in.Due.XMark {
		return []Record{{
			Room: in.Room, Hall: in.Hall, Date: in.Date, Track: in.Track,
			Reviewed: true, Decision: DCd,
			Measured: measuredFrom(in.BP, in.Due),
			Admin:    Admin{XMark: true},
			Notes:    "X in due cell",
			Source:   in.Source,
		}}
	}

	if in.Due.ChartCode != nil {
		code := *in.Due.ChartCode
		if !AllowedHeldCodes[code] {
			return nil
		}
		return []Record{{
			Room: in.Room, Hall: in.Hall, Date: in.Date, Track: in.Track,
			Reviewed: true, Decision: HeldAppropriate,
			Measured: measuredFrom(in.BP, in.Due),
			Admin:    Admin{ChartCode: &code},
			Notes:    fmt.Sprintf("code %d", code),
			Source:   in.Source,
		}}
	}

	if !in.Due.Given {
		return nil
	}

	sbp := coalesce(bpField(in.BP, func(t *token.CellTokens) *int { return t.SBP }), in.Due.SBP)
	dbp := coalesce(bpField(in.BP, func(t *token.CellTokens) *int { return t.DBP }), in.Due.DBP)
	hr := coalesce(bpField(in.BP, func(t *token.CellTokens) *int { return t.HR }), in.Due.HR)
	admin := Admin{Given: true, Time: in.Due.Time}

	var out []Record
	for i := range in.Rules {
		r := in.Rules[i]
		if !r.Triggered(sbp, hr) {
			continue
		}
		out = append(out, Record{
			Room: in.Room, Hall: in.Hall, Date: in.Date, Track: in.Track,
			Reviewed: true, Decision: HoldMiss, Rule: &r,
			Measured: Measured{SBP: sbp, DBP: dbp, HR: hr},
			Admin:    admin,
			Notes:    holdMissNote(r, sbp, dbp, hr, in.Due.Time),
			Source:   in.Source,
		})
	}
	if len(out) > 0 {
		return out
	}

	return []Record{{
		Room: in.Room, Hall: in.Hall, Date: in.Date, Track: in.Track,
		Reviewed: true, Decision: Compliant,
		Measured: Measured{SBP: sbp, DBP: dbp, HR: hr},
		Admin:    admin,
		Notes:    compliantNote(in.Rules, sbp, dbp, hr, in.Due.Time),
		Source:   in.Source,
	}}
}

func holdMissNote(r rules.Rule, sbp, dbp, hr *int, clock string) string {
	var vitals string
	if r.Metric == rules.SBP {
		vitals = fmt.Sprintf("BP %s/%s", fmtInt(sbp), fmtInt(dbp))
	} else {
		vitals = "HR " + fmtInt(hr)
	}
	return fmt.Sprintf("Hold if %s; %s; %s", r, vitals, givenNote(clock))
}

// compliantNote narrates against the first SBP rule when one exists,
// else the first rule of any metric.
func compliantNote(rs []rules.Rule, sbp, dbp, hr *int, clock string) string {
	var phrase string
	for _, r := range rs {
		if r.Metric == rules.SBP {
			phrase = "Hold if " + r.String()
			break
		}
	}
	if phrase == "" && len(rs) > 0 {
		phrase = "Hold if " + rs[0].String()
	}

	var vitals string
	switch {
	case sbp != nil:
		vitals = fmt.Sprintf("BP %s/%s", fmtInt(sbp), fmtInt(dbp))
	case hr != nil:
		vitals = "HR " + fmtInt(hr)
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{phrase, vitals, givenNote(clock)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "; ")
}

func givenNote(clock string) string {
	if clock != "" {
		return "given " + clock
	}
	return "given"
}

func fmtInt(p *int) string {
	if p == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *p)
}

func measuredFrom(bp *token.CellTokens, due token.CellTokens) Measured {
	if bp != nil {
		return Measured{SBP: bp.SBP, DBP: bp.DBP, HR: bp.HR}
	}
	return Measured{SBP: due.SBP, DBP: due.DBP, HR: due.HR}
}

func bpField(bp *token.CellTokens, get func(*token.CellTokens) *int) *int {
	if bp == nil {
		return nil
	}
	return get(bp)
}

func coalesce(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}
