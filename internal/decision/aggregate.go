package decision

// SlotKey identifies one dose slot: a room's AM or PM column on one
// page for one date. Multiple records from the same slot count once
// toward Reviewed.
type SlotKey struct {
	Room  string
	Track Track
	Date  string
	Page  int
	Col   int
}

// Summary is the per-category record count of one audit run.
type Summary struct {
	Reviewed  int `json:"reviewed"`
	HoldMiss  int `json:"hold_miss"`
	HeldOK    int `json:"held_ok"`
	Compliant int `json:"compliant"`
	DCd       int `json:"dcd"`
}

// Aggregator accumulates decision records and derives the Summary.
// Not safe for concurrent use; the audit coordinator owns it.
type Aggregator struct {
	slots   map[SlotKey]bool
	records []Record
	sum     Summary
}

func NewAggregator() *Aggregator {
	return &Aggregator{slots: make(map[SlotKey]bool)}
}

// Add folds records into the counts. Reviewed increments once per
// distinct slot regardless of how many records the slot produced.
func (a *Aggregator) Add(recs ...Record) {
	for _, r := range recs {
		a.records = append(a.records, r)
		switch r.Decision {
		case HoldMiss:
			a.sum.HoldMiss++
		case HeldAppropriate:
			a.sum.HeldOK++
		case Compliant:
			a.sum.Compliant++
		case DCd:
			a.sum.DCd++
		}
		key := SlotKey{Room: r.Room, Track: r.Track, Date: r.Date, Page: r.Source.Page, Col: r.Source.Col}
		if !a.slots[key] {
			a.slots[key] = true
			a.sum.Reviewed++
		}
	}
}

// Records returns the accumulated records in insertion order.
func (a *Aggregator) Records() []Record { return a.records }

// Summary returns the derived counts.
func (a *Aggregator) Summary() Summary { return a.sum }
