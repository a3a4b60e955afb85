// Package rooms resolves raw room identifiers against the embedded
// building master: which rooms exist, which hall each belongs to, and
// how bed-letter suffixes map to canonical bed numbers. The canonical
// room form is "NNN-B" (three-digit base, bed 1 or 2).
package rooms

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed building_master.json
var masterJSON []byte

var canonicalRoom = regexp.MustCompile(`^([1-4]\d{2})-(1|2)$`)

var looseRoom = regexp.MustCompile(`^([1-4]\d{2})(?:-?([AB]))?$`)

// hallAliases folds spelling variants seen on printed schedules into
// the master's hall names.
var hallAliases = map[string]string{"BRIDGEMAN": "Bridgman"}

type hallPayload struct {
	Name  string   `json:"name"`
	Rooms []string `json:"rooms"`
}

type masterPayload struct {
	Halls        []hallPayload     `json:"halls"`
	BedSuffixMap map[string]string `json:"room_bed_suffix_map"`
}

type master struct {
	roomToHall map[string]string
	bedSuffix  map[string]string
}

var (
	loadOnce sync.Once
	loaded   *master
	loadErr  error
)

func load() (*master, error) {
	loadOnce.Do(func() {
		var p masterPayload
		if err := json.Unmarshal(masterJSON, &p); err != nil {
			loadErr = fmt.Errorf("building master: %w", err)
			return
		}
		m := &master{roomToHall: make(map[string]string), bedSuffix: p.BedSuffixMap}
		for _, h := range p.Halls {
			for _, r := range h.Rooms {
				if !canonicalRoom.MatchString(r) {
					loadErr = fmt.Errorf("building master: invalid room id %q", r)
					return
				}
				if _, dup := m.roomToHall[r]; dup {
					loadErr = fmt.Errorf("building master: duplicate room id %q", r)
					return
				}
				m.roomToHall[r] = h.Name
			}
		}
		loaded = m
	})
	return loaded, loadErr
}

// NormalizeHall maps a printed hall name to its master spelling.
func NormalizeHall(name string) string {
	n := strings.TrimSpace(name)
	if alias, ok := hallAliases[strings.ToUpper(n)]; ok {
		return alias
	}
	return n
}

// CanonicalRoom normalizes a raw room identifier: "201-2" passes
// through, "201B" maps through the bed-suffix table, a bare base
// defaults to bed A. Unknown rooms are an error.
func CanonicalRoom(raw string) (string, error) {
	m, err := load()
	if err != nil {
		return "", err
	}
	s := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(raw)), " ", "")
	if canonicalRoom.MatchString(s) {
		if _, ok := m.roomToHall[s]; !ok {
			return "", fmt.Errorf("unknown room: %s", s)
		}
		return s, nil
	}
	g := looseRoom.FindStringSubmatch(s)
	if g == nil {
		return "", fmt.Errorf("bad room identifier: %q", raw)
	}
	letter := g[2]
	if letter == "" {
		letter = "A"
	}
	suffix, ok := m.bedSuffix[letter]
	if !ok {
		return "", fmt.Errorf("bad bed letter: %q", letter)
	}
	canon := g[1] + suffix
	if _, ok := m.roomToHall[canon]; !ok {
		return "", fmt.Errorf("unknown room: %s", canon)
	}
	return canon, nil
}

// HallOf returns the hall a room belongs to.
func HallOf(room string) (string, error) {
	m, err := load()
	if err != nil {
		return "", err
	}
	canon, err := CanonicalRoom(room)
	if err != nil {
		return "", err
	}
	return m.roomToHall[canon], nil
}

// IsValidRoom reports whether the identifier resolves to a known room.
func IsValidRoom(room string) bool {
	_, err := CanonicalRoom(room)
	return err == nil
}

// Halls returns the sorted hall names.
func Halls() ([]string, error) {
	m, err := load()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, h := range m.roomToHall {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out, nil
}

// RoomsInHall returns the sorted canonical rooms of one hall.
func RoomsInHall(name string) ([]string, error) {
	m, err := load()
	if err != nil {
		return nil, err
	}
	want := NormalizeHall(name)
	var out []string
	for r, h := range m.roomToHall {
		if h == want {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out, nil
}
