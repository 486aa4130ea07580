// Package goalie scrapes and resolves starting goaltenders and their season stats.
package goalie

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Unknown serializes as "-".
const unknownText = "-"

// TBDName is the name carried by the placeholder record.
const TBDName = "TBD"

// Stat is a goalie statistic that may be unknown. The zero value is unknown;
// a known 0 is distinct from it.
type Stat struct {
	v     float64
	known bool
}

// Known returns a known stat.
func Known(v float64) Stat { return Stat{v: v, known: true} }

// Unknown returns the unknown stat.
func Unknown() Stat { return Stat{} }

// Value returns the stat and whether it is known.
func (s Stat) Value() (float64, bool) { return s.v, s.known }

// IsKnown reports whether the stat carries a value.
func (s Stat) IsKnown() bool { return s.known }

func (s Stat) String() string {
	if !s.known {
		return unknownText
	}
	return strconv.FormatFloat(s.v, 'f', -1, 64)
}

// MarshalJSON writes the value as a string, "-" when unknown.
func (s Stat) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a number, a numeric string, or a sentinel string.
func (s *Stat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = Unknown()
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = ParseStat(str)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Known(f)
	return nil
}

// ParseStat parses scraped stat text such as "2.45", ".915" or "91.5%".
// Anything unparseable ("-", "N/A", "") is unknown.
func ParseStat(text string) Stat {
	t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if t == "" {
		return Unknown()
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return Unknown()
	}
	return Known(f)
}

// Record is a goalie as produced by one source.
type Record struct {
	Name      string  `json:"name"`
	Team      string  `json:"team,omitempty"`
	GAA       Stat    `json:"gaa"`
	SVPct     Stat    `json:"sv_pct"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	OTL       int     `json:"otl"`
	Confirmed bool    `json:"confirmed"`
	Photo     *string `json:"photo"`
	Source    string  `json:"source,omitempty"`
}

// TBD returns the placeholder used when no source matched a team.
func TBD() Record {
	return Record{Name: TBDName}
}

// IsTBD reports whether r is the placeholder (or carries no usable name).
func (r Record) IsTBD() bool {
	return r.Name == "" || r.Name == TBDName
}

var recordPattern = regexp.MustCompile(`(\d+)-(\d+)-(\d+)`)

// parseWLOTL extracts a "W-L-OTL" record, zeros when absent.
func parseWLOTL(text string) (w, l, otl int) {
	m := recordPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, 0
	}
	w, _ = strconv.Atoi(m[1])
	l, _ = strconv.Atoi(m[2])
	otl, _ = strconv.Atoi(m[3])
	return w, l, otl
}

func photoRef(src string) *string {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	return &src
}

// applyStat assigns a labelled value ("GAA", "SV%") onto r.
func applyStat(r *Record, label, value string) {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(l, "gaa"):
		r.GAA = ParseStat(value)
	case strings.Contains(l, "sv%"), strings.Contains(l, "sv pct"), strings.Contains(l, "save"):
		r.SVPct = ParseStat(value)
	}
}
