// Package team maps NHL franchise abbreviations to names and implements the
// permissive team-identity match used to join scraped records onto games.
package team

import "strings"

// Team is one NHL franchise.
type Team struct {
	Abbrev   string   // canonical NHL API abbreviation, e.g. "LAK"
	City     string   // e.g. "Los Angeles"
	Nickname string   // e.g. "Kings"
	Aliases  []string // alternate or legacy codes, e.g. "LA"
}

// Name returns the full franchise name, e.g. "Los Angeles Kings".
func (t Team) Name() string {
	return t.City + " " + t.Nickname
}

var franchises = []Team{
	{Abbrev: "ANA", City: "Anaheim", Nickname: "Ducks"},
	{Abbrev: "BOS", City: "Boston", Nickname: "Bruins"},
	{Abbrev: "BUF", City: "Buffalo", Nickname: "Sabres"},
	{Abbrev: "CAR", City: "Carolina", Nickname: "Hurricanes"},
	{Abbrev: "CBJ", City: "Columbus", Nickname: "Blue Jackets", Aliases: []string{"CLB"}},
	{Abbrev: "CGY", City: "Calgary", Nickname: "Flames", Aliases: []string{"CAL"}},
	{Abbrev: "CHI", City: "Chicago", Nickname: "Blackhawks"},
	{Abbrev: "COL", City: "Colorado", Nickname: "Avalanche"},
	{Abbrev: "DAL", City: "Dallas", Nickname: "Stars"},
	{Abbrev: "DET", City: "Detroit", Nickname: "Red Wings"},
	{Abbrev: "EDM", City: "Edmonton", Nickname: "Oilers"},
	{Abbrev: "FLA", City: "Florida", Nickname: "Panthers"},
	{Abbrev: "LAK", City: "Los Angeles", Nickname: "Kings", Aliases: []string{"LA"}},
	{Abbrev: "MIN", City: "Minnesota", Nickname: "Wild"},
	{Abbrev: "MTL", City: "Montreal", Nickname: "Canadiens", Aliases: []string{"MON"}},
	{Abbrev: "NJD", City: "New Jersey", Nickname: "Devils", Aliases: []string{"NJ"}},
	{Abbrev: "NSH", City: "Nashville", Nickname: "Predators", Aliases: []string{"NAS"}},
	{Abbrev: "NYI", City: "New York", Nickname: "Islanders"},
	{Abbrev: "NYR", City: "New York", Nickname: "Rangers"},
	{Abbrev: "OTT", City: "Ottawa", Nickname: "Senators"},
	{Abbrev: "PHI", City: "Philadelphia", Nickname: "Flyers"},
	{Abbrev: "PIT", City: "Pittsburgh", Nickname: "Penguins"},
	{Abbrev: "SEA", City: "Seattle", Nickname: "Kraken"},
	{Abbrev: "SJS", City: "San Jose", Nickname: "Sharks", Aliases: []string{"SJ"}},
	{Abbrev: "STL", City: "St. Louis", Nickname: "Blues"},
	{Abbrev: "TBL", City: "Tampa Bay", Nickname: "Lightning", Aliases: []string{"TB"}},
	{Abbrev: "TOR", City: "Toronto", Nickname: "Maple Leafs"},
	// Coyotes (ARI, formerly PHX) relocated to Utah in 2024.
	{Abbrev: "UTA", City: "Utah", Nickname: "Mammoth", Aliases: []string{"UTAH", "ARI", "PHX"}},
	{Abbrev: "VAN", City: "Vancouver", Nickname: "Canucks"},
	{Abbrev: "VGK", City: "Vegas", Nickname: "Golden Knights", Aliases: []string{"VEG"}},
	// Thrashers (ATL) relocated to Winnipeg in 2011.
	{Abbrev: "WPG", City: "Winnipeg", Nickname: "Jets", Aliases: []string{"ATL", "WIN"}},
	{Abbrev: "WSH", City: "Washington", Nickname: "Capitals", Aliases: []string{"WAS"}},
}

var byCode = func() map[string]Team {
	m := make(map[string]Team, len(franchises)*2)
	for _, t := range franchises {
		m[t.Abbrev] = t
		for _, a := range t.Aliases {
			m[a] = t
		}
	}
	return m
}()

// All returns every franchise in table order.
func All() []Team {
	out := make([]Team, len(franchises))
	copy(out, franchises)
	return out
}

// Lookup resolves a canonical or alternate abbreviation (case-insensitive).
func Lookup(code string) (Team, bool) {
	t, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return t, ok
}

// Canonical returns the canonical abbreviation for code, or code upper-cased when unknown.
func Canonical(code string) string {
	if t, ok := Lookup(code); ok {
		return t.Abbrev
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NameFor returns the full franchise name for code, falling back to code itself.
func NameFor(code string) string {
	if t, ok := Lookup(code); ok {
		return t.Name()
	}
	return code
}

// FromName finds the franchise whose full name or nickname appears in s.
// Nicknames are tried longest first so "Maple Leafs" wins over shorter overlaps.
func FromName(s string) (Team, bool) {
	ls := strings.ToLower(s)
	if ls == "" {
		return Team{}, false
	}
	for _, t := range franchises {
		if strings.Contains(ls, strings.ToLower(t.Name())) {
			return t, true
		}
	}
	var best Team
	found := false
	for _, t := range franchises {
		nick := strings.ToLower(t.Nickname)
		if strings.Contains(ls, nick) && (!found || len(nick) > len(best.Nickname)) {
			best, found = t, true
		}
	}
	return best, found
}

// Exact reports whether tag identifies the same franchise as abbrev through the
// lookup table (canonical code, alias, or full name).
func Exact(tag, abbrev string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || abbrev == "" {
		return false
	}
	want := Canonical(abbrev)
	if t, ok := Lookup(tag); ok {
		return t.Abbrev == want
	}
	if t, ok := byCode[want]; ok {
		return strings.EqualFold(tag, t.Name())
	}
	return false
}

// Matches is the join heuristic between a scraped team string and a game side.
// It is case-insensitive and true when tag names the same franchise as abbrev,
// equals abbrev, or is contained in name (or name in tag).
//
// The substring leg is deliberately permissive: "LA" is contained in "Dallas
// Stars", and "New York" matches both the Rangers and the Islanders. Callers
// that can should try Exact first.
func Matches(tag, name, abbrev string) bool {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return false
	}
	if Exact(tag, abbrev) || t == strings.ToLower(strings.TrimSpace(abbrev)) {
		return true
	}
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	return strings.Contains(n, t) || strings.Contains(t, n)
}
