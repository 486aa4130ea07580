package team

import "testing"

func TestTableHasOneEntryPerFranchise(t *testing.T) {
	if got := len(All()); got != 32 {
		t.Fatalf("len(All()) = %d; want 32", got)
	}
	seen := make(map[string]bool)
	for _, tm := range All() {
		if seen[tm.Abbrev] {
			t.Errorf("duplicate abbrev %s", tm.Abbrev)
		}
		seen[tm.Abbrev] = true
	}
}

func TestLookup_Aliases(t *testing.T) {
	cases := []struct{ code, want string }{
		{"LA", "LAK"},
		{"nj", "NJD"},
		{"SJ", "SJS"},
		{"TB", "TBL"},
		{"ARI", "UTA"},
		{"PHX", "UTA"},
		{"ATL", "WPG"},
		{" bos ", "BOS"},
	}
	for _, tc := range cases {
		tm, ok := Lookup(tc.code)
		if !ok {
			t.Errorf("Lookup(%q) not found", tc.code)
			continue
		}
		if tm.Abbrev != tc.want {
			t.Errorf("Lookup(%q) = %s; want %s", tc.code, tm.Abbrev, tc.want)
		}
	}
	if _, ok := Lookup("XYZ"); ok {
		t.Error("Lookup(XYZ) should not resolve")
	}
}

func TestNameFor(t *testing.T) {
	if got := NameFor("TOR"); got != "Toronto Maple Leafs" {
		t.Errorf("NameFor(TOR) = %q", got)
	}
	if got := NameFor("TEST"); got != "TEST" {
		t.Errorf("NameFor(TEST) = %q; want passthrough", got)
	}
}

func TestFromName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Boston Bruins", "BOS"},
		{"Maple Leafs", "TOR"},
		{"the Golden Knights", "VGK"},
		{"New York Rangers", "NYR"},
	}
	for _, tc := range cases {
		tm, ok := FromName(tc.in)
		if !ok || tm.Abbrev != tc.want {
			t.Errorf("FromName(%q) = %s, %v; want %s", tc.in, tm.Abbrev, ok, tc.want)
		}
	}
	if _, ok := FromName(""); ok {
		t.Error("FromName(\"\") should not resolve")
	}
}

func TestMatches_ReflexiveOnAbbrev(t *testing.T) {
	for _, tm := range All() {
		if !Matches(tm.Abbrev, tm.Name(), tm.Abbrev) {
			t.Errorf("Matches(%s) not reflexive", tm.Abbrev)
		}
	}
	if !Matches("BOS", "", "BOS") {
		t.Error("BOS should match BOS without a name")
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		tag, name, abbrev string
		want              bool
	}{
		{"LA", "Los Angeles Kings", "LAK", true},
		{"bruins", "Boston Bruins", "BOS", true},
		{"Boston Bruins", "Boston", "BOS", true},
		{"NYI", "New York Rangers", "NYR", false},
		{"", "Boston Bruins", "BOS", false},
		{"TOR", "Boston Bruins", "BOS", false},
		// known false positive of the substring heuristic
		{"LA", "Dallas Stars", "DAL", true},
	}
	for _, tc := range cases {
		if got := Matches(tc.tag, tc.name, tc.abbrev); got != tc.want {
			t.Errorf("Matches(%q, %q, %q) = %v; want %v", tc.tag, tc.name, tc.abbrev, got, tc.want)
		}
	}
}

func TestExact(t *testing.T) {
	if !Exact("LA", "LAK") {
		t.Error("LA should be exact for LAK")
	}
	if !Exact("Dallas Stars", "DAL") {
		t.Error("full name should be exact")
	}
	if Exact("LA", "DAL") {
		t.Error("LA must not be exact for DAL")
	}
}
