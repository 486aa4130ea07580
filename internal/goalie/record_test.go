package goalie

import (
	"encoding/json"
	"testing"
)

func TestParseStat(t *testing.T) {
	cases := []struct {
		in    string
		want  float64
		known bool
	}{
		{"2.45", 2.45, true},
		{" .915 ", 0.915, true},
		{"91.5%", 91.5, true},
		{"0.00", 0, true},
		{"-", 0, false},
		{"N/A", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseStat(c.in).Value()
		if ok != c.known || got != c.want {
			t.Errorf("ParseStat(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.known)
		}
	}
}

func TestStatJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Stat `json:"a"`
		B Stat `json:"b"`
		Z Stat `json:"z"`
	}{Known(2.5), Unknown(), Known(0)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"a":"2.5","b":"-","z":"0"}` {
		t.Errorf("Marshal = %s", b)
	}

	var back struct {
		A Stat `json:"a"`
		B Stat `json:"b"`
		N Stat `json:"n"`
		X Stat `json:"x"`
	}
	if err := json.Unmarshal([]byte(`{"a":"2.5","b":"-","n":0.912,"x":null}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := back.A.Value(); !ok || v != 2.5 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if back.B.IsKnown() || back.X.IsKnown() {
		t.Error("sentinels decoded as known")
	}
	if v, ok := back.N.Value(); !ok || v != 0.912 {
		t.Errorf("n = %v, %v", v, ok)
	}
}

func TestTBD(t *testing.T) {
	r := TBD()
	if !r.IsTBD() || r.GAA.IsKnown() || r.SVPct.IsKnown() || r.Confirmed || r.Photo != nil {
		t.Errorf("TBD() = %+v", r)
	}
	b, _ := json.Marshal(r)
	want := `{"name":"TBD","gaa":"-","sv_pct":"-","wins":0,"losses":0,"otl":0,"confirmed":false,"photo":null}`
	if string(b) != want {
		t.Errorf("TBD json = %s\nwant %s", b, want)
	}
}

func TestParseWLOTL(t *testing.T) {
	if w, l, o := parseWLOTL("Record: 21-9-4"); w != 21 || l != 9 || o != 4 {
		t.Errorf("parseWLOTL = %d-%d-%d", w, l, o)
	}
	if w, l, o := parseWLOTL("no record"); w+l+o != 0 {
		t.Errorf("parseWLOTL(no record) = %d-%d-%d", w, l, o)
	}
}
