package world

import "testing"

func TestParamsFromMapOverrides(t *testing.T) {
	p := ParamsFromMap(map[string]string{
		"nth":        "60",
		"lat_range":  "-45,45",
		"lon_range":  "-90:90",
		"seed":       "7",
		"water":      "30",
		"random":     "false",
		"projection": "moll",
		"wind_nodes": "5",
	})
	if p.Nth != 60 || p.Nch != 360 {
		t.Fatalf("unexpected grid %dx%d", p.Nth, p.Nch)
	}
	if p.LatRange != [2]float64{-45, 45} || p.PlotLatRange != p.LatRange {
		t.Fatalf("unexpected lat range %v plot %v", p.LatRange, p.PlotLatRange)
	}
	if p.LonRange != [2]float64{-90, 90} {
		t.Fatalf("unexpected lon range %v", p.LonRange)
	}
	if p.Seed != 7 || p.Water != 30 || p.Random || p.Projection != "moll" || p.WindNodeCount != 5 {
		t.Fatalf("overrides not applied: %+v", p)
	}
}

func TestParamsFromMapKeepsDefaultsOnBadInput(t *testing.T) {
	d := DefaultParams()
	p := ParamsFromMap(map[string]string{
		"nth":        "2",
		"octaves":    "many",
		"frequency":  "1.5",
		"projection": "xyz",
		"lat_range":  "10",
		"seed":       "99999999999",
	})
	if p.Nth != d.Nth || p.Octaves != d.Octaves || p.Frequency != d.Frequency {
		t.Fatalf("bad values should keep defaults: %+v", p)
	}
	if p.Projection != d.Projection || p.LatRange != d.LatRange || p.Seed != d.Seed {
		t.Fatalf("bad values should keep defaults: %+v", p)
	}
	if q := ParamsFromMap(map[string]string{"water": "140"}); q.Water != -1 {
		t.Fatalf("out of range water should select automatic, got %v", q.Water)
	}
}

func TestValidateRepairsFields(t *testing.T) {
	p := DefaultParams()
	p.Nth = 1
	p.Frequency = 2
	p.MinTemperature = 5
	p.WindNodes = []WindNode{{Lat: 0, Lon: 0, Sign: 2, Weight: 1}}
	issues := p.Validate()
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(issues), issues)
	}
	for _, err := range issues {
		if !IsKind(err, KindValidation) {
			t.Fatalf("issue %v is not a validation error", err)
		}
	}
	d := DefaultParams()
	if p.Nth != d.Nth || p.Frequency != d.Frequency || p.MinTemperature != d.MinTemperature {
		t.Fatalf("fields not reverted: %+v", p)
	}
	if p.WindNodes != nil || p.WindNodeCount != d.WindNodeCount {
		t.Fatalf("invalid node list should be dropped, got %v", p.WindNodes)
	}
	if again := p.Validate(); len(again) != 0 {
		t.Fatalf("repaired params should validate cleanly: %v", again)
	}
}

func TestZeroPersistenceRejected(t *testing.T) {
	p := DefaultParams()
	p.Persistence = 0
	if issues := p.Validate(); len(issues) != 1 || p.Persistence != DefaultParams().Persistence {
		t.Fatalf("zero persistence: issues %v, value %v", issues, p.Persistence)
	}
	ApplyMap(&p, map[string]string{"persistence": "0"})
	if p.Persistence != DefaultParams().Persistence {
		t.Fatalf("zero persistence accepted from a config map: %v", p.Persistence)
	}
}

func TestValidateNode(t *testing.T) {
	cases := []struct {
		node WindNode
		ok   bool
	}{
		{WindNode{Lat: 45, Lon: 20, Sign: -1, Weight: .2}, true},
		{WindNode{Lat: 91, Lon: 0, Sign: 1, Weight: 1}, false},
		{WindNode{Lat: 0, Lon: -181, Sign: 1, Weight: 1}, false},
		{WindNode{Lat: 0, Lon: 0, Sign: 0, Weight: 1}, false},
		{WindNode{Lat: 0, Lon: 0, Sign: 1, Weight: -1}, false},
	}
	for _, tc := range cases {
		if err := ValidateNode(tc.node); (err == nil) != tc.ok {
			t.Fatalf("ValidateNode(%+v) = %v, want ok=%v", tc.node, err, tc.ok)
		}
	}
}

func TestCloneDoesNotShareNodes(t *testing.T) {
	p := DefaultParams()
	p.WindNodes = append([]WindNode(nil), FallbackNodes...)
	q := p.Clone()
	q.WindNodes[0].Weight = 9
	if p.WindNodes[0].Weight == 9 {
		t.Fatalf("clone shares the node slice")
	}
}
