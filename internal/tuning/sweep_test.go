package tuning

import (
	"context"
	"errors"
	"math"
	"testing"

	"worldgen/internal/world"
)

func baseParams() world.Params {
	p := world.DefaultParams()
	p.Nth, p.Nch = 40, 40
	p.Octaves = 8
	p.Random = false
	return p
}

func TestCasesCrossProduct(t *testing.T) {
	got := Cases([]int32{1, 2}, []float64{-1, 50, 70})
	if len(got) != 6 || got[0] != (Case{1, -1}) || got[5] != (Case{2, 70}) {
		t.Fatalf("cases = %v", got)
	}
}

func TestSweepOrderedAndDeterministic(t *testing.T) {
	opt := Options{Base: baseParams(), Seeds: []int32{7, 3}, Targets: []float64{60, -1, 30}, Workers: 4}
	a := Sweep(context.Background(), opt)
	opt.Workers = 1
	b := Sweep(context.Background(), opt)
	if len(a) != 6 {
		t.Fatalf("got %d results", len(a))
	}
	for i := range a {
		if a[i].Err != nil {
			t.Fatalf("%v: %v", a[i].Case, a[i].Err)
		}
		if a[i].Case != b[i].Case || a[i].Realized != b[i].Realized || a[i].Shift != b[i].Shift {
			t.Fatalf("result %d differs between worker counts: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].Rivers != -1 {
			t.Fatal("hydrology counted without weather")
		}
	}
	if a[0].Seed != 3 || a[0].Water != -1 || a[5].Seed != 7 || a[5].Water != 60 {
		t.Fatalf("unexpected order: first %v last %v", a[0].Case, a[5].Case)
	}
	if a[0].Shift != -0.5 || a[0].Iterations != 0 {
		t.Fatalf("automatic target used shift %v after %d iterations", a[0].Shift, a[0].Iterations)
	}
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Sweep(ctx, Options{Base: baseParams(), Seeds: []int32{1}, Targets: []float64{50}})
	if len(res) != 1 || !errors.Is(res[0].Err, context.Canceled) {
		t.Fatalf("expected cancellation, got %+v", res)
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Case: Case{1, 50}, Realized: 51},
		{Case: Case{1, 70}, Realized: 67},
		{Case: Case{1, -1}, Realized: 40},
		{Case: Case{2, 50}, Err: errors.New("boom")},
	}
	s := Summarize(results)
	if s.Cases != 4 || s.Failed != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if math.Abs(s.MeanError-2) > 1e-12 || s.MaxError != 3 {
		t.Fatalf("errors mean=%v max=%v", s.MeanError, s.MaxError)
	}
	if !math.IsNaN(results[2].Error()) {
		t.Fatal("automatic target should have no error")
	}
}
