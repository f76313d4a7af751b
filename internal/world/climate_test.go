package world

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"worldgen/pkg/rng"
)

func climateFixture(t *testing.T) ClimateInput {
	t.Helper()
	p := scenarioParams()
	g := scenarioGrid(t)
	h, err := BuildHeightmap(context.Background(), g, p, DefaultShiftSearch, 0)
	if err != nil {
		t.Fatal(err)
	}
	w, err := SynthesizeWind(context.Background(), g, FallbackNodes, p.MaxWindSpeed, 0)
	if err != nil {
		t.Fatal(err)
	}
	return ClimateInput{
		Grid:    g,
		Height:  h.Field,
		Wind:    w,
		MaxWind: p.MaxWindSpeed,
		MinTemp: p.MinTemperature,
		MaxTemp: p.MaxTemperature,
	}
}

func TestTransportNeverCreatesQuantity(t *testing.T) {
	in := climateFixture(t)
	tr := newTransport(in.Grid, in.Wind, in.MaxWind)
	r := rng.New(3)
	src := make([]float64, in.Grid.Nth()*in.Grid.Nch())
	for k := range src {
		src[k] = r.Uniform(0, 2)
	}
	for step := 0; step < 20; step++ {
		dst := make([]float64, len(src))
		tr.step(src, dst)
		before, after := floats.Sum(src), floats.Sum(dst)
		if after > before*(1+1e-12) {
			t.Fatalf("step %d created quantity: %v -> %v", step, before, after)
		}
		for k, v := range dst {
			if v < 0 || math.IsNaN(v) {
				t.Fatalf("step %d produced %v at %d", step, v, k)
			}
		}
		src = dst
	}
}

func TestSplitConserves(t *testing.T) {
	cases := []struct{ a, b, wa, wb float64 }{
		{.25, .5, .25, .5},
		{1.5, .5, .75, .25},
		{math.NaN(), .5, 1, 0},
		{math.Inf(1), 0, 1, 0},
	}
	for _, tc := range cases {
		a, b := split(tc.a, tc.b)
		if math.Abs(a-tc.wa) > 1e-12 || math.Abs(b-tc.wb) > 1e-12 {
			t.Fatalf("split(%v, %v) = %v, %v; want %v, %v", tc.a, tc.b, a, b, tc.wa, tc.wb)
		}
	}
}

func TestTemperatureAdvection(t *testing.T) {
	in := climateFixture(t)
	var airborne []float64
	in.Trace = func(it int, total float64) { airborne = append(airborne, total) }
	temp, err := Temperature(context.Background(), in)
	if err != nil {
		t.Fatalf("Temperature: %v", err)
	}
	if len(airborne) == 0 || len(airborne) > DefaultAdvectIterations {
		t.Fatalf("transport ran %d times", len(airborne))
	}
	for k := 1; k < len(airborne); k++ {
		if airborne[k] > airborne[k-1]*(1+1e-12) {
			t.Fatalf("airborne heat increased at %d: %v -> %v", k, airborne[k-1], airborne[k])
		}
	}
	if math.Abs(temp.Max-in.MaxTemp) > 1e-9 {
		t.Fatalf("max temperature %v, want %v", temp.Max, in.MaxTemp)
	}
	if temp.Min < in.MinTemp-1e-9 {
		t.Fatalf("min temperature %v below %v", temp.Min, in.MinTemp)
	}
}

func TestMoistureRange(t *testing.T) {
	in := climateFixture(t)
	temp, err := Temperature(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	in.Temperature = temp.Field
	m, err := Moisture(context.Background(), in)
	if err != nil {
		t.Fatalf("Moisture: %v", err)
	}
	h := in.Height.Cells()
	for k, v := range m.Cells() {
		if h[k] <= 0 && v != 100 {
			t.Fatalf("ocean cell %d moisture %v, want 100", k, v)
		}
		if v < 0 || v > 100+1e-9 {
			t.Fatalf("moisture %v outside [0, 100]", v)
		}
	}
}

func TestRescaleTemperature(t *testing.T) {
	v := []float64{-0.5, -0.25, 0, 0.5, 1}
	rescaleTemperature(v, -10, 30)
	want := []float64{-10, -5, 0, 15, 30}
	for k := range v {
		if math.Abs(v[k]-want[k]) > 1e-12 {
			t.Fatalf("rescaled %v, want %v", v, want)
		}
	}
}

func TestOceanChargeSteps(t *testing.T) {
	cases := map[float64]float64{-1: .05, -.2: .1, 2: .3, 7: .5, 12: .8, 17: .9, 25: 1, 35: 1.2}
	for temp, want := range cases {
		if got := oceanCharge(temp); got != want {
			t.Fatalf("oceanCharge(%v) = %v, want %v", temp, got, want)
		}
	}
}

func TestAdvectCancelled(t *testing.T) {
	in := climateFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Temperature(ctx, in); err == nil {
		t.Fatal("expected cancellation error")
	}
}
