package world

import (
	"context"
	"math"
	"slices"
	"testing"

	"worldgen/internal/core"
	"worldgen/pkg/rng"
)

func syntheticPatch(z func(i, j int) float64) *LocalPatch {
	f := core.NewField(patchCells, patchCells)
	for i := 0; i < patchCells; i++ {
		for j := 0; j < patchCells; j++ {
			f.Set(i, j, z(i, j))
		}
	}
	return &LocalPatch{Lat: linspace(0, 10, patchCells), Lon: linspace(20, 30, patchCells), Z: f}
}

func bowl(i, j int) float64 {
	di, dj := float64(i-64), float64(j-64)
	return 1 + 0.01*(di*di+dj*dj)
}

func TestDownstreamFollowsSlope(t *testing.T) {
	lp := syntheticPatch(func(i, j int) float64 { return float64(i+j) + 1 })
	path, pond, cont := downstream(lp, cell{10, 10})
	if !cont || len(pond) != 0 || !slices.Equal(path, []cell{{9, 9}}) {
		t.Fatalf("downstream = %v %v %v", path, pond, cont)
	}
}

func TestDownstreamReachesSea(t *testing.T) {
	lp := syntheticPatch(func(i, j int) float64 {
		if i < 10 {
			return -1
		}
		return float64(i)
	})
	path, _, cont := downstream(lp, cell{10, 50})
	if cont || len(path) != 1 || path[0].i != 9 {
		t.Fatalf("expected a final step into the sea, got %v cont=%v", path, cont)
	}
}

func TestDownstreamClosedBowlMakesLake(t *testing.T) {
	lp := syntheticPatch(bowl)
	path, pond, cont := downstream(lp, cell{64, 64})
	if cont || len(path) != 0 {
		t.Fatalf("closed bowl should end the river, got path %v cont=%v", path, cont)
	}
	if len(pond) == 0 {
		t.Fatal("closed bowl should produce a pond outline")
	}
	for _, c := range pond {
		if d2(c, cell{64, 64}) >= 16 {
			t.Fatalf("pond cell %v outside the fill tolerance", c)
		}
	}
}

func TestDownstreamRecoversThroughOutlet(t *testing.T) {
	lp := syntheticPatch(func(i, j int) float64 {
		if j == 64 && i <= 62 {
			return 0.5 + 0.001*float64(i)
		}
		return bowl(i, j)
	})
	path, pond, cont := downstream(lp, cell{64, 64})
	if !cont {
		t.Fatal("outlet should let the river continue")
	}
	if len(pond) == 0 {
		t.Fatal("expected the filled pool outline")
	}
	if len(path) == 0 || path[len(path)-1] != (cell{62, 64}) {
		t.Fatalf("path should end on the outlet, got %v", path)
	}
}

func TestDownstreamWalkToSea(t *testing.T) {
	// A plane falling toward row 5 with a shallow pit on the way.
	lp := syntheticPatch(func(i, j int) float64 {
		z := 0.01 * float64(i-5)
		if d2(cell{i, j}, cell{60, 60}) <= 4 {
			z -= 0.05
		}
		return z
	})
	cur := cell{100, 100}
	crossings := 0
	for step := 0; ; step++ {
		if step > 500 {
			t.Fatalf("walk did not finish, stuck near %v", cur)
		}
		path, pond, cont := downstream(lp, cur)
		if len(pond) > 0 {
			crossings++
		} else {
			prev := lp.Z.At(cur.i, cur.j)
			for _, c := range path {
				if h := lp.Z.At(c.i, c.j); h > prev {
					t.Fatalf("river climbs from %v to %v at %v", prev, h, c)
				}
				prev = lp.Z.At(c.i, c.j)
			}
		}
		if len(path) > 0 {
			cur = path[len(path)-1]
		}
		if !cont {
			break
		}
	}
	if crossings != 1 {
		t.Fatalf("expected one pool crossing, got %d", crossings)
	}
	if h := lp.Z.At(cur.i, cur.j); h > 0 {
		t.Fatalf("walk ended above sea level at %v (%v)", cur, h)
	}
}

func TestBoundaryRoughOrder(t *testing.T) {
	rings := [][]cell{
		{{5, 5}},
		{{4, 4}, {4, 5}, {4, 6}, {5, 4}, {5, 6}, {6, 4}, {6, 5}, {6, 6}},
	}
	want := []cell{{4, 4}, {4, 5}, {4, 6}, {5, 6}, {6, 6}, {6, 5}, {6, 4}, {5, 4}}
	if got := boundaryRough(rings); !slices.Equal(got, want) {
		t.Fatalf("boundary = %v, want %v", got, want)
	}
}

func TestFloodLakeDeterministic(t *testing.T) {
	lp := syntheticPatch(bowl)
	a := floodLake(lp, cell{64, 64}, rng.New(9))
	b := floodLake(lp, cell{64, 64}, rng.New(9))
	if !slices.Equal(a, b) || len(a) == 0 {
		t.Fatalf("flood not deterministic: %v vs %v", a, b)
	}
}

func TestGaussianHelpers(t *testing.T) {
	k := gaussianKernel(patchSigma)
	if len(k) != 81 {
		t.Fatalf("kernel length %d, want 81", len(k))
	}
	sum := 0.0
	for _, w := range k {
		sum += w
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("kernel sums to %v", sum)
	}
	for _, tc := range [][3]int{{-1, 5, 0}, {-2, 5, 1}, {5, 5, 4}, {6, 5, 3}, {12, 5, 2}} {
		if got := reflectIndex(tc[0], tc[1]); got != tc[2] {
			t.Fatalf("reflectIndex(%d, %d) = %d, want %d", tc[0], tc[1], got, tc[2])
		}
	}
	flat := core.NewField(8, 8)
	for k := range flat.Cells() {
		flat.Cells()[k] = 3
	}
	for _, v := range gaussian2D(flat, 2).Cells() {
		if math.Abs(v-3) > 1e-12 {
			t.Fatalf("smoothing a constant field changed it to %v", v)
		}
	}
}

func TestInterpPeriodic(t *testing.T) {
	xp := []float64{math.Pi / 2, -math.Pi / 2, 0, math.Pi}
	fp := []float64{3, 1, 2, 4}
	got := interpPeriodic([]float64{math.Pi / 4, 0, -3 * math.Pi / 4}, xp, fp, 2*math.Pi)
	want := []float64{2.5, 2, 2.5}
	for k := range want {
		if math.Abs(got[k]-want[k]) > 1e-12 {
			t.Fatalf("interp = %v, want %v", got, want)
		}
	}
	// 2π lands on 0 and the first sample wins.
	got = interpPeriodic([]float64{math.Pi / 2}, []float64{0, 2 * math.Pi, math.Pi}, []float64{1, 9, 3}, 2*math.Pi)
	if math.Abs(got[0]-2) > 1e-12 {
		t.Fatalf("interp with a repeated angle = %v, want 2", got)
	}
}

func TestPerturbLakeStaysOnGlobe(t *testing.T) {
	l := Lake{{88.5, 10}, {88.5, 11}, {89.5, 11}, {89.5, 10}}
	out := perturbLake(l, rng.New(4))
	if len(out) != lakeSamples {
		t.Fatalf("lake resampled to %d points, want %d", len(out), lakeSamples)
	}
	for _, p := range out {
		if math.Abs(p.Lat) > 89 {
			t.Fatalf("latitude %v escaped the clamp", p.Lat)
		}
	}
	seam := Lake{{0, 179.5}, {0, -179.5}, {1, -179.5}, {1, 179.5}}
	for _, p := range perturbLake(seam, rng.New(4)) {
		if p.Lon < -181 || p.Lon > 180 {
			t.Fatalf("seam lake longitude %v not rewrapped", p.Lon)
		}
	}
}

func TestRiverIndexContact(t *testing.T) {
	x := newRiverIndex()
	x.add(River{{0, 0}, {1, 1}, {2, 2}})
	x.add(River{{0, 0.5}, {1, 1.0005}})
	compare := x.nearSources(Point{0.2, 0.2})
	if !compare[0] || !compare[1] {
		t.Fatalf("both sources are near, got %v", compare)
	}
	q, ok := x.contact(Point{1.0002, 1.0002}, compare)
	if !ok || q != (Point{1, 1}) {
		t.Fatalf("contact = %v %v, want first river", q, ok)
	}
	if _, ok := x.contact(Point{5, 5}, compare); ok {
		t.Fatal("far point should not merge")
	}
	if got := x.nearSources(Point{60, 60}); len(got) != 0 {
		t.Fatalf("distant source compared: %v", got)
	}
}

func TestLocalPatchInterpolated(t *testing.T) {
	p := scenarioParams()
	g := scenarioGrid(t)
	h, err := BuildHeightmap(context.Background(), g, p, DefaultShiftSearch, 0)
	if err != nil {
		t.Fatal(err)
	}
	lp, err := NewLocalPatch(context.Background(), g, h, p, 0, -178, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(lp.Lat) != patchCells || lp.Z.W != patchCells || lp.Z.H != patchCells {
		t.Fatal("patch has wrong dimensions")
	}
	for _, lon := range lp.Lon {
		if lon < g.Lon[0] || lon > g.Lon[g.Nch()-1] {
			t.Fatalf("patch longitude %v not shifted into the grid", lon)
		}
	}
	i, j := lp.Index(0, -178)
	if lp.nearEdge(cell{i, j}) {
		t.Fatalf("centre (%d, %d) reported near the edge", i, j)
	}
}
