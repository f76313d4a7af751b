package world

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"worldgen/internal/core"
	"worldgen/internal/noise"
)

// Heightmap is the signed elevation in km, one value per grid cell.
type Heightmap struct {
	*core.Field
	// Shift is the offset added to the raw noise before scaling.
	Shift    float64
	Min, Max float64
	// RealizedWater is the percentage of cells below sea level.
	RealizedWater float64
	// Iterations counts shift-search refinements; zero when no search ran.
	Iterations int
}

// Clone returns a deep copy.
func (h *Heightmap) Clone() *Heightmap {
	c := *h
	c.Field = h.Field.Clone()
	return &c
}

// ShiftSearch tunes the histogram refinement that places sea level.
type ShiftSearch struct {
	Buckets       int
	MaxIterations int
	Tolerance     float64
}

// DefaultShiftSearch matches the empirically chosen 11 buckets and 100 refinements.
var DefaultShiftSearch = ShiftSearch{Buckets: 11, MaxIterations: 100, Tolerance: 1e-2}

// heightSampler evaluates the seeded octave noise on (colatitude, longitude)
// pairs in radians.
type heightSampler struct {
	octaves noise.Octaves
	seed    float64
	workers int
}

func newHeightSampler(p Params, workers int) (heightSampler, error) {
	o := noise.Octaves{Count: p.Octaves, Persistence: 1 / p.Persistence, Scale: p.Frequency}
	if err := o.Validate(); err != nil {
		return heightSampler{}, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return heightSampler{octaves: o, seed: float64(p.Seed), workers: workers}, nil
}

// sample fills a rows x cols field. Rows are independent, so they are spread
// over a bounded worker pool; every cell is written by exactly one goroutine.
func (s heightSampler) sample(ctx context.Context, colat, lon []float64) (*core.Field, error) {
	f := core.NewField(len(lon), len(colat))
	cells := f.Cells()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range colat {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := cells[i*len(lon) : (i+1)*len(lon)]
			for j, l := range lon {
				p := spherePoint(colat[i], l)
				row[j] = noise.Unit(p.X(), p.Y(), p.Z(), s.seed, s.octaves)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// applyShift moves sea level and scales each band. It returns the percentage
// of cells that ended below zero.
func applyShift(f *core.Field, shift, depth, height float64) float64 {
	below := 0
	cells := f.Cells()
	for k, v := range cells {
		v += shift
		if v < 0 {
			v *= depth
			below++
		} else {
			v *= height
		}
		cells[k] = v
	}
	return float64(below) * 100 / float64(len(cells))
}

// waterShift finds the offset that puts roughly target percent of the noise
// values below zero. Targets at the extremes use fixed offsets and a negative
// target selects the automatic midpoint.
func waterShift(values []float64, target float64, s ShiftSearch) (shift float64, iterations int) {
	switch {
	case target < 0:
		return -0.5, 0
	case math.Abs(target-100) < 1e-2:
		return -1, 0
	case math.Abs(target) < 1e-2:
		return 0, 0
	}
	if s.Buckets < 2 {
		s.Buckets = DefaultShiftSearch.Buckets
	}
	n := float64(len(values))
	actual, pack := 0.0, 0.0
	minv, maxv := 0.0, 1.0
	histo := make([]int, s.Buckets-1)
	for math.Abs(target-actual) > s.Tolerance {
		inter := linspace(minv, maxv, s.Buckets)
		clear(histo)
		for _, v := range values {
			for jj := 1; jj < s.Buckets; jj++ {
				if v > inter[jj-1] && v < inter[jj] {
					histo[jj-1]++
					break
				}
			}
		}
		cumold := 0.0
		for jj := 0; jj < s.Buckets-1; jj++ {
			cum := cumold + float64(histo[jj])
			actual = pack + cum*100/n
			if actual > target {
				minv, maxv = inter[jj], inter[jj+1]
				shift = -inter[jj]
				pack += cumold * 100 / n
				actual = pack
				break
			}
			cumold = cum
		}
		iterations++
		if iterations > s.MaxIterations {
			break
		}
	}
	return shift, iterations
}

// BuildHeightmap samples the noise over the grid, places sea level and scales
// the result into the depth and height bands.
func BuildHeightmap(ctx context.Context, g *Grid, p Params, search ShiftSearch, workers int) (*Heightmap, error) {
	s, err := newHeightSampler(p, workers)
	if err != nil {
		return nil, err
	}
	f, err := s.sample(ctx, g.colat, g.lonRad)
	if err != nil {
		return nil, err
	}
	shift, iters := waterShift(f.Cells(), p.Water, search)
	h := &Heightmap{Field: f, Shift: shift, Iterations: iters}
	h.RealizedWater = applyShift(f, shift, p.MaxDepth, p.MaxHeight)
	h.Min, h.Max = f.MinMax()
	return h, nil
}

// sampleDegrees evaluates the scaled height at arbitrary degree coordinates
// with a known shift, as used for detailed river patches.
func sampleDegrees(ctx context.Context, lat, lon []float64, p Params, shift float64) (*core.Field, error) {
	s, err := newHeightSampler(p, 0)
	if err != nil {
		return nil, err
	}
	colat := make([]float64, len(lat))
	for i, v := range lat {
		colat[i] = (90 - v) * dera
	}
	lonRad := make([]float64, len(lon))
	for j, v := range lon {
		lonRad[j] = (v + 180) * dera
	}
	f, err := s.sample(ctx, colat, lonRad)
	if err != nil {
		return nil, err
	}
	applyShift(f, shift, p.MaxDepth, p.MaxHeight)
	return f, nil
}

// WaterPercent is the share of cells below sea level.
func WaterPercent(f *core.Field) float64 {
	below := 0
	for _, v := range f.Cells() {
		if v < 0 {
			below++
		}
	}
	return float64(below) * 100 / float64(len(f.Cells()))
}
