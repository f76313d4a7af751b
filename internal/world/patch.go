package world

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"worldgen/internal/core"
)

const (
	patchCells  = 128
	patchSpan   = 5.0 // degrees either side of the centre
	patchSigma  = 10.0
	patchMargin = 20
	truncate    = 4.0
)

// LocalPatch is a smoothed high-resolution height window around a point.
// Cells that were at or below sea level before smoothing hold -1.
type LocalPatch struct {
	Lat, Lon []float64
	Z        *core.Field
}

// NewLocalPatch builds the window centred on (lat0, lon0). Latitude is
// clamped to the grid; longitudes past either end are shifted back by the
// grid span. Detailed patches re-sample the noise, others interpolate the
// global heightmap.
func NewLocalPatch(ctx context.Context, g *Grid, h *Heightmap, p Params, lat0, lon0 float64, detailed bool) (*LocalPatch, error) {
	nth, nch := g.Nth(), g.Nch()
	lamin := math.Max(lat0-patchSpan, g.Lat[0])
	lamax := math.Min(lat0+patchSpan, g.Lat[nth-1])
	lat := linspace(lamin, lamax, patchCells)
	lomin, lomax := lon0-patchSpan, lon0+patchSpan
	lon := linspace(lomin, lomax, patchCells)

	var z *core.Field
	if detailed {
		f, err := sampleDegrees(ctx, lat, lon, p, h.Shift)
		if err != nil {
			return nil, err
		}
		z = f
	}

	span := g.Lon[nch-1] - g.Lon[0]
	if lomin < g.Lon[0] {
		for j := range lon {
			if lon[j] >= g.Lon[0] {
				break
			}
			lon[j] += span
		}
	}
	if lomax > g.Lon[nch-1] {
		for j := len(lon) - 1; j >= 0; j-- {
			if lon[j] <= g.Lon[nch-1] {
				break
			}
			lon[j] -= span
		}
	}

	if !detailed {
		z = core.NewField(patchCells, patchCells)
		for i, la := range lat {
			for j, lo := range lon {
				z.Set(i, j, bilinear(g, h.Field, la, lo))
			}
		}
	}

	cells := z.Cells()
	var sea []int
	for k, v := range cells {
		if v <= 0 {
			sea = append(sea, k)
		}
	}
	smoothed := gaussian2D(z, patchSigma)
	for _, k := range sea {
		smoothed.Cells()[k] = -1
	}
	return &LocalPatch{Lat: lat, Lon: lon, Z: smoothed}, nil
}

// Index returns the cell nearest to (lat, lon).
func (lp *LocalPatch) Index(lat, lon float64) (int, int) {
	return nearest(lp.Lat, lat), nearest(lp.Lon, lon)
}

// Point converts a cell to degrees.
func (lp *LocalPatch) Point(c cell) Point {
	return Point{Lat: lp.Lat[c.i], Lon: lp.Lon[c.j]}
}

func (lp *LocalPatch) inside(i, j int) bool {
	return i >= 0 && j >= 0 && i < patchCells && j < patchCells
}

// nearEdge reports whether a walk at c needs a fresh window.
func (lp *LocalPatch) nearEdge(c cell) bool {
	return c.i <= patchMargin || c.j <= patchMargin ||
		c.i >= patchCells-patchMargin-1 || c.j >= patchCells-patchMargin-1
}

func nearest(axis []float64, v float64) int {
	best, bi := math.Inf(1), 0
	for i, a := range axis {
		if d := math.Abs(a - v); d < best {
			best, bi = d, i
		}
	}
	return bi
}

// bracket finds the interval of a sorted axis containing v.
func bracket(axis []float64, v float64) (int, float64) {
	n := len(axis)
	i := sort.SearchFloat64s(axis, v) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	t := (v - axis[i]) / (axis[i+1] - axis[i])
	return i, math.Max(0, math.Min(1, t))
}

// bilinear interpolates f on the grid at (lat, lon) in degrees.
func bilinear(g *Grid, f *core.Field, lat, lon float64) float64 {
	i, ti := bracket(g.Lat, lat)
	j, tj := bracket(g.Lon, lon)
	a := f.At(i, j)*(1-tj) + f.At(i, j+1)*tj
	b := f.At(i+1, j)*(1-tj) + f.At(i+1, j+1)*tj
	return a*(1-ti) + b*ti
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	for x := -radius; x <= radius; x++ {
		k[x+radius] = math.Exp(-0.5 * float64(x*x) / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// reflectIndex mirrors i into [0, n) repeating the edge sample.
func reflectIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// gaussian2D smooths f separably with reflected borders.
func gaussian2D(f *core.Field, sigma float64) *core.Field {
	k := gaussianKernel(sigma)
	r := len(k) / 2
	tmp := core.NewField(f.W, f.H)
	for i := 0; i < f.H; i++ {
		for j := 0; j < f.W; j++ {
			s := 0.0
			for d := -r; d <= r; d++ {
				s += k[d+r] * f.At(i, reflectIndex(j+d, f.W))
			}
			tmp.Set(i, j, s)
		}
	}
	out := core.NewField(f.W, f.H)
	for i := 0; i < f.H; i++ {
		for j := 0; j < f.W; j++ {
			s := 0.0
			for d := -r; d <= r; d++ {
				s += k[d+r] * tmp.At(reflectIndex(i+d, f.H), j)
			}
			out.Set(i, j, s)
		}
	}
	return out
}

// gaussianCircular smooths a closed sequence.
func gaussianCircular(v []float64, sigma float64) []float64 {
	out := make([]float64, len(v))
	if sigma <= 0 {
		copy(out, v)
		return out
	}
	k := gaussianKernel(sigma)
	r := len(k) / 2
	for i := range v {
		s := 0.0
		for d := -r; d <= r; d++ {
			s += k[d+r] * v[wrapIndex(i+d, len(v))]
		}
		out[i] = s
	}
	return out
}
