package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"worldgen/internal/core"
)

const (
	rade = 180.0 / math.Pi
	dera = math.Pi / 180.0
)

// Grid holds the latitude and longitude samples of a map in degrees.
// Latitudes increase from south to north.
type Grid struct {
	Lat []float64
	Lon []float64

	FullLat bool
	FullLon bool

	// Colatitude and shifted longitude in radians, used for noise sampling.
	colat  []float64
	lonRad []float64
}

// linspace mirrors the usual evenly spaced sampling: start + i*step with the
// last sample pinned to stop.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = float64(i)*step + start
	}
	out[n-1] = stop
	return out
}

// NewGrid samples nth latitudes uniformly in cos(colatitude) and nch
// longitudes uniformly in angle.
func NewGrid(nth, nch int, latRange, lonRange [2]float64) (*Grid, error) {
	if nth < 3 || nch < 3 {
		return nil, fmt.Errorf("grid %dx%d is smaller than 3x3", nth, nch)
	}
	th := latRange
	if math.Abs(th[0]+90) < 1e-4 {
		th[0] = -89.9999
	}
	if math.Abs(th[1]-90) < 1e-4 {
		th[1] = 89.9999
	}
	var c, ch [2]float64
	for i := 0; i < 2; i++ {
		ch[i] = (lonRange[i] + 180) * dera
		c[i] = (90 - th[i]) * dera
	}

	g := &Grid{}
	g.FullLat = math.Abs(math.Abs(c[1]-c[0])-math.Pi) < 1e-3
	if math.Abs(ch[1]-ch[0]-2*math.Pi) < 1e-3 {
		step := 2 * math.Pi / float64(nch)
		g.lonRad = linspace(ch[0], ch[1]-step, nch)
		g.FullLon = true
	} else {
		g.lonRad = linspace(ch[0], ch[1], nch)
	}

	colat := linspace(math.Cos(c[0]), math.Cos(c[1]), nth)
	for i := range colat {
		colat[i] = math.Acos(colat[i])
	}
	// Keep the poles off the tangent singularity.
	if math.Abs(colat[0]-math.Pi) < 1e-2 {
		if colat[1] < math.Pi-0.001 {
			colat[0] = math.Pi - 0.001
		} else {
			colat[0] = 0.5 * (colat[0] + colat[1])
		}
	}
	if math.Abs(colat[nth-1]) < 1e-2 {
		if colat[nth-2] > 0.001 {
			colat[nth-1] = 0.001
		} else {
			colat[nth-1] = 0.5 * (colat[nth-1] + colat[nth-2])
		}
	}
	g.colat = colat

	g.Lat = make([]float64, nth)
	for i, v := range colat {
		g.Lat[i] = v*rade*(-1) + 90
	}
	g.Lon = make([]float64, nch)
	for j, v := range g.lonRad {
		g.Lon[j] = v*rade - 180
	}
	return g, nil
}

// GridFromDegrees rebuilds a grid from stored latitude and longitude samples.
func GridFromDegrees(lat, lon []float64, latRange, lonRange [2]float64) *Grid {
	g := &Grid{Lat: append([]float64(nil), lat...), Lon: append([]float64(nil), lon...)}
	g.FullLat = math.Abs((latRange[1]-latRange[0])*dera-math.Pi) < 1e-3
	g.FullLon = math.Abs((lonRange[1]-lonRange[0])*dera-2*math.Pi) < 1e-3
	g.colat = make([]float64, len(lat))
	for i, v := range lat {
		g.colat[i] = (90 - v) * dera
	}
	g.lonRad = make([]float64, len(lon))
	for j, v := range lon {
		g.lonRad[j] = (v + 180) * dera
	}
	return g
}

// Nth returns the number of latitude rows.
func (g *Grid) Nth() int { return len(g.Lat) }

// Nch returns the number of longitude columns.
func (g *Grid) Nch() int { return len(g.Lon) }

// Size reports the grid as columns x rows.
func (g *Grid) Size() core.Size { return core.Size{W: len(g.Lon), H: len(g.Lat)} }

// Full reports whether the grid covers pole to pole and the whole date-line wrap.
func (g *Grid) Full() bool { return g.FullLat && g.FullLon }

// Wraps reports whether at least one axis closes on itself.
func (g *Grid) Wraps() bool { return g.FullLat || g.FullLon }

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	return &Grid{
		Lat:     append([]float64(nil), g.Lat...),
		Lon:     append([]float64(nil), g.Lon...),
		FullLat: g.FullLat,
		FullLon: g.FullLon,
		colat:   append([]float64(nil), g.colat...),
		lonRad:  append([]float64(nil), g.lonRad...),
	}
}

// spherePoint embeds colatitude/longitude on the unit sphere and offsets every
// axis by one so the noise lattice only sees positive coordinates.
func spherePoint(colat, lon float64) mgl64.Vec3 {
	p := mgl64.SphericalToCartesian(1, colat, lon)
	return p.Add(mgl64.Vec3{1, 1, 1})
}
