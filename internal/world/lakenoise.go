package world

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"worldgen/pkg/rng"
)

const (
	lakeJitter  = .5 // fraction of the mean radius
	lakeSamples = 32
	lakeSmooth  = .03 // Gaussian sigma per boundary sample
)

// perturbLake turns a blocky pool outline into a rounded shore: the outline
// is expressed in polar form around its centre, resampled, jittered and
// smoothed.
func perturbLake(l Lake, r *rng.RNG) Lake {
	if len(l) == 0 {
		return l
	}
	lat := make([]float64, len(l))
	lon := make([]float64, len(l))
	for k, p := range l {
		lat[k], lon[k] = p.Lat, p.Lon
	}
	split := floats.Min(lon) < -170 && floats.Max(lon) > 170
	if split {
		for k := range lon {
			if lon[k] < 0 {
				lon[k] += 359
			}
		}
	}
	centre := mgl64.Vec2{
		.5 * (floats.Min(lat) + floats.Max(lat)),
		.5 * (floats.Min(lon) + floats.Max(lon)),
	}
	radius := make([]float64, len(l))
	theta := make([]float64, len(l))
	for k := range l {
		d := mgl64.Vec2{lat[k], lon[k]}.Sub(centre)
		radius[k] = d.Len()
		theta[k] = math.Atan2(d.Y(), d.X())
	}
	mean := stat.Mean(radius, nil)

	if len(radius) < lakeSamples {
		xp := theta
		theta = make([]float64, lakeSamples)
		step := 2 * math.Pi / lakeSamples
		for k := range theta {
			theta[k] = -math.Pi + float64(k)*step
		}
		radius = interpPeriodic(theta, xp, radius, 2*math.Pi)
	}
	for k := range radius {
		radius[k] += mean * r.Uniform(-lakeJitter, lakeJitter)
	}
	radius = gaussianCircular(radius, float64(len(radius))*lakeSmooth)

	out := make(Lake, len(radius))
	for k, rr := range radius {
		s, c := math.Sincos(theta[k])
		p := centre.Add(mgl64.Vec2{rr * c, rr * s})
		la, lo := p.X(), p.Y()
		if math.Abs(la) >= 89 {
			la = math.Copysign(89, la)
		}
		if split && lo > 179 {
			lo -= 359
		}
		out[k] = Point{Lat: la, Lon: lo}
	}
	return out
}

// interpPeriodic linearly interpolates fp(xp) at x on a periodic axis. The
// samples are wrapped into [0, period) and padded by one period on each side.
func interpPeriodic(x, xp, fp []float64, period float64) []float64 {
	wrap := func(v float64) float64 { return math.Mod(math.Mod(v, period)+period, period) }
	type sample struct{ x, f float64 }
	s := make([]sample, len(xp))
	for k := range xp {
		s[k] = sample{wrap(xp[k]), fp[k]}
	}
	slices.SortStableFunc(s, func(a, b sample) int { return cmp.Compare(a.x, b.x) })
	// Repeated angles keep their first sample.
	s = slices.CompactFunc(s, func(a, b sample) bool { return a.x == b.x })

	n := len(s)
	ax := make([]float64, 0, n+2)
	af := make([]float64, 0, n+2)
	ax = append(ax, s[n-1].x-period)
	af = append(af, s[n-1].f)
	for _, v := range s {
		ax = append(ax, v.x)
		af = append(af, v.f)
	}
	ax = append(ax, s[0].x+period)
	af = append(af, s[0].f)

	var pl interp.PiecewiseLinear
	if err := pl.Fit(ax, af); err != nil {
		panic(err)
	}
	out := make([]float64, len(x))
	for k, v := range x {
		out[k] = pl.Predict(wrap(v))
	}
	return out
}
