package world

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultAdvectIterations caps the transport loop.
const DefaultAdvectIterations = 50

// transport moves an airborne quantity one cell per step along the wind.
type transport struct {
	nth, nch int
	lon      []float64 // radians
	tanLat   []float64
	vx, vy   []float64 // wind direction scaled by the maximum speed
}

func newTransport(g *Grid, w *WindField, maxWind float64) *transport {
	t := &transport{
		nth:    g.Nth(),
		nch:    g.Nch(),
		lon:    make([]float64, g.Nch()),
		tanLat: make([]float64, g.Nth()),
		vx:     make([]float64, g.Nth()*g.Nch()),
		vy:     make([]float64, g.Nth()*g.Nch()),
	}
	for j, v := range g.Lon {
		t.lon[j] = v * dera
	}
	for i, v := range g.Lat {
		t.tanLat[i] = math.Tan(v * dera)
	}
	if maxWind > 0 {
		for k := range t.vx {
			t.vx[k] = w.U.Cells()[k] / maxWind
			t.vy[k] = w.V.Cells()[k] / maxWind
		}
	}
	return t
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// split keeps a two-way transfer from creating quantity.
func split(dr0, dr1 float64) (float64, float64) {
	if math.IsNaN(dr0) || math.IsNaN(dr1) || math.IsInf(dr0, 0) || math.IsInf(dr1, 0) {
		return 1, 0
	}
	if s := dr0 + dr1; s > 1 {
		return dr0 / s, dr1 / s
	}
	return dr0, dr1
}

func (t *transport) wrapRow(i int) int {
	if i > t.nth-1 {
		return 0
	}
	if i < 0 {
		return t.nth - 1
	}
	return i
}

func (t *transport) wrapCol(j int) int {
	if j > t.nch-1 {
		return 0
	}
	if j < 0 {
		return t.nch - 1
	}
	return j
}

// seam is the longitude gap across the date line.
func (t *transport) seam() float64 {
	return 2*math.Pi - t.lon[t.nch-1] + t.lon[0]
}

// step moves every cell of src into dst, which must be zeroed. Cells with no
// wind lose their airborne amount.
func (t *transport) step(src, dst []float64) {
	nch := t.nch
	at := func(i, j int) int { return i*nch + j }
	for ii := 0; ii < t.nth; ii++ {
		for jj := 0; jj < nch; jj++ {
			k := at(ii, jj)
			a := src[k]
			if a == 0 {
				continue
			}
			vx, vy := t.vx[k], t.vy[k]
			sx, sy := sign(vx), sign(vy)
			mx, my := math.Abs(vx), math.Abs(vy)
			switch {
			case mx < 1e-5 && my < 1e-5:
			case my < 1e-5:
				dst[at(ii, t.wrapCol(jj+int(sx)))] += a
			case mx < 1e-5:
				dst[at(t.wrapRow(ii+int(sy)), jj)] += a
			case (ii == 0 && sy < 0) || (ii == t.nth-1 && sy > 0):
				t.overPole(dst, ii, jj, a, vx, vy, sx)
			default:
				jja := t.wrapCol(jj + int(sx))
				iia := t.wrapRow(ii + int(sy))
				var dx float64
				if (jj == 0 && sx < 0) || (jj == nch-1 && sx > 0) {
					dx = t.seam() * sx
				} else {
					dx = t.lon[jja] - t.lon[jj]
				}
				dy := t.tanLat[iia] - t.tanLat[ii]
				dyv := dx * vy / vx
				if math.Abs(dyv) > math.Abs(dy) {
					dxv := dy * vx / vy
					dr0, dr1 := split(math.Abs((dx-dxv)/dx), math.Abs(dxv/dx))
					dst[at(iia, jj)] += dr0 * a
					dst[at(iia, jja)] += dr1 * a
				} else {
					dr0, dr1 := split(math.Abs((dy-dyv)/dy), math.Abs(dyv/dy))
					dst[at(ii, jja)] += dr0 * a
					dst[at(iia, jja)] += dr1 * a
				}
			}
		}
	}
}

// overPole reflects flow leaving the first or last row onto the antipodal
// longitude of the same row.
func (t *transport) overPole(dst []float64, ii, jj int, a, vx, vy, sx float64) {
	nch := t.nch
	dy := 2 * (1000 - t.tanLat[ii])
	var jjw0, jjw1, jja int
	var dx, dxb float64
	if nch%2 == 0 {
		jjw0 = nch/2 + jj
		jja = jjw0 + int(sx)
		if jjw0 > nch-1 {
			jjw0 -= nch
		}
		jjw1 = jjw0
		if jja > nch-1 {
			jja -= nch
		}
		if (jjw0 == 0 && sx < 0) || (jjw0 == nch-1 && sx > 0) {
			dx = t.seam()
		} else {
			dx = t.lon[jja] - t.lon[jjw0]
		}
	} else {
		jjw0 = nch/2 + jj
		jjw1 = jjw0 + 1
		if jjw0 > nch-1 {
			jjw0 -= nch
		}
		if jjw1 > nch-1 {
			jjw1 -= nch
		}
		if sx > 0 {
			jja = jjw1
		} else {
			jja = jjw0
		}
		if (sx > 0 && jjw1 == 0) || (sx < 0 && jjw0 == nch-1) {
			dx = math.Pi - .5*t.lon[jjw0]
		} else {
			dx = .5 * (t.lon[jjw1] - t.lon[jjw0])
			dxb = dx
		}
	}
	row := ii * nch
	dyv := dx * vy / vx
	if math.Abs(dyv) > math.Abs(dy) {
		dxv := dy * vx / vy
		dr0, dr1 := split(math.Abs((dx-dxv)/dx), math.Abs((dxb+dxv)/(dxb+dx)))
		dst[row+jjw0] += dr0 * a
		dst[row+jjw1] += dr1 * a
	} else {
		dr0, dr1 := split(math.Abs((dy-dyv)/dy), math.Abs(dyv/dy))
		dst[row+jja] += (dr0 + dr1) * a
	}
}

// advect alternates absorb and step until nothing is airborne or the
// iteration cap is hit. Absorption runs once more than the transport.
func (t *transport) advect(ctx context.Context, air []float64, maxIter int, absorb func(air []float64), trace func(int, float64)) error {
	next := make([]float64, len(air))
	for kk := 0; len(air) > 0 && floats.Max(air) > 0; {
		if err := ctx.Err(); err != nil {
			return err
		}
		kk++
		absorb(air)
		if kk > maxIter {
			break
		}
		clear(next)
		t.step(air, next)
		air, next = next, air
		if trace != nil {
			trace(kk, floats.Sum(air))
		}
	}
	return nil
}
