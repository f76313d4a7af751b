package world

import (
	"fmt"
	"sort"
)

// wrapLon applies the reference wrap rule, which folds by 359 degrees.
func wrapLon(lon float64) float64 {
	if lon < -180 {
		lon += 359
	}
	if lon > 179 {
		lon -= 359
	}
	return lon
}

// Rotate spins the globe by deg degrees of longitude. Every generated layer
// is reordered to the new longitude order and rivers and lakes are shifted.
func (s *State) Rotate(deg float64) error {
	if err := s.require(StageNone, StageHeight); err != nil {
		return err
	}
	if deg < -180 || deg > 180 {
		err := &GenerationError{Kind: KindValidation, Op: "rotate", Err: fmt.Errorf("angle %v outside [-180, 180]", deg)}
		s.report(err)
		return err
	}
	g := s.grid
	for j := range g.Lon {
		g.Lon[j] = wrapLon(g.Lon[j] + deg)
	}
	perm := make([]int, len(g.Lon))
	for j := range perm {
		perm[j] = j
	}
	sort.SliceStable(perm, func(a, b int) bool { return g.Lon[perm[a]] < g.Lon[perm[b]] })
	sorted := make([]float64, len(g.Lon))
	for j, src := range perm {
		sorted[j] = g.Lon[src]
	}
	g.Lon = sorted
	for j, v := range g.Lon {
		g.lonRad[j] = (v + 180) * dera
	}

	s.height.PermuteColumns(perm)
	if s.wind != nil {
		s.wind.V.PermuteColumns(perm)
		s.wind.U.PermuteColumns(perm)
		s.wind.Speed.PermuteColumns(perm)
	}
	if s.temperature != nil {
		s.temperature.PermuteColumns(perm)
	}
	if s.moisture != nil {
		s.moisture.PermuteColumns(perm)
	}
	if s.biome != nil {
		s.biome.PermuteColumns(perm)
	}
	if s.hydro != nil {
		for _, r := range s.hydro.Rivers {
			for k := range r {
				r[k].Lon = wrapLon(r[k].Lon + deg)
			}
		}
		for _, l := range s.hydro.Lakes {
			for k := range l {
				l[k].Lon = wrapLon(l[k].Lon + deg)
			}
		}
	}
	s.info(StageNone, fmt.Sprintf("rotated by %g degrees", deg))
	return nil
}
