package world

import (
	"cmp"
	"slices"

	"worldgen/pkg/rng"
)

type cell struct{ i, j int }

type cellSet map[cell]struct{}

func (s cellSet) has(c cell) bool { _, ok := s[c]; return ok }
func (s cellSet) add(c cell)      { s[c] = struct{}{} }

func d2(a, b cell) int {
	di, dj := a.i-b.i, a.j-b.j
	return di*di + dj*dj
}

// fillTolerance is how far above the entry height a flooded pool may reach.
const fillTolerance = 0.1

// downstream advances one step from c. It returns the cells walked, the
// boundary of any pool filled on the way and whether the river continues.
func downstream(lp *LocalPatch, c cell) (path, pond []cell, cont bool) {
	z := lp.Z
	lh := z.At(c.i, c.j)
	minV, found := lh, false
	var minI cell
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			n := cell{c.i + di, c.j + dj}
			if !lp.inside(n.i, n.j) {
				continue
			}
			if v := z.At(n.i, n.j); v < minV {
				minV, minI, found = v, n, true
			}
		}
	}
	switch {
	case minV <= 0:
		if found {
			return []cell{minI}, nil, false
		}
		return nil, nil, false
	case found:
		return []cell{minI}, nil, true
	}
	return fillMinimum(lp, c)
}

// lowest returns the strictly lowest neighbour of c outside invalid.
func lowest(lp *LocalPatch, c cell, invalid cellSet) (cell, bool) {
	minV := lp.Z.At(c.i, c.j)
	var best cell
	ok := false
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			n := cell{c.i + di, c.j + dj}
			if !lp.inside(n.i, n.j) || invalid.has(n) {
				continue
			}
			if v := lp.Z.At(n.i, n.j); v < minV {
				minV, best, ok = v, n, true
			}
		}
	}
	return best, ok
}

// fillMinimum floods the depression around entry ring by ring until a cell
// with a lower outlet is found that keeps descending for two more steps.
func fillMinimum(lp *LocalPatch, entry cell) (path, pond []cell, cont bool) {
	z := lp.Z
	lh := z.At(entry.i, entry.j)
	invalid := cellSet{entry: {}}
	rings := [][]cell{{entry}}
	for {
		var ring []cell
		for _, p := range rings[len(rings)-1] {
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					n := cell{p.i + di, p.j + dj}
					if invalid.has(n) || !lp.inside(n.i, n.j) {
						continue
					}
					invalid.add(n)
					if z.At(n.i, n.j)-lh < fillTolerance {
						ring = append(ring, n)
					}
				}
			}
		}
		if len(ring) == 0 {
			return nil, boundaryRough(rings), false
		}
		rings = append(rings, ring)

		var stream, destiny cell
		recovered := false
		for _, p := range ring {
			if n, ok := lowest(lp, p, invalid); ok {
				stream, destiny, recovered = n, p, true
			}
		}
		if !recovered {
			continue
		}
		step1, ok := lowest(lp, stream, invalid)
		if !ok {
			continue
		}
		if _, ok := lowest(lp, step1, invalid); !ok {
			continue
		}
		pond = boundaryRough(rings)
		path, cont = crossPool(lp, rings, entry, destiny, stream)
		return path, pond, cont
	}
}

// crossPool walks from entry to destiny through the pool, then freely to the
// outlet. Each step picks the neighbour closest to the target, first in scan
// order on ties.
func crossPool(lp *LocalPatch, rings [][]cell, entry, destiny, stream cell) ([]cell, bool) {
	pool := cellSet{}
	for _, r := range rings {
		for _, c := range r {
			pool.add(c)
		}
	}
	walked := cellSet{}
	var path []cell
	cur := entry
	walk := func(target cell, inPool bool) bool {
		for d2(cur, target) > 0 {
			best, bestD := cell{}, -1
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					n := cell{cur.i + di, cur.j + dj}
					if n == cur || walked.has(n) || !lp.inside(n.i, n.j) {
						continue
					}
					if inPool && !pool.has(n) {
						continue
					}
					if d := d2(n, target); bestD < 0 || d < bestD {
						best, bestD = n, d
					}
				}
			}
			if bestD < 0 {
				return false
			}
			cur = best
			walked.add(cur)
			path = append(path, cur)
		}
		return true
	}
	if !walk(destiny, true) {
		return path, false
	}
	if !walk(stream, false) {
		return path, false
	}
	return path, true
}

// boundaryRough outlines a pool by its four extreme edges: lowest row by
// column, highest column by row, highest row by column descending and lowest
// column by row descending.
func boundaryRough(rings [][]cell) []cell {
	var all []cell
	for _, r := range rings {
		all = append(all, r...)
	}
	if len(all) == 0 {
		return nil
	}
	minI, maxI, minJ, maxJ := all[0].i, all[0].i, all[0].j, all[0].j
	for _, c := range all[1:] {
		minI, maxI = min(minI, c.i), max(maxI, c.i)
		minJ, maxJ = min(minJ, c.j), max(maxJ, c.j)
	}
	seen := cellSet{}
	var out []cell
	side := func(keep func(cell) bool, order func(a, b cell) int) {
		var s []cell
		for _, c := range all {
			if keep(c) {
				s = append(s, c)
			}
		}
		slices.SortStableFunc(s, order)
		for _, c := range s {
			if !seen.has(c) {
				seen.add(c)
				out = append(out, c)
			}
		}
	}
	side(func(c cell) bool { return c.i == minI }, func(a, b cell) int { return cmp.Compare(a.j, b.j) })
	side(func(c cell) bool { return c.j == maxJ }, func(a, b cell) int { return cmp.Compare(a.i, b.i) })
	side(func(c cell) bool { return c.i == maxI }, func(a, b cell) int { return cmp.Compare(b.j, a.j) })
	side(func(c cell) bool { return c.j == minJ }, func(a, b cell) int { return cmp.Compare(b.i, a.i) })
	return out
}

const (
	lakeFill   = .99
	lakeDecay  = .7
	aheadSteps = 10
)

// floodLake grows a random pond around c. Every accepted cell lowers the
// chance of accepting the next one. Cells on the patch border stop the scan
// of their row.
func floodLake(lp *LocalPatch, c cell, r *rng.RNG) []cell {
	invalid := cellSet{c: {}}
	rings := [][]cell{{c}}
	pfill := lakeFill
	for {
		var ring []cell
		for _, p := range rings[len(rings)-1] {
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					n := cell{p.i + di, p.j + dj}
					if n.i <= 0 || n.j <= 0 || n.i >= patchCells-1 || n.j >= patchCells-1 {
						break
					}
					if invalid.has(n) {
						continue
					}
					invalid.add(n)
					if r.Bool(pfill) {
						pfill *= lakeDecay
						ring = append(ring, n)
					}
				}
			}
		}
		if len(ring) == 0 {
			return boundaryRough(rings)
		}
		rings = append(rings, ring)
	}
}

// checkAhead follows the river a few steps without committing to it and
// reports false when it falls into another pool or back onto itself.
func checkAhead(lp *LocalPatch, c cell, visited pointSet) bool {
	ahead := pointSet{}
	cur := c
	for k := 0; k < aheadSteps; k++ {
		path, pond, cont := downstream(lp, cur)
		if len(pond) > 0 {
			return false
		}
		if !cont {
			return true
		}
		unique := true
		if len(path) > 0 {
			cur = path[len(path)-1]
			for _, p := range path {
				pt := lp.Point(p)
				if visited.has(pt) || ahead.has(pt) {
					unique = false
					continue
				}
				ahead.add(pt)
			}
		}
		if !unique {
			return false
		}
	}
	return true
}
