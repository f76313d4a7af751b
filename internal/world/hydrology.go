package world

import (
	"context"
	"fmt"
	"math"

	"worldgen/internal/core"
	"worldgen/pkg/rng"
)

const (
	minSources     = 500
	maxSources     = 5000
	mergeDistance  = .001 // degrees
	compareSources = 30.0 // degrees between sources worth comparing
	keyScale       = 1e9
	maxRiverSteps  = 20000
)

// pointKey quantizes a position so visited checks are exact hash lookups.
type pointKey struct{ lat, lon int64 }

func keyOf(p Point) pointKey {
	return pointKey{int64(math.Round(p.Lat * keyScale)), int64(math.Round(p.Lon * keyScale))}
}

type pointSet map[pointKey]struct{}

func (s pointSet) has(p Point) bool { _, ok := s[keyOf(p)]; return ok }
func (s pointSet) add(p Point)      { s[keyOf(p)] = struct{}{} }

type riverRef struct{ river, point int }

// riverIndex buckets the points of finished rivers so merges only test
// nearby points.
type riverIndex struct {
	rivers  []River
	buckets map[[2]int64][]riverRef
}

func newRiverIndex() *riverIndex {
	return &riverIndex{buckets: map[[2]int64][]riverRef{}}
}

func bucketOf(p Point) [2]int64 {
	return [2]int64{int64(math.Floor(p.Lat / mergeDistance)), int64(math.Floor(p.Lon / mergeDistance))}
}

func (x *riverIndex) add(r River) {
	id := len(x.rivers)
	x.rivers = append(x.rivers, r)
	for k, p := range r {
		b := bucketOf(p)
		x.buckets[b] = append(x.buckets[b], riverRef{id, k})
	}
}

// nearSources returns the rivers whose source lies within compareSources of p.
func (x *riverIndex) nearSources(p Point) map[int]bool {
	out := map[int]bool{}
	limit := compareSources * compareSources
	for id, r := range x.rivers {
		dx, dy := r[0].Lat-p.Lat, r[0].Lon-p.Lon
		if dx*dx+dy*dy <= limit {
			out[id] = true
		}
	}
	return out
}

// contact finds the first point, by river then position, of a compared river
// within mergeDistance of p.
func (x *riverIndex) contact(p Point, compare map[int]bool) (Point, bool) {
	if len(compare) == 0 {
		return Point{}, false
	}
	limit := mergeDistance * mergeDistance
	b := bucketOf(p)
	best := riverRef{-1, -1}
	for di := int64(-1); di <= 1; di++ {
		for dj := int64(-1); dj <= 1; dj++ {
			for _, ref := range x.buckets[[2]int64{b[0] + di, b[1] + dj}] {
				if !compare[ref.river] {
					continue
				}
				q := x.rivers[ref.river][ref.point]
				dx, dy := p.Lat-q.Lat, p.Lon-q.Lon
				if dx*dx+dy*dy > limit {
					continue
				}
				if best.river < 0 || ref.river < best.river || (ref.river == best.river && ref.point < best.point) {
					best = ref
				}
			}
		}
	}
	if best.river < 0 {
		return Point{}, false
	}
	return x.rivers[best.river][best.point], true
}

// tracer runs one hydrology pass. All random draws come from a single RNG
// seeded with the world seed, in source order.
type tracer struct {
	grid     *Grid
	height   *Heightmap
	biome    *core.CodeGrid
	params   Params
	detailed bool
	sink     core.Sink

	rng   *rng.RNG
	index *riverIndex
}

func (t *tracer) run(ctx context.Context) (*Hydrology, error) {
	t.rng = rng.New(int64(t.params.Seed))
	t.index = newRiverIndex()
	sources := (minSources + maxSources + 1) / 2
	if t.params.Random {
		sources = t.rng.IntRange(minSources, maxSources)
	}
	nth, nch := t.grid.Nth(), t.grid.Nch()
	h := t.height.Field

	out := &Hydrology{}
	for s := 0; s < sources; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		k := t.rng.Intn(nth * nch)
		i, j := k/nch, k%nch
		if h.At(i, j) <= 0 || badSource(Biome(t.biome.At(i, j))) {
			continue
		}
		river, lakes, err := t.safeRiver(ctx, i, j)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.sink.Emit(core.Event{Severity: core.SeverityWarning, Stage: StageHydrology.String(), Message: "river skipped", Err: err})
			continue
		}
		if len(river) > 0 {
			out.Rivers = append(out.Rivers, river)
			t.index.add(river)
		}
		out.Lakes = append(out.Lakes, lakes...)
	}
	for k, l := range out.Lakes {
		out.Lakes[k] = perturbLake(l, t.rng)
	}
	return out, nil
}

func (t *tracer) safeRiver(ctx context.Context, i, j int) (r River, lakes []Lake, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, lakes, err = nil, nil, fmt.Errorf("river at (%d, %d): %v", i, j, p)
		}
	}()
	return t.river(ctx, i, j)
}

// upstream climbs to a random higher neighbour, weighted by height. Each call
// may instead stop, more readily on mountains and ocean codes.
func (t *tracer) upstream(i, j int) (int, int, bool) {
	exit := .01
	if t.biome.At(i, j) < 0 {
		exit = .1
	}
	if t.rng.Bool(exit) {
		return i, j, false
	}
	nth, nch := t.grid.Nth(), t.grid.Nch()
	h := t.height.Field
	lh := h.At(i, j)
	var cand []cell
	var weights []float64
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			ni, nj := wrapIndex(i+di, nth), wrapIndex(j+dj, nch)
			if v := h.At(ni, nj); v > lh {
				cand = append(cand, cell{ni, nj})
				weights = append(weights, v)
			}
		}
	}
	if len(cand) == 0 {
		return i, j, false
	}
	c := cand[t.rng.Weighted(weights)]
	return c.i, c.j, true
}

func (t *tracer) patch(ctx context.Context, lat, lon float64) (*LocalPatch, error) {
	return NewLocalPatch(ctx, t.grid, t.height, t.params, lat, lon, t.detailed)
}

func (t *tracer) lake(lp *LocalPatch, pond []cell, visited pointSet) (Lake, bool) {
	l := make(Lake, 0, len(pond))
	for _, c := range pond {
		p := lp.Point(c)
		visited.add(p)
		l = append(l, p)
	}
	return l, len(l) > 1
}

// river traces one river from the source found by climbing from (i, j). An
// empty result means the river was abandoned and its lakes are dropped.
func (t *tracer) river(ctx context.Context, i, j int) (River, []Lake, error) {
	for {
		ni, nj, ok := t.upstream(i, j)
		if !ok {
			break
		}
		i, j = ni, nj
	}
	src := Point{Lat: t.grid.Lat[i], Lon: t.grid.Lon[j]}
	river := River{src}
	visited := pointSet{}
	visited.add(src)
	compare := t.index.nearSources(src)
	var lakes []Lake

	lp, err := t.patch(ctx, src.Lat, src.Lon)
	if err != nil {
		return nil, nil, err
	}
	cur := cell{}
	cur.i, cur.j = lp.Index(src.Lat, src.Lon)
	if pond := floodLake(lp, cur, t.rng); len(pond) > 0 {
		if l, ok := t.lake(lp, pond, visited); ok {
			lakes = append(lakes, l)
		}
	}

	for step := 0; step < maxRiverSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if lp.nearEdge(cur) {
			at := lp.Point(cur)
			if lp, err = t.patch(ctx, at.Lat, at.Lon); err != nil {
				return nil, nil, err
			}
			cur.i, cur.j = lp.Index(at.Lat, at.Lon)
			if cur.i == 0 || cur.i == patchCells-1 {
				return nil, nil, nil
			}
		}

		path, pond, cont := downstream(lp, cur)
		unique := true
		if len(pond) > 0 {
			if l, ok := t.lake(lp, pond, visited); ok {
				lakes = append(lakes, l)
			}
		}
		if len(path) == 0 {
			break
		}
		cur = path[len(path)-1]
		for _, c := range path {
			p := lp.Point(c)
			if visited.has(p) {
				unique = false
				continue
			}
			if q, ok := t.index.contact(p, compare); ok {
				river = append(river, q)
				unique, cont = false, false
				break
			}
			river = append(river, p)
			visited.add(p)
		}
		if len(pond) > 0 && !checkAhead(lp, cur, visited) {
			drop := min(3, len(river)-1)
			river = river[:len(river)-drop]
			unique = false
		}
		if !unique || !cont {
			break
		}
	}
	return river, lakes, nil
}
