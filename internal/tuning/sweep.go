// Package tuning sweeps seeds and water targets to measure how closely the
// sea-level search meets its target.
package tuning

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"worldgen/internal/world"
)

// Case is one seed and water target pair.
type Case struct {
	Seed  int32
	Water float64
}

func (c Case) String() string { return fmt.Sprintf("seed=%d water=%.1f", c.Seed, c.Water) }

// Result reports one generated world. Rivers and Lakes are -1 unless the
// sweep traced hydrology.
type Result struct {
	Case
	Realized   float64
	Shift      float64
	Iterations int
	Rivers     int
	Lakes      int
	Elapsed    time.Duration
	Err        error
}

// Error is the distance between realized and requested water, or NaN for
// the automatic target.
func (r Result) Error() float64 {
	if r.Water < 0 {
		return math.NaN()
	}
	return math.Abs(r.Realized - r.Water)
}

type Options struct {
	Base    world.Params
	Seeds   []int32
	Targets []float64
	Workers int
	// Weather runs every stage through hydrology after the heightmap.
	Weather bool
	Search  world.ShiftSearch
}

// Cases expands seeds and targets into their cross product.
func Cases(seeds []int32, targets []float64) []Case {
	out := make([]Case, 0, len(seeds)*len(targets))
	for _, s := range seeds {
		for _, w := range targets {
			out = append(out, Case{Seed: s, Water: w})
		}
	}
	return out
}

// Sweep evaluates every case with at most Workers worlds in flight. Results
// are ordered by seed then target regardless of completion order.
func Sweep(ctx context.Context, opt Options) []Result {
	workers := opt.Workers
	if workers <= 0 {
		workers = 1
	}
	search := opt.Search
	if search.MaxIterations == 0 {
		search = world.DefaultShiftSearch
	}
	cases := Cases(opt.Seeds, opt.Targets)
	results := make([]Result, len(cases))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for idx, c := range cases {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c Case) {
			defer wg.Done()
			results[i] = run(ctx, opt, search, c)
			<-sem
		}(idx, c)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Seed != results[j].Seed {
			return results[i].Seed < results[j].Seed
		}
		return results[i].Water < results[j].Water
	})
	return results
}

func run(ctx context.Context, opt Options, search world.ShiftSearch, c Case) Result {
	res := Result{Case: c, Rivers: -1, Lakes: -1}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	p := opt.Base.Clone()
	p.Seed = c.Seed
	p.Water = c.Water
	s := world.NewState(p, nil)
	s.Workers = 1
	s.Search = search
	if err := s.GenerateHeight(ctx, world.HeightOptions{RequireFull: opt.Weather}); err != nil {
		res.Err = err
		return res
	}
	h := s.Height()
	res.Realized, res.Shift, res.Iterations = h.RealizedWater, h.Shift, h.Iterations
	if !opt.Weather {
		return res
	}
	if err := s.GenerateWeather(ctx, world.HydrologyOptions{}); err != nil {
		res.Err = err
		return res
	}
	hy := s.Hydrology()
	res.Rivers, res.Lakes = len(hy.Rivers), len(hy.Lakes)
	return res
}

// Summary aggregates the water error over results with explicit targets.
type Summary struct {
	Cases     int
	Failed    int
	MeanError float64
	MaxError  float64
}

func Summarize(results []Result) Summary {
	var errs []float64
	s := Summary{Cases: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		if e := r.Error(); !math.IsNaN(e) {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		s.MeanError = stat.Mean(errs, nil)
		s.MaxError = floats.Max(errs)
	}
	return s
}
