package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"time"

	"worldgen/internal/config"
	"worldgen/internal/tuning"
	"worldgen/internal/world"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	configPath := flag.String("config", "", "world yaml file used as the base")
	seeds := flag.Int("seeds", 8, "number of consecutive seeds to sweep")
	firstSeed := flag.Int("first-seed", 1, "first seed of the sweep")
	targetList := flag.String("targets", "-1,30,50,70", "comma separated water targets (-1 for automatic)")
	workers := flag.Int("workers", runtime.NumCPU(), "worlds generated in parallel")
	weather := flag.Bool("weather", false, "also run every stage through hydrology")
	buckets := flag.Int("buckets", world.DefaultShiftSearch.Buckets, "histogram buckets per sea-level refinement")
	iterations := flag.Int("iterations", world.DefaultShiftSearch.MaxIterations, "maximum sea-level refinements")
	tolerance := flag.Float64("tolerance", world.DefaultShiftSearch.Tolerance, "accepted water error in percent")
	var overrides kvList
	flag.Var(&overrides, "set", "parameter override in key=value form (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	base := cfg.World.Params()
	kv := map[string]string{}
	for _, item := range overrides {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		kv[parts[0]] = parts[1]
	}
	world.ApplyMap(&base, kv)

	targets, err := parseTargets(*targetList)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	seedList := make([]int32, *seeds)
	for i := range seedList {
		seedList[i] = int32(*firstSeed + i)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opt := tuning.Options{
		Base:    base,
		Seeds:   seedList,
		Targets: targets,
		Workers: *workers,
		Weather: *weather,
		Search:  world.ShiftSearch{Buckets: *buckets, MaxIterations: *iterations, Tolerance: *tolerance},
	}
	fmt.Printf("Sweeping %d worlds of %dx%d (%d workers)\n", len(seedList)*len(targets), base.Nth, base.Nch, *workers)
	start := time.Now()
	results := tuning.Sweep(ctx, opt)
	elapsed := time.Since(start)

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-24s failed: %v\n", r.Case, r.Err)
			continue
		}
		line := fmt.Sprintf("%-24s realized=%6.2f shift=%8.5f iterations=%3d elapsed=%s",
			r.Case, r.Realized, r.Shift, r.Iterations, r.Elapsed.Round(time.Millisecond))
		if e := r.Error(); !math.IsNaN(e) {
			line += fmt.Sprintf(" error=%.3f", e)
		}
		if r.Rivers >= 0 {
			line += fmt.Sprintf(" rivers=%d lakes=%d", r.Rivers, r.Lakes)
		}
		fmt.Println(line)
	}

	s := tuning.Summarize(results)
	fmt.Printf("\n%d worlds, %d failed, mean error %.3f, max error %.3f (elapsed %s)\n",
		s.Cases, s.Failed, s.MeanError, s.MaxError, elapsed.Round(time.Millisecond))
	if s.Failed > 0 {
		os.Exit(1)
	}
}

func parseTargets(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("targets: %w", err)
		}
		if v > 100 || (v < 0 && v != -1) {
			return nil, fmt.Errorf("targets: %v outside [0, 100] and not -1", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("targets: none given")
	}
	return out, nil
}
