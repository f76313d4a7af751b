package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"worldgen/internal/config"
	"worldgen/internal/core"
	"worldgen/internal/persistence/catalog"
	"worldgen/internal/persistence/mapfile"
	"worldgen/internal/render"
	"worldgen/internal/transport/progress"
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
	var (
		configPath = flag.String("config", "", "world yaml file")
		seed       = flag.Int("seed", 0, "override the configured seed")
		outPath    = flag.String("out", "", "write the world to this .map or .map.zst file")
		pngPath    = flag.String("png", "", "write the selected layer as a png image")
		layerName  = flag.String("layer", "", "png layer: height, wind, temperature, moisture or biome")
		scale      = flag.Int("scale", 4, "png pixels per cell")
		dbPath     = flag.String("catalog", "", "record the saved world in this sqlite catalog")
		list       = flag.Int("list", 0, "print the newest entries of -catalog and exit")
		serveAddr  = flag.String("serve", "", "stream progress to websocket clients at ADDR/ws")
		detailed   = flag.Bool("detailed", false, "trace rivers on re-sampled local patches")
		rotate     = flag.Float64("rotate", 0, "rotate the finished globe by this many degrees of longitude")
		loadPath   = flag.String("load", "", "start from a saved world instead of generating one")
		weather    = flag.Bool("weather", true, "generate wind, climate, biomes and rivers after the heightmap")
		workers    = flag.Int("workers", 0, "row workers per stage (0 uses GOMAXPROCS)")
	)
	var overrides kvList
	flag.Var(&overrides, "set", "parameter override in key=value form (repeatable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[worldgen] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal(err)
	}
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	out := cfg.Output
	if explicit["out"] {
		out.Map = *outPath
	}
	if explicit["png"] {
		out.PNG = *pngPath
	}
	if explicit["layer"] {
		out.Layer = *layerName
	}
	if explicit["catalog"] {
		out.Catalog = *dbPath
	}
	if explicit["detailed"] {
		out.Detailed = *detailed
	}
	if explicit["workers"] {
		out.Workers = *workers
	}

	if *list > 0 {
		if err := printCatalog(out.Catalog, *list); err != nil {
			logger.Fatal(err)
		}
		return
	}

	params := cfg.World.Params()
	kv := map[string]string{}
	for _, item := range overrides {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			logger.Printf("ignoring override %q: want key=value", item)
			continue
		}
		kv[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	world.ApplyMap(&params, kv)
	if explicit["seed"] {
		params.Seed = int32(*seed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var hub *progress.Hub
	if *serveAddr != "" {
		hub = progress.NewHub(logger)
		shutdown, err := serve(*serveAddr, hub, logger)
		if err != nil {
			logger.Fatal(err)
		}
		defer shutdown()
	}

	sink := core.LogSink(logger, core.SeverityInfo)
	if hub != nil {
		sink = core.Fanout(sink, hub.Sink())
	}
	state := world.NewState(params, sink)
	state.Workers = out.Workers
	if hub != nil {
		state.Trace = hub.Trace
	}

	if *loadPath != "" {
		l, err := mapfile.Load(*loadPath)
		if err != nil {
			logger.Fatalf("load %s: %v", *loadPath, err)
		}
		if err := state.Import(l); err != nil {
			logger.Fatalf("import %s: %v", *loadPath, err)
		}
		logger.Printf("loaded %s", *loadPath)
	}

	start := time.Now()
	if err := generate(ctx, state, *weather, world.HydrologyOptions{Detailed: out.Detailed}); err != nil {
		logger.Fatalf("generation stopped: %v", err)
	}
	logger.Printf("generated %q in %s (water %.2f%%)", state.Name(), time.Since(start).Round(time.Millisecond), state.RealizedWater())
	if h := state.Hydrology(); h != nil {
		logger.Printf("%d rivers, %d lakes", len(h.Rivers), len(h.Lakes))
	}

	if *rotate != 0 {
		if err := state.Rotate(*rotate); err != nil {
			logger.Fatal(err)
		}
	}

	layers := state.Export()
	if out.Map != "" {
		if err := mapfile.Save(out.Map, layers); err != nil {
			logger.Fatalf("save %s: %v", out.Map, err)
		}
		logger.Printf("wrote %s", out.Map)
		if out.Catalog != "" {
			if err := record(ctx, out.Catalog, layers, out.Map, logger); err != nil {
				logger.Fatal(err)
			}
		}
	} else if out.Catalog != "" {
		logger.Printf("catalog %s needs a map file; skipping", out.Catalog)
	}

	if out.PNG != "" {
		layer, err := render.ParseLayer(out.Layer)
		if err != nil {
			logger.Fatal(err)
		}
		if err := render.Export(out.PNG, layers, layer, *scale); err != nil {
			logger.Fatalf("png %s: %v", out.PNG, err)
		}
		logger.Printf("wrote %s (%s)", out.PNG, layer)
	}
}

// generate runs every stage that is still missing. Weather stages need a
// grid that wraps in at least one direction.
func generate(ctx context.Context, s *world.State, weather bool, opt world.HydrologyOptions) error {
	if !s.Exists(world.StageHeight) {
		if err := s.GenerateHeight(ctx, world.HeightOptions{RequireFull: weather}); err != nil {
			return err
		}
	}
	if !weather {
		return nil
	}
	steps := []struct {
		stage world.Stage
		run   func(context.Context) error
	}{
		{world.StageWind, s.GenerateWind},
		{world.StageTemperature, s.GenerateTemperature},
		{world.StageMoisture, s.GenerateMoisture},
		{world.StageBiome, s.GenerateBiome},
		{world.StageHydrology, func(ctx context.Context) error { return s.GenerateHydrology(ctx, opt) }},
	}
	for _, step := range steps {
		if s.Exists(step.stage) {
			continue
		}
		if err := step.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func serve(addr string, hub *progress.Hub, logger *log.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("serve %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("serve: %v", err)
		}
	}()
	logger.Printf("progress on ws://%s/ws", ln.Addr())
	return func() {
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func record(ctx context.Context, path string, l world.Layers, mapPath string, logger *log.Logger) error {
	c, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()
	e, err := c.Record(ctx, l, mapPath)
	if err != nil {
		return err
	}
	logger.Printf("cataloged %s as %s", mapPath, e.ID)
	return nil
}

func printCatalog(path string, limit int) error {
	if path == "" {
		return errors.New("-list needs -catalog")
	}
	c, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()
	entries, err := c.List(context.Background(), limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %-20s seed=%-8d %dx%d water=%.1f realized=%.2f rivers=%d lakes=%d  %s\n",
			e.ID, e.Name, e.Seed, e.Nth, e.Nch, e.Water, e.RealizedWater, e.Rivers, e.Lakes, e.Path)
	}
	return nil
}
