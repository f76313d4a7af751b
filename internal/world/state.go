package world

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"worldgen/internal/core"
)

// Stage identifies one generated layer of a world.
type Stage int

const (
	StageNone Stage = iota
	StageHeight
	StageWind
	StageTemperature
	StageMoisture
	StageBiome
	StageHydrology
)

var stageNames = [...]string{"none", "height", "wind", "temperature", "moisture", "biome", "hydrology"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Stages lists the generated layers in dependency order.
var Stages = []Stage{StageHeight, StageWind, StageTemperature, StageMoisture, StageBiome, StageHydrology}

// ScalarField is a per-cell value with its realized extremes.
type ScalarField struct {
	*core.Field
	Min, Max float64
}

// Clone returns a deep copy.
func (s *ScalarField) Clone() *ScalarField {
	return &ScalarField{Field: s.Field.Clone(), Min: s.Min, Max: s.Max}
}

func newScalarField(f *core.Field) *ScalarField {
	lo, hi := f.MinMax()
	return &ScalarField{Field: f, Min: lo, Max: hi}
}

// Point is a geographic position in degrees.
type Point struct {
	Lat, Lon float64
}

// River is an ordered polyline from source to its end.
type River []Point

// Lake is an ordered boundary polygon.
type Lake []Point

// Hydrology holds the traced rivers and lakes.
type Hydrology struct {
	Rivers []River
	Lakes  []Lake
}

// State owns the parameters of a world and every generated layer. A layer is
// nil until generated; regenerating or invalidating a layer clears every
// layer that depends on it.
type State struct {
	params Params
	grid   *Grid

	height      *Heightmap
	wind        *WindField
	temperature *ScalarField
	moisture    *ScalarField
	biome       *core.CodeGrid
	hydro       *Hydrology

	sink core.Sink

	// Workers bounds the row-parallel stages. Zero uses GOMAXPROCS.
	Workers int
	// Search controls sea-level placement.
	Search ShiftSearch
	// Trace, when set, receives the airborne total after every advection step.
	Trace func(stage Stage, iteration int, airborne float64)
}

// NewState validates p and returns an empty world. Validation issues are
// reported to sink as warnings and the offending fields revert to defaults.
func NewState(p Params, sink core.Sink) *State {
	s := &State{sink: sink, Search: DefaultShiftSearch}
	s.SetParams(p)
	return s
}

// SetParams replaces the parameters and clears every generated layer.
func (s *State) SetParams(p Params) []error {
	p = p.Clone()
	issues := p.Validate()
	for _, err := range issues {
		s.sink.Emit(core.Event{Severity: core.SeverityWarning, Message: "parameter reset to default", Err: err})
	}
	s.params = p
	s.Invalidate(StageHeight)
	return issues
}

// Params returns a copy of the current parameters.
func (s *State) Params() Params { return s.params.Clone() }

// SetSink replaces the event sink.
func (s *State) SetSink(sink core.Sink) { s.sink = sink }

// Grid returns the sampled coordinates, or nil before the heightmap exists.
func (s *State) Grid() *Grid { return s.grid }

func (s *State) Height() *Heightmap         { return s.height }
func (s *State) Wind() *WindField           { return s.wind }
func (s *State) Temperature() *ScalarField  { return s.temperature }
func (s *State) Moisture() *ScalarField     { return s.moisture }
func (s *State) Biome() *core.CodeGrid      { return s.biome }
func (s *State) Hydrology() *Hydrology      { return s.hydro }
func (s *State) RealizedWater() float64 {
	if s.height == nil {
		return 0
	}
	return s.height.RealizedWater
}

// Exists reports whether stage has been generated.
func (s *State) Exists(stage Stage) bool {
	switch stage {
	case StageNone:
		return true
	case StageHeight:
		return s.height != nil
	case StageWind:
		return s.wind != nil
	case StageTemperature:
		return s.temperature != nil
	case StageMoisture:
		return s.moisture != nil
	case StageBiome:
		return s.biome != nil
	case StageHydrology:
		return s.hydro != nil
	}
	return false
}

// Invalidate clears stage and everything downstream of it.
func (s *State) Invalidate(stage Stage) {
	switch {
	case stage <= StageHeight:
		s.grid = nil
		s.height = nil
		fallthrough
	case stage == StageWind:
		s.wind = nil
		fallthrough
	case stage == StageTemperature:
		s.temperature = nil
		fallthrough
	case stage == StageMoisture:
		s.moisture = nil
		fallthrough
	case stage == StageBiome:
		s.biome = nil
		fallthrough
	case stage == StageHydrology:
		s.hydro = nil
	}
}

// require returns a precondition error naming the first missing dependency.
func (s *State) require(stage Stage, deps ...Stage) error {
	for _, d := range deps {
		if !s.Exists(d) {
			err := precondition(stage, fmt.Errorf("%s: %w", d, ErrMissingStage))
			s.report(err)
			return err
		}
	}
	return nil
}

func (s *State) report(err error) {
	sev := core.SeverityError
	var ge *GenerationError
	if errors.As(err, &ge) && ge.Kind == KindValidation {
		sev = core.SeverityWarning
	}
	stage := ""
	if ge != nil && ge.Stage != StageNone {
		stage = ge.Stage.String()
	}
	s.sink.Emit(core.Event{Severity: sev, Stage: stage, Message: "generation failed", Err: err})
}

func (s *State) info(stage Stage, msg string) {
	s.sink.Emit(core.Event{Severity: core.SeverityInfo, Stage: stage.String(), Message: msg})
}

// run executes one stage body. A returned error or a panic clears the stage
// and everything downstream.
func (s *State) run(stage Stage, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
		if err != nil {
			var ge *GenerationError
			if !errors.As(err, &ge) {
				err = stageFailure(stage, op, err)
			}
			s.Invalidate(stage)
			s.report(err)
		}
	}()
	return fn()
}

// HeightOptions adjusts heightmap generation.
type HeightOptions struct {
	// RequireFull fails with a precondition error unless the grid covers the globe.
	RequireFull bool
}

// GenerateHeight builds the grid and the heightmap and clears every other layer.
func (s *State) GenerateHeight(ctx context.Context, opt HeightOptions) error {
	p := s.params
	g, err := NewGrid(p.Nth, p.Nch, p.LatRange, p.LonRange)
	if err != nil {
		err = precondition(StageHeight, err)
		s.report(err)
		return err
	}
	if opt.RequireFull && !g.Full() {
		err := precondition(StageHeight, ErrNotFullGlobe)
		s.report(err)
		return err
	}
	s.info(StageHeight, "creating height map")
	return s.run(StageHeight, "build", func() error {
		s.Invalidate(StageHeight)
		h, err := BuildHeightmap(ctx, g, p, s.Search, s.Workers)
		if err != nil {
			return err
		}
		s.grid, s.height = g, h
		// The realized fraction replaces the requested target.
		s.params.Water = h.RealizedWater
		return nil
	})
}

// GenerateWind synthesizes the wind field. Generated nodes are written back
// into the parameters so a saved world reproduces the same field.
func (s *State) GenerateWind(ctx context.Context) error {
	if err := s.require(StageWind, StageHeight); err != nil {
		return err
	}
	if !s.grid.Wraps() {
		err := precondition(StageWind, ErrNotFullGlobe)
		s.report(err)
		return err
	}
	s.info(StageWind, "blowing some wind")
	return s.run(StageWind, "synthesize", func() error {
		s.Invalidate(StageWind)
		nodes := ResolveNodes(s.params)
		w, err := SynthesizeWind(ctx, s.grid, nodes, s.params.MaxWindSpeed, s.Workers)
		if err != nil {
			return err
		}
		s.params.WindNodes = nodes
		s.params.WindNodeCount = len(nodes)
		s.wind = w
		return nil
	})
}

// GenerateTemperature advects heat along the wind field.
func (s *State) GenerateTemperature(ctx context.Context) error {
	if err := s.require(StageTemperature, StageHeight, StageWind); err != nil {
		return err
	}
	if !s.grid.Wraps() {
		err := precondition(StageTemperature, ErrNotFullGlobe)
		s.report(err)
		return err
	}
	s.info(StageTemperature, "heating up")
	return s.run(StageTemperature, "advect", func() error {
		s.Invalidate(StageTemperature)
		t, err := Temperature(ctx, s.climateInput(StageTemperature))
		if err != nil {
			return err
		}
		s.temperature = t
		// Realized extremes become the bounds, as long as they still straddle zero.
		if t.Min < 0 {
			s.params.MinTemperature = t.Min
		}
		if t.Max > 0 {
			s.params.MaxTemperature = t.Max
		}
		return nil
	})
}

// GenerateMoisture advects moisture from the oceans over land.
func (s *State) GenerateMoisture(ctx context.Context) error {
	if err := s.require(StageMoisture, StageHeight, StageWind, StageTemperature); err != nil {
		return err
	}
	if !s.grid.Wraps() {
		err := precondition(StageMoisture, ErrNotFullGlobe)
		s.report(err)
		return err
	}
	s.info(StageMoisture, "watering the land")
	return s.run(StageMoisture, "advect", func() error {
		s.Invalidate(StageMoisture)
		in := s.climateInput(StageMoisture)
		in.Temperature = s.temperature.Field
		m, err := Moisture(ctx, in)
		if err != nil {
			return err
		}
		s.moisture = m
		return nil
	})
}

func (s *State) climateInput(stage Stage) ClimateInput {
	in := ClimateInput{
		Grid:         s.grid,
		Height:       s.height.Field,
		Wind:         s.wind,
		MaxWind:      s.params.MaxWindSpeed,
		MinTemp:      s.params.MinTemperature,
		MaxTemp:      s.params.MaxTemperature,
		MaxIteration: DefaultAdvectIterations,
	}
	if s.Trace != nil {
		trace := s.Trace
		in.Trace = func(it int, airborne float64) { trace(stage, it, airborne) }
	}
	return in
}

// GenerateBiome classifies every cell.
func (s *State) GenerateBiome(ctx context.Context) error {
	if err := s.require(StageBiome, StageHeight, StageWind, StageTemperature, StageMoisture); err != nil {
		return err
	}
	s.info(StageBiome, "classifying land")
	return s.run(StageBiome, "classify", func() error {
		s.Invalidate(StageBiome)
		if err := ctx.Err(); err != nil {
			return err
		}
		s.biome = ClassifyGrid(s.height.Field, s.temperature.Field, s.moisture.Field)
		return nil
	})
}

// HydrologyOptions adjusts river tracing.
type HydrologyOptions struct {
	// Detailed re-samples the noise for every local patch instead of
	// interpolating the global heightmap.
	Detailed bool
}

// GenerateHydrology traces rivers and lakes.
func (s *State) GenerateHydrology(ctx context.Context, opt HydrologyOptions) error {
	if err := s.require(StageHydrology, StageHeight, StageWind, StageTemperature, StageMoisture, StageBiome); err != nil {
		return err
	}
	s.info(StageHydrology, "digging rivers")
	return s.run(StageHydrology, "trace", func() error {
		s.Invalidate(StageHydrology)
		t := &tracer{
			grid:     s.grid,
			height:   s.height,
			biome:    s.biome,
			params:   s.params,
			detailed: opt.Detailed,
			sink:     s.sink,
		}
		h, err := t.run(ctx)
		if err != nil {
			return err
		}
		s.hydro = h
		return nil
	})
}

// GenerateAll runs every stage in order and stops at the first failure.
func (s *State) GenerateAll(ctx context.Context, opt HydrologyOptions) error {
	if err := s.GenerateHeight(ctx, HeightOptions{RequireFull: true}); err != nil {
		return err
	}
	return s.GenerateWeather(ctx, opt)
}

// GenerateWeather regenerates every stage downstream of the heightmap.
func (s *State) GenerateWeather(ctx context.Context, opt HydrologyOptions) error {
	steps := []func(context.Context) error{
		s.GenerateWind,
		s.GenerateTemperature,
		s.GenerateMoisture,
		s.GenerateBiome,
		func(ctx context.Context) error { return s.GenerateHydrology(ctx, opt) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Layers is the plain form of a world used by persistence. Nil fields are
// absent stages.
type Layers struct {
	Params      Params
	Grid        *Grid
	Height      *Heightmap
	Wind        *WindField
	Temperature *ScalarField
	Moisture    *ScalarField
	Biome       *core.CodeGrid
	Hydrology   *Hydrology
}

// Export returns the current layers. The values are shared, not copied.
func (s *State) Export() Layers {
	return Layers{
		Params:      s.params.Clone(),
		Grid:        s.grid,
		Height:      s.height,
		Wind:        s.wind,
		Temperature: s.temperature,
		Moisture:    s.moisture,
		Biome:       s.biome,
		Hydrology:   s.hydro,
	}
}

// Import replaces the world with l. A stage whose dependencies are missing is
// dropped. Mismatched dimensions are rejected and leave the world unchanged.
func (s *State) Import(l Layers) error {
	p := l.Params.Clone()
	issues := p.Validate()
	if l.Height != nil {
		if l.Grid == nil {
			return &GenerationError{Kind: KindPersistence, Op: "import", Err: errors.New("heightmap without grid")}
		}
		w, h := l.Grid.Nch(), l.Grid.Nth()
		check := func(name string, f *core.Field) error {
			if f != nil && (f.W != w || f.H != h) {
				return &GenerationError{Kind: KindPersistence, Op: "import", Err: fmt.Errorf("%s is %dx%d, grid is %dx%d", name, f.W, f.H, w, h)}
			}
			return nil
		}
		if err := check("height", l.Height.Field); err != nil {
			return err
		}
		if l.Wind != nil {
			for _, f := range []*core.Field{l.Wind.V, l.Wind.U, l.Wind.Speed} {
				if err := check("wind", f); err != nil {
					return err
				}
			}
		}
		if l.Temperature != nil {
			if err := check("temperature", l.Temperature.Field); err != nil {
				return err
			}
		}
		if l.Moisture != nil {
			if err := check("moisture", l.Moisture.Field); err != nil {
				return err
			}
		}
		if l.Biome != nil && (l.Biome.W != w || l.Biome.H != h) {
			return &GenerationError{Kind: KindPersistence, Op: "import", Err: errors.New("biome grid does not match")}
		}
	}
	for _, err := range issues {
		s.report(err)
	}

	s.params = p
	s.grid = l.Grid
	s.height = l.Height
	s.wind = l.Wind
	s.temperature = l.Temperature
	s.moisture = l.Moisture
	s.biome = l.Biome
	s.hydro = l.Hydrology
	for _, st := range Stages {
		if s.Exists(st) {
			continue
		}
		if st < StageHydrology {
			s.Invalidate(st + 1)
		}
	}
	if s.height == nil {
		s.grid = nil
	}
	return nil
}
