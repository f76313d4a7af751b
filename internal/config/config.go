// Package config loads world generation settings from YAML files.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"worldgen/internal/world"
)

//go:embed schema.json
var schemaJSON string

// Layers lists the raster layers the PNG export understands.
var Layers = []string{"height", "wind", "temperature", "moisture", "biome"}

type Config struct {
	World  World  `yaml:"world"`
	Output Output `yaml:"output"`
}

// World mirrors world.Params with file-friendly names.
type World struct {
	Name          string           `yaml:"name"`
	Nth           int              `yaml:"nth"`
	Nch           int              `yaml:"nch"`
	LatRange      []float64        `yaml:"lat_range"`
	LonRange      []float64        `yaml:"lon_range"`
	PlotLatRange  []float64        `yaml:"plot_lat_range,omitempty"`
	PlotLonRange  []float64        `yaml:"plot_lon_range,omitempty"`
	Seed          int32            `yaml:"seed"`
	Octaves       int              `yaml:"octaves"`
	Frequency     float64          `yaml:"frequency"`
	Persistence   float64          `yaml:"persistence"`
	Water         float64          `yaml:"water"`
	MaxDepth      float64          `yaml:"max_depth"`
	MaxHeight     float64          `yaml:"max_height"`
	WindNodeCount int              `yaml:"wind_node_count"`
	WindNodes     []world.WindNode `yaml:"wind_nodes,omitempty"`
	MaxWindSpeed  float64          `yaml:"max_wind_speed"`
	MinTemp       float64          `yaml:"min_temperature"`
	MaxTemp       float64          `yaml:"max_temperature"`
	Projection    string           `yaml:"projection"`
	Random        bool             `yaml:"random"`
}

// Output selects what a command line run writes.
type Output struct {
	Map      string `yaml:"map"`
	PNG      string `yaml:"png"`
	Layer    string `yaml:"layer"`
	Catalog  string `yaml:"catalog"`
	Detailed bool   `yaml:"detailed"`
	Workers  int    `yaml:"workers"`
}

// Defaults returns the configuration equivalent to world.DefaultParams.
func Defaults() Config {
	return Config{
		World:  FromParams(world.DefaultParams()),
		Output: Output{Layer: "biome"},
	}
}

// FromParams converts generation parameters to their file form.
func FromParams(p world.Params) World {
	return World{
		Name:          p.Name,
		Nth:           p.Nth,
		Nch:           p.Nch,
		LatRange:      p.LatRange[:],
		LonRange:      p.LonRange[:],
		PlotLatRange:  p.PlotLatRange[:],
		PlotLonRange:  p.PlotLonRange[:],
		Seed:          p.Seed,
		Octaves:       p.Octaves,
		Frequency:     p.Frequency,
		Persistence:   p.Persistence,
		Water:         p.Water,
		MaxDepth:      p.MaxDepth,
		MaxHeight:     p.MaxHeight,
		WindNodeCount: p.WindNodeCount,
		WindNodes:     slices.Clone(p.WindNodes),
		MaxWindSpeed:  p.MaxWindSpeed,
		MinTemp:       p.MinTemperature,
		MaxTemp:       p.MaxTemperature,
		Projection:    p.Projection,
		Random:        p.Random,
	}
}

// Params converts the file form back to generation parameters. Call
// Normalize first so every range has two values.
func (w World) Params() world.Params {
	return world.Params{
		Name:           w.Name,
		Nth:            w.Nth,
		Nch:            w.Nch,
		LatRange:       pair(w.LatRange),
		LonRange:       pair(w.LonRange),
		PlotLatRange:   pair(w.PlotLatRange),
		PlotLonRange:   pair(w.PlotLonRange),
		Seed:           w.Seed,
		Octaves:        w.Octaves,
		Frequency:      w.Frequency,
		Persistence:    w.Persistence,
		Water:          w.Water,
		MaxDepth:       w.MaxDepth,
		MaxHeight:      w.MaxHeight,
		WindNodeCount:  w.WindNodeCount,
		WindNodes:      slices.Clone(w.WindNodes),
		MaxWindSpeed:   w.MaxWindSpeed,
		MinTemperature: w.MinTemp,
		MaxTemperature: w.MaxTemp,
		Projection:     w.Projection,
		Random:         w.Random,
	}
}

func pair(v []float64) [2]float64 {
	var out [2]float64
	copy(out[:], v)
	return out
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	name := filepath.Base(path)
	if err := checkSchema(b); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// checkSchema validates the document shape. YAML is re-encoded as JSON so
// the validator sees plain JSON values.
func checkSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config is not representable as JSON: %w", err)
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return err
	}
	schema, err := jsonschema.CompileString("worldgen.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return schema.Validate(v)
}

// Normalize fills derived fields and canonicalizes spelling.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	w := &c.World
	w.Name = strings.TrimSpace(w.Name)
	w.Projection = strings.ToLower(strings.TrimSpace(w.Projection))
	if len(w.PlotLatRange) != 2 {
		w.PlotLatRange = slices.Clone(w.LatRange)
	}
	if len(w.PlotLonRange) != 2 {
		w.PlotLonRange = slices.Clone(w.LonRange)
	}
	if w.Water < 0 {
		w.Water = -1
	}
	if w.WindNodes != nil {
		w.WindNodeCount = len(w.WindNodes)
	}
	c.Output.Layer = strings.ToLower(strings.TrimSpace(c.Output.Layer))
	if c.Output.Layer == "" {
		c.Output.Layer = "biome"
	}
}

// Validate rejects settings that generation would otherwise repair silently.
func (c Config) Validate() error {
	var errs []error
	if len(c.World.LatRange) != 2 {
		errs = append(errs, errors.New("lat_range needs two values"))
	}
	if len(c.World.LonRange) != 2 {
		errs = append(errs, errors.New("lon_range needs two values"))
	}
	p := c.World.Params()
	errs = append(errs, p.Validate()...)
	if !slices.Contains(Layers, c.Output.Layer) {
		errs = append(errs, fmt.Errorf("unknown output layer %q", c.Output.Layer))
	}
	if c.Output.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d is negative", c.Output.Workers))
	}
	return errors.Join(errs...)
}
