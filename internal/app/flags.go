package app

import "flag"

// Config represents the command-line parameters for the viewer.
type Config struct {
	World    string
	Load     string
	Layer    string
	Scale    int
	TPS      int
	Seed     int64
	HUD      int
	Weather  bool
	Detailed bool
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Layer: "biome", Scale: 3, TPS: 30, Seed: -1, HUD: 260, Weather: true}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.World, "config", c.World, "world yaml file")
	fs.StringVar(&c.Load, "load", c.Load, "open a saved .map or .map.zst world instead of generating one")
	fs.StringVar(&c.Layer, "layer", c.Layer, "initial layer: height, wind, temperature, moisture or biome")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "override the configured seed (negative keeps it)")
	fs.IntVar(&c.HUD, "hud", c.HUD, "parameter panel width in pixels, 0 hides it")
	fs.BoolVar(&c.Weather, "weather", c.Weather, "generate wind, climate, biomes and rivers after the heightmap")
	fs.BoolVar(&c.Detailed, "detailed", c.Detailed, "trace rivers on re-sampled local patches")
}
