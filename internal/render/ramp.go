package render

import (
	"image/color"
	"math"
	"sort"

	"worldgen/internal/world"
)

// Stop pins a color to a value.
type Stop struct {
	Level float64
	Color color.RGBA
}

// Ramp interpolates colors between ordered stops. Values outside the stops
// take Below or Above.
type Ramp struct {
	Stops        []Stop
	Below, Above color.RGBA
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xff} }

var (
	black = rgb(0, 0, 0)
	white = rgb(255, 255, 255)
)

// HeightRamp colors elevations in km from deep ocean to high peaks.
var HeightRamp = Ramp{
	Stops: []Stop{
		{-10, rgb(0, 51, 102)}, {-8, rgb(0, 102, 204)}, {-6, rgb(51, 153, 255)},
		{-4, rgb(102, 178, 255)}, {-2, rgb(204, 255, 255)}, {-0.2, rgb(220, 255, 255)},
		{-0.001, rgb(220, 255, 255)}, {0, rgb(0, 153, 0)}, {0.001, rgb(0, 204, 0)},
		{0.25, rgb(0, 204, 0)}, {0.5, rgb(0, 204, 102)}, {0.75, rgb(0, 255, 128)},
		{1, rgb(225, 225, 123)}, {1.5, rgb(215, 215, 111)}, {1.75, rgb(255, 178, 102)},
		{3, rgb(204, 102, 0)}, {3.5, rgb(153, 76, 0)}, {6, rgb(102, 51, 0)},
		{6.001, rgb(102, 0, 204)}, {9, rgb(153, 51, 255)}, {10, rgb(178, 102, 255)},
		{15, rgb(204, 153, 255)}, {20, rgb(229, 204, 255)},
	},
	Below: black,
	Above: white,
}

// TemperatureRamp colors degrees from cold blue to hot red.
var TemperatureRamp = Ramp{
	Stops: []Stop{
		{-10, rgb(0, 0, 255)}, {-5, rgb(100, 100, 255)}, {0, rgb(255, 255, 255)},
		{5, rgb(255, 200, 0)}, {20, rgb(255, 100, 100)}, {30, rgb(255, 0, 0)},
		{100, rgb(255, 0, 0)},
	},
	Below: black,
	Above: white,
}

// Plasma is a unit ramp used for moisture.
var Plasma = Ramp{
	Stops: []Stop{
		{0, rgb(13, 8, 135)}, {0.25, rgb(126, 3, 168)}, {0.5, rgb(204, 71, 120)},
		{0.75, rgb(248, 149, 64)}, {1, rgb(240, 249, 33)},
	},
	Below: rgb(13, 8, 135),
	Above: rgb(240, 249, 33),
}

// Rainbow is a unit ramp used for wind speed.
var Rainbow = Ramp{
	Stops: []Stop{
		{0, rgb(128, 0, 255)}, {0.25, rgb(0, 181, 235)}, {0.5, rgb(128, 254, 179)},
		{0.75, rgb(255, 180, 98)}, {1, rgb(255, 0, 0)},
	},
	Below: rgb(128, 0, 255),
	Above: rgb(255, 0, 0),
}

// BiomePalette holds one color per biome code, starting at BiomeOcean.
var BiomePalette = []color.RGBA{
	rgb(0, 0, 204),     // ocean
	rgb(255, 255, 255), // glacier
	rgb(102, 51, 0),    // mountain
	rgb(204, 255, 255), // tundra
	rgb(51, 204, 255),  // boreal forest
	rgb(0, 153, 51),    // temperate rainforest
	rgb(0, 102, 0),     // tropical rainforest
	rgb(0, 204, 202),   // temperate seasonal forest
	rgb(204, 255, 51),  // savanna
	rgb(0, 204, 102),   // shrubland
	rgb(0, 153, 51),    // grassland
	rgb(255, 204, 0),   // subtropical desert
}

// BiomeColor returns the palette entry for b.
func BiomeColor(b world.Biome) color.RGBA {
	idx := min(max(int(b)-int(world.BiomeOcean), 0), len(BiomePalette)-1)
	return BiomePalette[idx]
}

// At returns the color for v.
func (r Ramp) At(v float64) color.RGBA {
	n := len(r.Stops)
	switch {
	case n == 0 || math.IsNaN(v):
		return r.Below
	case v < r.Stops[0].Level:
		return r.Below
	case v > r.Stops[n-1].Level:
		return r.Above
	}
	k := sort.Search(n, func(i int) bool { return r.Stops[i].Level >= v })
	if k == 0 || r.Stops[k].Level == v {
		return r.Stops[k].Color
	}
	a, b := r.Stops[k-1], r.Stops[k]
	t := (v - a.Level) / (b.Level - a.Level)
	return color.RGBA{
		R: lerp(a.Color.R, b.Color.R, t),
		G: lerp(a.Color.G, b.Color.G, t),
		B: lerp(a.Color.B, b.Color.B, t),
		A: lerp(a.Color.A, b.Color.A, t),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// Scaled maps a unit ramp onto [lo, hi].
func (r Ramp) Scaled(lo, hi float64) Ramp {
	out := Ramp{Stops: make([]Stop, len(r.Stops)), Below: r.Below, Above: r.Above}
	for i, s := range r.Stops {
		out.Stops[i] = Stop{Level: lo + s.Level*(hi-lo), Color: s.Color}
	}
	return out
}
