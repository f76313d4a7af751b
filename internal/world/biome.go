package world

import (
	"fmt"

	"worldgen/internal/core"
)

// Biome is a land classification code.
type Biome int8

const (
	BiomeOcean                   Biome = -3
	BiomeGlacier                 Biome = -2
	BiomeMountain                Biome = -1
	BiomeTundra                  Biome = 0
	BiomeBorealForest            Biome = 1
	BiomeTemperateRainforest     Biome = 2
	BiomeTropicalRainforest      Biome = 3
	BiomeTemperateSeasonalForest Biome = 4
	BiomeSavanna                 Biome = 5
	BiomeShrubland               Biome = 6
	BiomeGrassland               Biome = 7
	BiomeSubtropicalDesert       Biome = 8
)

var biomeNames = map[Biome]string{
	BiomeOcean:                   "ocean",
	BiomeGlacier:                 "glacier",
	BiomeMountain:                "mountain",
	BiomeTundra:                  "tundra",
	BiomeBorealForest:            "boreal forest",
	BiomeTemperateRainforest:     "temperate rainforest",
	BiomeTropicalRainforest:      "tropical rainforest",
	BiomeTemperateSeasonalForest: "temperate seasonal forest",
	BiomeSavanna:                 "savanna",
	BiomeShrubland:               "shrubland",
	BiomeGrassland:               "grassland",
	BiomeSubtropicalDesert:       "subtropical desert",
}

func (b Biome) String() string {
	if n, ok := biomeNames[b]; ok {
		return n
	}
	return fmt.Sprintf("Biome(%d)", int8(b))
}

// Valid reports whether b is a known code.
func (b Biome) Valid() bool { return b >= BiomeOcean && b <= BiomeSubtropicalDesert }

// Classify maps height (km), temperature and moisture (%) onto a biome.
func Classify(height, temp, moist float64) Biome {
	switch {
	case height < 0:
		return BiomeOcean
	case height > 3:
		if temp <= 0 {
			return BiomeGlacier
		}
		return BiomeMountain
	case temp < 0:
		return BiomeTundra
	case temp > 20:
		switch {
		case moist > 65:
			return BiomeTropicalRainforest
		case moist > 1.8*temp-24:
			return BiomeSavanna
		}
		return BiomeSubtropicalDesert
	case temp < 5:
		switch {
		case moist < 0.35*temp+5:
			return BiomeGrassland
		case moist > 4*temp+5:
			return BiomeBorealForest
		}
		return BiomeShrubland
	}
	switch {
	case moist > 50:
		return BiomeTemperateRainforest
	case moist > 25:
		return BiomeTemperateSeasonalForest
	case moist > 0.35*temp+5:
		return BiomeShrubland
	}
	return BiomeGrassland
}

// ClassifyGrid classifies every cell.
func ClassifyGrid(height, temp, moist *core.Field) *core.CodeGrid {
	out := core.NewCodeGrid(height.W, height.H)
	codes := out.Cells()
	h, t, m := height.Cells(), temp.Cells(), moist.Cells()
	for k := range codes {
		codes[k] = int8(Classify(h[k], t[k], m[k]))
	}
	return out
}

// badSource reports biomes where rivers never start.
func badSource(b Biome) bool {
	switch b {
	case BiomeOcean, BiomeTundra, BiomeBorealForest, BiomeSubtropicalDesert:
		return true
	}
	return false
}
