package world

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// WindNode is a point source of rotational wind. Lat and Lon are degrees.
type WindNode struct {
	Lat    float64 `yaml:"lat" json:"lat"`
	Lon    float64 `yaml:"lon" json:"lon"`
	Sign   float64 `yaml:"sign" json:"sign"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Params holds every setting that drives generation.
type Params struct {
	Name string

	Nth, Nch int
	LatRange [2]float64
	LonRange [2]float64

	// Plot window, carried for the projection layer.
	PlotLatRange [2]float64
	PlotLonRange [2]float64

	Seed        int32
	Octaves     int
	Frequency   float64
	Persistence float64
	// Water is the target ocean percentage; -1 selects the automatic shift.
	Water     float64
	MaxDepth  float64
	MaxHeight float64

	// WindNodeCount < 0 draws 4..9 random nodes when WindNodes is nil.
	WindNodeCount int
	WindNodes     []WindNode

	MaxWindSpeed   float64
	MinTemperature float64
	MaxTemperature float64

	Projection string

	// Random enables seeded draws for wind nodes and river source budgets.
	// Without it the fixed fallbacks are used.
	Random bool
}

// Projections lists the accepted projection tags.
var Projections = []string{
	"cea", "mbtfpq", "aeqd", "sinu", "poly", "omerc", "gnom", "moll", "lcc",
	"tmerc", "nplaea", "gall", "npaeqd", "mill", "merc", "stere", "eqdc", "cyl",
	"npstere", "spstere", "hammer", "geos", "nsper", "eck4", "aea", "kav7",
	"spaeqd", "ortho", "cass", "vandg", "laea", "splaea", "robin",
}

const (
	projectionWidth = 6
	nameWidth       = 2048
)

// DefaultParams returns the standard full-globe configuration.
func DefaultParams() Params {
	return Params{
		Name:           "map",
		Nth:            360,
		Nch:            360,
		LatRange:       [2]float64{-90, 90},
		LonRange:       [2]float64{-180, 180},
		PlotLatRange:   [2]float64{-90, 90},
		PlotLonRange:   [2]float64{-180, 180},
		Seed:           26894,
		Octaves:        20,
		Frequency:      0.8,
		Persistence:    1.65,
		Water:          -1,
		MaxDepth:       20,
		MaxHeight:      20,
		WindNodeCount:  -1,
		MaxWindSpeed:   200,
		MinTemperature: -10,
		MaxTemperature: 30,
		Projection:     "cea",
		Random:         true,
	}
}

// Clone returns a copy that does not share the node slice.
func (p Params) Clone() Params {
	if p.WindNodes != nil {
		p.WindNodes = slices.Clone(p.WindNodes)
	}
	return p
}

func validLatRange(r [2]float64) bool {
	return r[0] < r[1] && r[0] >= -90 && r[1] <= 90
}

func validLonRange(r [2]float64) bool {
	return r[0] < r[1] && r[0] >= -180 && r[1] <= 180
}

func validProjection(tag string) bool {
	return slices.Contains(Projections, tag)
}

// ValidateNode checks one wind node.
func ValidateNode(n WindNode) error {
	switch {
	case n.Lat < -90 || n.Lat > 90 || math.IsNaN(n.Lat):
		return fmt.Errorf("node latitude %v outside [-90, 90]", n.Lat)
	case n.Lon < -180 || n.Lon > 180 || math.IsNaN(n.Lon):
		return fmt.Errorf("node longitude %v outside [-180, 180]", n.Lon)
	case int(math.Abs(n.Sign)) != 1:
		return fmt.Errorf("node sign %v must be -1 or 1", n.Sign)
	case n.Weight < 0 || math.IsNaN(n.Weight):
		return fmt.Errorf("node weight %v must be non-negative", n.Weight)
	}
	return nil
}

// Validate repairs out-of-range settings in place, reverting each bad field to
// its default, and returns one validation error per repaired field.
func (p *Params) Validate() []error {
	d := DefaultParams()
	var issues []error
	fix := func(field string, bad any, reason string) {
		issues = append(issues, &GenerationError{
			Kind: KindValidation,
			Op:   field,
			Err:  fmt.Errorf("%v %s, using default", bad, reason),
		})
	}
	if p.Nth < 3 {
		fix("nth", p.Nth, "is below 3")
		p.Nth = d.Nth
	}
	if p.Nch < 3 {
		fix("nch", p.Nch, "is below 3")
		p.Nch = d.Nch
	}
	if !validLatRange(p.LatRange) {
		fix("lat_range", p.LatRange, "is not an ordered range within [-90, 90]")
		p.LatRange = d.LatRange
	}
	if !validLonRange(p.LonRange) {
		fix("lon_range", p.LonRange, "is not an ordered range within [-180, 180]")
		p.LonRange = d.LonRange
	}
	if !validLatRange(p.PlotLatRange) {
		p.PlotLatRange = p.LatRange
	}
	if !validLonRange(p.PlotLonRange) {
		p.PlotLonRange = p.LonRange
	}
	if p.Octaves < 1 {
		fix("octaves", p.Octaves, "is below 1")
		p.Octaves = d.Octaves
	}
	if !(p.Frequency >= 0 && p.Frequency <= 1) {
		fix("frequency", p.Frequency, "is outside [0, 1]")
		p.Frequency = d.Frequency
	}
	if !(p.Persistence > 0) || math.IsInf(p.Persistence, 0) {
		fix("persistence", p.Persistence, "must be positive")
		p.Persistence = d.Persistence
	}
	if p.Water != -1 && !(p.Water >= 0 && p.Water <= 100) {
		fix("water", p.Water, "is outside [0, 100]")
		p.Water = -1
	}
	if !(p.MaxDepth > 0) {
		fix("max_depth", p.MaxDepth, "is not positive")
		p.MaxDepth = d.MaxDepth
	}
	if !(p.MaxHeight > 0) {
		fix("max_height", p.MaxHeight, "is not positive")
		p.MaxHeight = d.MaxHeight
	}
	if p.WindNodes != nil {
		for i, n := range p.WindNodes {
			if err := ValidateNode(n); err != nil {
				fix("wind_nodes", i, "is invalid ("+err.Error()+")")
				p.WindNodes = nil
				p.WindNodeCount = d.WindNodeCount
				break
			}
		}
	}
	if !(p.MaxWindSpeed > 0) {
		fix("max_wind_speed", p.MaxWindSpeed, "is not positive")
		p.MaxWindSpeed = d.MaxWindSpeed
	}
	if !(p.MinTemperature < 0) {
		fix("min_temperature", p.MinTemperature, "is not below zero")
		p.MinTemperature = d.MinTemperature
	}
	if !(p.MaxTemperature > 0) {
		fix("max_temperature", p.MaxTemperature, "is not above zero")
		p.MaxTemperature = d.MaxTemperature
	}
	if !validProjection(p.Projection) {
		fix("projection", p.Projection, "is not a known projection")
		p.Projection = d.Projection
	}
	if len(p.Name) > nameWidth {
		fix("name", len(p.Name), "bytes exceeds the name field")
		p.Name = p.Name[:nameWidth]
	}
	return issues
}

// ParamsFromMap populates params from a string map (flag-style key/value
// pairs). Values that fail to parse keep their defaults.
func ParamsFromMap(cfg map[string]string) Params {
	p := DefaultParams()
	ApplyMap(&p, cfg)
	return p
}

// ApplyMap overlays flag-style key/value pairs onto p.
func ApplyMap(p *Params, cfg map[string]string) {
	if cfg == nil {
		return
	}
	if v, ok := cfg["name"]; ok && v != "" {
		p.Name = v
	}
	if v, ok := cfg["nth"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 3 {
			p.Nth = parsed
		}
	}
	if v, ok := cfg["nch"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 3 {
			p.Nch = parsed
		}
	}
	if v, ok := cfg["lat_range"]; ok {
		if r, err := parseRange(v); err == nil && validLatRange(r) {
			p.LatRange = r
			p.PlotLatRange = r
		}
	}
	if v, ok := cfg["lon_range"]; ok {
		if r, err := parseRange(v); err == nil && validLonRange(r) {
			p.LonRange = r
			p.PlotLonRange = r
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 32); err == nil {
			p.Seed = int32(parsed)
		}
	}
	if v, ok := cfg["octaves"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 {
			p.Octaves = parsed
		}
	}
	if v, ok := cfg["frequency"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			p.Frequency = parsed
		}
	}
	if v, ok := cfg["persistence"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			p.Persistence = parsed
		}
	}
	if v, ok := cfg["water"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			if parsed >= 0 && parsed <= 100 {
				p.Water = parsed
			} else {
				p.Water = -1
			}
		}
	}
	if v, ok := cfg["max_depth"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			p.MaxDepth = parsed
		}
	}
	if v, ok := cfg["max_height"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			p.MaxHeight = parsed
		}
	}
	if v, ok := cfg["wind_nodes"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			p.WindNodeCount = parsed
			p.WindNodes = nil
		}
	}
	if v, ok := cfg["max_wind_speed"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			p.MaxWindSpeed = parsed
		}
	}
	if v, ok := cfg["min_temperature"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed < 0 {
			p.MinTemperature = parsed
		}
	}
	if v, ok := cfg["max_temperature"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			p.MaxTemperature = parsed
		}
	}
	if v, ok := cfg["projection"]; ok && validProjection(v) {
		p.Projection = v
	}
	if v, ok := cfg["random"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			p.Random = parsed
		}
	}
}

// parseRange reads "lo,hi" or "lo:hi".
func parseRange(s string) ([2]float64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ':' })
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("range %q: want two values", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return [2]float64{}, err
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return [2]float64{}, err
	}
	return [2]float64{lo, hi}, nil
}
