package world

import (
	"strconv"

	"worldgen/internal/core"
)

// Name returns the world name.
func (s *State) Name() string { return s.params.Name }

// Parameters reports the current settings for display.
func (s *State) Parameters() core.ParameterSnapshot {
	p := s.params
	groups := []core.ParameterGroup{
		{
			Name: "Grid",
			Params: []core.Parameter{
				stringParam("name", "Name", p.Name),
				intParam("nth", "Latitudes", p.Nth),
				intParam("nch", "Longitudes", p.Nch),
				rangeParam("lat_range", "Latitude range", p.LatRange),
				rangeParam("lon_range", "Longitude range", p.LonRange),
				stringParam("projection", "Projection", p.Projection),
			},
		},
		{
			Name: "Terrain",
			Params: []core.Parameter{
				int64Param("seed", "Seed", int64(p.Seed)),
				intParam("octaves", "Octaves", p.Octaves),
				floatParam("frequency", "Frequency", p.Frequency),
				floatParam("persistence", "Persistence", p.Persistence),
				floatParam("water", "Water target %", p.Water),
				floatParam("max_depth", "Max depth km", p.MaxDepth),
				floatParam("max_height", "Max height km", p.MaxHeight),
			},
			Summary: "realized water " + strconv.FormatFloat(s.RealizedWater(), 'f', 2, 64) + "%",
		},
		{
			Name: "Climate",
			Params: []core.Parameter{
				intParam("wind_nodes", "Wind nodes", p.WindNodeCount),
				floatParam("max_wind_speed", "Max wind speed", p.MaxWindSpeed),
				floatParam("min_temperature", "Min temperature", p.MinTemperature),
				floatParam("max_temperature", "Max temperature", p.MaxTemperature),
				stringParam("random", "Random", strconv.FormatBool(p.Random)),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the settings the viewer HUD can adjust.
func (s *State) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "seed", Label: "Seed", Type: core.ParamTypeInt, Step: 1},
		{Key: "octaves", Label: "Octaves", Type: core.ParamTypeInt, Step: 1, Min: 1, HasMin: true, Max: 32, HasMax: true},
		{Key: "frequency", Label: "Frequency", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, HasMin: true, Max: 1, HasMax: true},
		{Key: "persistence", Label: "Persistence", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, HasMin: true},
		{Key: "water", Label: "Water target %", Type: core.ParamTypeFloat, Step: 5, Min: -1, HasMin: true, Max: 100, HasMax: true},
		{Key: "max_wind_speed", Label: "Max wind speed", Type: core.ParamTypeFloat, Step: 10, Min: 10, HasMin: true},
		{Key: "max_temperature", Label: "Max temperature", Type: core.ParamTypeFloat, Step: 1, Min: 1, HasMin: true},
		{Key: "min_temperature", Label: "Min temperature", Type: core.ParamTypeFloat, Step: 1, Max: -1, HasMax: true},
	}
}

// invalidatedBy maps a parameter key to the first stage it affects.
func invalidatedBy(key string) Stage {
	switch key {
	case "wind_nodes", "max_wind_speed":
		return StageWind
	case "min_temperature", "max_temperature":
		return StageTemperature
	case "name", "projection":
		return StageNone
	}
	return StageHeight
}

// SetIntParameter updates an integer setting and clears the stages it feeds.
func (s *State) SetIntParameter(key string, value int) bool {
	return s.setParameter(key, strconv.Itoa(value))
}

// SetFloatParameter updates a float setting and clears the stages it feeds.
func (s *State) SetFloatParameter(key string, value float64) bool {
	return s.setParameter(key, strconv.FormatFloat(value, 'f', -1, 64))
}

func (s *State) setParameter(key, value string) bool {
	before := s.params.Clone()
	next := before.Clone()
	ApplyMap(&next, map[string]string{key: value})
	if next.Validate() != nil {
		return false
	}
	changed, _ := before.Lookup(key)
	after, _ := next.Lookup(key)
	if changed == after {
		return false
	}
	stage := invalidatedBy(key)
	s.params = next
	if stage != StageNone {
		s.Invalidate(stage)
	}
	return true
}

// Lookup returns the display form of one setting.
func (p Params) Lookup(key string) (string, bool) {
	s := &State{params: p}
	param, ok := s.Parameters().Lookup(key)
	return param.Value, ok
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func stringParam(key, label, value string) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeString, Value: value}
}

func rangeParam(key, label string, r [2]float64) core.Parameter {
	return stringParam(key, label, strconv.FormatFloat(r[0], 'f', -1, 64)+","+strconv.FormatFloat(r[1], 'f', -1, 64))
}
