package world

import (
	"context"
	"math"

	"worldgen/internal/core"
)

// ClimateInput gathers what the temperature and moisture passes read.
type ClimateInput struct {
	Grid        *Grid
	Height      *core.Field
	Wind        *WindField
	Temperature *core.Field // moisture pass only

	MaxWind          float64
	MinTemp, MaxTemp float64
	MaxIteration     int

	Trace func(iteration int, airborne float64)
}

func (in ClimateInput) iterations() int {
	if in.MaxIteration <= 0 {
		return DefaultAdvectIterations
	}
	return in.MaxIteration
}

// insolation is the latitude profile cos/(1+|sin|).
func insolation(lat float64) float64 {
	la := lat * dera
	return math.Cos(la) / (1 + math.Abs(math.Sin(la)))
}

// Temperature seeds warm air by latitude, lets the surface absorb it while
// the wind carries the rest, then cools high ground and rescales the result
// into [MinTemp, MaxTemp].
func Temperature(ctx context.Context, in ClimateInput) (*ScalarField, error) {
	g := in.Grid
	nth, nch := g.Nth(), g.Nch()
	h := in.Height.Cells()
	speed := in.Wind.Speed.Cells()

	air := make([]float64, nth*nch)
	temp := core.NewField(nch, nth)
	tc := temp.Cells()
	absorb := make([]float64, nth*nch)
	sun := make([]float64, nth)

	for i := 0; i < nth; i++ {
		sun[i] = insolation(g.Lat[i])
		for j := 0; j < nch; j++ {
			k := i*nch + j
			air[k] = 2 * sun[i]
			tc[k] = sun[i]
			ab := .01 * math.Max(.1, math.Min(in.MaxWind/speed[k], 2))
			if hk := h[k]; hk > 0 {
				if hk > 5 {
					ab *= 0.1
				}
				if hk >= 3.5 && hk <= 5 {
					ab *= 0.5
				} else if hk <= 2.5 {
					ab *= 2
				}
			}
			absorb[k] = ab
		}
	}

	t := newTransport(g, in.Wind, in.MaxWind)
	err := t.advect(ctx, air, in.iterations(), func(air []float64) {
		for k := range air {
			l := math.Min(absorb[k], air[k])
			tc[k] += l
			air[k] -= l
			tc[k] += .0001 * sun[k/nch]
		}
	}, in.Trace)
	if err != nil {
		return nil, err
	}

	for i := 0; i < nth; i++ {
		s := math.Sin(g.Lat[i] * dera)
		for j := 0; j < nch; j++ {
			k := i*nch + j
			if h[k] > 5 {
				tc[k] -= 2
			}
			if h[k] >= 3.5 && h[k] <= 5 {
				tc[k] -= 1
			} else {
				tc[k] -= s * s
			}
		}
	}
	rescaleTemperature(tc, in.MinTemp, in.MaxTemp)
	if !finite(tc) {
		return nil, ErrDegenerate
	}
	return newScalarField(temp), nil
}

// rescaleTemperature stretches non-negative values so the warmest equals
// maxT and negative values so the coldest equals minT.
func rescaleTemperature(tc []float64, minT, maxT float64) {
	pos, neg := 0.0, 0.0
	for _, v := range tc {
		if v >= 0 {
			pos = math.Max(pos, v)
		} else {
			neg = math.Max(neg, -v)
		}
	}
	for k, v := range tc {
		switch {
		case v >= 0 && pos > 0:
			tc[k] = v * maxT / pos
		case v < 0 && neg > 0:
			tc[k] = v * -minT / neg
		}
	}
}

// oceanCharge is the moisture an ocean cell loads into the air.
func oceanCharge(temp float64) float64 {
	switch {
	case temp < -.5:
		return .05
	case temp < 0:
		return .1
	case temp < 5:
		return .3
	case temp < 10:
		return .5
	case temp < 15:
		return .8
	case temp < 20:
		return .9
	case temp < 30:
		return 1
	}
	return 1.2
}

// landAbsorption is how fast land of a given height captures moisture.
func landAbsorption(height float64) float64 {
	switch {
	case height < 1.5:
		return .01
	case height < 2:
		return .025
	}
	return .075
}

// Moisture saturates the oceans, loads the air above them by temperature and
// lets land capture what the wind carries over it. Values are percentages.
func Moisture(ctx context.Context, in ClimateInput) (*ScalarField, error) {
	g := in.Grid
	nth, nch := g.Nth(), g.Nch()
	h := in.Height.Cells()
	temp := in.Temperature.Cells()

	air := make([]float64, nth*nch)
	moist := core.NewField(nch, nth)
	mc := moist.Cells()
	absorb := make([]float64, nth*nch)
	for k, hk := range h {
		if hk > 0 {
			absorb[k] = landAbsorption(hk)
			continue
		}
		mc[k] = 1
		air[k] = oceanCharge(temp[k])
	}

	t := newTransport(g, in.Wind, in.MaxWind)
	err := t.advect(ctx, air, in.iterations(), func(air []float64) {
		for k := range air {
			if h[k] <= 0 {
				continue
			}
			l := math.Min(absorb[k], math.Min(air[k], math.Max(0, 1-mc[k])))
			mc[k] += l
			air[k] -= l
		}
	}, in.Trace)
	if err != nil {
		return nil, err
	}
	moist.Scale(1e2)
	return newScalarField(moist), nil
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
