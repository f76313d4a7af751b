package noise

import (
	"fmt"
	"math"
)

// ParamError reports an octave setting that cannot drive the noise sum.
type ParamError struct {
	Field string
	Value float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("noise: invalid %s %v", e.Field, e.Value)
}

// Octaves configures a multi-octave sum. Scale is the base frequency.
type Octaves struct {
	Count       int
	Persistence float64
	Scale       float64
}

// Validate rejects settings that would produce NaN or an empty sum.
func (o Octaves) Validate() error {
	if o.Count < 1 {
		return &ParamError{Field: "octave count", Value: float64(o.Count)}
	}
	if math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return &ParamError{Field: "frequency", Value: o.Scale}
	}
	if math.IsNaN(o.Persistence) || math.IsInf(o.Persistence, 0) {
		return &ParamError{Field: "persistence", Value: o.Persistence}
	}
	return nil
}

// OctaveNoise sums Count layers of Noise4, doubling the frequency of x, y and z
// and multiplying the amplitude by Persistence on every layer. The w coordinate
// is never scaled. The result is normalised by the total amplitude used.
func OctaveNoise(x, y, z, w float64, o Octaves) float64 {
	total := 0.0
	amplitude := 1.0
	frequency := o.Scale
	maxAmplitude := 0.0
	for i := 0; i < o.Count; i++ {
		total += Noise4(x*frequency, y*frequency, z*frequency, w) * amplitude
		frequency *= 2.0
		maxAmplitude += amplitude
		amplitude *= o.Persistence
	}
	return total / maxAmplitude
}

// ScaledOctaveNoise maps OctaveNoise from [-1, 1] into [lo, hi].
func ScaledOctaveNoise(x, y, z, w float64, o Octaves, lo, hi float64) float64 {
	return OctaveNoise(x, y, z, w, o)*(hi-lo)/2 + (hi+lo)/2
}

// Unit is ScaledOctaveNoise with the default [0, 1] bounds.
func Unit(x, y, z, w float64, o Octaves) float64 {
	return ScaledOctaveNoise(x, y, z, w, o, 0, 1)
}
