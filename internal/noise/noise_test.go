package noise

import (
	"errors"
	"math"
	"testing"
)

func TestFastfloor(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{1.5, 1},
		{0.2, 0},
		{0, -1},
		{-0.5, -1},
		{-1, -2},
		{-1.5, -2},
	}
	for _, c := range cases {
		if got := fastfloor(c.in); got != c.want {
			t.Errorf("fastfloor(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPermutationRepeats(t *testing.T) {
	for i := 0; i < 256; i++ {
		if perm[i] != perm[i+256] {
			t.Fatalf("perm[%d] != perm[%d]", i, i+256)
		}
	}
	seen := make(map[int]bool)
	for _, v := range permBase {
		seen[v] = true
	}
	if len(seen) != 256 {
		t.Fatalf("permutation is not a bijection: %d distinct values", len(seen))
	}
}

func TestNoise4Range(t *testing.T) {
	for i := 0; i < 20000; i++ {
		x := float64(i%97) * 0.173
		y := float64(i%89) * 0.291
		z := float64(i%83) * 0.057
		w := float64(i % 7)
		v := Noise4(x, y, z, w)
		if math.Abs(v) > 1.01 || math.IsNaN(v) {
			t.Fatalf("noise(%v,%v,%v,%v) = %v outside [-1,1]", x, y, z, w, v)
		}
	}
}

func TestNoise4Deterministic(t *testing.T) {
	a := Noise4(1.25, 0.5, 1.75, 26894)
	b := Noise4(1.25, 0.5, 1.75, 26894)
	if a != b {
		t.Fatalf("noise is not deterministic: %v vs %v", a, b)
	}
	if Noise4(1.25, 0.5, 1.75, 26894) == Noise4(1.25, 0.5, 1.75, 26895) {
		t.Fatalf("different w should change the value")
	}
}

func TestSingleOctaveMatchesRaw(t *testing.T) {
	o := Octaves{Count: 1, Persistence: 0.5, Scale: 0.8}
	x, y, z, w := 1.1, 0.3, 1.9, 42.0
	if got, want := OctaveNoise(x, y, z, w, o), Noise4(x*0.8, y*0.8, z*0.8, w); got != want {
		t.Fatalf("single octave = %v, want %v", got, want)
	}
}

func TestOctaveNoiseNormalised(t *testing.T) {
	o := Octaves{Count: 20, Persistence: 1 / 1.65, Scale: 0.8}
	for i := 0; i < 500; i++ {
		v := OctaveNoise(float64(i)*0.01, 1, 1.5, 26894, o)
		if math.Abs(v) > 1.01 {
			t.Fatalf("octave noise %v outside [-1,1]", v)
		}
	}
}

func TestScaledBounds(t *testing.T) {
	o := Octaves{Count: 4, Persistence: 0.6, Scale: 0.8}
	raw := OctaveNoise(0.4, 1.2, 1.7, 3, o)
	if got := ScaledOctaveNoise(0.4, 1.2, 1.7, 3, o, -1, 1); got != raw {
		t.Fatalf("[-1,1] scaling should be identity: %v vs %v", got, raw)
	}
	u := Unit(0.4, 1.2, 1.7, 3, o)
	if math.Abs(u-(raw+1)/2) > 1e-15 {
		t.Fatalf("unit noise %v does not match (raw+1)/2 = %v", u, (raw+1)/2)
	}
}

func TestValidate(t *testing.T) {
	var pe *ParamError
	if err := (Octaves{Count: 0, Scale: 1}).Validate(); !errors.As(err, &pe) || pe.Field != "octave count" {
		t.Fatalf("expected octave count error, got %v", err)
	}
	if err := (Octaves{Count: 1, Scale: math.NaN()}).Validate(); !errors.As(err, &pe) || pe.Field != "frequency" {
		t.Fatalf("expected frequency error, got %v", err)
	}
	if err := (Octaves{Count: 3, Scale: 0.8, Persistence: 0.6}).Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNoise4Golden(t *testing.T) {
	cases := []struct {
		x, y, z, w float64
		want       float64
	}{
		{1.25, 0.5, 1.75, 26894, 0.02549310426748937},
		{0.1, 0.2, 0.3, 0.4, 0.22762956106590113},
		{-1.5, 2.25, 0.0, 7.0, -0.13667299740062458},
		{3.7, -0.2, 1.1, -5.0, 0.49253532840540926},
	}
	for _, c := range cases {
		if got := Noise4(c.x, c.y, c.z, c.w); math.Abs(got-c.want) > 1e-14 {
			t.Errorf("Noise4(%v,%v,%v,%v) = %.17g, want %.17g", c.x, c.y, c.z, c.w, got, c.want)
		}
	}
}

func TestOctaveGolden(t *testing.T) {
	o := Octaves{Count: 20, Persistence: 1 / 1.65, Scale: 0.8}
	if got, want := OctaveNoise(1.1, 0.3, 1.9, 42, o), -0.0052761429346316925; math.Abs(got-want) > 1e-14 {
		t.Fatalf("octave = %.17g, want %.17g", got, want)
	}
	if got, want := Unit(1.1, 0.3, 1.9, 26894, o), 0.6594038608475693; math.Abs(got-want) > 1e-14 {
		t.Fatalf("unit = %.17g, want %.17g", got, want)
	}
}
