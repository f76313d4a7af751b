package render

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"worldgen/internal/core"
	"worldgen/internal/world"
)

func TestRampAt(t *testing.T) {
	cases := []struct {
		v    float64
		want color.RGBA
	}{
		{-10, rgb(0, 0, 255)},
		{-7.5, rgb(50, 50, 255)},
		{0, rgb(255, 255, 255)},
		{30, rgb(255, 0, 0)},
		{-11, black},
		{101, white},
		{math.NaN(), black},
	}
	for _, tc := range cases {
		if got := TemperatureRamp.At(tc.v); got != tc.want {
			t.Errorf("At(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestRampScaled(t *testing.T) {
	r := Plasma.Scaled(0, 100)
	if got := r.At(50); got != rgb(204, 71, 120) {
		t.Fatalf("At(50) = %v", got)
	}
	if got := r.At(-1); got != Plasma.Below {
		t.Fatalf("At(-1) = %v", got)
	}
}

func TestBiomeColor(t *testing.T) {
	if got := BiomeColor(world.BiomeOcean); got != rgb(0, 0, 204) {
		t.Fatalf("ocean = %v", got)
	}
	if got := BiomeColor(world.BiomeSubtropicalDesert); got != rgb(255, 204, 0) {
		t.Fatalf("desert = %v", got)
	}
	if got := BiomeColor(world.Biome(100)); got != BiomePalette[len(BiomePalette)-1] {
		t.Fatalf("out of range = %v", got)
	}
	if len(BiomePalette) != int(world.BiomeSubtropicalDesert-world.BiomeOcean)+1 {
		t.Fatal("palette does not cover every biome")
	}
}

func fixture() world.Layers {
	p := world.DefaultParams()
	p.Nth, p.Nch = 3, 4
	g := world.GridFromDegrees([]float64{-60, 0, 60}, []float64{-180, -90, 0, 90}, p.LatRange, p.LonRange)
	h := core.FieldFrom(4, 3, []float64{
		-10, -10, -10, -10,
		0, 0, 0, 0,
		20, 20, 20, 20,
	})
	return world.Layers{Params: p, Grid: g, Height: &world.Heightmap{Field: h}}
}

func TestPaintIsNorthUp(t *testing.T) {
	img, err := Paint(fixture(), LayerHeight)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got != rgb(229, 204, 255) {
		t.Fatalf("top row = %v, want the highest color", got)
	}
	if got := img.RGBAAt(3, 2); got != rgb(0, 51, 102) {
		t.Fatalf("bottom row = %v, want the deepest color", got)
	}
}

func TestPaintBiomeAndMissingLayers(t *testing.T) {
	l := fixture()
	if _, err := Paint(l, LayerBiome); !errors.Is(err, ErrMissingLayer) {
		t.Fatalf("expected ErrMissingLayer, got %v", err)
	}
	codes := make([]int8, 12)
	codes[0] = int8(world.BiomeSubtropicalDesert)
	for k := 1; k < len(codes); k++ {
		codes[k] = int8(world.BiomeOcean)
	}
	l.Biome = core.CodeGridFrom(4, 3, codes)
	img, err := Paint(l, LayerBiome)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(0, 2); got != rgb(255, 204, 0) {
		t.Fatalf("southwest cell = %v, want desert", got)
	}
	if got := img.RGBAAt(0, 0); got != rgb(0, 0, 204) {
		t.Fatalf("northwest cell = %v, want ocean", got)
	}
}

func TestParseLayer(t *testing.T) {
	for _, l := range Layers {
		got, err := ParseLayer(" " + l.String() + " ")
		if err != nil || got != l {
			t.Fatalf("ParseLayer(%q) = %v, %v", l, got, err)
		}
	}
	if _, err := ParseLayer("rivers"); err == nil {
		t.Fatal("expected an error for an unknown layer")
	}
}

func TestExportDrawsRivers(t *testing.T) {
	l := fixture()
	l.Hydrology = &world.Hydrology{Rivers: []world.River{{{Lat: 0, Lon: -90}, {Lat: 0, Lon: 0}}}}
	path := filepath.Join(t.TempDir(), "map.png")
	if err := Export(path, l, LayerHeight, 10); err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	for _, x := range []int{15, 20, 25} {
		r, g, b, _ := img.At(x, 15).RGBA()
		if uint8(r>>8) != RiverColor.R || uint8(g>>8) != RiverColor.G || uint8(b>>8) != RiverColor.B {
			t.Fatalf("pixel (%d, 15) is not river colored", x)
		}
	}
}

func TestDrawHydrologySkipsSeam(t *testing.T) {
	l := fixture()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	h := &world.Hydrology{Rivers: []world.River{{{Lat: 0, Lon: -180}, {Lat: 0, Lon: 90}}}}
	DrawHydrology(img, NewProjector(l.Grid, 1), h)
	if img.RGBAAt(1, 1) == RiverColor || img.RGBAAt(2, 1) == RiverColor {
		t.Fatal("segment across the date line was drawn")
	}
	if img.RGBAAt(0, 1) != RiverColor || img.RGBAAt(3, 1) != RiverColor {
		t.Fatal("endpoints not drawn")
	}
}
