package mapfile

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"worldgen/internal/world"
)

func smallWorld(t *testing.T, last world.Stage) world.Layers {
	t.Helper()
	p := world.DefaultParams()
	p.Nth, p.Nch = 24, 36
	p.Octaves = 6
	p.Random = false
	p.Name = "fixture"
	p.Projection = "moll"
	s := world.NewState(p, nil)
	ctx := context.Background()
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return s.GenerateHeight(ctx, world.HeightOptions{RequireFull: true}) },
		s.GenerateWind,
		s.GenerateTemperature,
		s.GenerateMoisture,
		s.GenerateBiome,
	}
	for i, step := range steps {
		if err := step(ctx); err != nil {
			t.Fatalf("%s: %v", world.Stages[i], err)
		}
		if world.Stages[i] == last {
			break
		}
	}
	return s.Export()
}

func withHydrology(l world.Layers) world.Layers {
	l.Hydrology = &world.Hydrology{
		Rivers: []world.River{{{Lat: 10, Lon: 20}, {Lat: 10.5, Lon: 20.25}, {Lat: 11, Lon: 20.5}}},
		Lakes:  []world.Lake{{{Lat: 1, Lon: 2}, {Lat: 1, Lon: 3}, {Lat: 2, Lon: 3}}},
	}
	return l
}

func assertSameWorld(t *testing.T, want, got world.Layers) {
	t.Helper()
	// Random is not part of the file.
	want.Params.Random = got.Params.Random
	if !reflect.DeepEqual(want.Params, got.Params) {
		t.Fatalf("params:\n got %+v\nwant %+v", got.Params, want.Params)
	}
	if !slices.Equal(want.Grid.Lat, got.Grid.Lat) || !slices.Equal(want.Grid.Lon, got.Grid.Lon) {
		t.Fatal("grid coordinates differ")
	}
	if want.Grid.FullLat != got.Grid.FullLat || want.Grid.FullLon != got.Grid.FullLon {
		t.Fatal("grid coverage differs")
	}
	if !slices.Equal(want.Height.Cells(), got.Height.Cells()) {
		t.Fatal("heights differ")
	}
	if want.Height.Shift != got.Height.Shift || want.Height.Min != got.Height.Min || want.Height.Max != got.Height.Max {
		t.Fatalf("height summary differs: %+v vs %+v", got.Height, want.Height)
	}
	if want.Height.RealizedWater != got.Height.RealizedWater {
		t.Fatalf("realized water %v, want %v", got.Height.RealizedWater, want.Height.RealizedWater)
	}
	if (want.Wind == nil) != (got.Wind == nil) {
		t.Fatal("wind presence differs")
	}
	if want.Wind != nil {
		if !slices.Equal(want.Wind.V.Cells(), got.Wind.V.Cells()) ||
			!slices.Equal(want.Wind.U.Cells(), got.Wind.U.Cells()) ||
			!slices.Equal(want.Wind.Speed.Cells(), got.Wind.Speed.Cells()) {
			t.Fatal("wind components differ")
		}
		if want.Wind.Min != got.Wind.Min || want.Wind.Max != got.Wind.Max {
			t.Fatal("wind extremes differ")
		}
	}
	for _, pair := range [][2]*world.ScalarField{{want.Temperature, got.Temperature}, {want.Moisture, got.Moisture}} {
		if (pair[0] == nil) != (pair[1] == nil) {
			t.Fatal("scalar layer presence differs")
		}
		if pair[0] != nil && (!slices.Equal(pair[0].Cells(), pair[1].Cells()) || pair[0].Min != pair[1].Min || pair[0].Max != pair[1].Max) {
			t.Fatal("scalar layer differs")
		}
	}
	if (want.Biome == nil) != (got.Biome == nil) {
		t.Fatal("biome presence differs")
	}
	if want.Biome != nil && !slices.Equal(want.Biome.Cells(), got.Biome.Cells()) {
		t.Fatal("biomes differ")
	}
	if !reflect.DeepEqual(want.Hydrology, got.Hydrology) {
		t.Fatalf("hydrology:\n got %+v\nwant %+v", got.Hydrology, want.Hydrology)
	}
}

func TestRoundTrip(t *testing.T) {
	l := withHydrology(smallWorld(t, world.StageBiome))
	for _, name := range []string{"world.map", "world.map.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			if err := Save(path, l); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			assertSameWorld(t, l, got)
		})
	}
}

func TestCompressedFileIsZstd(t *testing.T) {
	l := smallWorld(t, world.StageHeight)
	dir := t.TempDir()
	plain, packed := filepath.Join(dir, "a.map"), filepath.Join(dir, "a.map.zst")
	if err := Save(plain, l); err != nil {
		t.Fatal(err)
	}
	if err := Save(packed, l); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Fatalf("missing zstd magic: % x", raw[:4])
	}
	if Compressed(plain) || !Compressed(packed) {
		t.Fatal("Compressed misreports the suffix")
	}
}

func TestPartialWorld(t *testing.T) {
	l := smallWorld(t, world.StageHeight)
	var buf bytes.Buffer
	if err := Encode(&buf, l); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Wind != nil || got.Temperature != nil || got.Moisture != nil || got.Biome != nil || got.Hydrology != nil {
		t.Fatal("absent layers were decoded")
	}
	assertSameWorld(t, l, got)
}

func TestEmptyHydrologyIsPresent(t *testing.T) {
	l := smallWorld(t, world.StageBiome)
	l.Hydrology = &world.Hydrology{}
	var buf bytes.Buffer
	if err := Encode(&buf, l); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hydrology == nil || len(got.Hydrology.Rivers) != 0 || len(got.Hydrology.Lakes) != 0 {
		t.Fatalf("hydrology = %+v, want present and empty", got.Hydrology)
	}
}

func TestHeaderLayout(t *testing.T) {
	p := world.DefaultParams()
	var buf bytes.Buffer
	if err := EncodeParams(&buf, p); err != nil {
		t.Fatal(err)
	}
	const size = 4 + 4 + 4*16 + 4 + 4 + 5*8 + 4 + 4 + 3*8 + projectionWidth + nameWidth
	if buf.Len() != size {
		t.Fatalf("header is %d bytes, want %d", buf.Len(), size)
	}
	raw := buf.Bytes()
	if nth := int32(binary.LittleEndian.Uint32(raw)); nth != 360 {
		t.Fatalf("nth = %d", nth)
	}
	proj := raw[size-nameWidth-projectionWidth : size-nameWidth]
	if string(proj) != "cea   " {
		t.Fatalf("projection field = %q", proj)
	}

	p.WindNodes = world.FallbackNodes
	buf.Reset()
	if err := EncodeParams(&buf, p); err != nil {
		t.Fatal(err)
	}
	if want := size + 32*len(world.FallbackNodes); buf.Len() != want {
		t.Fatalf("header with nodes is %d bytes, want %d", buf.Len(), want)
	}
}

func TestParamsRoundTrip(t *testing.T) {
	p := world.DefaultParams()
	p.Name = "pangaea"
	p.Seed = -42
	p.Water = 65
	p.LonRange = [2]float64{-90, 90}
	p.WindNodes = slices.Clone(world.FallbackNodes)
	p.WindNodeCount = len(p.WindNodes)
	path := filepath.Join(t.TempDir(), "pangaea.par")
	if err := SaveParams(path, p); err != nil {
		t.Fatal(err)
	}
	got, err := LoadParams(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("params:\n got %+v\nwant %+v", got, p)
	}
}

func TestLoadParamsFromWorldFile(t *testing.T) {
	l := smallWorld(t, world.StageWind)
	path := filepath.Join(t.TempDir(), "w.map")
	if err := Save(path, l); err != nil {
		t.Fatal(err)
	}
	p, err := LoadParams(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Nth != 24 || p.Nch != 36 || p.Name != "fixture" || len(p.WindNodes) != len(world.FallbackNodes) {
		t.Fatalf("params = %+v", p)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	l := smallWorld(t, world.StageTemperature)
	var buf bytes.Buffer
	if err := Encode(&buf, l); err != nil {
		t.Fatal(err)
	}
	good := buf.Bytes()

	header := 4 + 4 + 4*16 + 4 + 4 + 5*8 + 4 + 4 + 32*len(l.Params.WindNodes) + 3*8 + projectionWidth + nameWidth
	body := header + 8*(24+36+24*36+3)
	marker := slices.Clone(good)
	binary.LittleEndian.PutUint32(marker[body:], 7)

	badNth := slices.Clone(good)
	binary.LittleEndian.PutUint32(badNth, 2)

	cases := map[string][]byte{
		"truncated header": good[:100],
		"truncated body":   good[:len(good)-5],
		"bad marker":       marker,
		"bad nth":          badNth,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(bytes.NewReader(raw)); !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestEncodeNeedsHeight(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, world.Layers{Params: world.DefaultParams()}); !errors.Is(err, ErrNoHeight) {
		t.Fatalf("expected ErrNoHeight, got %v", err)
	}
}

func TestLoadedWorldImports(t *testing.T) {
	l := smallWorld(t, world.StageBiome)
	path := filepath.Join(t.TempDir(), "w.map.zst")
	if err := Save(path, l); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s := world.NewState(world.DefaultParams(), nil)
	if err := s.Import(got); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !s.Exists(world.StageBiome) || s.Exists(world.StageHydrology) {
		t.Fatal("imported stages differ from the saved ones")
	}
	if err := s.GenerateBiome(context.Background()); err != nil {
		t.Fatalf("regenerate biome: %v", err)
	}
}
