// Package mapfile reads and writes worlds in the little-endian .map layout.
// Paths ending in .zst are zstd-compressed.
package mapfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"worldgen/internal/core"
	"worldgen/internal/world"
)

// ErrFormat reports a truncated or inconsistent file.
var ErrFormat = errors.New("mapfile: malformed world file")

// ErrNoHeight is returned when saving a world without a heightmap.
var ErrNoHeight = errors.New("mapfile: world has no heightmap")

const (
	projectionWidth = 6
	nameWidth       = 2048

	present = 1
	absent  = -1

	maxCells     = 1 << 24
	maxNodes     = 1 << 16
	maxPolylines = 1 << 20
	maxPoints    = 1 << 22
)

// Compressed reports whether path selects zstd compression.
func Compressed(path string) bool { return strings.HasSuffix(path, ".zst") }

// Save writes the parameters and every generated layer of l.
func Save(path string, l world.Layers) error {
	return writeFile(path, func(w io.Writer) error { return Encode(w, l) })
}

// Load reads a world written by Save.
func Load(path string) (world.Layers, error) {
	var l world.Layers
	err := readFile(path, func(r io.Reader) error {
		var err error
		l, err = Decode(r)
		return err
	})
	return l, err
}

// SaveParams writes the parameter header alone.
func SaveParams(path string, p world.Params) error {
	return writeFile(path, func(w io.Writer) error { return EncodeParams(w, p) })
}

// LoadParams reads a parameter header. A full world file is accepted and its
// layers are ignored.
func LoadParams(path string) (world.Params, error) {
	var p world.Params
	err := readFile(path, func(r io.Reader) error {
		var err error
		p, err = DecodeParams(r)
		return err
	})
	return p, err
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if !Compressed(path) {
		return fn(f)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := fn(enc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func readFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if !Compressed(path) {
		return fn(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()
	return fn(dec)
}

// EncodeParams writes the parameter header.
func EncodeParams(w io.Writer, p world.Params) error {
	e := newEncoder(w)
	encodeParams(e, p)
	return e.flush()
}

// DecodeParams reads and validates a parameter header.
func DecodeParams(r io.Reader) (world.Params, error) {
	d := newDecoder(r)
	p := decodeParams(d)
	return p, d.err
}

func encodeParams(e *encoder, p world.Params) {
	e.i32(int32(p.Nth))
	e.i32(int32(p.Nch))
	e.f64s(p.LatRange[:])
	e.f64s(p.LonRange[:])
	e.f64s(p.PlotLatRange[:])
	e.f64s(p.PlotLonRange[:])
	e.i32(p.Seed)
	e.i32(int32(p.Octaves))
	e.f64(p.Frequency)
	e.f64(p.Persistence)
	e.f64(p.Water)
	e.f64(p.MaxDepth)
	e.f64(p.MaxHeight)
	e.i32(int32(p.WindNodeCount))
	e.i32(int32(len(p.WindNodes)))
	for _, n := range p.WindNodes {
		e.f64(n.Lat)
		e.f64(n.Lon)
		e.f64(n.Sign)
		e.f64(n.Weight)
	}
	e.f64(p.MaxWindSpeed)
	e.f64(p.MinTemperature)
	e.f64(p.MaxTemperature)
	e.text(p.Projection, projectionWidth)
	e.text(p.Name, nameWidth)
}

// decodeParams reads the header over the defaults. Settings the file does
// not carry, such as Random, keep their default values.
func decodeParams(d *decoder) world.Params {
	p := world.DefaultParams()
	p.Nth = int(d.i32())
	p.Nch = int(d.i32())
	copy(p.LatRange[:], d.f64s(2))
	copy(p.LonRange[:], d.f64s(2))
	copy(p.PlotLatRange[:], d.f64s(2))
	copy(p.PlotLonRange[:], d.f64s(2))
	p.Seed = d.i32()
	p.Octaves = int(d.i32())
	p.Frequency = d.f64()
	p.Persistence = d.f64()
	p.Water = d.f64()
	p.MaxDepth = d.f64()
	p.MaxHeight = d.f64()
	p.WindNodeCount = int(d.i32())
	nodes := int(d.i32())
	if d.err != nil {
		return p
	}
	if nodes < 0 || nodes > maxNodes {
		d.fail("wind node list length %d", nodes)
		return p
	}
	p.WindNodes = nil
	if nodes > 0 {
		p.WindNodes = make([]world.WindNode, nodes)
		for i := range p.WindNodes {
			p.WindNodes[i] = world.WindNode{Lat: d.f64(), Lon: d.f64(), Sign: d.f64(), Weight: d.f64()}
		}
	}
	p.MaxWindSpeed = d.f64()
	p.MinTemperature = d.f64()
	p.MaxTemperature = d.f64()
	p.Projection = d.text(projectionWidth)
	p.Name = d.text(nameWidth)
	if d.err != nil {
		return p
	}
	if p.Nth > 0 && p.Nch > 0 && p.Nth > maxCells/p.Nch {
		d.fail("grid %dx%d is too large", p.Nth, p.Nch)
		return p
	}
	check := p.Clone()
	if issues := check.Validate(); len(issues) > 0 {
		d.fail("%v", errors.Join(issues...))
	}
	return p
}

// Encode writes the parameters followed by every generated layer.
func Encode(w io.Writer, l world.Layers) error {
	if l.Height == nil || l.Grid == nil {
		return ErrNoHeight
	}
	nth, nch := l.Grid.Nth(), l.Grid.Nch()
	if l.Params.Nth != nth || l.Params.Nch != nch {
		return fmt.Errorf("mapfile: parameters describe %dx%d, grid is %dx%d", l.Params.Nth, l.Params.Nch, nth, nch)
	}
	e := newEncoder(w)
	encodeParams(e, l.Params)

	e.f64s(l.Grid.Lat)
	e.f64s(l.Grid.Lon)
	e.f64s(l.Height.Cells())
	e.f64(l.Height.Shift)
	e.f64(l.Height.Min)
	e.f64(l.Height.Max)

	if l.Wind == nil {
		e.i32(absent)
	} else {
		e.i32(present)
		v, u, s := l.Wind.V.Cells(), l.Wind.U.Cells(), l.Wind.Speed.Cells()
		for k := range v {
			e.f64(v[k])
			e.f64(u[k])
			e.f64(s[k])
		}
		e.f64(l.Wind.Min)
		e.f64(l.Wind.Max)
	}
	encodeScalar(e, l.Temperature)
	encodeScalar(e, l.Moisture)
	if l.Biome == nil {
		e.i32(absent)
	} else {
		e.i32(present)
		for _, c := range l.Biome.Cells() {
			e.f64(float64(c))
		}
	}

	if l.Hydrology == nil {
		e.i32(absent)
		e.i32(absent)
	} else {
		rivers := make([][]world.Point, len(l.Hydrology.Rivers))
		for i, r := range l.Hydrology.Rivers {
			rivers[i] = r
		}
		lakes := make([][]world.Point, len(l.Hydrology.Lakes))
		for i, lk := range l.Hydrology.Lakes {
			lakes[i] = lk
		}
		encodePolylines(e, rivers)
		encodePolylines(e, lakes)
	}
	return e.flush()
}

func encodeScalar(e *encoder, f *world.ScalarField) {
	if f == nil {
		e.i32(absent)
		return
	}
	e.i32(present)
	e.f64s(f.Cells())
	e.f64(f.Min)
	e.f64(f.Max)
}

func encodePolylines(e *encoder, lines [][]world.Point) {
	e.i32(int32(len(lines)))
	for _, line := range lines {
		e.i32(int32(len(line)))
		for _, p := range line {
			e.f64(p.Lat)
			e.f64(p.Lon)
		}
	}
}

// Decode reads a world written by Encode. Realized water is recomputed from
// the stored heights.
func Decode(r io.Reader) (world.Layers, error) {
	d := newDecoder(r)
	p := decodeParams(d)
	if d.err != nil {
		return world.Layers{}, d.err
	}
	nth, nch := p.Nth, p.Nch
	n := nth * nch

	lat := d.f64s(nth)
	lon := d.f64s(nch)
	h := core.FieldFrom(nch, nth, d.f64s(n))
	height := &world.Heightmap{Field: h}
	height.Shift = d.f64()
	height.Min = d.f64()
	height.Max = d.f64()
	height.RealizedWater = world.WaterPercent(h)

	l := world.Layers{
		Params: p,
		Grid:   world.GridFromDegrees(lat, lon, p.LatRange, p.LonRange),
		Height: height,
	}

	if d.flag("wind") {
		v, u, s := core.NewField(nch, nth), core.NewField(nch, nth), core.NewField(nch, nth)
		vc, uc, sc := v.Cells(), u.Cells(), s.Cells()
		for k := 0; k < n; k++ {
			vc[k] = d.f64()
			uc[k] = d.f64()
			sc[k] = d.f64()
		}
		l.Wind = &world.WindField{V: v, U: u, Speed: s, Min: d.f64(), Max: d.f64()}
	}
	if d.flag("temperature") {
		l.Temperature = decodeScalar(d, nth, nch)
	}
	if d.flag("moisture") {
		l.Moisture = decodeScalar(d, nth, nch)
	}
	if d.flag("biome") {
		codes := make([]int8, n)
		for k := range codes {
			c := d.f64()
			if c != math.Trunc(c) || c < math.MinInt8 || c > math.MaxInt8 || !world.Biome(int8(c)).Valid() {
				d.fail("biome code %v", c)
				break
			}
			codes[k] = int8(c)
		}
		l.Biome = core.CodeGridFrom(nch, nth, codes)
	}

	rivers, hasRivers := decodePolylines(d, "river")
	lakes, hasLakes := decodePolylines(d, "lake")
	if hasRivers || hasLakes {
		hy := &world.Hydrology{}
		for _, r := range rivers {
			hy.Rivers = append(hy.Rivers, world.River(r))
		}
		for _, lk := range lakes {
			hy.Lakes = append(hy.Lakes, world.Lake(lk))
		}
		l.Hydrology = hy
	}
	if d.err != nil {
		return world.Layers{}, d.err
	}
	return l, nil
}

// flag reads a section marker and reports whether the section follows.
func (d *decoder) flag(section string) bool {
	v := d.i32()
	if d.err != nil {
		return false
	}
	switch v {
	case present:
		return true
	case absent:
		return false
	}
	d.fail("%s section marker %d", section, v)
	return false
}

func decodeScalar(d *decoder, nth, nch int) *world.ScalarField {
	f := core.FieldFrom(nch, nth, d.f64s(nth*nch))
	return &world.ScalarField{Field: f, Min: d.f64(), Max: d.f64()}
}

func decodePolylines(d *decoder, kind string) ([][]world.Point, bool) {
	count := int(d.i32())
	if d.err != nil || count == absent {
		return nil, false
	}
	if count < 0 || count > maxPolylines {
		d.fail("%s count %d", kind, count)
		return nil, false
	}
	lines := make([][]world.Point, 0, count)
	for i := 0; i < count && d.err == nil; i++ {
		length := int(d.i32())
		if length < 0 || length > maxPoints {
			d.fail("%s %d has %d points", kind, i, length)
			break
		}
		line := make([]world.Point, length)
		for k := range line {
			line[k] = world.Point{Lat: d.f64(), Lon: d.f64()}
		}
		lines = append(lines, line)
	}
	return lines, true
}
