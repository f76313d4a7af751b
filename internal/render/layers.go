package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"

	"worldgen/internal/world"
)

// Layer selects which generated field is painted.
type Layer int

const (
	LayerHeight Layer = iota
	LayerWind
	LayerTemperature
	LayerMoisture
	LayerBiome
)

var layerNames = [...]string{"height", "wind", "temperature", "moisture", "biome"}

// Layers lists every paintable layer in display order.
var Layers = []Layer{LayerHeight, LayerWind, LayerTemperature, LayerMoisture, LayerBiome}

func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return fmt.Sprintf("Layer(%d)", int(l))
	}
	return layerNames[l]
}

// ParseLayer resolves a layer name.
func ParseLayer(s string) (Layer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range layerNames {
		if name == s {
			return Layer(i), nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

// ErrMissingLayer is returned when the requested layer has not been generated.
var ErrMissingLayer = errors.New("render: layer not generated")

// FillRGBA paints layer into buf, north up, four bytes per cell. buf must
// hold nth*nch*4 bytes.
func FillRGBA(buf []byte, l world.Layers, layer Layer) error {
	if l.Height == nil {
		return fmt.Errorf("%s: %w", layer, ErrMissingLayer)
	}
	w := l.Height.W
	if len(buf) < len(l.Height.Cells())*4 {
		return fmt.Errorf("render: buffer holds %d bytes, need %d", len(buf), len(l.Height.Cells())*4)
	}
	switch layer {
	case LayerHeight:
		fillRampRGBA(buf, l.Height.Cells(), w, HeightRamp)
	case LayerWind:
		if l.Wind == nil {
			return fmt.Errorf("%s: %w", layer, ErrMissingLayer)
		}
		fillRampRGBA(buf, l.Wind.Speed.Cells(), w, Rainbow.Scaled(l.Wind.Min, math.Max(l.Wind.Max, l.Wind.Min+1e-9)))
	case LayerTemperature:
		if l.Temperature == nil {
			return fmt.Errorf("%s: %w", layer, ErrMissingLayer)
		}
		fillRampRGBA(buf, l.Temperature.Cells(), w, TemperatureRamp)
	case LayerMoisture:
		if l.Moisture == nil {
			return fmt.Errorf("%s: %w", layer, ErrMissingLayer)
		}
		fillRampRGBA(buf, l.Moisture.Cells(), w, Plasma.Scaled(0, 100))
	case LayerBiome:
		if l.Biome == nil {
			return fmt.Errorf("%s: %w", layer, ErrMissingLayer)
		}
		fillPaletteRGBA(buf, l.Biome.Cells(), w, -int(world.BiomeOcean), BiomePalette)
	default:
		return fmt.Errorf("render: unknown layer %d", int(layer))
	}
	return nil
}

// Paint returns layer as an image with one pixel per cell.
func Paint(l world.Layers, layer Layer) (*image.RGBA, error) {
	if l.Height == nil {
		return nil, fmt.Errorf("%s: %w", layer, ErrMissingLayer)
	}
	img := image.NewRGBA(image.Rect(0, 0, l.Height.W, l.Height.H))
	if err := FillRGBA(img.Pix, l, layer); err != nil {
		return nil, err
	}
	return img, nil
}

// Projector maps geographic points onto pixels of a painted grid.
type Projector struct {
	lat, lon []float64
	scale    int
}

// NewProjector covers grid at scale pixels per cell.
func NewProjector(g *world.Grid, scale int) Projector {
	return Projector{lat: g.Lat, lon: g.Lon, scale: max(scale, 1)}
}

// Pixel returns the pixel center for p, north up.
func (pr Projector) Pixel(p world.Point) (x, y int) {
	j := nearest(pr.lon, p.Lon)
	i := nearest(pr.lat, p.Lat)
	return j*pr.scale + pr.scale/2, (len(pr.lat)-1-i)*pr.scale + pr.scale/2
}

// Width reports the painted width in pixels.
func (pr Projector) Width() int { return len(pr.lon) * pr.scale }

func nearest(xs []float64, v float64) int {
	k := sort.SearchFloat64s(xs, v)
	switch {
	case k <= 0:
		return 0
	case k >= len(xs):
		return len(xs) - 1
	case v-xs[k-1] <= xs[k]-v:
		return k - 1
	}
	return k
}

var (
	RiverColor = rgb(0, 102, 204)
	LakeColor  = rgb(0, 51, 153)
)

// DrawHydrology strokes rivers and lake outlines onto img. Segments that
// cross the date line are skipped.
func DrawHydrology(img *image.RGBA, pr Projector, h *world.Hydrology) {
	if h == nil {
		return
	}
	for _, r := range h.Rivers {
		polyline(img, pr, r, RiverColor, false)
	}
	for _, l := range h.Lakes {
		polyline(img, pr, l, LakeColor, true)
	}
}

func polyline(img *image.RGBA, pr Projector, pts []world.Point, c color.RGBA, closed bool) {
	if len(pts) == 0 {
		return
	}
	x0, y0 := pr.Pixel(pts[0])
	img.SetRGBA(x0, y0, c)
	n := len(pts)
	if closed {
		n++
	}
	for k := 1; k < n; k++ {
		x1, y1 := pr.Pixel(pts[k%len(pts)])
		if abs(x1-x0) <= pr.Width()/2 {
			line(img, x0, y0, x1, y1, c)
		} else {
			img.SetRGBA(x1, y1, c)
		}
		x0, y0 = x1, y1
	}
}

// line draws with Bresenham's algorithm.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		if e2 := 2 * e; e2 >= dy {
			e += dy
			x0 += sx
		} else {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Upscale enlarges img by an integer factor with nearest-neighbour sampling.
func Upscale(img image.Image, factor int) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*max(factor, 1), b.Dy()*max(factor, 1)))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

// Export paints layer at scale pixels per cell with hydrology overlaid and
// writes it to path.
func Export(path string, l world.Layers, layer Layer, scale int) error {
	img, err := Paint(l, layer)
	if err != nil {
		return err
	}
	big := Upscale(img, scale)
	if l.Grid != nil {
		DrawHydrology(big, NewProjector(l.Grid, scale), l.Hydrology)
	}
	return WritePNG(path, big)
}
