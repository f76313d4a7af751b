//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"worldgen/internal/core"
	"worldgen/internal/render"
	"worldgen/internal/world"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Overlay draws wind arrows and traced rivers on top of the painted layer.
type Overlay struct {
	scale     int
	showWind  bool
	showHydro bool

	pixel          *ebiten.Image
	windSamples    []windSample
	windCacheW     int
	windCacheH     int
	windCacheScale int
	windPixelSpan  float64
}

type windSample struct {
	i, j   int
	sx, sy float64
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(scale int) *Overlay {
	o := &Overlay{scale: max(scale, 1), showHydro: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles the overlays: 1 wind arrows, 2 rivers and lakes.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showWind = !o.showWind
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showHydro = !o.showHydro
	}
}

// Draw renders the overlay for l onto screen.
func (o *Overlay) Draw(screen *ebiten.Image, l world.Layers) {
	if l.Grid == nil {
		return
	}
	size := l.Grid.Size()
	if size.W <= 0 || size.H <= 0 {
		return
	}
	if o.showWind && l.Wind != nil {
		o.drawWindField(screen, l.Wind, size)
	}
	if o.showHydro && l.Hydrology != nil {
		o.drawHydrology(screen, render.NewProjector(l.Grid, o.scale), l.Hydrology)
	}
}

func (o *Overlay) drawWindField(screen *ebiten.Image, wind *world.WindField, size core.Size) {
	if !o.ensureWindSamples(size) {
		return
	}

	const (
		calmThreshold = 0.05
		headAngle     = math.Pi / 6
		calmDotScale  = 0.18
		minThickness  = 0.65
		maxThickness  = 1.05
	)
	scale := float64(o.scale)
	maxSpeed := wind.Max
	if maxSpeed <= 0 {
		maxSpeed = 1
	}

	baseSpan := o.windPixelSpan
	minLength := baseSpan * 0.35
	maxLength := baseSpan * 0.7
	calmDotSize := max(baseSpan*calmDotScale, scale*0.75)

	for _, sample := range o.windSamples {
		// Screen y grows southward.
		vx := wind.U.At(sample.i, sample.j)
		vy := -wind.V.At(sample.i, sample.j)
		speed := math.Hypot(vx, vy)
		normalized := clamp01(speed / maxSpeed)
		if normalized < calmThreshold {
			o.drawPoint(screen, sample.sx, sample.sy, calmDotSize, color.RGBA{R: 90, G: 130, B: 170, A: 120})
			continue
		}

		nx := vx / speed
		ny := vy / speed
		length := minLength + (maxLength-minLength)*math.Sqrt(normalized)
		headLength := math.Min(length*0.3, scale*4.5)
		tailLength := length * 0.4
		tipX := sample.sx + nx*(length-tailLength)
		tipY := sample.sy + ny*(length-tailLength)
		tailX := sample.sx - nx*tailLength
		tailY := sample.sy - ny*tailLength
		bodyEndX := tipX - nx*headLength
		bodyEndY := tipY - ny*headLength

		thickness := max(scale*(minThickness+(maxThickness-minThickness)*normalized), 1)

		col := interpolateColor(normalized)
		o.drawLine(screen, tailX, tailY, bodyEndX, bodyEndY, thickness, col)

		angle := math.Atan2(ny, nx)
		leftX := tipX - math.Cos(angle+headAngle)*headLength
		leftY := tipY - math.Sin(angle+headAngle)*headLength
		rightX := tipX - math.Cos(angle-headAngle)*headLength
		rightY := tipY - math.Sin(angle-headAngle)*headLength
		o.drawLine(screen, tipX, tipY, leftX, leftY, thickness*0.85, col)
		o.drawLine(screen, tipX, tipY, rightX, rightY, thickness*0.85, col)
	}
}

// ensureWindSamples spreads roughly targetSamples arrow anchors over the grid.
func (o *Overlay) ensureWindSamples(size core.Size) bool {
	if o.windCacheW == size.W && o.windCacheH == size.H && o.windCacheScale == o.scale && len(o.windSamples) > 0 {
		return true
	}

	const (
		targetSamples = 360.0
		minSpacing    = 4
		maxSpacing    = 20
	)

	area := float64(size.W * size.H)
	spacing := min(max(int(math.Sqrt(area/targetSamples)), minSpacing), maxSpacing)

	countX := max((size.W+spacing-1)/spacing, 1)
	countY := max((size.H+spacing-1)/spacing, 1)
	startX := max((size.W-1-(countX-1)*spacing)/2, 0)
	startY := max((size.H-1-(countY-1)*spacing)/2, 0)

	o.windSamples = o.windSamples[:0]
	for yi := 0; yi < countY; yi++ {
		row := min(startY+yi*spacing, size.H-1)
		// Row 0 of the grid is the southmost latitude and is painted last.
		i := size.H - 1 - row
		for xi := 0; xi < countX; xi++ {
			j := min(startX+xi*spacing, size.W-1)
			o.windSamples = append(o.windSamples, windSample{
				i:  i,
				j:  j,
				sx: (float64(j) + 0.5) * float64(o.scale),
				sy: (float64(row) + 0.5) * float64(o.scale),
			})
		}
	}

	o.windCacheW = size.W
	o.windCacheH = size.H
	o.windCacheScale = o.scale
	o.windPixelSpan = float64(spacing) * float64(o.scale)
	return len(o.windSamples) > 0
}

func (o *Overlay) drawHydrology(screen *ebiten.Image, pr render.Projector, h *world.Hydrology) {
	thickness := max(float64(o.scale)*0.5, 1)
	for _, r := range h.Rivers {
		o.drawPolyline(screen, pr, r, render.RiverColor, thickness, false)
	}
	for _, l := range h.Lakes {
		o.drawPolyline(screen, pr, l, render.LakeColor, thickness, true)
	}
}

func (o *Overlay) drawPolyline(screen *ebiten.Image, pr render.Projector, pts []world.Point, col color.RGBA, thickness float64, closed bool) {
	if len(pts) == 0 {
		return
	}
	n := len(pts)
	if closed {
		n++
	}
	x0, y0 := pr.Pixel(pts[0])
	for k := 1; k < n; k++ {
		x1, y1 := pr.Pixel(pts[k%len(pts)])
		if math.Abs(float64(x1-x0)) <= float64(pr.Width())/2 {
			o.drawLine(screen, float64(x0), float64(y0), float64(x1), float64(y1), thickness, col)
		}
		x0, y0 = x1, y1
	}
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func interpolateColor(t float64) color.RGBA {
	t = clamp01(t)
	r := uint8(math.Round(80 + 70*t))
	g := uint8(math.Round(170 + 70*t))
	b := uint8(math.Round(230 + 20*t))
	a := uint8(math.Round(150 + 90*t))
	return color.RGBA{R: r, G: g, B: b, A: a}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
