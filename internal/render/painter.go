//go:build ebiten

package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"worldgen/internal/world"
)

// GridPainter blits one world layer to an ebiten image, one texel per cell.
type GridPainter struct {
	img  *ebiten.Image
	buf  []byte
	w, h int
}

// NewGridPainter allocates a painter for a w x h grid.
func NewGridPainter(w, h int) *GridPainter {
	return &GridPainter{
		img: ebiten.NewImage(w, h),
		buf: make([]byte, w*h*4),
		w:   w,
		h:   h,
	}
}

// Update repaints the backing texture from l. The previous texture is kept
// when the layer is missing.
func (gp *GridPainter) Update(l world.Layers, layer Layer) error {
	if l.Height != nil && (l.Height.W != gp.w || l.Height.H != gp.h) {
		*gp = *NewGridPainter(l.Height.W, l.Height.H)
	}
	if err := FillRGBA(gp.buf, l, layer); err != nil {
		return err
	}
	gp.img.WritePixels(gp.buf)
	return nil
}

// Blit draws the texture at scale pixels per cell.
func (gp *GridPainter) Blit(screen *ebiten.Image, scale int) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(gp.img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }
