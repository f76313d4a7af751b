package render

import "image/color"

// fillRampRGBA converts scalar cells into RGBA pixels in buf using a ramp.
// Rows are flipped so the last row (northmost) lands first.
func fillRampRGBA(buf []byte, cells []float64, w int, r Ramp) {
	h := len(cells) / w
	for i := 0; i < h; i++ {
		row := (h - 1 - i) * w
		for j := 0; j < w; j++ {
			base := (row + j) * 4
			col := r.At(cells[i*w+j])
			buf[base+0] = col.R
			buf[base+1] = col.G
			buf[base+2] = col.B
			buf[base+3] = col.A
		}
	}
}

// fillPaletteRGBA converts codes into RGBA pixels using a palette indexed by
// code+offset. Codes outside the palette clamp to its ends. When the palette
// is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, codes []int8, w, offset int, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(codes)*4])
		return
	}
	h := len(codes) / w
	last := len(palette) - 1
	for i := 0; i < h; i++ {
		row := (h - 1 - i) * w
		for j := 0; j < w; j++ {
			idx := min(max(int(codes[i*w+j])+offset, 0), last)
			base := (row + j) * 4
			col := palette[idx]
			buf[base+0] = col.R
			buf[base+1] = col.G
			buf[base+2] = col.B
			buf[base+3] = col.A
		}
	}
}
