package core

import "gonum.org/v1/gonum/floats"

// Field stores one float64 per grid cell in row-major order (rows are latitudes).
type Field struct {
	W, H int
	data []float64
}

// NewField allocates a zeroed field with the given dimensions.
func NewField(w, h int) *Field {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Field{W: w, H: h, data: make([]float64, w*h)}
}

// FieldFrom wraps an existing row-major slice. It panics when the length does not match.
func FieldFrom(w, h int, data []float64) *Field {
	if len(data) != w*h {
		panic("core: field data length mismatch")
	}
	return &Field{W: w, H: h, data: data}
}

// Cells exposes the backing slice so callers can read/write values directly.
func (f *Field) Cells() []float64 { return f.data }

// Index returns the linear slice index for row i, column j.
func (f *Field) Index(i, j int) int { return i*f.W + j }

// At returns the value at row i, column j.
func (f *Field) At(i, j int) float64 { return f.data[i*f.W+j] }

// Set stores v at row i, column j.
func (f *Field) Set(i, j int, v float64) { f.data[i*f.W+j] = v }

// Add accumulates v at row i, column j.
func (f *Field) Add(i, j int, v float64) { f.data[i*f.W+j] += v }

// Wrap applies toroidal wrapping to the provided coordinates.
func (f *Field) Wrap(i, j int) (int, int) {
	i = (i%f.H + f.H) % f.H
	j = (j%f.W + f.W) % f.W
	return i, j
}

// InBounds reports whether (i, j) addresses a cell.
func (f *Field) InBounds(i, j int) bool {
	return i >= 0 && j >= 0 && i < f.H && j < f.W
}

// Clear fills the field with zeros.
func (f *Field) Clear() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	out := make([]float64, len(f.data))
	copy(out, f.data)
	return &Field{W: f.W, H: f.H, data: out}
}

// MinMax returns the smallest and largest cell values.
func (f *Field) MinMax() (float64, float64) {
	return floats.Min(f.data), floats.Max(f.data)
}

// Max returns the largest cell value.
func (f *Field) Max() float64 { return floats.Max(f.data) }

// Sum returns the sum of all cells.
func (f *Field) Sum() float64 { return floats.Sum(f.data) }

// Scale multiplies every cell by c.
func (f *Field) Scale(c float64) { floats.Scale(c, f.data) }

// PermuteColumns reorders the columns of every row so column j takes old column perm[j].
func (f *Field) PermuteColumns(perm []int) {
	row := make([]float64, f.W)
	for i := 0; i < f.H; i++ {
		base := i * f.W
		for j, src := range perm {
			row[j] = f.data[base+src]
		}
		copy(f.data[base:base+f.W], row)
	}
}

// CodeGrid stores a small signed code per cell in row-major order.
type CodeGrid struct {
	W, H int
	data []int8
}

// NewCodeGrid allocates a grid with the given dimensions.
func NewCodeGrid(w, h int) *CodeGrid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &CodeGrid{W: w, H: h, data: make([]int8, w*h)}
}

// CodeGridFrom wraps an existing row-major slice. It panics when the length does not match.
func CodeGridFrom(w, h int, data []int8) *CodeGrid {
	if len(data) != w*h {
		panic("core: code grid data length mismatch")
	}
	return &CodeGrid{W: w, H: h, data: data}
}

// Cells exposes the backing slice.
func (g *CodeGrid) Cells() []int8 { return g.data }

// At returns the code at row i, column j.
func (g *CodeGrid) At(i, j int) int8 { return g.data[i*g.W+j] }

// Set stores c at row i, column j.
func (g *CodeGrid) Set(i, j int, c int8) { g.data[i*g.W+j] = c }

// PermuteColumns reorders the columns of every row so column j takes old column perm[j].
func (g *CodeGrid) PermuteColumns(perm []int) {
	row := make([]int8, g.W)
	for i := 0; i < g.H; i++ {
		base := i * g.W
		for j, src := range perm {
			row[j] = g.data[base+src]
		}
		copy(g.data[base:base+g.W], row)
	}
}

// Clone returns a deep copy.
func (g *CodeGrid) Clone() *CodeGrid {
	out := make([]int8, len(g.data))
	copy(out, g.data)
	return &CodeGrid{W: g.W, H: g.H, data: out}
}
