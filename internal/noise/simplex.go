// Package noise implements the classic skewed-simplex lattice noise in four
// dimensions together with its multi-octave combinations. All functions are
// pure and safe for concurrent use.
package noise

import "math"

var (
	f4 = (math.Sqrt(5.0) - 1.0) / 4.0
	g4 = (5.0 - math.Sqrt(5.0)) / 20.0
)

// Gradients are the midpoints of the edges of a 4D hypercube.
var grad4 = [32][4]float64{
	{0, 1, 1, 1}, {0, 1, 1, -1}, {0, 1, -1, 1}, {0, 1, -1, -1},
	{0, -1, 1, 1}, {0, -1, 1, -1}, {0, -1, -1, 1}, {0, -1, -1, -1},
	{1, 0, 1, 1}, {1, 0, 1, -1}, {1, 0, -1, 1}, {1, 0, -1, -1},
	{-1, 0, 1, 1}, {-1, 0, 1, -1}, {-1, 0, -1, 1}, {-1, 0, -1, -1},
	{1, 1, 0, 1}, {1, 1, 0, -1}, {1, -1, 0, 1}, {1, -1, 0, -1},
	{-1, 1, 0, 1}, {-1, 1, 0, -1}, {-1, -1, 0, 1}, {-1, -1, 0, -1},
	{1, 1, 1, 0}, {1, 1, -1, 0}, {1, -1, 1, 0}, {1, -1, -1, 0},
	{-1, 1, 1, 0}, {-1, 1, -1, 0}, {-1, -1, 1, 0}, {-1, -1, -1, 0},
}

var permBase = [256]int{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// perm repeats permBase twice so hashed lookups never need a modulo.
var perm [512]int

func init() {
	for i := range perm {
		perm[i] = permBase[i&255]
	}
}

// simplexTable ranks the magnitude ordering of the four offsets; only the 24
// reachable rows are non-zero.
var simplexTable = [64][4]int{
	{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 0, 0, 0}, {0, 2, 3, 1}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {1, 2, 3, 0},
	{0, 2, 1, 3}, {0, 0, 0, 0}, {0, 3, 1, 2}, {0, 3, 2, 1}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {1, 3, 2, 0},
	{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0},
	{1, 2, 0, 3}, {0, 0, 0, 0}, {1, 3, 0, 2}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {2, 3, 0, 1}, {2, 3, 1, 0},
	{1, 0, 2, 3}, {1, 0, 3, 2}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {2, 0, 3, 1}, {0, 0, 0, 0}, {2, 1, 3, 0},
	{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0},
	{2, 0, 1, 3}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {3, 0, 1, 2}, {3, 0, 2, 1}, {0, 0, 0, 0}, {3, 1, 2, 0},
	{2, 1, 0, 3}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {3, 1, 0, 2}, {0, 0, 0, 0}, {3, 2, 0, 1}, {3, 2, 1, 0},
}

// fastfloor truncates toward zero for positive input and subtracts one
// otherwise, so integral non-positive values land one cell lower. The lattice
// depends on this exact behaviour.
func fastfloor(x float64) int {
	if x > 0 {
		return int(x)
	}
	return int(x) - 1
}

func dot(g *[4]float64, x, y, z, w float64) float64 {
	return g[0]*x + g[1]*y + g[2]*z + g[3]*w
}

func bit(cond bool) int {
	if cond {
		return 1
	}
	return 0
}

// corner returns the contribution of one simplex corner.
func corner(gi int, x, y, z, w float64) float64 {
	t := 0.6 - x*x - y*y - z*z - w*w
	if t < 0 {
		return 0
	}
	t *= t
	return t * t * dot(&grad4[gi], x, y, z, w)
}

// Noise4 returns raw 4D simplex noise in [-1, 1].
func Noise4(x, y, z, w float64) float64 {
	// Skew the input space to find the containing cell of 24 simplices.
	s := (x + y + z + w) * f4
	i := fastfloor(x + s)
	j := fastfloor(y + s)
	k := fastfloor(z + s)
	l := fastfloor(w + s)
	t := float64(i+j+k+l) * g4
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)
	z0 := z - (float64(k) - t)
	w0 := w - (float64(l) - t)

	c := 0
	if x0 > y0 {
		c += 32
	}
	if x0 > z0 {
		c += 16
	}
	if y0 > z0 {
		c += 8
	}
	if x0 > w0 {
		c += 4
	}
	if y0 > w0 {
		c += 2
	}
	if z0 > w0 {
		c++
	}
	sc := &simplexTable[c]

	i1, j1, k1, l1 := bit(sc[0] >= 3), bit(sc[1] >= 3), bit(sc[2] >= 3), bit(sc[3] >= 3)
	i2, j2, k2, l2 := bit(sc[0] >= 2), bit(sc[1] >= 2), bit(sc[2] >= 2), bit(sc[3] >= 2)
	i3, j3, k3, l3 := bit(sc[0] >= 1), bit(sc[1] >= 1), bit(sc[2] >= 1), bit(sc[3] >= 1)

	x1 := x0 - float64(i1) + g4
	y1 := y0 - float64(j1) + g4
	z1 := z0 - float64(k1) + g4
	w1 := w0 - float64(l1) + g4
	x2 := x0 - float64(i2) + 2.0*g4
	y2 := y0 - float64(j2) + 2.0*g4
	z2 := z0 - float64(k2) + 2.0*g4
	w2 := w0 - float64(l2) + 2.0*g4
	x3 := x0 - float64(i3) + 3.0*g4
	y3 := y0 - float64(j3) + 3.0*g4
	z3 := z0 - float64(k3) + 3.0*g4
	w3 := w0 - float64(l3) + 3.0*g4
	x4 := x0 - 1.0 + 4.0*g4
	y4 := y0 - 1.0 + 4.0*g4
	z4 := z0 - 1.0 + 4.0*g4
	w4 := w0 - 1.0 + 4.0*g4

	ii, jj, kk, ll := i&255, j&255, k&255, l&255
	gi0 := perm[ii+perm[jj+perm[kk+perm[ll]]]] % 32
	gi1 := perm[ii+i1+perm[jj+j1+perm[kk+k1+perm[ll+l1]]]] % 32
	gi2 := perm[ii+i2+perm[jj+j2+perm[kk+k2+perm[ll+l2]]]] % 32
	gi3 := perm[ii+i3+perm[jj+j3+perm[kk+k3+perm[ll+l3]]]] % 32
	gi4 := perm[ii+1+perm[jj+1+perm[kk+1+perm[ll+1]]]] % 32

	n0 := corner(gi0, x0, y0, z0, w0)
	n1 := corner(gi1, x1, y1, z1, w1)
	n2 := corner(gi2, x2, y2, z2, w2)
	n3 := corner(gi3, x3, y3, z3, w3)
	n4 := corner(gi4, x4, y4, z4, w4)
	return 27.0 * (n0 + n1 + n2 + n3 + n4)
}
