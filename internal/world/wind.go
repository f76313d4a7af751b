package world

import (
	"context"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"worldgen/internal/core"
	"worldgen/pkg/rng"
)

// WindField stores the wind per cell. V drives motion across latitudes, U
// across longitudes, and Speed is the magnitude used for absorption.
type WindField struct {
	V, U, Speed *core.Field
	Min, Max    float64
}

// Clone returns a deep copy.
func (w *WindField) Clone() *WindField {
	return &WindField{V: w.V.Clone(), U: w.U.Clone(), Speed: w.Speed.Clone(), Min: w.Min, Max: w.Max}
}

// FallbackNodes are used when random draws are disabled.
var FallbackNodes = []WindNode{
	{Lat: -67, Lon: -160, Sign: 1, Weight: .4},
	{Lat: -15, Lon: 120, Sign: 1, Weight: .3},
	{Lat: 45, Lon: 20, Sign: -1, Weight: .2},
	{Lat: 61, Lon: -80, Sign: -1, Weight: .1},
}

// GenerateNodes draws count random nodes from an RNG seeded with the world
// seed. A negative count draws between 4 and 9 nodes.
func GenerateNodes(seed int32, count int) []WindNode {
	r := rng.New(int64(seed))
	if count < 0 {
		count = r.IntRange(4, 9)
	}
	nodes := make([]WindNode, 0, count)
	for k := 0; k < count; k++ {
		lat := r.Uniform(-89, 89)
		lon := r.Uniform(-180, 179)
		sign := r.Sign()
		weight := r.Uniform(0, 2)
		nodes = append(nodes, WindNode{Lat: lat, Lon: lon, Sign: sign, Weight: weight})
	}
	return nodes
}

// ResolveNodes picks the node list a wind pass will use: the explicit list
// when one is set with a non-negative count, otherwise seeded random nodes,
// otherwise the fallback set.
func ResolveNodes(p Params) []WindNode {
	if p.WindNodes != nil && p.WindNodeCount >= 0 {
		return slices.Clone(p.WindNodes)
	}
	if p.Random {
		return GenerateNodes(p.Seed, p.WindNodeCount)
	}
	return slices.Clone(FallbackNodes)
}

type nodeTrig struct {
	lon, ct, st, y, sign, weight float64
}

// SynthesizeWind evaluates the rotational field of every node at every cell
// and scales the result so the largest magnitude equals maxWind.
func SynthesizeWind(ctx context.Context, g *Grid, nodes []WindNode, maxWind float64, workers int) (*WindField, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	trig := make([]nodeTrig, len(nodes))
	for k, n := range nodes {
		lav := n.Lat * dera
		trig[k] = nodeTrig{
			lon:    n.Lon * dera,
			ct:     math.Cos(lav + math.Pi*.5),
			st:     math.Sin(lav + math.Pi*.5),
			y:      math.Tan(lav),
			sign:   n.Sign,
			weight: n.Weight,
		}
	}

	nth, nch := g.Nth(), g.Nch()
	w := &WindField{V: core.NewField(nch, nth), U: core.NewField(nch, nth), Speed: core.NewField(nch, nth)}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < nth; i++ {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			la := g.Lat[i] * dera
			ct := math.Cos(la + math.Pi*.5)
			st := math.Sin(la + math.Pi*.5)
			y := math.Tan(la)
			for j := 0; j < nch; j++ {
				x := g.Lon[j] * dera
				var w0, w1 float64
				for _, n := range trig {
					arg := st*n.st*math.Cos(x-n.lon) + ct*n.ct
					dist := math.Acos(math.Max(-1, math.Min(1, arg)))
					dx := n.lon - x
					dy := n.y - y
					if math.Abs(dx) > math.Pi {
						dx *= -1
					}
					dx *= n.sign
					dy *= n.sign
					xf, yf := -dy, dx
					rf := math.Sqrt(xf*xf + yf*yf)
					ww := n.weight / (1 + dist)
					if rf > 1e-7 {
						w0 += yf * ww / rf
						w1 += xf * ww / rf
					}
				}
				var c0, c1, c2 float64
				for range trig {
					rf := math.Sqrt(w1*w1 + w0*w0)
					if rf > 1e-7 {
						c0 += w0 / rf
						c1 += w1 / rf
					}
					c2 = rf
				}
				w.V.Set(i, j, c0)
				w.U.Set(i, j, c1)
				w.Speed.Set(i, j, c2)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	top := w.Speed.Max()
	if !(top > 0) || math.IsInf(top, 0) {
		return nil, ErrDegenerate
	}
	scale := maxWind / top
	w.V.Scale(scale)
	w.U.Scale(scale)
	w.Speed.Scale(scale)
	w.Min, w.Max = w.Speed.MinMax()
	return w, nil
}
