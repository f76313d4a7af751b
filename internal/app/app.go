//go:build ebiten

package app

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"worldgen/internal/core"
	"worldgen/internal/render"
	"worldgen/internal/ui"
	"worldgen/internal/world"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	// rotateStep is the longitude turned per arrow key press.
	rotateStep = 15
	// regenPerSecond bounds how often missing stages are regenerated.
	regenPerSecond = 4
)

// Options configures a Game.
type Options struct {
	Scale    int
	HUD      int
	Layer    render.Layer
	Weather  bool
	Detailed bool
	Logger   *log.Logger
}

// Game adapts a world to the ebiten.Game interface. Missing stages are
// regenerated at a paced rate; a failed pass waits for user input.
type Game struct {
	state   *world.State
	opt     Options
	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay
	regen   *core.RegenPacer

	layer render.Layer
	scale int
	dirty bool
}

// New constructs a Game for the provided world.
func New(state *world.State, opt Options) *Game {
	p := state.Params()
	scale := max(opt.Scale, 1)
	return &Game{
		state:   state,
		opt:     opt,
		painter: render.NewGridPainter(p.Nch, p.Nth),
		hud:     ui.NewHUD(state, opt.HUD),
		overlay: ui.NewOverlay(scale),
		regen:   core.NewRegenPacer(regenPerSecond),
		layer:   opt.Layer,
		scale:   scale,
		dirty:   true,
	}
}

// Reset discards every layer and reseeds the world.
func (g *Game) Reset(seed int64) {
	if !g.state.SetIntParameter("seed", int(seed%math.MaxInt32)) {
		g.state.Invalidate(world.StageHeight)
	}
	g.regen.Resume()
}

// Update handles per-frame input and regenerates missing stages.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) || inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.layer = render.Layers[(int(g.layer)+1)%len(render.Layers)]
		g.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		g.rotate(-rotateStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		g.rotate(rotateStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.state.Invalidate(world.StageHeight)
		g.regen.Resume()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}

	if g.hud.Update(g.mapWidth()) {
		g.regen.Resume()
	}
	if g.overlay != nil {
		g.overlay.Update()
	}

	if g.regen.Ready() && g.missing() {
		g.regen.Finished(g.generate(context.Background()))
		g.dirty = true
	}
	if g.dirty {
		g.repaint()
	}
	return nil
}

func (g *Game) rotate(deg float64) {
	if !g.state.Exists(world.StageHeight) {
		return
	}
	if err := g.state.Rotate(deg); err == nil {
		g.dirty = true
	}
}

// missing reports whether a stage the viewer shows has not been generated.
func (g *Game) missing() bool {
	if !g.state.Exists(world.StageHeight) {
		return true
	}
	if !g.opt.Weather || !g.state.Grid().Wraps() {
		return false
	}
	return !g.state.Exists(world.StageHydrology)
}

func (g *Game) generate(ctx context.Context) error {
	s := g.state
	if !s.Exists(world.StageHeight) {
		if err := s.GenerateHeight(ctx, world.HeightOptions{}); err != nil {
			return err
		}
	}
	if !g.opt.Weather || !s.Grid().Wraps() {
		return nil
	}
	steps := []struct {
		stage world.Stage
		run   func(context.Context) error
	}{
		{world.StageWind, s.GenerateWind},
		{world.StageTemperature, s.GenerateTemperature},
		{world.StageMoisture, s.GenerateMoisture},
		{world.StageBiome, s.GenerateBiome},
		{world.StageHydrology, func(ctx context.Context) error {
			return s.GenerateHydrology(ctx, world.HydrologyOptions{Detailed: g.opt.Detailed})
		}},
	}
	for _, step := range steps {
		if s.Exists(step.stage) {
			continue
		}
		if err := step.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// repaint uploads the selected layer, falling back to the heightmap while
// the layer is missing.
func (g *Game) repaint() {
	l := g.state.Export()
	if l.Height == nil {
		return
	}
	err := g.painter.Update(l, g.layer)
	if errors.Is(err, render.ErrMissingLayer) {
		err = g.painter.Update(l, render.LayerHeight)
	}
	if err != nil && g.opt.Logger != nil {
		g.opt.Logger.Printf("paint %s: %v", g.layer, err)
	}
	g.dirty = false
}

func (g *Game) mapWidth() int {
	w, _ := g.painter.Size()
	return w * g.scale
}

// Draw renders the current world.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.scale)
	if g.overlay != nil {
		g.overlay.Draw(screen, g.state.Export())
	}
	_, h := g.painter.Size()
	g.hud.Draw(screen, g.mapWidth(), h*g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.painter.Size()
	return w*g.scale + g.hud.Width(), h * g.scale
}
