//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"worldgen/internal/app"
	"worldgen/internal/config"
	"worldgen/internal/core"
	"worldgen/internal/persistence/mapfile"
	"worldgen/internal/render"
	"worldgen/internal/world"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	logger := log.New(os.Stdout, "[viewer] ", log.LstdFlags|log.Lmicroseconds)

	file, err := config.Load(cfg.World)
	if err != nil {
		logger.Fatal(err)
	}
	params := file.World.Params()
	if cfg.Seed >= 0 {
		params.Seed = int32(cfg.Seed)
	}
	layer, err := render.ParseLayer(cfg.Layer)
	if err != nil {
		logger.Fatal(err)
	}

	state := world.NewState(params, core.LogSink(logger, core.SeverityInfo))
	if cfg.Load != "" {
		l, err := mapfile.Load(cfg.Load)
		if err != nil {
			logger.Fatalf("load %s: %v", cfg.Load, err)
		}
		if err := state.Import(l); err != nil {
			logger.Fatalf("import %s: %v", cfg.Load, err)
		}
	}

	game := app.New(state, app.Options{
		Scale:    cfg.Scale,
		HUD:      cfg.HUD,
		Layer:    layer,
		Weather:  cfg.Weather,
		Detailed: cfg.Detailed,
		Logger:   logger,
	})
	p := state.Params()

	ebiten.SetWindowTitle("worldgen - " + state.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(p.Nch*cfg.Scale+max(cfg.HUD, 0), p.Nth*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal(err)
	}
}
