package world

import "worldgen/internal/core"

func fieldOf(w, h int, v ...float64) *core.Field {
	return core.FieldFrom(w, h, append([]float64(nil), v...))
}
