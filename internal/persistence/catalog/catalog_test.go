package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"worldgen/internal/core"
	"worldgen/internal/world"
)

func layers(name string, seed int32, hydro *world.Hydrology) world.Layers {
	p := world.DefaultParams()
	p.Name, p.Seed, p.Nth, p.Nch = name, seed, 3, 4
	return world.Layers{
		Params:    p,
		Grid:      world.GridFromDegrees([]float64{-60, 0, 60}, []float64{-180, -90, 0, 90}, p.LatRange, p.LonRange),
		Height:    &world.Heightmap{Field: core.NewField(4, 3), RealizedWater: 42.5},
		Hydrology: hydro,
	}
}

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "db", "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	c.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 100 * time.Millisecond)
	}
	return c
}

func TestRecordAndGet(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	hydro := &world.Hydrology{Rivers: make([]world.River, 3), Lakes: make([]world.Lake, 1)}
	e, err := c.Record(ctx, layers("terra", 26894, hydro), "/worlds/terra.map")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := c.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("created %v, want %v", got.CreatedAt, e.CreatedAt)
	}
	got.CreatedAt, e.CreatedAt = time.Time{}, time.Time{}
	if got != e {
		t.Fatalf("Get = %+v, want %+v", got, e)
	}
	if got.Nth != 3 || got.Nch != 4 || got.Rivers != 3 || got.Lakes != 1 || got.RealizedWater != 42.5 {
		t.Fatalf("summary = %+v", got)
	}
}

func TestRecordWithoutHydrology(t *testing.T) {
	c := openTest(t)
	e, err := c.Record(context.Background(), layers("dry", 1, nil), "dry.map")
	if err != nil {
		t.Fatal(err)
	}
	if e.Rivers != -1 || e.Lakes != -1 {
		t.Fatalf("absent hydrology recorded as %d/%d", e.Rivers, e.Lakes)
	}
	if _, err := c.Record(context.Background(), world.Layers{}, "x.map"); err == nil {
		t.Fatal("expected an error for a world without heights")
	}
}

func TestListNewestFirst(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	for i, name := range []string{"a", "b", "c"} {
		if _, err := c.Record(ctx, layers(name, int32(i), nil), name+".map"); err != nil {
			t.Fatal(err)
		}
	}
	all, err := c.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range all {
		names = append(names, e.Name)
	}
	if len(names) != 3 || names[0] != "c" || names[1] != "b" || names[2] != "a" {
		t.Fatalf("order = %v", names)
	}
	two, err := c.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 || two[0].Name != "c" {
		t.Fatalf("limited list = %+v", two)
	}
}

func TestGetUnknown(t *testing.T) {
	c := openTest(t)
	if _, err := c.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	e, err := c.Record(context.Background(), layers("kept", 5, nil), "kept.map")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if got, err := c.Get(context.Background(), e.ID); err != nil || got.Name != "kept" {
		t.Fatalf("after reopen: %+v, %v", got, err)
	}
}
