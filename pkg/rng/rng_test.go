package rng

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a := New(26894)
	b := New(26894)
	for i := 0; i < 100; i++ {
		if x, y := a.Uniform(-89, 89), b.Uniform(-89, 89); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestRNGRanges(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		if n := r.IntRange(4, 9); n < 4 || n > 9 {
			t.Fatalf("IntRange out of bounds: %d", n)
		}
		if u := r.Uniform(0, 2); u < 0 || u >= 2 {
			t.Fatalf("Uniform out of bounds: %v", u)
		}
		if s := r.Sign(); s != 1 && s != -1 {
			t.Fatalf("Sign returned %v", s)
		}
	}
}

func TestRNGWeighted(t *testing.T) {
	r := New(1)
	if got := r.Weighted([]float64{0, 0, 5}); got != 2 {
		t.Fatalf("expected only positive weight to win, got %d", got)
	}
	if got := r.Weighted(nil); got != 0 {
		t.Fatalf("expected 0 for empty weights, got %d", got)
	}
}
