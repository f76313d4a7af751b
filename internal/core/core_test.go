package core

import (
	"bytes"
	"errors"
	"log"
	"slices"
	"testing"
	"time"
)

func TestFieldWrapAndPermute(t *testing.T) {
	f := NewField(3, 2)
	copy(f.Cells(), []float64{1, 2, 3, 4, 5, 6})
	if i, j := f.Wrap(-1, 3); i != 1 || j != 0 {
		t.Fatalf("wrap(-1,3) = (%d,%d)", i, j)
	}
	f.PermuteColumns([]int{2, 0, 1})
	if want := []float64{3, 1, 2, 6, 4, 5}; !slices.Equal(f.Cells(), want) {
		t.Fatalf("permute = %v, want %v", f.Cells(), want)
	}
	lo, hi := f.MinMax()
	if lo != 1 || hi != 6 {
		t.Fatalf("minmax = %v %v", lo, hi)
	}
	if f.Sum() != 21 {
		t.Fatalf("sum = %v", f.Sum())
	}
}

func TestCodeGridClone(t *testing.T) {
	g := NewCodeGrid(2, 2)
	g.Set(1, 1, -3)
	c := g.Clone()
	g.Set(1, 1, 4)
	if c.At(1, 1) != -3 {
		t.Fatalf("clone shares storage")
	}
}

func TestFanoutAndEmit(t *testing.T) {
	var got []Event
	sink := Fanout(func(e Event) { got = append(got, e) }, nil, func(e Event) { got = append(got, e) })
	sink.Emit(Event{Severity: SeverityWarning, Stage: "wind", Message: "x", Err: errors.New("boom")})
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Time.IsZero() {
		t.Fatalf("emit should stamp time")
	}
	if got[0].String() != "WARN wind: x: boom" {
		t.Fatalf("unexpected string %q", got[0].String())
	}
	var nilSink Sink
	nilSink.Emit(Event{})
}

func TestLogSinkFiltersSeverity(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink(log.New(&buf, "", 0), SeverityWarning)
	sink.Emit(Event{Severity: SeverityInfo, Stage: "height", Message: "quiet"})
	sink.Emit(Event{Severity: SeverityError, Stage: "height", Message: "loud"})
	if got := buf.String(); got != "ERROR height: loud\n" {
		t.Fatalf("unexpected log output %q", got)
	}
	if LogSink(nil, SeverityInfo) != nil {
		t.Fatalf("nil logger should give a nil sink")
	}
}

func TestRegenPacer(t *testing.T) {
	clock := time.Unix(1000, 0)
	p := NewRegenPacer(4)
	p.now = func() time.Time { return clock }
	if p.Interval() != 250*time.Millisecond {
		t.Fatalf("interval = %v", p.Interval())
	}
	if !p.Ready() {
		t.Fatal("first pass should be allowed")
	}
	// A slow pass: the pause starts when it ends.
	clock = clock.Add(2 * time.Second)
	p.Finished(nil)
	if p.Ready() {
		t.Fatal("pass allowed before the interval elapsed")
	}
	clock = clock.Add(250 * time.Millisecond)
	if !p.Ready() {
		t.Fatal("pass refused after the interval")
	}
	p.Finished(errors.New("stage failed"))
	clock = clock.Add(time.Hour)
	if p.Ready() || !p.Halted() {
		t.Fatal("failure should halt regeneration")
	}
	p.Resume()
	if !p.Ready() {
		t.Fatal("resume should allow the next pass")
	}
	if NewRegenPacer(0).Interval() != 250*time.Millisecond {
		t.Fatal("non-positive rate should fall back to 4 per second")
	}
}

func TestSnapshotLookup(t *testing.T) {
	s := ParameterSnapshot{Groups: []ParameterGroup{{Name: "g", Params: []Parameter{{Key: "seed", Value: "1"}}}}}
	if p, ok := s.Lookup("seed"); !ok || p.Value != "1" {
		t.Fatalf("lookup failed: %+v %v", p, ok)
	}
	if _, ok := s.Lookup("nope"); ok {
		t.Fatalf("unexpected hit")
	}
}
