package core

import "time"

// RegenPacer decides when a viewer may run its next generation pass. Passes
// are spaced by a fixed interval measured from the end of the previous pass,
// so a slow stage never triggers a burst of catch-up passes. A failed pass
// halts regeneration until Resume.
type RegenPacer struct {
	interval time.Duration
	next     time.Time
	halted   bool
	now      func() time.Time
}

// NewRegenPacer allows perSecond passes per second. Non-positive rates fall
// back to 4.
func NewRegenPacer(perSecond int) *RegenPacer {
	if perSecond <= 0 {
		perSecond = 4
	}
	return &RegenPacer{interval: time.Second / time.Duration(perSecond), now: time.Now}
}

// Interval reports the pause between passes.
func (p *RegenPacer) Interval() time.Duration { return p.interval }

// Ready reports whether a pass may start now.
func (p *RegenPacer) Ready() bool {
	return !p.halted && !p.now().Before(p.next)
}

// Finished records the outcome of a pass.
func (p *RegenPacer) Finished(err error) {
	if err != nil {
		p.halted = true
	}
	p.next = p.now().Add(p.interval)
}

// Halted reports whether a failure stopped regeneration.
func (p *RegenPacer) Halted() bool { return p.halted }

// Resume lifts a halt, typically after the user changed a parameter.
func (p *RegenPacer) Resume() { p.halted = false }
