// Package trace models the per-step pixel-center sequence handed to the
// hardware testbench and persists it as a fixed-width hex file.
package trace

import (
	"context"
	"errors"
)

// Sentinel errors for trace handling.
var (
	// ErrWrite reports that the destination could not be written.
	ErrWrite = errors.New("trace write failed")

	// ErrEmpty reports a trace or file with no records.
	ErrEmpty = errors.New("trace is empty")

	// ErrMalformed reports a record that violates the file format.
	ErrMalformed = errors.New("malformed trace")

	// ErrOutOfRange reports a pixel center outside the accepted bounds.
	ErrOutOfRange = errors.New("pixel center out of range")
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	// OutcomeNormalComplete means every step up to the limit ran.
	OutcomeNormalComplete Outcome = "normal_complete"

	// OutcomeEarlyDrop means the object fell below the drop threshold.
	OutcomeEarlyDrop Outcome = "early_drop"

	// OutcomeInjected means the sequence was supplied directly, not simulated.
	OutcomeInjected Outcome = "injected"
)

// Frame is one step of a run. Z and Friction are zero for injected frames.
type Frame struct {
	Step     int     `json:"step"`
	Z        float64 `json:"z"`
	Friction float64 `json:"friction"`
	Pixel    int     `json:"pixel"`
}

// Trace is an ordered, completed sequence of frames. Frames are in step order.
type Trace struct {
	Source  string  `json:"source"`
	Outcome Outcome `json:"outcome"`
	Frames  []Frame `json:"frames"`
}

// Len returns the number of frames.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Frames)
}

// Pixels returns the pixel centers in order.
func (t *Trace) Pixels() []int {
	if t == nil {
		return nil
	}
	out := make([]int, len(t.Frames))
	for i, f := range t.Frames {
		out[i] = f.Pixel
	}
	return out
}

// Last returns the final frame. ok is false for an empty trace.
func (t *Trace) Last() (f Frame, ok bool) {
	if t.Len() == 0 {
		return Frame{}, false
	}
	return t.Frames[len(t.Frames)-1], true
}

// MaxPixel returns the largest pixel center, or -1 for an empty trace.
func (t *Trace) MaxPixel() int {
	maxPixel := -1
	if t == nil {
		return maxPixel
	}
	for _, f := range t.Frames {
		if f.Pixel > maxPixel {
			maxPixel = f.Pixel
		}
	}
	return maxPixel
}

// Source produces an ordered pixel-center sequence.
type Source interface {
	// Name identifies the source kind, e.g. "physics" or "injection".
	Name() string

	// Produce runs the source to completion. The returned trace is not
	// modified afterwards.
	Produce(ctx context.Context) (*Trace, error)
}
