// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perfbench

import (
	"math"
	"math/bits"
	"strings"

	"github.com/pkg/errors"

	"acln.ro/perfbench/internal/perfevent"
)

func init() {
	DefaultRegistry.MustRegister(CounterType{Name: "lpe", Create: newPerfCounter})
}

// EventNames returns the event names the lpe counter family accepts,
// excluding raw events.
func EventNames() []string { return perfevent.Names() }

// perfCounter counts a perf_event on the calling thread.
type perfCounter struct {
	ev   *perfevent.Event
	buf  []byte
	last int64
	err  error
}

// newPerfCounter opens the event named after "lpe:". The event starts
// disabled; Activate arms it.
func newPerfCounter(spec string) (Counter, error) {
	_, name, _ := strings.Cut(spec, ":")
	if name == "" {
		return nil, errors.Errorf("%q names no event, want lpe:<event>", spec)
	}
	if !perfevent.Supported() {
		return nil, errors.New("perf_event_open is not supported on this system")
	}
	nc, err := perfevent.Lookup(name)
	if err != nil {
		return nil, err
	}
	attr := new(perfevent.Attr)
	if err := nc.Configure(attr); err != nil {
		return nil, err
	}
	attr.Options.Disabled = true
	attr.CountFormat = perfevent.CountFormat{
		TotalTimeEnabled: true,
		TotalTimeRunning: true,
	}
	if attr.Type != perfevent.SoftwareEvent {
		attr.Options.ExcludeKernel = true
		attr.Options.ExcludeHypervisor = true
	}
	ev, err := perfevent.Open(attr, perfevent.CallingThread, perfevent.AnyCPU)
	if err != nil {
		return nil, err
	}
	return &perfCounter{ev: ev, buf: make([]byte, ev.ReadSize())}, nil
}

// Read returns the current count, scaled up if the kernel multiplexed
// the event. If the read fails, it returns the last good value and the
// error surfaces from Deactivate.
func (c *perfCounter) Read() int64 {
	count, err := c.ev.ReadCount(c.buf)
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return c.last
	}
	c.last = scaleCount(count)
	return c.last
}

// scaleCount estimates the full count of an event which was only
// scheduled on the PMU for part of the time it was enabled:
//
//	value * enabled / running
//
// Counts which ran the whole time, or not at all, are returned as is.
func scaleCount(c perfevent.Count) int64 {
	if c.TimeRunning <= 0 || c.TimeRunning >= c.TimeEnabled {
		return int64(c.Value)
	}
	hi, lo := bits.Mul64(c.Value, uint64(c.TimeEnabled))
	running := uint64(c.TimeRunning)
	if hi >= running {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, running)
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

func (c *perfCounter) Activate() error {
	if err := c.ev.Reset(); err != nil {
		return err
	}
	return c.ev.Enable()
}

func (c *perfCounter) Deactivate() error {
	if err := c.ev.Disable(); err != nil {
		return err
	}
	err := c.err
	c.err = nil
	return err
}

func (c *perfCounter) Close() error { return c.ev.Close() }
