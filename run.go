// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import "fmt"

// A Run is the working record of one epoch of one benchmark. A fresh Run
// is passed to every trial of the epoch; it accumulates the events and
// iterations of all of them.
//
// A Run must only be used from the goroutine running the benchmark.
type Run struct {
	counter    Counter
	seed       int64
	events     int64
	iterations int64
	trials     int
	failures   []string
}

// Seed returns the suite's seed. Benchmarks which need random inputs
// should derive them from it, so that every epoch and every counter pass
// measures the same work.
func (r *Run) Seed() int64 { return r.seed }

// Suspend excludes the code between this call and the matching Resume from
// measurement. The events the active counter sees in between are subtracted
// from the run.
//
// Typical use:
//
//	s := r.Suspend()
//	defer s.Resume()
//
// or, more simply, r.Suspended(setup).
//
// A Suspension which is never resumed is not accounted for at all. Nested
// suspensions are each accounted for independently, so the inner region
// is subtracted twice: avoid nesting them.
func (r *Run) Suspend() *Suspension {
	return &Suspension{run: r, start: r.counter.Read()}
}

// Suspended runs f inside a Suspension. The Suspension is resumed however
// f returns, including by panicking.
func (r *Run) Suspended(f func()) {
	s := r.Suspend()
	defer s.Resume()
	f()
}

// Assert records a failure if cond is false. The benchmark keeps running;
// it is reported as failed once measured.
func (r *Run) Assert(cond bool) {
	if !cond {
		r.Errorf("assertion failed")
	}
}

// Errorf records a failure with the given message.
func (r *Run) Errorf(format string, args ...interface{}) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

// Failed reports whether a failure was recorded.
func (r *Run) Failed() bool { return len(r.failures) > 0 }

// A Suspension is a region of benchmark code excluded from measurement.
// See Run.Suspend.
type Suspension struct {
	run   *Run
	start int64
	done  bool
}

// Resume ends the suspension and subtracts the events it saw from the run.
// Only the first call has any effect.
func (s *Suspension) Resume() {
	if s.done {
		return
	}
	s.done = true
	s.run.events -= s.run.counter.Read() - s.start
}
