// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfbench runs micro-benchmarks against pluggable event counters.
//
// A benchmark is a function which performs n units of work. The engine
// calls it with exponentially growing n until a time budget is spent,
// divides the events the active counter saw by the iterations performed,
// and keeps the best of several such epochs. Counters can measure wall
// time, CPU performance events through perf_event_open(2), Go allocator
// activity, resource usage, or anything a user registers.
//
// A typical program:
//
//	func main() {
//		s := perfbench.New(perfbench.DefaultConfig())
//		s.Baseline("sequential", func(r *perfbench.Run, n int64) {
//			...
//		})
//		s.Benchmark("random", func(r *perfbench.Run, n int64) {
//			...
//		})
//		s.Main()
//	}
//
// Run it with -c time,lpe:cycles,lpe:L1-dcache-load-misses to measure
// every benchmark under each of the three counters in turn.
package perfbench

// Func is a benchmark body. It must perform exactly n units of work.
//
// Results computed by the body must be kept alive, for example by storing
// them in a package level variable, or the compiler may remove the work.
type Func func(r *Run, n int64)

// A Benchmark is a named benchmark registered on a Suite.
type Benchmark struct {
	// Name is the name results are reported under.
	Name string

	// Func is the benchmark body.
	Func Func

	// IsBaseline marks the benchmark every other benchmark is compared to.
	IsBaseline bool

	// Result is the best epoch of the most recent measurement.
	Result Result

	// Failures holds the failure messages recorded by the body during the
	// most recent measurement, if any.
	Failures []string
}

// Result is the outcome of measuring a benchmark under one counter.
type Result struct {
	Iterations int64
	Events     int64
	Failed     bool
}

// Rate returns the number of events per iteration. It returns 0 if no
// iterations were performed.
func (res Result) Rate() float64 {
	if res.Iterations == 0 {
		return 0
	}
	return float64(res.Events) / float64(res.Iterations)
}

// A Record is the result of one benchmark under one counter.
type Record struct {
	Counter   string
	Benchmark string
	Result
}
