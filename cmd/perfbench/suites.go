// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math/rand"
	"slices"

	"acln.ro/perfbench"
	"acln.ro/perfbench/internal/workload"
)

// suites holds the example suites, by name.
var suites = map[string]func(s *perfbench.Suite){
	"basic":    basicSuite,
	"baseline": baselineSuite,
	"suspend":  suspendSuite,
	"calls":    callsSuite,
	"alloc":    allocSuite,
	"locality": localitySuite,
}

// Sinks keep benchmark results alive.
var (
	sink    uint64
	sink32  uint32
	ptrSink *[64]byte
)

func basicSuite(s *perfbench.Suite) {
	s.Benchmark("sum", func(r *perfbench.Run, n int64) {
		sink += workload.SumN(uint64(n))
	})
	s.Benchmark("sum_checked", func(r *perfbench.Run, n int64) {
		N := uint64(n)
		got := workload.SumN(N)
		r.Assert(got == N*(N+1)/2)
		sink += got
	})
}

// randomSums adds up num/den pseudo-random numbers per iteration. The
// baseline suite compares workloads which differ only in that ratio.
func randomSums(num, den int64) perfbench.Func {
	return func(r *perfbench.Run, n int64) {
		rng := rand.New(rand.NewSource(r.Seed()))
		var res int64
		for i := int64(0); i < n*num; i += den {
			res += rng.Int63()
		}
		sink += uint64(res)
	}
}

func baselineSuite(s *perfbench.Suite) {
	s.Baseline("basic", randomSums(1, 1))
	s.Benchmark("basic_half", randomSums(1, 2))
	s.Benchmark("basic_twice", randomSums(2, 1))
	s.Benchmark("basic_5x_more", randomSums(5, 1))
	s.Benchmark("basic_5x_less", randomSums(1, 5))
	s.Benchmark("basic_20_percent_more", randomSums(6, 5))
	s.Benchmark("basic_20_percent_less", randomSums(4, 5))
	s.Benchmark("basic_10_percent_more", randomSums(11, 10))
	s.Benchmark("basic_10_percent_less", randomSums(9, 10))
	s.Benchmark("basic_same", randomSums(1, 1))
}

const sortLen = 1 << 10

func suspendSuite(s *perfbench.Suite) {
	buf := make([]uint32, sortLen)
	s.Baseline("sort_with_setup", func(r *perfbench.Run, n int64) {
		for i := int64(0); i < n; i++ {
			workload.Fill(buf, r.Seed()+i)
			slices.Sort(buf)
		}
		sink32 += buf[0]
	})
	s.Benchmark("sort", func(r *perfbench.Run, n int64) {
		for i := int64(0); i < n; i++ {
			r.Suspended(func() { workload.Fill(buf, r.Seed()+i) })
			slices.Sort(buf)
		}
		sink32 += buf[0]
	})
}

type adder interface{ add(x uint64) uint64 }

type plusOne struct{}

//go:noinline
func (plusOne) add(x uint64) uint64 { return x + 1 }

//go:noinline
func addOne(x uint64) uint64 { return x + 1 }

func callsSuite(s *perfbench.Suite) {
	s.Baseline("inline", func(r *perfbench.Run, n int64) {
		x := sink
		for i := int64(0); i < n; i++ {
			x++
		}
		sink = x
	})
	s.Benchmark("direct", func(r *perfbench.Run, n int64) {
		x := sink
		for i := int64(0); i < n; i++ {
			x = addOne(x)
		}
		sink = x
	})
	var a adder = plusOne{}
	s.Benchmark("interface", func(r *perfbench.Run, n int64) {
		x := sink
		for i := int64(0); i < n; i++ {
			x = a.add(x)
		}
		sink = x
	})
	f := addOne
	s.Benchmark("closure", func(r *perfbench.Run, n int64) {
		x := sink
		for i := int64(0); i < n; i++ {
			x = f(x)
		}
		sink = x
	})
}

func allocSuite(s *perfbench.Suite) {
	s.Baseline("stack", func(r *perfbench.Run, n int64) {
		for i := int64(0); i < n; i++ {
			var b [64]byte
			b[i%64] = byte(i)
			sink += uint64(b[0])
		}
	})
	s.Benchmark("heap", func(r *perfbench.Run, n int64) {
		for i := int64(0); i < n; i++ {
			b := new([64]byte)
			b[i%64] = byte(i)
			ptrSink = b
		}
	})
}

const localityLen = 1 << 22

func localitySuite(s *perfbench.Suite) {
	var seq, random []uint32
	setup := func(r *perfbench.Run) {
		if seq != nil {
			return
		}
		r.Suspended(func() {
			seq = make([]uint32, localityLen)
			workload.Iota(seq)
			random = make([]uint32, localityLen)
			workload.Fill(random, r.Seed())
		})
	}
	s.Baseline("sequential", func(r *perfbench.Run, n int64) {
		setup(r)
		for i := int64(0); i < n; i++ {
			sink32 += workload.Chase(seq)
		}
	})
	s.Benchmark("random", func(r *perfbench.Run, n int64) {
		setup(r)
		for i := int64(0); i < n; i++ {
			sink32 += workload.Chase(random)
		}
	})
	s.Benchmark("scan", func(r *perfbench.Run, n int64) {
		setup(r)
		for i := int64(0); i < n; i++ {
			sink32 += workload.Sequential(random)
		}
	})
}
