// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workload contains small deterministic workloads used by tests
// and by the example suites in cmd/perfbench.
package workload

import "math/rand"

// SumN computes the sum of integers from 1 to N.
//
//go:noinline
func SumN(N uint64) uint64 {
	var sum uint64
	for i := uint64(1); i <= N; i++ {
		sum += i
	}
	return sum
}

// Fill fills s with pseudo-random values drawn from a source seeded with
// seed, each less than len(s).
func Fill(s []uint32, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range s {
		s[i] = uint32(rng.Intn(len(s)))
	}
}

// Iota sets s[i] = i.
func Iota(s []uint32) {
	for i := range s {
		s[i] = uint32(i)
	}
}

// Sequential sums s front to back.
//
//go:noinline
func Sequential(s []uint32) uint32 {
	var res uint32
	for _, v := range s {
		res += v
	}
	return res
}

// Chase sums s in the order given by its own values, which must all be
// valid indices into s. For a random permutation this defeats the
// hardware prefetcher.
//
//go:noinline
func Chase(s []uint32) uint32 {
	var res uint32
	for i := range s {
		res += s[s[i]]
	}
	return res
}
