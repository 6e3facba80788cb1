// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"runtime"
	"strings"
	"testing"
)

// Stopper implements the Stop() method.
type Stopper func()

// Stop calls the given stopper.
func (s Stopper) Stop() { s() }

// Measure counts events for a standard testing.B benchmark, using the
// counters named by spec and resolved by DefaultRegistry. Stop reports
// every counter's events per operation through b.ReportMetric, under the
// unit "<counter>/op".
//
//	func BenchmarkMultiply(b *testing.B) {
//		defer perfbench.Measure(b, "lpe:instructions,lpe:cycles").Stop()
//		for i := 0; i < b.N; i++ {
//			v += 10 * x
//		}
//	}
//
// The calling goroutine is locked to its OS thread until Stop.
func Measure(b *testing.B, spec string) Stopper {
	tokens, err := ParseSpec(spec)
	if err != nil {
		b.Fatal(err)
	}

	runtime.LockOSThread()
	set, err := DefaultRegistry.Open(tokens)
	if err != nil {
		runtime.UnlockOSThread()
		b.Fatal(err)
	}
	counters := set.Counters()
	start := make([]int64, len(counters))
	for i, c := range counters {
		if err := c.activate(); err != nil {
			set.Close()
			runtime.UnlockOSThread()
			b.Fatal(err)
		}
		start[i] = c.Read()
	}

	return Stopper(func() {
		defer runtime.UnlockOSThread()
		defer set.Close()

		for i, c := range counters {
			delta := c.Read() - start[i]
			if err := c.deactivate(); err != nil {
				b.Fatal(err)
			}
			unit := strings.ReplaceAll(c.Name, " ", "_") + "/op"
			b.ReportMetric(float64(delta)/float64(b.N), unit)
		}
	})
}
