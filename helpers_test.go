// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"acln.ro/perfbench"
)

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

// frozenClock never advances, so only the iteration ceiling ends an epoch.
func frozenClock() time.Time { return time.Unix(0, 0) }

// tally is a counter benchmarks drive by hand. It counts its reads.
type tally struct {
	value int64
	reads int
}

func (t *tally) Read() int64 {
	t.reads++
	return t.value
}

// testConfig returns a configuration measuring with the single counter
// "tally", a one second budget per epoch and plaintext output into out.
//
// Combined with stepClock(300 * time.Millisecond), every epoch runs
// exactly four trials: 1+2+4+8 = 15 iterations.
func testConfig(t *testing.T, c perfbench.Counter, out *bytes.Buffer) perfbench.Config {
	t.Helper()

	reg := new(perfbench.Registry)
	require.NoError(t, reg.Register(perfbench.CounterType{
		Name:   "tally",
		Create: func(string) (perfbench.Counter, error) { return c, nil },
	}))

	cfg := perfbench.DefaultConfig()
	cfg.Counters = "tally"
	cfg.Registry = reg
	cfg.TimeLimit = 3 * time.Second
	cfg.Epochs = 3
	cfg.Output = out
	return cfg
}

// newTestSuite returns a suite built from testConfig, on a step clock.
func newTestSuite(t *testing.T, c perfbench.Counter, out *bytes.Buffer) *perfbench.Suite {
	t.Helper()

	s := perfbench.New(testConfig(t, c, out))
	s.SetClock(stepClock(300 * time.Millisecond))
	return s
}

// work returns a benchmark body adding cost events per iteration to c.
func work(c *tally, cost int64) perfbench.Func {
	return func(r *perfbench.Run, n int64) {
		c.value += cost * n
	}
}

// record finds the record of the named benchmark under the named counter.
func record(t *testing.T, s *perfbench.Suite, counter, benchmark string) perfbench.Record {
	t.Helper()

	for _, rec := range s.Records() {
		if rec.Counter == counter && rec.Benchmark == benchmark {
			return rec
		}
	}
	t.Fatalf("no record for %s under %s", benchmark, counter)
	return perfbench.Record{}
}

func recordNames(s *perfbench.Suite) []string {
	var names []string
	for _, rec := range s.Records() {
		names = append(names, fmt.Sprintf("%s/%s", rec.Counter, rec.Benchmark))
	}
	return names
}
