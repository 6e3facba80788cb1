// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acln.ro/perfbench"
)

func TestSuiteMultipleBaselines(t *testing.T) {
	c := new(tally)
	out := new(bytes.Buffer)
	s := newTestSuite(t, c, out)

	ran := false
	body := func(r *perfbench.Run, n int64) { ran = true }
	s.Baseline("first", body)
	s.Benchmark("peer", body)
	s.Baseline("second", body)

	err := s.Run()
	require.ErrorIs(t, err, perfbench.ErrMultipleBaselines)
	assert.Contains(t, err.Error(), `"first"`)
	assert.Contains(t, err.Error(), `"second"`)
	assert.False(t, ran)
	assert.Zero(t, c.reads)
	assert.Empty(t, out.String())
}

func TestSuiteUnknownCounter(t *testing.T) {
	out := new(bytes.Buffer)
	s := newTestSuite(t, new(tally), out)
	s.Config().Counters = "tally,bogus_family"

	ran := false
	s.Benchmark("b", func(r *perfbench.Run, n int64) { ran = true })

	err := s.Run()
	require.ErrorIs(t, err, perfbench.ErrUnknownCounter)
	assert.Contains(t, err.Error(), "bogus_family")
	assert.False(t, ran)
	assert.Empty(t, out.String())
}

func TestSuiteInvalidConfig(t *testing.T) {
	s := newTestSuite(t, new(tally), new(bytes.Buffer))
	s.Config().Epochs = 0
	s.Benchmark("b", func(r *perfbench.Run, n int64) {
		t.Fatal("benchmark ran with an invalid configuration")
	})
	require.ErrorIs(t, s.Run(), perfbench.ErrInvalidConfig)
}

func TestSuiteBaselineRunsFirst(t *testing.T) {
	c := new(tally)
	out := new(bytes.Buffer)
	s := newTestSuite(t, c, out)
	reg := s.Config().Registry
	require.NoError(t, reg.Register(perfbench.Stateless("other", func() int64 { return c.value })))
	s.Config().Counters = "tally, other"

	s.Benchmark("a", work(c, 1))
	s.Baseline("base", work(c, 1))
	s.Benchmark("c", work(c, 1))
	require.NoError(t, s.Run())

	want := []string{
		"tally/base", "tally/a", "tally/c",
		"other/base", "other/a", "other/c",
	}
	assert.Equal(t, want, recordNames(s))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "base,tally,15,15", lines[0])
	assert.Equal(t, "c,other,15,15", lines[5])
}

func TestSuiteNoBaseline(t *testing.T) {
	c := new(tally)
	out := new(bytes.Buffer)
	s := newTestSuite(t, c, out)
	s.Config().Interactive = true
	s.Benchmark("x", work(c, 3))
	s.Benchmark("y", work(c, 4))
	require.NoError(t, s.Run())

	assert.Equal(t, []string{"tally/x", "tally/y"}, recordNames(s))
	assert.NotContains(t, out.String(), "baseline")
	assert.NotContains(t, out.String(), "%")
}

func TestSuitePerfectCounter(t *testing.T) {
	c := new(tally)
	out := new(bytes.Buffer)
	s := newTestSuite(t, c, out)
	s.Config().Interactive = true
	s.Baseline("single", work(c, 1))
	s.Benchmark("double", work(c, 2))
	s.Benchmark("half", work(c, 0))
	require.NoError(t, s.Run())

	assert.Equal(t, 1.0, record(t, s, "tally", "single").Rate())
	assert.Equal(t, 2.0, record(t, s, "tally", "double").Rate())

	got := out.String()
	assert.Contains(t, got, "[DONE] single                        : tally : 1.000000 per iteration (baseline)\n")
	assert.Contains(t, got, "[DONE] double                        : tally : 2.000000 per iteration (+100.000%)\n")
	assert.Contains(t, got, "[DONE] half                          : tally : 0.000000 per iteration (-100.000%)\n")
}

func TestSuiteRealTime(t *testing.T) {
	cfg := perfbench.DefaultConfig()
	cfg.TimeLimit = 30 * time.Millisecond
	cfg.Output = new(bytes.Buffer)

	s := perfbench.New(cfg)
	var sink int64
	s.Baseline("loop", func(r *perfbench.Run, n int64) {
		for i := int64(0); i < n; i++ {
			sink += i
		}
	})
	require.NoError(t, s.Run())

	rec := record(t, s, "time", "loop")
	assert.Positive(t, rec.Iterations)
	assert.GreaterOrEqual(t, rec.Events, int64(0))
	_ = sink
}

// lifecycle is a counter which logs the calls it receives.
type lifecycle struct {
	name string
	log  *[]string
	fail string
}

func (l *lifecycle) Read() int64 { return 0 }

func (l *lifecycle) event(what string) error {
	*l.log = append(*l.log, what+" "+l.name)
	if l.fail == what {
		return errors.New(what + " failed")
	}
	return nil
}

func (l *lifecycle) Activate() error   { return l.event("activate") }
func (l *lifecycle) Deactivate() error { return l.event("deactivate") }
func (l *lifecycle) Close() error      { return l.event("close") }

func lifecycleSuite(t *testing.T, log *[]string, failures map[string]string) *perfbench.Suite {
	t.Helper()

	reg := new(perfbench.Registry)
	require.NoError(t, reg.Register(perfbench.CounterType{
		Name: "life",
		Create: func(spec string) (perfbench.Counter, error) {
			*log = append(*log, "create "+spec)
			if failures[spec] == "create" {
				return nil, errors.New("no such hardware")
			}
			return &lifecycle{name: spec, log: log, fail: failures[spec]}, nil
		},
	}))
	cfg := perfbench.DefaultConfig()
	cfg.Registry = reg
	cfg.Counters = "life:x,life:y"
	cfg.Epochs = 1
	cfg.Output = new(bytes.Buffer)

	s := perfbench.New(cfg)
	s.SetClock(stepClock(time.Hour))
	s.Benchmark("b", func(r *perfbench.Run, n int64) {
		*log = append(*log, "run")
	})
	return s
}

func TestSuiteCounterLifecycle(t *testing.T) {
	var log []string
	s := lifecycleSuite(t, &log, nil)
	require.NoError(t, s.Run())

	want := []string{
		"create life:x", "create life:y",
		"activate life:x", "run", "deactivate life:x",
		"activate life:y", "run", "deactivate life:y",
		"close life:x", "close life:y",
	}
	assert.Equal(t, want, log)
}

func TestSuiteCreateFailure(t *testing.T) {
	var log []string
	s := lifecycleSuite(t, &log, map[string]string{"life:y": "create"})

	err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"life:y"`)
	assert.Contains(t, err.Error(), "no such hardware")
	assert.Equal(t, []string{"create life:x", "create life:y", "close life:x"}, log)
}

func TestSuiteActivateFailure(t *testing.T) {
	var log []string
	s := lifecycleSuite(t, &log, map[string]string{"life:y": "activate"})

	err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `activating counter "life:y"`)
	want := []string{
		"create life:x", "create life:y",
		"activate life:x", "run", "deactivate life:x",
		"activate life:y",
		"close life:x", "close life:y",
	}
	assert.Equal(t, want, log)
}

func TestSuiteActivateFailureReportsCompletedPasses(t *testing.T) {
	var log []string
	s := lifecycleSuite(t, &log, map[string]string{"life:y": "activate"})
	out := new(bytes.Buffer)
	s.Config().Output = out
	s.Config().Format = perfbench.FormatMetrics

	err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `activating counter "life:y"`)
	assert.Contains(t, out.String(), `perfbench_iterations{benchmark="b",counter="life:x"}`)
	assert.NotContains(t, out.String(), `counter="life:y"`)
}
