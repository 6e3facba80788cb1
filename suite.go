// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Errors returned by Suite.Run.
var (
	ErrMultipleBaselines = errors.New("perfbench: more than one baseline registered")
	ErrAssertionFailed   = errors.New("perfbench: assertions failed")
)

// A Suite is a set of benchmarks measured together.
type Suite struct {
	cfg        Config
	benchmarks []*Benchmark
	records    []Record
	log        *slog.Logger

	now func() time.Time
}

// New returns an empty suite configured by cfg.
func New(cfg Config) *Suite {
	return &Suite{
		cfg: cfg,
		log: cfg.logger(),
		now: time.Now,
	}
}

// Config returns a pointer to the suite's configuration. It may be
// modified until Run is called.
func (s *Suite) Config() *Config { return &s.cfg }

// Baseline registers the benchmark every other benchmark is compared to.
// A suite may have at most one baseline.
func (s *Suite) Baseline(name string, fn Func) *Benchmark {
	return s.add(&Benchmark{Name: name, Func: fn, IsBaseline: true})
}

// Benchmark registers a benchmark.
func (s *Suite) Benchmark(name string, fn Func) *Benchmark {
	return s.add(&Benchmark{Name: name, Func: fn})
}

func (s *Suite) add(b *Benchmark) *Benchmark {
	s.benchmarks = append(s.benchmarks, b)
	return b
}

// Benchmarks returns the registered benchmarks in registration order.
func (s *Suite) Benchmarks() []*Benchmark { return s.benchmarks }

// Records returns the results of the most recent Run, in the order they
// were reported.
func (s *Suite) Records() []Record { return s.records }

// A Pass is the measurement of every benchmark under one counter.
type Pass struct {
	// Counter is the counter the pass measures with.
	Counter *SelectedCounter

	// Baseline is the pass's baseline. It is nil if the suite has none.
	// Once the baseline has been measured, its Result is current.
	Baseline *Benchmark
}

// Run measures every benchmark under every configured counter, in turn,
// and reports the results.
//
// Configuration problems (an invalid Config, more than one baseline, a
// counter which cannot be resolved, created or activated) are returned
// before or instead of any measurement. A counter which fails mid-run
// ends the run, but the passes completed before it are still reported
// through Reporter.Finish. If any benchmark recorded a
// failure, Run measures everything and then returns an error wrapping
// ErrAssertionFailed.
func (s *Suite) Run() (err error) {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	s.log = s.cfg.logger()
	baseline, err := s.baseline()
	if err != nil {
		return err
	}
	tokens, err := ParseSpec(s.cfg.spec())
	if err != nil {
		return err
	}

	// Per-thread counters measure the thread which opened them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	set, err := s.cfg.registry().Open(tokens)
	if err != nil {
		return err
	}
	s.log.Debug("counters opened", "spec", strings.Join(tokens, ","))
	defer func() {
		if cerr := set.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.log.Debug("counters closed")
	}()

	s.records = nil
	rep := s.cfg.reporter()
	failed := make(map[string]bool)
	var failedNames []string
	for _, c := range set.Counters() {
		if err := s.pass(rep, c, baseline); err != nil {
			// Passes which completed are still reported.
			if ferr := rep.Finish(); ferr != nil {
				s.log.Debug("reporting partial results", "err", ferr)
			}
			return err
		}
		for _, b := range s.benchmarks {
			if b.Result.Failed && !failed[b.Name] {
				failed[b.Name] = true
				failedNames = append(failedNames, b.Name)
			}
		}
	}
	if err := rep.Finish(); err != nil {
		return errors.Wrap(err, "perfbench: reporting results")
	}
	if len(failedNames) > 0 {
		return errors.Wrapf(ErrAssertionFailed, "in %s", strings.Join(failedNames, ", "))
	}
	return nil
}

// baseline returns the registered baseline, or nil if there is none.
func (s *Suite) baseline() (*Benchmark, error) {
	var base *Benchmark
	for _, b := range s.benchmarks {
		if !b.IsBaseline {
			continue
		}
		if base != nil {
			return nil, errors.Wrapf(ErrMultipleBaselines, "%q and %q", base.Name, b.Name)
		}
		base = b
	}
	return base, nil
}

// pass measures every benchmark under c, baseline first.
func (s *Suite) pass(rep Reporter, c *SelectedCounter, baseline *Benchmark) error {
	p := &Pass{Counter: c, Baseline: baseline}
	if baseline != nil {
		baseline.Result = Result{}
		baseline.Failures = nil
	}

	if err := c.activate(); err != nil {
		return err
	}
	s.log.Debug("counter activated", "counter", c.Name)

	if baseline != nil {
		s.run(rep, p, baseline)
	}
	for _, b := range s.benchmarks {
		if b != baseline {
			s.run(rep, p, b)
		}
	}

	if err := c.deactivate(); err != nil {
		return err
	}
	s.log.Debug("counter deactivated", "counter", c.Name)
	return nil
}

// run measures b and reports it.
func (s *Suite) run(rep Reporter, p *Pass, b *Benchmark) {
	rep.Start(p, b)
	b.Result, b.Failures = s.measure(p.Counter, b)
	s.records = append(s.records, Record{
		Counter:   p.Counter.Name,
		Benchmark: b.Name,
		Result:    b.Result,
	})
	rep.Done(p, b)
}
