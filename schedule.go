// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"math/big"
	"time"
)

// measure runs b for the configured number of epochs under counter c and
// returns the best epoch, along with the distinct failure messages
// recorded in any epoch.
func (s *Suite) measure(c *SelectedCounter, b *Benchmark) (Result, []string) {
	budget := s.cfg.TimeLimit / time.Duration(s.cfg.Epochs)

	var (
		best     Result
		failures []string
		seen     = make(map[string]bool)
	)
	for epoch := 0; epoch < s.cfg.Epochs; epoch++ {
		r := &Run{counter: c.Counter, seed: s.cfg.Seed}
		s.epoch(r, b.Func, budget)

		res := Result{Iterations: r.iterations, Events: r.events}
		s.log.Debug("epoch done",
			"benchmark", b.Name,
			"counter", c.Name,
			"epoch", epoch,
			"events", r.events,
			"iterations", r.iterations,
			"trials", r.trials)

		for _, msg := range r.failures {
			if !seen[msg] {
				seen[msg] = true
				failures = append(failures, msg)
			}
		}
		if epoch == 0 || better(res, best) {
			best = res
		}
	}
	best.Failed = len(failures) > 0
	s.log.Debug("best epoch",
		"benchmark", b.Name,
		"counter", c.Name,
		"events", best.Events,
		"iterations", best.Iterations)
	return best, failures
}

// epoch runs trials of doubling size until the budget is spent or the
// next trial would take the run past the iteration ceiling. The trial
// which crosses the budget is counted in full.
func (s *Suite) epoch(r *Run, fn Func, budget time.Duration) {
	start := s.now()
	for n := int64(1); r.iterations+n <= s.cfg.MaxIterations; n *= 2 {
		before := r.counter.Read()
		fn(r, n)
		after := r.counter.Read()

		r.events += after - before
		r.iterations += n
		r.trials++

		if s.now().Sub(start) > budget {
			return
		}
	}
}

// better reports whether a has a strictly lower rate than b. Rates are
// compared by cross multiplication without overflow or rounding.
func better(a, b Result) bool {
	var lhs, rhs big.Int
	lhs.Mul(big.NewInt(a.Events), big.NewInt(b.Iterations))
	rhs.Mul(big.NewInt(b.Events), big.NewInt(a.Iterations))
	return lhs.Cmp(&rhs) < 0
}
