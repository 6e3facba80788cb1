// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// NewMetricsReporter returns a Reporter which collects results as
// Prometheus gauges and writes them to w in the text exposition format
// once the suite is done. Every gauge is labelled with the benchmark and
// counter names.
//
//	perfbench_iterations                iterations of the best epoch
//	perfbench_events                    events of the best epoch
//	perfbench_events_per_iteration      the rate
//	perfbench_baseline_delta_percent    rate relative to the baseline's
//
// The delta is omitted for the baseline itself and when the baseline's
// rate is zero.
func NewMetricsReporter(w io.Writer) Reporter {
	labels := []string{"benchmark", "counter"}
	mr := &metricsReporter{
		w:   w,
		reg: prometheus.NewRegistry(),
		iterations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "perfbench",
			Name:      "iterations",
			Help:      "Iterations performed by the best epoch.",
		}, labels),
		events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "perfbench",
			Name:      "events",
			Help:      "Events counted during the best epoch.",
		}, labels),
		rate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "perfbench",
			Name:      "events_per_iteration",
			Help:      "Events per iteration of the best epoch.",
		}, labels),
		delta: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "perfbench",
			Name:      "baseline_delta_percent",
			Help:      "Events per iteration relative to the baseline, in percent.",
		}, labels),
	}
	mr.reg.MustRegister(mr.iterations, mr.events, mr.rate, mr.delta)
	return mr
}

type metricsReporter struct {
	w   io.Writer
	reg *prometheus.Registry

	iterations *prometheus.GaugeVec
	events     *prometheus.GaugeVec
	rate       *prometheus.GaugeVec
	delta      *prometheus.GaugeVec
}

func (mr *metricsReporter) Start(*Pass, *Benchmark) {}

func (mr *metricsReporter) Done(p *Pass, b *Benchmark) {
	labels := prometheus.Labels{"benchmark": b.Name, "counter": p.Counter.Name}
	rate := b.Result.Rate()
	mr.iterations.With(labels).Set(float64(b.Result.Iterations))
	mr.events.With(labels).Set(float64(b.Result.Events))
	mr.rate.With(labels).Set(rate)
	if p.Baseline == nil || b == p.Baseline {
		return
	}
	if base := p.Baseline.Result.Rate(); base != 0 {
		mr.delta.With(labels).Set(100*rate/base - 100)
	}
}

func (mr *metricsReporter) Finish() error {
	families, err := mr.reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(mr.w, mf); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}
	return nil
}
