// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// A Reporter receives results as benchmarks are measured.
//
// Start is called before a benchmark is measured under a pass's counter,
// Done after. Finish is called once, after every pass.
type Reporter interface {
	Start(p *Pass, b *Benchmark)
	Done(p *Pass, b *Benchmark)
	Finish() error
}

// NewPlainReporter returns a Reporter which writes one machine readable
// line per result:
//
//	name<sep>counter<sep>iterations<sep>events
func NewPlainReporter(w io.Writer, sep string) Reporter {
	return &plainReporter{w: w, sep: sep}
}

type plainReporter struct {
	w   io.Writer
	sep string
	err error
}

func (pr *plainReporter) Start(*Pass, *Benchmark) {}

func (pr *plainReporter) Done(p *Pass, b *Benchmark) {
	if pr.err != nil {
		return
	}
	_, pr.err = fmt.Fprintf(pr.w, "%s%s%s%s%d%s%d\n",
		b.Name, pr.sep,
		p.Counter.Name, pr.sep,
		b.Result.Iterations, pr.sep,
		b.Result.Events)
}

func (pr *plainReporter) Finish() error { return pr.err }

// NewHumanReporter returns a Reporter which writes progress and results
// for a terminal, comparing every benchmark to the pass's baseline.
// Colors follow the terminal and environment of w.
func NewHumanReporter(w io.Writer) Reporter {
	return newHumanReporter(termenv.NewOutput(w))
}

func newHumanReporter(out *termenv.Output) *humanReporter {
	return &humanReporter{
		out:   out,
		red:   out.Color("1"),
		green: out.Color("2"),
	}
}

type humanReporter struct {
	out   *termenv.Output
	red   termenv.Color
	green termenv.Color
	err   error
}

func (hr *humanReporter) printf(format string, args ...interface{}) {
	if hr.err != nil {
		return
	}
	_, hr.err = fmt.Fprintf(hr.out, format, args...)
}

func (hr *humanReporter) Start(p *Pass, b *Benchmark) {
	hr.printf("[....] %-30s: %s", b.Name, p.Counter.Name)
}

func (hr *humanReporter) Done(p *Pass, b *Benchmark) {
	rate := b.Result.Rate()

	var (
		delta string
		color termenv.Color
	)
	switch {
	case p.Baseline == nil:
	case b == p.Baseline:
		delta = " (baseline)"
	default:
		base := p.Baseline.Result.Rate()
		switch {
		case base == 0:
			delta = " (n/a)"
		case rate <= base:
			delta = fmt.Sprintf(" (-%.3f%%)", 100-100*rate/base)
			color = hr.green
		default:
			delta = fmt.Sprintf(" (+%.3f%%)", 100*rate/base-100)
			color = hr.red
		}
	}

	tag := "DONE"
	tagColor := color
	if b.Result.Failed {
		tag = "FAIL"
		tagColor = hr.red
	}

	hr.printf("\r[%s] %-30s: %s : %f per iteration%s\n",
		hr.paint(tag, tagColor), b.Name, p.Counter.Name, rate, hr.paint(delta, color))
	for _, msg := range b.Failures {
		hr.printf("       %s\n", msg)
	}
}

func (hr *humanReporter) paint(s string, c termenv.Color) string {
	if c == nil || s == "" {
		return s
	}
	return hr.out.String(s).Foreground(c).String()
}

func (hr *humanReporter) Finish() error { return hr.err }
