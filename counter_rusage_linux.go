// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perfbench

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// rusageFields maps rusage sub-events to the field of struct rusage they
// read. Times are in nanoseconds.
var rusageFields = map[string]func(ru *unix.Rusage) int64{
	"utime":  func(ru *unix.Rusage) int64 { return ru.Utime.Nano() },
	"stime":  func(ru *unix.Rusage) int64 { return ru.Stime.Nano() },
	"minflt": func(ru *unix.Rusage) int64 { return int64(ru.Minflt) },
	"majflt": func(ru *unix.Rusage) int64 { return int64(ru.Majflt) },
	"nvcsw":  func(ru *unix.Rusage) int64 { return int64(ru.Nvcsw) },
	"nivcsw": func(ru *unix.Rusage) int64 { return int64(ru.Nivcsw) },
}

func init() {
	DefaultRegistry.MustRegister(CounterType{Name: "rusage", Create: newRusageCounter})
}

// rusageCounter reads one field of getrusage(RUSAGE_THREAD).
type rusageCounter struct {
	field     func(ru *unix.Rusage) int64
	getrusage func(who int, ru *unix.Rusage) error
	ru        unix.Rusage
	err       error
}

// newRusageCounter creates a counter for "rusage:<field>", where field
// is one of utime, stime, minflt, majflt, nvcsw or nivcsw.
func newRusageCounter(spec string) (Counter, error) {
	_, name, _ := strings.Cut(spec, ":")
	field, ok := rusageFields[name]
	if !ok {
		return nil, errors.Errorf("unknown rusage field %q", name)
	}
	c := &rusageCounter{field: field, getrusage: unix.Getrusage}
	if err := c.getrusage(unix.RUSAGE_THREAD, &c.ru); err != nil {
		return nil, errors.Wrap(err, "getrusage")
	}
	return c, nil
}

// Read samples the calling thread. If getrusage fails, the previous
// sample is reported again and the first error is kept for Deactivate.
func (c *rusageCounter) Read() int64 {
	var ru unix.Rusage
	if err := c.getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
		if c.err == nil {
			c.err = errors.Wrap(err, "getrusage")
		}
		return c.field(&c.ru)
	}
	c.ru = ru
	return c.field(&c.ru)
}

// Deactivate reports the first error Read encountered during the pass,
// and clears it.
func (c *rusageCounter) Deactivate() error {
	err := c.err
	c.err = nil
	return err
}
