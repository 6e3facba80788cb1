// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

// A Counter is a source of a measurable integer quantity: time, hardware
// events, allocated bytes, or anything else a benchmark author cares about.
//
// Read must be cheap, and the difference between two reads taken within one
// activation must be meaningful. Counters are only ever used from a single
// goroutine, locked to its OS thread.
type Counter interface {
	Read() int64
}

// An Activator is a Counter which must be armed before use. Activate is
// called immediately before the benchmarks of the counter's pass run.
// Hardware counter banks may support a single configuration at a time, so
// at most one counter is active at any moment.
type Activator interface {
	Activate() error
}

// A Deactivator is a Counter which can be disarmed once its pass is over.
type Deactivator interface {
	Deactivate() error
}

// A CounterType describes a family of counters, such as "time" or "lpe".
type CounterType struct {
	// Name is the family name, as written in counter specifications.
	Name string

	// Create builds a Counter from a full specification token, such as
	// "lpe:cycles". Family specific parsing of the part after the colon
	// is Create's job. If the returned Counter implements io.Closer, it
	// is closed when the suite is done with it.
	Create func(spec string) (Counter, error)
}

// CounterFunc adapts an ordinary function to the Counter interface.
type CounterFunc func() int64

// Read calls f.
func (f CounterFunc) Read() int64 { return f() }

// Stateless returns a CounterType for a family which has no state and
// no sub-events. Every specification naming the family reads from read.
func Stateless(name string, read func() int64) CounterType {
	return CounterType{
		Name: name,
		Create: func(string) (Counter, error) {
			return CounterFunc(read), nil
		},
	}
}
