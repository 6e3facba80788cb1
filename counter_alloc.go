// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"runtime/metrics"
	"strings"

	"github.com/pkg/errors"
)

// allocMetrics maps alloc sub-events to the cumulative runtime metric
// they read.
var allocMetrics = map[string]string{
	"bytes":   "/gc/heap/allocs:bytes",
	"objects": "/gc/heap/allocs:objects",
	"gc":      "/gc/cycles/total:gc-cycles",
}

func init() {
	DefaultRegistry.MustRegister(CounterType{Name: "alloc", Create: newAllocCounter})
}

// allocCounter counts Go heap activity: bytes or objects allocated, or
// completed GC cycles. The counts are process wide.
type allocCounter struct {
	sample []metrics.Sample
}

// newAllocCounter creates a counter for "alloc:bytes", "alloc:objects" or
// "alloc:gc". A bare "alloc" counts bytes.
func newAllocCounter(spec string) (Counter, error) {
	event := "bytes"
	if _, sub, ok := strings.Cut(spec, ":"); ok {
		event = sub
	}
	name, ok := allocMetrics[event]
	if !ok {
		return nil, errors.Errorf("unknown alloc event %q", event)
	}
	c := &allocCounter{sample: []metrics.Sample{{Name: name}}}
	metrics.Read(c.sample)
	if c.sample[0].Value.Kind() != metrics.KindUint64 {
		return nil, errors.Errorf("runtime metric %s is not supported", name)
	}
	return c, nil
}

func (c *allocCounter) Read() int64 {
	metrics.Read(c.sample)
	return int64(c.sample[0].Value.Uint64())
}
