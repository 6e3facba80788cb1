// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perfevent

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownEvent is returned by Lookup for names it does not recognize.
var ErrUnknownEvent = errors.New("perfevent: unknown event")

// A NamedCounter is a Configurator which also knows its perf(1) name.
type NamedCounter interface {
	Configurator
	Label() string
}

var named = map[string]NamedCounter{}

// aliases are the alternative spellings accepted by perf(1).
var aliases = map[string]string{
	"cpu-cycles":          "cycles",
	"branch-instructions": "branches",
	"faults":              "page-faults",
	"cs":                  "context-switches",
	"migrations":          "cpu-migrations",
}

func init() {
	for hwc := range hardwareLabels {
		named[hwc.Label()] = hwc
	}
	for swc := range softwareLabels {
		named[swc.Label()] = swc
	}
	for _, hwcc := range HardwareCacheCounters(AllCaches(), AllCacheOps(), AllCacheOpResults()) {
		named[hwcc.Label()] = hwcc
	}
}

// Lookup returns the counter known by the given perf(1) name, such as
// "cycles", "page-faults" or "L1-dcache-load-misses". Raw PMU events are
// written as "r" followed by the hexadecimal umask and event select, as
// in "r04A1".
func Lookup(name string) (NamedCounter, error) {
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	if c, ok := named[name]; ok {
		return c, nil
	}
	if rc, ok := parseRaw(name); ok {
		return rc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Names returns the sorted list of names Lookup understands, excluding
// aliases and raw events.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseRaw(name string) (RawCounter, bool) {
	if len(name) < 2 || name[0] != 'r' {
		return 0, false
	}
	config, err := strconv.ParseUint(strings.TrimPrefix(name[1:], "0x"), 16, 64)
	if err != nil {
		return 0, false
	}
	return RawCounter(config), true
}
