// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perfevent

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// A Configurator configures event attributes. Implementations should only
// set the fields they need.
type Configurator interface {
	Configure(attr *Attr) error
}

// HardwareCounter is a hardware performance counter.
type HardwareCounter uint64

// Hardware performance counters.
const (
	CPUCycles             HardwareCounter = unix.PERF_COUNT_HW_CPU_CYCLES
	Instructions          HardwareCounter = unix.PERF_COUNT_HW_INSTRUCTIONS
	CacheReferences       HardwareCounter = unix.PERF_COUNT_HW_CACHE_REFERENCES
	CacheMisses           HardwareCounter = unix.PERF_COUNT_HW_CACHE_MISSES
	BranchInstructions    HardwareCounter = unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS
	BranchMisses          HardwareCounter = unix.PERF_COUNT_HW_BRANCH_MISSES
	BusCycles             HardwareCounter = unix.PERF_COUNT_HW_BUS_CYCLES
	StalledCyclesFrontend HardwareCounter = unix.PERF_COUNT_HW_STALLED_CYCLES_FRONTEND
	StalledCyclesBackend  HardwareCounter = unix.PERF_COUNT_HW_STALLED_CYCLES_BACKEND
	RefCPUCycles          HardwareCounter = unix.PERF_COUNT_HW_REF_CPU_CYCLES
)

var hardwareLabels = map[HardwareCounter]string{
	CPUCycles:             "cycles",
	Instructions:          "instructions",
	CacheReferences:       "cache-references",
	CacheMisses:           "cache-misses",
	BranchInstructions:    "branches",
	BranchMisses:          "branch-misses",
	BusCycles:             "bus-cycles",
	StalledCyclesFrontend: "stalled-cycles-frontend",
	StalledCyclesBackend:  "stalled-cycles-backend",
	RefCPUCycles:          "ref-cycles",
}

// Label returns the name perf(1) uses for the counter.
func (hwc HardwareCounter) Label() string {
	if l, ok := hardwareLabels[hwc]; ok {
		return l
	}
	return fmt.Sprintf("hardware:%d", uint64(hwc))
}

// Configure configures attr to measure hwc. It sets the Label, Type, and
// Config fields on attr.
func (hwc HardwareCounter) Configure(attr *Attr) error {
	attr.Label = hwc.Label()
	attr.Type = HardwareEvent
	attr.Config = uint64(hwc)
	return nil
}

// SoftwareCounter is a software performance counter.
type SoftwareCounter uint64

// Software performance counters.
const (
	CPUClock        SoftwareCounter = unix.PERF_COUNT_SW_CPU_CLOCK
	TaskClock       SoftwareCounter = unix.PERF_COUNT_SW_TASK_CLOCK
	PageFaults      SoftwareCounter = unix.PERF_COUNT_SW_PAGE_FAULTS
	ContextSwitches SoftwareCounter = unix.PERF_COUNT_SW_CONTEXT_SWITCHES
	CPUMigrations   SoftwareCounter = unix.PERF_COUNT_SW_CPU_MIGRATIONS
	MinorPageFaults SoftwareCounter = unix.PERF_COUNT_SW_PAGE_FAULTS_MIN
	MajorPageFaults SoftwareCounter = unix.PERF_COUNT_SW_PAGE_FAULTS_MAJ
	AlignmentFaults SoftwareCounter = unix.PERF_COUNT_SW_ALIGNMENT_FAULTS
	EmulationFaults SoftwareCounter = unix.PERF_COUNT_SW_EMULATION_FAULTS
)

var softwareLabels = map[SoftwareCounter]string{
	CPUClock:        "cpu-clock",
	TaskClock:       "task-clock",
	PageFaults:      "page-faults",
	ContextSwitches: "context-switches",
	CPUMigrations:   "cpu-migrations",
	MinorPageFaults: "minor-faults",
	MajorPageFaults: "major-faults",
	AlignmentFaults: "alignment-faults",
	EmulationFaults: "emulation-faults",
}

// Label returns the name perf(1) uses for the counter.
func (swc SoftwareCounter) Label() string {
	if l, ok := softwareLabels[swc]; ok {
		return l
	}
	return fmt.Sprintf("software:%d", uint64(swc))
}

// Configure configures attr to measure swc. It sets the Label, Type, and
// Config fields on attr.
func (swc SoftwareCounter) Configure(attr *Attr) error {
	attr.Label = swc.Label()
	attr.Type = SoftwareEvent
	attr.Config = uint64(swc)
	return nil
}

// Cache identifies a cache.
type Cache uint64

// Caches.
const (
	L1D  Cache = unix.PERF_COUNT_HW_CACHE_L1D
	L1I  Cache = unix.PERF_COUNT_HW_CACHE_L1I
	LL   Cache = unix.PERF_COUNT_HW_CACHE_LL
	DTLB Cache = unix.PERF_COUNT_HW_CACHE_DTLB
	ITLB Cache = unix.PERF_COUNT_HW_CACHE_ITLB
	BPU  Cache = unix.PERF_COUNT_HW_CACHE_BPU
	NODE Cache = unix.PERF_COUNT_HW_CACHE_NODE
)

// AllCaches returns a slice of all known cache types.
func AllCaches() []Cache {
	return []Cache{L1D, L1I, LL, DTLB, ITLB, BPU, NODE}
}

var cacheLabels = map[Cache]string{
	L1D:  "L1-dcache",
	L1I:  "L1-icache",
	LL:   "LLC",
	DTLB: "dTLB",
	ITLB: "iTLB",
	BPU:  "branch",
	NODE: "node",
}

// CacheOp is a cache operation.
type CacheOp uint64

// Cache operations.
const (
	Read     CacheOp = unix.PERF_COUNT_HW_CACHE_OP_READ
	Write    CacheOp = unix.PERF_COUNT_HW_CACHE_OP_WRITE
	Prefetch CacheOp = unix.PERF_COUNT_HW_CACHE_OP_PREFETCH
)

// AllCacheOps returns a slice of all known cache operations.
func AllCacheOps() []CacheOp {
	return []CacheOp{Read, Write, Prefetch}
}

// cacheOpLabels holds the singular and plural perf(1) spelling of each
// cache operation: "L1-dcache-load-misses", but "L1-dcache-loads".
var cacheOpLabels = map[CacheOp][2]string{
	Read:     {"load", "loads"},
	Write:    {"store", "stores"},
	Prefetch: {"prefetch", "prefetches"},
}

// CacheOpResult is the result of a cache operation.
type CacheOpResult uint64

// Cache operation results.
const (
	Access CacheOpResult = unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS
	Miss   CacheOpResult = unix.PERF_COUNT_HW_CACHE_RESULT_MISS
)

// AllCacheOpResults returns a slice of all known cache operation results.
func AllCacheOpResults() []CacheOpResult {
	return []CacheOpResult{Access, Miss}
}

// A HardwareCacheCounter groups a cache, a cache operation, and an operation
// result.
type HardwareCacheCounter struct {
	Cache  Cache
	Op     CacheOp
	Result CacheOpResult
}

// Label returns the name perf(1) uses for the counter.
func (hwcc HardwareCacheCounter) Label() string {
	op := cacheOpLabels[hwcc.Op]
	if hwcc.Result == Miss {
		return cacheLabels[hwcc.Cache] + "-" + op[0] + "-misses"
	}
	return cacheLabels[hwcc.Cache] + "-" + op[1]
}

// Configure configures attr to measure hwcc. It sets the Label, Type, and
// Config fields on attr.
func (hwcc HardwareCacheCounter) Configure(attr *Attr) error {
	attr.Label = hwcc.Label()
	attr.Type = HardwareCacheEvent
	attr.Config = uint64(hwcc.Cache) | uint64(hwcc.Op<<8) | uint64(hwcc.Result<<16)
	return nil
}

// HardwareCacheCounters returns cache counters which measure the cartesian
// product of the specified caches, operations and results.
func HardwareCacheCounters(caches []Cache, ops []CacheOp, results []CacheOpResult) []HardwareCacheCounter {
	counters := make([]HardwareCacheCounter, 0, len(caches)*len(ops)*len(results))
	for _, cache := range caches {
		for _, op := range ops {
			for _, result := range results {
				c := HardwareCacheCounter{
					Cache:  cache,
					Op:     op,
					Result: result,
				}
				counters = append(counters, c)
			}
		}
	}
	return counters
}

// RawCounter is a model specific PMU event, encoded as in perf(1)'s
// r<hex> syntax: umask in bits 8-15, event select in bits 0-7.
type RawCounter uint64

// Label returns the perf(1) spelling of the raw event.
func (rc RawCounter) Label() string {
	return "r" + strings.ToUpper(strconv.FormatUint(uint64(rc), 16))
}

// Configure configures attr to measure rc. It sets the Label, Type, and
// Config fields on attr.
func (rc RawCounter) Configure(attr *Attr) error {
	attr.Label = rc.Label()
	attr.Type = RawEvent
	attr.Config = uint64(rc)
	return nil
}

// Supported returns a boolean indicating whether the host kernel supports
// the perf_event_open system call, which is a prerequisite for the
// functionality of this package.
func Supported() bool {
	_, err := os.Stat("/proc/sys/kernel/perf_event_paranoid")
	return err == nil
}
