// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

// Package perfevent provides counting access to the Linux perf API.
// See man 2 perf_event_open.
//
// Only counting mode is supported: events are opened, enabled and
// disabled, and their counts are read. Sampling and the ring buffer are
// not part of this package.
package perfevent

import (
	"errors"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Special pid values for Open.
const (
	// CallingThread configures the event to measure the calling thread.
	CallingThread = 0

	// AllThreads configures the event to measure all threads on the
	// specified CPU.
	AllThreads = -1
)

// AnyCPU configures the specified process/thread to be measured on any CPU.
const AnyCPU = -1

// cloexec configures the event file descriptor to be opened in
// close-on-exec mode. It is set on every file descriptor.
const cloexec = unix.PERF_FLAG_FD_CLOEXEC

// Event states.
const (
	eventStateUninitialized = 0
	eventStateOK            = 1
	eventStateClosed        = 2
)

// An Event is an open counting event.
//
// Events measuring the CallingThread must be used from the goroutine
// that opened them, and that goroutine must be locked to its OS thread
// for as long as the Event is in use.
type Event struct {
	// state is the state of the event. See eventState* constants.
	state int32

	// fd is the event file descriptor.
	fd int

	// attr is the set of attributes the Event was configured with.
	// It is a clone of the original.
	attr *Attr
}

// Open opens the event configured by attr.
//
// The pid and cpu parameters specify which thread and CPU to monitor:
//
//   - if pid == CallingThread and cpu == AnyCPU, the event measures
//     the calling thread on any CPU
//   - if pid == CallingThread and cpu >= 0, the event measures
//     the calling thread only when running on the specified CPU
//   - if pid > 0 and cpu == AnyCPU, the event measures the specified
//     thread on any CPU
//   - if pid == AllThreads and cpu >= 0, the event measures all threads
//     on the specified CPU
//   - finally, the pid == AllThreads and cpu == AnyCPU setting is invalid
func Open(attr *Attr, pid, cpu int) (*Event, error) {
	if attr.CountFormat.Group {
		return nil, errors.New("perfevent: group count format is not supported")
	}
	fd, err := unix.PerfEventOpen(attr.sysAttr(), pid, cpu, -1, cloexec)
	if err != nil {
		return nil, os.NewSyscallError("perf_event_open", err)
	}
	attrClone := new(Attr)
	*attrClone = *attr // ok to copy since no slices
	return &Event{
		state: eventStateOK,
		fd:    fd,
		attr:  attrClone,
	}, nil
}

func (ev *Event) ok() error {
	if ev == nil {
		return os.ErrInvalid
	}
	switch ev.state {
	case eventStateUninitialized:
		return os.ErrInvalid
	case eventStateOK:
		return nil
	default: // eventStateClosed
		return os.ErrClosed
	}
}

// Enable enables the event.
func (ev *Event) Enable() error {
	if err := ev.ok(); err != nil {
		return err
	}
	return ioctlEnable(ev.fd)
}

// Disable disables the event.
func (ev *Event) Disable() error {
	if err := ev.ok(); err != nil {
		return err
	}
	return ioctlDisable(ev.fd)
}

// Reset resets the counters associated with the event.
func (ev *Event) Reset() error {
	if err := ev.ok(); err != nil {
		return err
	}
	return ioctlReset(ev.fd)
}

// Count is a measurement taken by an Event.
//
// The Value field is always present and populated.
//
// The TimeEnabled field is populated if CountFormat.TotalTimeEnabled is
// set on the Event the Count was read from. Ditto for TimeRunning and ID.
type Count struct {
	Value       uint64
	TimeEnabled time.Duration
	TimeRunning time.Duration
	ID          uint64
}

// ReadCount reads the measurement associated with ev. It decodes the
// kernel's answer from buf, which is reused between calls to keep reads
// free of allocations. A nil or short buf is replaced by a fresh one.
func (ev *Event) ReadCount(buf []byte) (Count, error) {
	var c Count
	if err := ev.ok(); err != nil {
		return c, err
	}
	size := ev.attr.CountFormat.readSize()
	if len(buf) < size {
		buf = make([]byte, size)
	}
	if _, err := unix.Read(ev.fd, buf[:size]); err != nil {
		return c, os.NewSyscallError("read", err)
	}
	f := fields(buf[:size])
	f.count(&c, ev.attr.CountFormat)
	return c, nil
}

// ReadSize returns the number of bytes ReadCount needs in its buffer.
func (ev *Event) ReadSize() int {
	return ev.attr.CountFormat.readSize()
}

// Close closes the event. Close must not be called concurrently with any
// other methods on the Event.
func (ev *Event) Close() error {
	if err := ev.ok(); err != nil {
		return err
	}
	ev.state = eventStateClosed
	return unix.Close(ev.fd)
}

// Attr configures a perf event.
type Attr struct {
	// Label is a human readable label for the event. It is not passed
	// to the kernel.
	Label string

	// Type is the major type of the event.
	Type EventType

	// Config is the type-specific event configuration.
	Config uint64

	// CountFormat specifies the format of counts read from the
	// Event using ReadCount. See the CountFormat documentation for
	// more details.
	CountFormat CountFormat

	// Options contains more fine grained event configuration.
	Options Options

	// Config1 is used for events that need an extra register or otherwise
	// do not fit in the regular config field.
	Config1 uint64

	// Config2 is a further extension of the Config1 field.
	Config2 uint64
}

func (a Attr) sysAttr() *unix.PerfEventAttr {
	return &unix.PerfEventAttr{
		Type:        uint32(a.Type),
		Size:        uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config:      a.Config,
		Read_format: a.CountFormat.marshal(),
		Bits:        a.Options.marshal(),
		Ext1:        a.Config1,
		Ext2:        a.Config2,
	}
}

// EventType is the overall type of a performance event.
type EventType uint32

// Supported event types.
const (
	HardwareEvent      EventType = unix.PERF_TYPE_HARDWARE
	SoftwareEvent      EventType = unix.PERF_TYPE_SOFTWARE
	TracepointEvent    EventType = unix.PERF_TYPE_TRACEPOINT
	HardwareCacheEvent EventType = unix.PERF_TYPE_HW_CACHE
	RawEvent           EventType = unix.PERF_TYPE_RAW
	BreakpointEvent    EventType = unix.PERF_TYPE_BREAKPOINT
)

// CountFormat configures the format of Count measurements.
//
// TotalTimeEnabled and TotalTimeRunning configure the Event to include time
// enabled and time running measurements to the counts. Usually, these two
// values are equal. They may differ when events are multiplexed.
//
// If ID is set, a unique ID is assigned to the associated event.
//
// Group is not supported by this package, and Open rejects it.
type CountFormat struct {
	TotalTimeEnabled bool
	TotalTimeRunning bool
	ID               bool
	Group            bool
}

func (f CountFormat) readSize() int {
	size := 8 // value is always set
	if f.TotalTimeEnabled {
		size += 8
	}
	if f.TotalTimeRunning {
		size += 8
	}
	if f.ID {
		size += 8
	}
	return size
}

// marshal marshals the CountFormat into a uint64.
func (f CountFormat) marshal() uint64 {
	// Always keep this in sync with the type definition above.
	fields := []bool{
		f.TotalTimeEnabled,
		f.TotalTimeRunning,
		f.ID,
		f.Group,
	}
	return marshalBitwiseUint64(fields)
}

// Options contains low level event options.
type Options struct {
	// Disabled disables the event by default.
	Disabled bool

	// Inherit specifies that this counter should count events of child
	// tasks as well as the specified task. This only applies to new
	// children, not to any existing children at the time the counter
	// is created (nor to any new children of existing children).
	Inherit bool

	// Pinned specifies that the counter should always be on the CPU if
	// possible. This bit applies only to hardware counters. If a pinned
	// counter cannot be put onto the CPU, then the counter goes into an
	// error state, where reads return EOF, until it is subsequently
	// enabled or disabled.
	Pinned bool

	// Exclusive specifies that when this counter is on the CPU, it
	// should be the only one using the CPUs counters.
	Exclusive bool

	// ExcludeUser excludes events that happen in user space.
	ExcludeUser bool

	// ExcludeKernel excludes events that happen in kernel space.
	ExcludeKernel bool

	// ExcludeHypervisor excludes events that happen in the hypervisor.
	ExcludeHypervisor bool

	// ExcludeIdle disables counting while the CPU is idle.
	ExcludeIdle bool
}

func (opt Options) marshal() uint64 {
	fields := []bool{
		opt.Disabled,
		opt.Inherit,
		opt.Pinned,
		opt.Exclusive,
		opt.ExcludeUser,
		opt.ExcludeKernel,
		opt.ExcludeHypervisor,
		opt.ExcludeIdle,
	}
	return marshalBitwiseUint64(fields)
}
