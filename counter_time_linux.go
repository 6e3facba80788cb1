// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perfbench

import "golang.org/x/sys/unix"

// monotonicNanos reads CLOCK_MONOTONIC directly, without the bookkeeping
// time.Now does for the wall clock. Every reading comes from that one
// clock; it cannot fail on Linux, so failure panics.
func monotonicNanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic("perfbench: clock_gettime(CLOCK_MONOTONIC): " + err.Error())
	}
	return ts.Nano()
}
