// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import "time"

// clockBase anchors the portable monotonic clock.
var clockBase = time.Now()

func init() {
	DefaultRegistry.MustRegister(Stateless("time", monotonicNanos))
}

// sinceClockBase reads Go's monotonic clock, in nanoseconds.
func sinceClockBase() int64 {
	return int64(time.Since(clockBase))
}
