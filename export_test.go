// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"io"
	"time"
)

// SetClock replaces the clock the scheduler uses to enforce budgets.
func (s *Suite) SetClock(now func() time.Time) { s.now = now }

// MainArgs is Main without os.Exit.
func (s *Suite) MainArgs(args []string, stderr io.Writer) int {
	return s.main("perfbench", args, stderr)
}

var Better = better
