// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package perfbench

// EventNames returns the event names the lpe counter family accepts. The
// family is only available on Linux.
func EventNames() []string { return nil }
