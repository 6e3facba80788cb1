// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Main configures the suite from the command line, runs it, and exits.
//
// The exit status is 0 on success, 1 if the configuration is invalid or
// a benchmark failed, and 2 if the command line cannot be parsed. -h
// prints usage and exits 0.
func (s *Suite) Main() {
	os.Exit(s.main(filepath.Base(os.Args[0]), os.Args[1:], os.Stderr))
}

func (s *Suite) main(name string, args []string, stderr io.Writer) int {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	s.cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		fmt.Fprintf(stderr, "Usage of %s:\n%s", name, fs.FlagUsages())
		return 2
	}
	if err := s.cfg.Resolve(fs); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return 1
	}
	if err := s.Run(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return 1
	}
	return 0
}
