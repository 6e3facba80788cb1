// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command perfbench runs example benchmark suites and lists the counters
// they can be measured with.
//
//	perfbench run locality -i -c time,lpe:cycles,lpe:L1-dcache-load-misses
//	perfbench counters
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"acln.ro/perfbench"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "perfbench: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "perfbench",
		Short:         "Run micro-benchmarks against pluggable event counters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCountersCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cfg := perfbench.DefaultConfig()
	cmd := &cobra.Command{
		Use:       "run <suite>",
		Short:     "Run an example suite: " + strings.Join(suiteNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: suiteNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			build, ok := suites[args[0]]
			if !ok {
				return errors.Errorf("unknown suite %q, want one of %s", args[0], strings.Join(suiteNames(), ", "))
			}
			if err := cfg.Resolve(cmd.Flags()); err != nil {
				return err
			}
			cfg.Output = cmd.OutOrStdout()
			s := perfbench.New(cfg)
			build(s)
			return s.Run()
		},
	}
	cfg.RegisterFlags(cmd.Flags())
	return cmd
}

func newCountersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counters",
		Short: "List counter families and perf events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "families:")
			for _, name := range perfbench.DefaultRegistry.Families() {
				fmt.Fprintf(w, "  %s\n", name)
			}
			if events := perfbench.EventNames(); len(events) > 0 {
				fmt.Fprintln(w, "lpe events (also raw r<hex>):")
				for _, name := range events {
					fmt.Fprintf(w, "  lpe:%s\n", name)
				}
			}
			return nil
		},
	}
}

func suiteNames() []string {
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
