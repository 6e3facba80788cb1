// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acln.ro/perfbench"
)

func TestDefaultConfig(t *testing.T) {
	cfg := perfbench.DefaultConfig()
	assert.Equal(t, "time", cfg.DefaultCounter)
	assert.Equal(t, time.Second, cfg.TimeLimit)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, int64(1)<<31, cfg.MaxIterations)
	assert.Equal(t, perfbench.FormatPlain, cfg.Format)
	assert.Equal(t, ",", cfg.Separator)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFlags(t *testing.T) {
	cfg := perfbench.DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	args := []string{
		"-c", "time,lpe:cycles",
		"-t", "5s",
		"-e", "7",
		"-i",
		"-d", "\t",
		"-s", "99",
		"--max-iterations", "1024",
		"-v",
	}
	require.NoError(t, fs.Parse(args))
	require.NoError(t, cfg.Resolve(fs))

	assert.Equal(t, "time,lpe:cycles", cfg.Counters)
	assert.Equal(t, 5*time.Second, cfg.TimeLimit)
	assert.Equal(t, 7, cfg.Epochs)
	assert.True(t, cfg.Interactive)
	assert.Equal(t, "\t", cfg.Separator)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, int64(1024), cfg.MaxIterations)
	assert.True(t, cfg.Verbose)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *perfbench.Config)
	}{
		{"zero epochs", func(cfg *perfbench.Config) { cfg.Epochs = 0 }},
		{"zero time", func(cfg *perfbench.Config) { cfg.TimeLimit = 0 }},
		{"negative time", func(cfg *perfbench.Config) { cfg.TimeLimit = -time.Second }},
		{"zero ceiling", func(cfg *perfbench.Config) { cfg.MaxIterations = 0 }},
		{"huge ceiling", func(cfg *perfbench.Config) { cfg.MaxIterations = 1<<62 + 1 }},
		{"unknown format", func(cfg *perfbench.Config) { cfg.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := perfbench.DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), perfbench.ErrInvalidConfig)
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "perfbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigFile(t *testing.T) {
	path := writeConfig(t, `
counters: alloc:bytes
time: 250ms
epochs: 5
format: metrics
seed: 7
`)
	cfg := perfbench.DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "-e", "2"}))
	require.NoError(t, cfg.Resolve(fs))

	assert.Equal(t, "alloc:bytes", cfg.Counters)
	assert.Equal(t, 250*time.Millisecond, cfg.TimeLimit)
	assert.Equal(t, 2, cfg.Epochs, "flags take precedence over the file")
	assert.Equal(t, perfbench.FormatMetrics, cfg.Format)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, ",", cfg.Separator, "fields absent from the file keep their values")
}

func TestConfigFileErrors(t *testing.T) {
	cfg := perfbench.DefaultConfig()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	cfg = perfbench.DefaultConfig()
	assert.Error(t, cfg.LoadFile(writeConfig(t, "epochz: 3\n")), "unknown field")

	cfg = perfbench.DefaultConfig()
	cfg.ConfigFile = writeConfig(t, "epochs: 0\n")
	assert.ErrorIs(t, cfg.Resolve(nil), perfbench.ErrInvalidConfig)
}

func TestMainExitCodes(t *testing.T) {
	newSuite := func(out *bytes.Buffer) *perfbench.Suite {
		cfg := perfbench.DefaultConfig()
		cfg.Output = out
		s := perfbench.New(cfg)
		s.Benchmark("noop", func(r *perfbench.Run, n int64) {})
		return s
	}

	tests := []struct {
		name      string
		args      []string
		code      int
		wantOut   bool
		errSubstr string
	}{
		{name: "success", args: []string{"-t", "10ms"}, code: 0, wantOut: true},
		{name: "help", args: []string{"-h"}, code: 0, errSubstr: "--counters"},
		{name: "bad flag", args: []string{"--bogus"}, code: 2, errSubstr: "unknown flag: --bogus"},
		{name: "bad flag value", args: []string{"-e", "three"}, code: 2, errSubstr: "Usage of perfbench"},
		{name: "invalid epochs", args: []string{"-e", "0"}, code: 1, errSubstr: "epochs"},
		{name: "unknown counter", args: []string{"-c", "bogus_family"}, code: 1, errSubstr: "bogus_family"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr := new(bytes.Buffer), new(bytes.Buffer)
			code := newSuite(out).MainArgs(tt.args, stderr)
			assert.Equal(t, tt.code, code)
			if tt.wantOut {
				assert.Contains(t, out.String(), "noop,time,")
			} else {
				assert.Empty(t, out.String())
			}
			assert.Contains(t, stderr.String(), tt.errSubstr)
		})
	}
}
