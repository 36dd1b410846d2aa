package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Subjects, 21)
	assert.Equal(t, []int{1, 2, 3, 4}, cfg.TrainRuns)
	assert.Equal(t, []int{5}, cfg.TestRuns)
	assert.Equal(t, 20.0, cfg.Radius)
	assert.Equal(t, 16, cfg.NProcs)
	assert.Equal(t, 128, cfg.NBlocks)
	assert.Equal(t, 10242, cfg.SurfaceRes)

	// Default must hand out its own subject slice
	cfg.Subjects[0] = 999
	assert.Equal(t, 5, Default().Subjects[0])
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	src := []byte("subjects: [1, 2]\nradius: 5\nnblocks: 4\ndebug: true\n")
	require.NoError(t, ioutil.WriteFile(path, src, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []int{1, 2}, cfg.Subjects)
	assert.Equal(t, 5.0, cfg.Radius)
	assert.Equal(t, 4, cfg.NBlocks)
	assert.True(t, cfg.Debug)
	// untouched keys keep their defaults
	assert.Equal(t, 16, cfg.NProcs)
	assert.Equal(t, []int{5}, cfg.TestRuns)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"no subjects":   func(c *Config) { c.Subjects = nil },
		"dup subject":   func(c *Config) { c.Subjects = []int{1, 1} },
		"overlap runs":  func(c *Config) { c.TestRuns = []int{4} },
		"no test runs":  func(c *Config) { c.TestRuns = nil },
		"zero radius":   func(c *Config) { c.Radius = 0 },
		"zero procs":    func(c *Config) { c.NProcs = 0 },
		"zero blocks":   func(c *Config) { c.NBlocks = 0 },
		"bad res":       func(c *Config) { c.SurfaceRes = -1 },
		"no template":   func(c *Config) { c.RunTemplate = "" },
		"negative iter": func(c *Config) { c.Level2Iter = -1 },
	}

	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestApplyScratch(t *testing.T) {
	keys := []string{"TMPDIR", "TEMP", "TMP"}
	saved := make(map[string]string)
	for _, k := range keys {
		saved[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range saved {
			os.Setenv(k, v)
		}
	}()

	cfg := Default()
	cfg.ScratchDir = filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, cfg.ApplyScratch())

	for _, k := range keys {
		assert.Equal(t, cfg.ScratchDir, os.Getenv(k))
	}
	info, err := os.Stat(cfg.ScratchDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestArgsResolve(t *testing.T) {
	cfg, err := Args{Data: "/data", Result: "/out", NProcs: 4, Radius: 12.5, Debug: true}.Resolve()
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "/out", cfg.OutDir)
	assert.Equal(t, 4, cfg.NProcs)
	assert.Equal(t, 12.5, cfg.Radius)
	assert.Equal(t, 128, cfg.NBlocks)
	assert.True(t, cfg.Debug)

	_, err = Args{NBlocks: -2}.Resolve()
	assert.Error(t, err)
}
