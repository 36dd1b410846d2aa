package config

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds every knob of the hyperalignment pipeline
type Config struct {
	DataDir    string `yaml:"data_dir"`
	SurfaceDir string `yaml:"surface_dir"`
	OutDir     string `yaml:"out_dir"`
	ScratchDir string `yaml:"scratch_dir"`

	MaskL string `yaml:"mask_l"`
	MaskR string `yaml:"mask_r"`

	Subjects     []int  `yaml:"subjects"`
	SubjectWidth int    `yaml:"subject_width"`
	TrainRuns    []int  `yaml:"train_runs"`
	TestRuns     []int  `yaml:"test_runs"`
	RunTemplate  string `yaml:"run_template"`

	// SurfaceRes is the number of leading mask entries the data covers.
	SurfaceRes int `yaml:"surface_res"`

	// Radius of a searchlight in mm of geodesic distance.
	Radius float64 `yaml:"radius"`
	// NProcs is the number of alignment workers.
	NProcs int `yaml:"nprocs"`
	// NBlocks splits the searchlight centers; more blocks hold less in memory.
	NBlocks int `yaml:"nblocks"`

	Scaling    bool `yaml:"scaling"`
	Level2Iter int  `yaml:"level2_iter"`

	Debug bool `yaml:"debug"`
}

// Budapest subject IDs
var budapestSubjects = []int{5, 7, 9, 10, 13, 20, 21, 24, 29, 34, 52, 114, 120, 134, 142, 278, 416, 499, 522, 535, 560}

// Default returns the Grand Budapest Hotel dataset setup
func Default() Config {
	subjects := make([]int, len(budapestSubjects))
	copy(subjects, budapestSubjects)

	return Config{
		DataDir:      "/dartfs/rc/lab/D/DBIC/DBIC/f002d44/budapest/data/original",
		SurfaceDir:   "/dartfs-hpc/rc/home/4/f002d44/h2a",
		OutDir:       "/dartfs/rc/lab/D/DBIC/DBIC/f002d44/budapest/transformations",
		ScratchDir:   "/dartfs-hpc/scratch/f002d44/temp",
		MaskL:        "fsaverage_lh_mask.npy",
		MaskR:        "fsaverage_rh_mask.npy",
		Subjects:     subjects,
		SubjectWidth: 6,
		TrainRuns:    []int{1, 2, 3, 4},
		TestRuns:     []int{5},
		RunTemplate:  "sub-sid{subject}_ses-budapest_task-movie_run-{run}_space-fsaverage-icoorder5_hemi-{hemi}.func.npy",
		SurfaceRes:   10242,
		Radius:       20,
		NProcs:       16,
		NBlocks:      128,
		Scaling:      true,
		Level2Iter:   1,
	}
}

// Load reads a YAML file on top of Default
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "config: failed to read %s", path)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: failed to parse %s", path)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if len(c.Subjects) == 0 {
		return errors.New("config: no subjects")
	}
	seen := make(map[int]bool, len(c.Subjects))
	for _, s := range c.Subjects {
		if s < 0 {
			return errors.Errorf("config: negative subject id %d", s)
		}
		if seen[s] {
			return errors.Errorf("config: duplicated subject id %d", s)
		}
		seen[s] = true
	}

	if len(c.TrainRuns) == 0 || len(c.TestRuns) == 0 {
		return errors.New("config: train and test runs must not be empty")
	}
	train := make(map[int]bool, len(c.TrainRuns))
	for _, r := range c.TrainRuns {
		train[r] = true
	}
	for _, r := range c.TestRuns {
		if train[r] {
			return errors.Errorf("config: run %d is used for both training and testing", r)
		}
	}

	if c.RunTemplate == "" {
		return errors.New("config: empty run template")
	}
	if c.SurfaceRes <= 0 {
		return errors.Errorf("config: surface_res must be positive, got %d", c.SurfaceRes)
	}
	if c.Radius <= 0 {
		return errors.Errorf("config: radius must be positive, got %f", c.Radius)
	}
	if c.NProcs <= 0 || c.NBlocks <= 0 {
		return errors.Errorf("config: nprocs (%d) and nblocks (%d) must be positive", c.NProcs, c.NBlocks)
	}
	if c.Level2Iter < 0 {
		return errors.Errorf("config: level2_iter must not be negative, got %d", c.Level2Iter)
	}

	return nil
}

// ApplyScratch points temporary file writes to the scratch directory
func (c Config) ApplyScratch() error {
	if c.ScratchDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.ScratchDir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "config: failed to create scratch dir %s", c.ScratchDir)
	}

	for _, key := range []string{"TMPDIR", "TEMP", "TMP"} {
		if err := os.Setenv(key, c.ScratchDir); err != nil {
			return errors.Wrapf(err, "config: failed to set %s", key)
		}
	}

	return nil
}
