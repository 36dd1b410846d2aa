package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KyungWonPark/Hyperalignment/internal/config"
)

// Subject is a participant's numeric ID
type Subject struct {
	ID    int
	width int
}

// String zero-pads the ID to the dataset's canonical width
func (s Subject) String() string {
	return fmt.Sprintf("%0*d", s.width, s.ID)
}

// Split selects the training or the held-out runs
type Split int

// Splits
const (
	Train Split = iota
	Test
)

func (s Split) String() string {
	if s == Train {
		return "train"
	}
	return "test"
}

// Hemispheres in the order they are stacked along the feature axis
var Hemispheres = []string{"L", "R"}

// Layout maps subjects, runs and hemispheres to files
type Layout struct {
	cfg config.Config
}

// NewLayout returns the file layout described by cfg
func NewLayout(cfg config.Config) Layout {
	return Layout{cfg: cfg}
}

// Config returns the configuration the layout was built from
func (l Layout) Config() config.Config {
	return l.cfg
}

// Subjects returns the subjects in their fixed order
func (l Layout) Subjects() []Subject {
	subjects := make([]Subject, len(l.cfg.Subjects))
	for i, id := range l.cfg.Subjects {
		subjects[i] = Subject{ID: id, width: l.cfg.SubjectWidth}
	}
	return subjects
}

// Runs returns the runs of a split
func (l Layout) Runs(split Split) []int {
	if split == Train {
		return append([]int(nil), l.cfg.TrainRuns...)
	}
	return append([]int(nil), l.cfg.TestRuns...)
}

// RunPath returns the file of one subject, run and hemisphere ("L" or "R")
func (l Layout) RunPath(subject Subject, run int, hemi string) string {
	name := strings.NewReplacer(
		"{subject}", subject.String(),
		"{run}", fmt.Sprintf("%02d", run),
		"{hemi}", strings.ToUpper(hemi),
	).Replace(l.cfg.RunTemplate)

	return filepath.Join(l.cfg.DataDir, name)
}

// SurfacePath returns a FreeSurfer surface file, e.g. kind "white" or "pial"
func (l Layout) SurfacePath(hemi string, kind string) string {
	return filepath.Join(l.cfg.SurfaceDir, fmt.Sprintf("%sh.%s", strings.ToLower(hemi), kind))
}

// MidThicknessPath is where the merged mid-thickness surface is written
func (l Layout) MidThicknessPath() string {
	return filepath.Join(l.cfg.OutDir, "fsaverage_midthickness.surf")
}

// MapperArchivePath is the joint archive of every subject's mapper
func (l Layout) MapperArchivePath() string {
	return filepath.Join(l.cfg.OutDir, "hyperalignment_mappers.npz")
}

// MapperLabel names a subject's mapper inside the joint archive
func (l Layout) MapperLabel(subject Subject) string {
	return "sub" + subject.String()
}

// MapperPath is a subject's own mapper file
func (l Layout) MapperPath(subject Subject) string {
	return filepath.Join(l.cfg.OutDir, fmt.Sprintf("sub%s_ha_mapper.npz", subject))
}

// AlignedPath is a subject's hyperaligned test data
func (l Layout) AlignedPath(subject Subject) string {
	return filepath.Join(l.cfg.OutDir, fmt.Sprintf("sub%s_hyperaligned_data.npy", subject))
}

// ISCPath is an inter-subject correlation result, tag e.g. "aligned"
func (l Layout) ISCPath(tag string, ext string) string {
	return filepath.Join(l.cfg.OutDir, fmt.Sprintf("isc_%s.%s", tag, ext))
}
