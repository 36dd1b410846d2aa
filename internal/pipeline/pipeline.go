package pipeline

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/KyungWonPark/Hyperalignment/internal/calc"
	"github.com/KyungWonPark/Hyperalignment/internal/config"
	"github.com/KyungWonPark/Hyperalignment/internal/dataset"
	"github.com/KyungWonPark/Hyperalignment/internal/hyper"
	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/KyungWonPark/Hyperalignment/internal/nodes"
	"github.com/KyungWonPark/Hyperalignment/internal/sparse"
	"github.com/KyungWonPark/Hyperalignment/internal/surf"
	"github.com/pkg/errors"
)

// Pipeline runs the hyperalignment stages for one configuration
type Pipeline struct {
	cfg    config.Config
	layout dataset.Layout
	pl     *calc.PipeLine
	loader *dataset.Loader
}

// New validates cfg and prepares the output directory
func New(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutDir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "[New] failed to create %s", cfg.OutDir)
	}

	layout := dataset.NewLayout(cfg)
	pl := calc.Init(1, cfg.NProcs, cfg.Debug)

	return &Pipeline{
		cfg:    cfg,
		layout: layout,
		pl:     pl,
		loader: dataset.NewLoader(layout, pl),
	}, nil
}

// Close stops the compute pipeline
func (p *Pipeline) Close() {
	p.pl.StopScheduler()
}

// Layout returns the file layout in use
func (p *Pipeline) Layout() dataset.Layout {
	return p.layout
}

// Run trains the transformations and applies them to the test runs
func (p *Pipeline) Run() error {
	if _, err := p.Train(); err != nil {
		return err
	}
	return p.Apply()
}

// Train learns one transformation per subject from the training runs and
// saves them, jointly and one file per subject
func (p *Pipeline) Train() ([]*sparse.CSR, error) {
	fmt.Println("[1] Loading training data")
	dss, err := p.loader.LoadSplit(dataset.Train)
	if err != nil {
		return nil, err
	}

	fmt.Println("[2] Building the mid-thickness surface")
	surface, err := surf.LoadFreeSurfer(p.layout)
	if err != nil {
		return nil, err
	}
	if err := surf.WriteGeometry(p.layout.MidThicknessPath(), surface, "hyperalign"); err != nil {
		return nil, err
	}

	fmt.Println("[3] Selecting node indices")
	masks, err := nodes.LoadMasks(p.cfg.MaskL, p.cfg.MaskR)
	if err != nil {
		return nil, err
	}
	idx, err := masks.Combined(p.cfg.SurfaceRes)
	if err != nil {
		return nil, err
	}

	fmt.Println("[4] Labelling features with node indices")
	if err := p.attach(dss, idx); err != nil {
		return nil, err
	}

	fmt.Printf("[5] Building %g mm searchlights\n", p.cfg.Radius)
	qe := hyper.NewQueryEngine(surface, p.cfg.Radius)

	fmt.Println("[6] Running searchlight hyperalignment")
	if err := p.cfg.ApplyScratch(); err != nil {
		return nil, err
	}
	sl := &hyper.SearchlightHyperalignment{
		Engine:     qe,
		NProcs:     p.cfg.NProcs,
		NBlocks:    p.cfg.NBlocks,
		ScratchDir: p.cfg.ScratchDir,
		Options: hyper.Options{
			Scaling:    p.cfg.Scaling,
			Level2Iter: p.cfg.Level2Iter,
		},
	}

	start := time.Now()
	fmt.Printf("-------- beginning hyperalignment at %s --------\n", start.Format(time.RFC3339))
	mappers, err := sl.Run(dss)
	if err != nil {
		return nil, err
	}
	fmt.Printf("-------- time elapsed: %s --------\n", time.Since(start))

	fmt.Println("[7] Saving the joint archive")
	subjects := p.layout.Subjects()
	labels := make([]string, len(subjects))
	for i, subject := range subjects {
		labels[i] = p.layout.MapperLabel(subject)
	}
	if err := io.SaveArchive(p.layout.MapperArchivePath(), labels, mappers); err != nil {
		return nil, err
	}

	fmt.Println("[8] Saving individual mappers")
	mappers, err = p.split(labels)
	if err != nil {
		return nil, err
	}
	fmt.Println("done saving individual mappers")

	return mappers, nil
}

// attach labels every dataset with the node indices
func (p *Pipeline) attach(dss []*dataset.Dataset, idx []int) error {
	for _, ds := range dss {
		if err := ds.SetNodeIndices(idx); err != nil {
			return err
		}

		if p.cfg.Debug && !calc.CheckZScored(ds.Samples, 1e-6) {
			log.Printf("[attach] subj: %s is not z-scored, z-scoring again\n", ds.Subject)
			if err := p.pl.ZScoring(ds.Samples, ds.Samples); err != nil {
				return err
			}
		}

		if err := dataset.Describe("attach", ds); err != nil {
			return err
		}
	}
	return nil
}

// split reloads the joint archive and saves each subject's mapper on its own
func (p *Pipeline) split(labels []string) ([]*sparse.CSR, error) {
	saved, mappers, err := io.LoadArchive(p.layout.MapperArchivePath())
	if err != nil {
		return nil, err
	}
	if len(saved) != len(labels) {
		return nil, errors.Errorf("[split] archive holds %d mappers for %d subjects", len(saved), len(labels))
	}

	for i, subject := range p.layout.Subjects() {
		if saved[i] != labels[i] {
			return nil, errors.Errorf("[split] archive entry %d is %s, expected %s", i, saved[i], labels[i])
		}
		if err := io.SaveNpz(p.layout.MapperPath(subject), mappers[i]); err != nil {
			return nil, err
		}
	}

	return mappers, nil
}
