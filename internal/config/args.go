package config

// Args are the command line settings shared by the binaries, parsed with
// go-arg; zero values keep the configured setting
type Args struct {
	Config  string  `arg:"-c,--config" help:"YAML configuration file"`
	Data    string  `arg:"--data,env:DATA" help:"directory of the run files"`
	Result  string  `arg:"--result,env:RESULT" help:"output directory"`
	NProcs  int     `arg:"--nprocs" help:"workers per compute step"`
	NBlocks int     `arg:"--nblocks" help:"number of searchlight center blocks"`
	Radius  float64 `arg:"--radius" help:"searchlight radius in mm"`
	Debug   bool    `arg:"--debug" help:"run self checks and report progress"`
}

// Resolve loads the configuration file and applies the overrides
func (a Args) Resolve() (Config, error) {
	cfg, err := Load(a.Config)
	if err != nil {
		return cfg, err
	}

	if a.Data != "" {
		cfg.DataDir = a.Data
	}
	if a.Result != "" {
		cfg.OutDir = a.Result
	}
	if a.NProcs != 0 {
		cfg.NProcs = a.NProcs
	}
	if a.NBlocks != 0 {
		cfg.NBlocks = a.NBlocks
	}
	if a.Radius != 0 {
		cfg.Radius = a.Radius
	}
	if a.Debug {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}
