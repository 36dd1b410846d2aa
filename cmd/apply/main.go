package main

import (
	"log"

	"github.com/KyungWonPark/Hyperalignment/internal/config"
	"github.com/KyungWonPark/Hyperalignment/internal/pipeline"
	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var args config.Args
	arg.MustParse(&args)

	cfg, err := args.Resolve()
	if err != nil {
		log.Fatalf("[main] invalid configuration: %v\n", err)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Fatalf("[main] %v\n", err)
	}
	defer p.Close()

	if err := p.Apply(); err != nil {
		log.Fatalf("[main] failed to apply mappers: %v\n", err)
	}
}
