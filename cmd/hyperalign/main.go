package main

import (
	"fmt"
	"log"
	"time"

	"github.com/KyungWonPark/Hyperalignment/internal/config"
	"github.com/KyungWonPark/Hyperalignment/internal/pipeline"
	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
)

func main() {
	start := time.Now()

	// .env is optional
	_ = godotenv.Load()

	args := struct {
		config.Args
		Stage string `arg:"--stage" help:"train, apply or all"`
	}{
		Stage: "all",
	}
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

	switch args.Stage {
	case "train":
		_, err = p.Train()
	case "apply":
		err = p.Apply()
	case "all":
		err = p.Run()
	default:
		log.Fatalf("[main] unknown stage %q\n", args.Stage)
	}
	if err != nil {
		log.Fatalf("[main] stage %s failed: %v\n", args.Stage, err)
	}

	fmt.Printf("Finished in %s\n", time.Since(start))
}
