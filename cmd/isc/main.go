package main

import (
	"fmt"
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

	eval, err := p.Evaluate()
	if err != nil {
		log.Fatalf("[main] evaluation failed: %v\n", err)
	}

	for i, subject := range p.Layout().Subjects() {
		fmt.Printf("subj %s: ISC %.4f -> %.4f\n", subject, eval.Unaligned.Means[i], eval.Aligned.Means[i])
	}
}
