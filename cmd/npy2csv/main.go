package main

import (
	"fmt"
	"log"

	"github.com/KyungWonPark/Hyperalignment/internal/io"
	"github.com/alexflint/go-arg"
)

func main() {
	var args struct {
		Files []string `arg:"positional,required" help:".npy files to convert"`
	}
	arg.MustParse(&args)

	for _, fileName := range args.Files {
		npyFile, err := io.NpytoMat64(fileName)
		if err != nil {
			log.Fatalf("[main] %v\n", err)
		}
		fmt.Println("Reading npy file complete")

		if err := io.Mat64toCSV(fileName+".csv", npyFile); err != nil {
			log.Fatalf("[main] %v\n", err)
		}
	}
}
