package main

import (
	"context"
	"log"
	"os"

	"tabprep/internal/config"
	"tabprep/internal/exporter"
	"tabprep/internal/logging"
	"tabprep/internal/pipeline"
)

// inputPath is the file the single-run driver processes
const inputPath = "your_file_path_here.csv"

func main() {
	env, err := config.Load(".env")
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	logger := logging.New(env.LogLevel, env.LogFormat, os.Stderr)

	cfg := config.DefaultPipeline(inputPath)
	cfg.Destinations = []exporter.Destination{{Kind: exporter.KindCSV, Path: "processed_data.csv"}}

	if _, err := pipeline.New(logger).Run(context.Background(), cfg); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}
}
