// Command cleanse runs the cleaning pipeline once over a single file and
// prints the result payload as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cleansed/internal/exporter"
	"cleansed/internal/pipeline"
)

func main() {
	var (
		outDir     = flag.String("out", "data/cleaned", "output directory for artifacts")
		format     = flag.String("format", "csv", "output format: csv or json")
		optionsArg = flag.String("options", "", "cleaning options as a JSON object")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cleanse [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opts := pipeline.DefaultOptions()
	if *optionsArg != "" {
		if err := json.Unmarshal([]byte(*optionsArg), &opts); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -options: %v\n", err)
			os.Exit(2)
		}
	}
	opts.OutputFormat = *format

	writer := exporter.NewWriter(*outDir)
	runner := pipeline.NewRunner(writer, nil, logger)
	job := pipeline.NewJob(filepath.Base(path), path, opts)

	runner.Run(context.Background(), job)

	view := job.Snapshot()
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if view.Status != pipeline.JobStatusCompleted {
		os.Exit(1)
	}
}
