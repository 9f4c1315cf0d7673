// matprop: trains a regression network that predicts material properties
// from synthetic process parameters and renders diagnostic charts.
//
// Usage:
//
//	matprop --epochs=100 --batch=32 --hidden=64,64 --out=charts --private=10
//
// Defaults can also be set with MATPROP_* variables or a .env file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/klauspost/cpuid/v2"

	"matprop/pipeline"
	"matprop/utils"
)

func main() {
	cfg := utils.DefaultConfig()
	envFile := os.Getenv("MATPROP_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := utils.ApplyEnv(&cfg, envFile); err != nil {
		slog.Error("Failed to read environment", "error", err)
		os.Exit(1)
	}

	hidden := utils.FormatArchitecture(cfg.Hidden)
	flag.IntVar(&cfg.Samples, "samples", cfg.Samples, "Number of synthetic samples")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for data, split, init and shuffling")
	flag.Float64Var(&cfg.TestFraction, "test", cfg.TestFraction, "Share of samples held out for testing")
	flag.Float64Var(&cfg.ValidationSplit, "val", cfg.ValidationSplit, "Share of training samples used for validation")
	flag.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "Number of training epochs")
	flag.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Mini-batch size")
	flag.StringVar(&hidden, "hidden", hidden, "Hidden layer widths, e.g. 64,64")
	flag.Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "Adam learning rate")
	flag.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Directory for chart output")
	flag.IntVar(&cfg.Private, "private", cfg.Private, "Test samples to predict through split inference (0 disables)")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	flag.Parse()

	arch, err := utils.ParseArchitecture(hidden)
	if err != nil {
		slog.Error("Invalid hidden layer list", "hidden", hidden, "error", err)
		os.Exit(1)
	}
	cfg.Hidden = arch
	utils.Verbose = cfg.Verbose

	printBanner(cfg)

	res, err := pipeline.Run(cfg, os.Stdout)
	if err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\nCharts:\n  %s\n  %s\n  %s\n", res.Charts.Loss, res.Charts.ActualVsPredicted, res.Charts.Correlation)
}

func printBanner(cfg utils.Config) {
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║              Material Property Regression                    ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Samples:       %d (seed %d)\n", cfg.Samples, cfg.Seed)
	fmt.Printf("  Test / Val:    %.2f / %.2f\n", cfg.TestFraction, cfg.ValidationSplit)
	fmt.Printf("  Architecture:  3 → %s → 2\n", utils.FormatArchitecture(cfg.Hidden))
	fmt.Printf("  Epochs:        %d (batch %d)\n", cfg.Epochs, cfg.BatchSize)
	fmt.Printf("  Learning Rate: %g\n", cfg.LearningRate)
	fmt.Printf("  Split samples: %d\n", cfg.Private)
	fmt.Printf("  CPU:           %s (%d logical cores, AVX2 %v)\n",
		cpuid.CPU.BrandName, cpuid.CPU.LogicalCores, cpuid.CPU.Supports(cpuid.AVX2))
	fmt.Println()
}
