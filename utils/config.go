package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "MATPROP_"

// Config holds the run configuration
type Config struct {
	Samples         int
	Seed            uint64
	TestFraction    float64
	ValidationSplit float64
	Epochs          int
	BatchSize       int
	Hidden          []int
	LearningRate    float64
	OutDir          string
	Private         int // test samples predicted through split inference, 0 disables it
	Verbose         bool
}

// DefaultConfig returns the reference run: 1000 samples, seed 42, 80/20
// split, 3→64→64→2, 100 epochs of batch 32.
func DefaultConfig() Config {
	return Config{
		Samples:         1000,
		Seed:            42,
		TestFraction:    0.2,
		ValidationSplit: 0.2,
		Epochs:          100,
		BatchSize:       32,
		Hidden:          []int{64, 64},
		LearningRate:    0.001,
		OutDir:          "charts",
	}
}

// ParseArchitecture parses a hidden layer list such as "64,64" or "64 64".
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.FieldsFunc(archStr, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(archParts) == 0 {
		return nil, fmt.Errorf("empty architecture %q", archStr)
	}
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		arch[i] = n
	}
	return arch, nil
}

// FormatArchitecture is the inverse of ParseArchitecture.
func FormatArchitecture(arch []int) string {
	parts := make([]string, len(arch))
	for i, n := range arch {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ValidateConfig validates the run configuration
func ValidateConfig(config *Config) error {
	if config.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", config.Samples)
	}
	if config.TestFraction <= 0 || config.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0, 1), got %g", config.TestFraction)
	}
	if config.ValidationSplit < 0 || config.ValidationSplit >= 1 {
		return fmt.Errorf("validation split must be in [0, 1), got %g", config.ValidationSplit)
	}
	if config.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive")
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if len(config.Hidden) == 0 {
		return fmt.Errorf("at least one hidden layer is required")
	}
	for i, h := range config.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden layer %d must have positive width, got %d", i, h)
		}
	}
	if config.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}
	if config.OutDir == "" {
		return fmt.Errorf("output directory must be set")
	}
	if config.Private < 0 {
		return fmt.Errorf("private sample count must not be negative")
	}
	return nil
}

// ApplyEnv loads envFile if it exists and overrides config fields from
// MATPROP_* variables. Variables already set in the process environment win
// over the file.
func ApplyEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var errs []error
	lookup := func(key string, set func(string) error) {
		val, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || val == "" {
			return
		}
		if err := set(val); err != nil {
			errs = append(errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, val, err))
		}
	}

	lookup("SAMPLES", intSetter(&config.Samples))
	lookup("SEED", func(s string) (err error) {
		config.Seed, err = strconv.ParseUint(s, 10, 64)
		return err
	})
	lookup("TEST_FRACTION", floatSetter(&config.TestFraction))
	lookup("VALIDATION_SPLIT", floatSetter(&config.ValidationSplit))
	lookup("EPOCHS", intSetter(&config.Epochs))
	lookup("BATCH_SIZE", intSetter(&config.BatchSize))
	lookup("HIDDEN", func(s string) (err error) {
		config.Hidden, err = ParseArchitecture(s)
		return err
	})
	lookup("LEARNING_RATE", floatSetter(&config.LearningRate))
	lookup("OUT_DIR", func(s string) error {
		config.OutDir = s
		return nil
	})
	lookup("PRIVATE", intSetter(&config.Private))
	lookup("VERBOSE", func(s string) (err error) {
		config.Verbose, err = strconv.ParseBool(s)
		return err
	})
	return errors.Join(errs...)
}

func intSetter(dst *int) func(string) error {
	return func(s string) (err error) {
		*dst, err = strconv.Atoi(s)
		return err
	}
}

func floatSetter(dst *float64) func(string) error {
	return func(s string) (err error) {
		*dst, err = strconv.ParseFloat(s, 64)
		return err
	}
}
