// Tool-level options for the compiler, loaded from lumen.yaml.
//
// Only knobs that affect the whole compilation task live here; per-call
// behavior (deferral, generalization) is passed explicitly to the solver.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options represents the top-level lumen.yaml configuration.
type Options struct {
	// SolverWorkBudget bounds recursive instance search depth.
	// Defaults to DefaultSolverWorkBudget if omitted or zero.
	SolverWorkBudget int `yaml:"solver_work_budget,omitempty"`

	// Color is the requested diagnostic coloring: "auto", "always", "never".
	// Defaults to "auto". ParseOptions only validates and records it; the
	// renderer in internal/diagnostics detects color from the environment
	// and does not read this field.
	Color string `yaml:"color,omitempty"`

	// TestMode requests normalized generated identifiers in output. It is
	// only recorded here: the normalization in internal/typesystem reads
	// IsTestMode, which this field does not set.
	TestMode bool `yaml:"test_mode,omitempty"`
}

// DefaultOptions returns the options used when no lumen.yaml is present.
func DefaultOptions() *Options {
	return &Options{
		SolverWorkBudget: DefaultSolverWorkBudget,
		Color:            "auto",
	}
}

// LoadOptions reads and validates a lumen.yaml file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseOptions(data)
}

// ParseOptions decodes options from YAML bytes and applies defaults.
func ParseOptions(data []byte) (*Options, error) {
	opts := &Options{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parsing options: %w", err)
	}
	if opts.SolverWorkBudget < 0 {
		return nil, fmt.Errorf("solver_work_budget must be non-negative, got %d", opts.SolverWorkBudget)
	}
	if opts.SolverWorkBudget == 0 {
		opts.SolverWorkBudget = DefaultSolverWorkBudget
	}
	switch opts.Color {
	case "", "auto":
		opts.Color = "auto"
	case "always", "never":
	default:
		return nil, fmt.Errorf("color must be auto, always or never, got %q", opts.Color)
	}
	return opts, nil
}
