// Package config loads and validates run configuration from a TOML file,
// unmarshalling into tagged structs with github.com/BurntSushi/toml rather
// than a hand-rolled key=value parser.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// MLMode selects how candidate selection consults the machine-learning
// plug-in seam.
type MLMode string

const (
	MLNoUse    MLMode = "no-use"
	MLGetData1 MLMode = "get-data-1"
	MLGetData2 MLMode = "get-data-2"
	MLUseModel MLMode = "use-model"
)

func (m MLMode) valid() bool {
	switch m {
	case MLNoUse, MLGetData1, MLGetData2, MLUseModel:
		return true
	default:
		return false
	}
}

// Mode selects the problem family being solved.
type Mode string

const (
	CVRP  Mode = "cvrp"
	VRPTW Mode = "vrptw"
)

func (m Mode) valid() bool {
	switch m {
	case CVRP, VRPTW:
		return true
	default:
		return false
	}
}

// BKFPair is a (M, N) parameter pair for one BKF promotion edge, fed
// straight into bkf.Advisor.Promote's m/n arguments.
type BKFPair struct {
	M float64 `toml:"m"`
	N float64 `toml:"n"`
}

// BKFConfig holds the promotion parameters for entering each of the three
// strong-branching phases. A zero BKFPair leaves that phase's survivor
// count at its static PhaseCounts value.
type BKFConfig struct {
	LP        BKFPair `toml:"lp"`
	Heuristic BKFPair `toml:"heuristic"`
	Exact     BKFPair `toml:"exact"`
}

// PhaseCounts is the per-phase candidate-survival budget (N0..N3) consumed
// by candidate.New.
type PhaseCounts struct {
	N0 int `toml:"n0"`
	N1 int `toml:"n1"`
	N2 int `toml:"n2"`
	N3 int `toml:"n3"`
}

// Config is the decoded, validated contents of a run's TOML file. Every
// field has a zero value that Load treats as "use the built-in default",
// except ModelPath, which is required whenever MLMode is MLUseModel.
type Config struct {
	TimeLimitSeconds int    `toml:"time_limit_seconds"`
	Mode             Mode   `toml:"mode"`
	MLMode           MLMode `toml:"ml_mode"`
	ModelPath        string `toml:"model_path"`

	BKF BKFConfig `toml:"bkf"`

	PhaseCounts PhaseCounts `toml:"phase_counts"`

	// EnumGap is the relative optimality-gap threshold at or below which a
	// node switches from fractional/pricing state into enumeration state.
	// Zero (the default) disables the switch entirely.
	EnumGap float64 `toml:"enum_gap"`
}

// DefaultTimeLimit is used when a config omits time_limit_seconds.
const DefaultTimeLimit = 300 * time.Second

// DefaultPhaseCounts mirrors the four-phase pipeline's built-in survival
// budget when a config omits phase_counts.
var DefaultPhaseCounts = PhaseCounts{N0: 50, N1: 20, N2: 8, N3: 3}

// Error reports a Config error: an inconsistency in the loaded settings,
// detected before search starts.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return fmt.Sprintf("config: %s", e.Reason) }

// Load reads and validates the TOML file at path, applying defaults for
// every field left at its zero value.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadBytes decodes and validates raw TOML content, used by tests and by
// callers that already have the file contents in memory.
func LoadBytes(data []byte) (Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.TimeLimitSeconds == 0 {
		cfg.TimeLimitSeconds = int(DefaultTimeLimit.Seconds())
	}
	if cfg.Mode == "" {
		cfg.Mode = CVRP
	}
	if cfg.MLMode == "" {
		cfg.MLMode = MLNoUse
	}
	if cfg.PhaseCounts == (PhaseCounts{}) {
		cfg.PhaseCounts = DefaultPhaseCounts
	}
}

func validate(cfg Config) error {
	if cfg.TimeLimitSeconds < 0 {
		return &Error{Reason: "time_limit_seconds must be non-negative"}
	}
	if !cfg.Mode.valid() {
		return &Error{Reason: fmt.Sprintf("mode %q is not one of cvrp, vrptw", cfg.Mode)}
	}
	if !cfg.MLMode.valid() {
		return &Error{Reason: fmt.Sprintf("ml_mode %q is not one of no-use, get-data-1, get-data-2, use-model", cfg.MLMode)}
	}
	if cfg.MLMode == MLUseModel && cfg.ModelPath == "" {
		return &Error{Reason: "ml_mode = use-model requires model_path"}
	}
	if cfg.PhaseCounts.N0 <= 0 || cfg.PhaseCounts.N1 <= 0 || cfg.PhaseCounts.N2 <= 0 || cfg.PhaseCounts.N3 <= 0 {
		return &Error{Reason: "phase_counts entries must all be positive"}
	}
	if cfg.EnumGap < 0 || cfg.EnumGap > 1 {
		return &Error{Reason: "enum_gap must be between 0 and 1"}
	}
	return nil
}

// TimeLimit returns the configured time limit as a time.Duration.
func (c Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds) * time.Second
}
