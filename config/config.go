// SPDX-License-Identifier: MIT

// Package config loads a power-iteration problem and its solver settings
// from a YAML file and the environment.
//
// Precedence (highest to lowest):
//  1. Command-line flags (applied by the caller after Load)
//  2. Environment variables (POWITER_*)
//  3. Problem file (YAML)
//  4. Built-in defaults
//
// Environment variables:
//   - POWITER_TOLERANCE=1e-8
//   - POWITER_MAX_ITERATIONS=100
//   - POWITER_STABILITY_THRESHOLD=0.05
//   - POWITER_WORKERS=0
//   - POWITER_GRAIN=4096
//   - POWITER_LOG_LEVEL=warn
//   - POWITER_LOG_FORMAT=text
//   - POWITER_HISTORY_DB=./powiter.db
//
// Example file:
//
//	name: diag
//	matrix:
//	  - [2, 0]
//	  - [0, 1]
//	initial_vector: [1, 1]
//	tolerance: 1e-6
//	max_iterations: 50
//	logging: {level: info, format: text}
//
// Instead of matrix, a file may give observations (one row each) and let the
// problem matrix be their sample covariance or correlation:
//
//	data:
//	  - [1.0, 2.1]
//	  - [2.0, 3.9]
//	  - [3.0, 6.2]
//	derive: covariance
//	initial_vector: [1, 1]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/powiter/matrix"
	"github.com/katalvlaran/powiter/poweriter"
)

// ErrInvalidConfig wraps every load and validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Defaults.
const (
	DefaultTolerance     = 1e-8
	DefaultMaxIterations = 100
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
)

// Derivations of the problem matrix from Data.
const (
	DeriveCovariance  = "covariance"
	DeriveCorrelation = "correlation"
)

// Environment variable names.
const (
	EnvTolerance          = "POWITER_TOLERANCE"
	EnvMaxIterations      = "POWITER_MAX_ITERATIONS"
	EnvStabilityThreshold = "POWITER_STABILITY_THRESHOLD"
	EnvWorkers            = "POWITER_WORKERS"
	EnvGrain              = "POWITER_GRAIN"
	EnvLogLevel           = "POWITER_LOG_LEVEL"
	EnvLogFormat          = "POWITER_LOG_FORMAT"
	EnvHistoryDB          = "POWITER_HISTORY_DB"
)

// Config is one problem plus the settings used to solve and report it.
type Config struct {
	Name          string
	Matrix        [][]float64
	InitialVector []float64

	// Data holds observations (rows) whose covariance or correlation becomes
	// Matrix once DeriveMatrix runs. Mutually exclusive with Matrix.
	Data   [][]float64
	Derive string // DeriveCovariance (default) or DeriveCorrelation

	Tolerance          float64
	MaxIterations      int
	StabilityThreshold float64
	Workers            int
	Grain              int

	Logging LoggingConfig

	// HistoryDB is the SQLite file runs are recorded to; empty disables recording.
	HistoryDB string
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// fileConfig mirrors the YAML layout. Pointers tell "absent" from "zero".
type fileConfig struct {
	Name               string      `yaml:"name"`
	Matrix             [][]float64 `yaml:"matrix"`
	InitialVector      []float64   `yaml:"initial_vector"`
	Data               [][]float64 `yaml:"data"`
	Derive             string      `yaml:"derive"`
	Tolerance          *float64    `yaml:"tolerance"`
	MaxIterations      *int        `yaml:"max_iterations"`
	StabilityThreshold *float64    `yaml:"stability_threshold"`
	Workers            *int        `yaml:"workers"`
	Grain              *int        `yaml:"grain"`
	Logging            struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	HistoryDB string `yaml:"history_db"`
}

// LoadDefaults returns the built-in settings with no problem data.
func LoadDefaults() *Config {
	return &Config{
		Tolerance:          DefaultTolerance,
		MaxIterations:      DefaultMaxIterations,
		StabilityThreshold: poweriter.DefaultStabilityThreshold,
		Workers:            poweriter.DefaultWorkers,
		Grain:              poweriter.DefaultGrain,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads path (empty ⇒ defaults only), then applies the environment.
// The result is not validated; flags may still fill in the problem.
func Load(path string) (*Config, error) {
	cfg := LoadDefaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnvVars(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile returns the defaults overlaid with the YAML file at path.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, path, err)
	}
	cfg := LoadDefaults()
	if err = Decode(bytes.NewReader(data), cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Decode overlays the YAML document in r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	var fc fileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: parse yaml: %w", ErrInvalidConfig, err)
	}

	if fc.Name != "" {
		cfg.Name = fc.Name
	}
	if fc.Matrix != nil {
		cfg.Matrix = fc.Matrix
	}
	if fc.InitialVector != nil {
		cfg.InitialVector = fc.InitialVector
	}
	if fc.Data != nil {
		cfg.Data = fc.Data
	}
	if fc.Derive != "" {
		cfg.Derive = strings.ToLower(fc.Derive)
	}
	if fc.Tolerance != nil {
		cfg.Tolerance = *fc.Tolerance
	}
	if fc.MaxIterations != nil {
		cfg.MaxIterations = *fc.MaxIterations
	}
	if fc.StabilityThreshold != nil {
		cfg.StabilityThreshold = *fc.StabilityThreshold
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.Grain != nil {
		cfg.Grain = *fc.Grain
	}
	if fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.Format != "" {
		cfg.Logging.Format = fc.Logging.Format
	}
	if fc.HistoryDB != "" {
		cfg.HistoryDB = fc.HistoryDB
	}

	return nil
}

// ApplyEnvVars overlays POWITER_* variables onto cfg. A variable that is set
// but does not parse is an error, never silently ignored.
func ApplyEnvVars(cfg *Config) error {
	var errs []error
	envFloat(EnvTolerance, &cfg.Tolerance, &errs)
	envInt(EnvMaxIterations, &cfg.MaxIterations, &errs)
	envFloat(EnvStabilityThreshold, &cfg.StabilityThreshold, &errs)
	envInt(EnvWorkers, &cfg.Workers, &errs)
	envInt(EnvGrain, &cfg.Grain, &errs)
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv(EnvHistoryDB); v != "" {
		cfg.HistoryDB = v
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func envFloat(key string, dst *float64, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q: %w", key, v, err))
		return
	}
	*dst = f
}

func envInt(key string, dst *int, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q: %w", key, v, err))
		return
	}
	*dst = i
}

// DeriveMatrix replaces Data with its sample covariance or correlation in
// Matrix. It is a no-op without Data; call it after every overlay and before
// Validate.
func (c *Config) DeriveMatrix() error {
	if len(c.Data) == 0 {
		if c.Derive != "" {
			return fmt.Errorf("%w: derive %q given without data", ErrInvalidConfig, c.Derive)
		}
		return nil
	}
	if len(c.Matrix) > 0 {
		return fmt.Errorf("%w: matrix and data are mutually exclusive", ErrInvalidConfig)
	}

	x, err := matrix.NewDenseFrom(c.Data)
	if err != nil {
		return fmt.Errorf("%w: data: %w", ErrInvalidConfig, err)
	}
	var m *matrix.Dense
	switch c.Derive {
	case "", DeriveCovariance:
		c.Derive = DeriveCovariance
		m, _, err = matrix.Covariance(x)
	case DeriveCorrelation:
		m, _, _, err = matrix.Correlation(x)
	default:
		return fmt.Errorf("%w: derive %q must be %s or %s", ErrInvalidConfig, c.Derive, DeriveCovariance, DeriveCorrelation)
	}
	if err != nil {
		return fmt.Errorf("%w: %s of data: %w", ErrInvalidConfig, c.Derive, err)
	}
	c.Matrix = m.ToRows()
	c.Data = nil

	return nil
}

// Validate checks the problem and the settings. All problems are reported
// together, each wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Data) > 0 {
		add("data is set but has not been reduced to a matrix (see DeriveMatrix)")
	}

	cols := -1
	switch {
	case len(c.Matrix) == 0:
		add("matrix is empty")
	default:
		cols = len(c.Matrix[0])
		for i, row := range c.Matrix {
			if len(row) != cols {
				add("matrix row %d has %d columns, want %d", i, len(row), cols)
				cols = -1
				break
			}
		}
		if cols == 0 {
			add("matrix has no columns")
		}
		if cols > 0 && len(c.Matrix) != cols {
			add("matrix is %dx%d, want square", len(c.Matrix), cols)
		}
		for i, row := range c.Matrix {
			for j, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					add("matrix entry (%d,%d) is not finite", i, j)
				}
			}
		}
	}

	switch {
	case len(c.InitialVector) == 0:
		add("initial vector is empty")
	case cols > 0 && len(c.InitialVector) != cols:
		add("initial vector has length %d, want %d (matrix columns)", len(c.InitialVector), cols)
	}
	nonZero := false
	for i, v := range c.InitialVector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			add("initial vector entry %d is not finite", i)
		}
		if v != 0 {
			nonZero = true
		}
	}
	if len(c.InitialVector) > 0 && !nonZero {
		add("initial vector is zero")
	}

	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		add("tolerance %v must be positive and finite", c.Tolerance)
	}
	if c.MaxIterations <= 0 {
		add("max iterations %d must be > 0", c.MaxIterations)
	}
	if math.IsNaN(c.StabilityThreshold) || c.StabilityThreshold < -1 || c.StabilityThreshold >= 1 {
		add("stability threshold %v must be in [-1, 1)", c.StabilityThreshold)
	}
	if c.Workers < 0 {
		add("workers %d must be >= 0", c.Workers)
	}
	if c.Grain < 0 {
		add("grain %d must be >= 0", c.Grain)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("log level %q must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		add("log format %q must be text or json", c.Logging.Format)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// BuildMatrix converts the problem matrix into a *matrix.Dense.
func (c *Config) BuildMatrix() (*matrix.Dense, error) {
	m, err := matrix.NewDenseFrom(c.Matrix)
	if err != nil {
		return nil, fmt.Errorf("%w: matrix: %w", ErrInvalidConfig, err)
	}

	return m, nil
}

// EngineOptions translates the solver settings into poweriter options.
// Call after Validate; invalid values panic inside the option constructors.
func (c *Config) EngineOptions() []poweriter.Option {
	return []poweriter.Option{
		poweriter.WithStabilityThreshold(c.StabilityThreshold),
		poweriter.WithWorkers(c.Workers),
		poweriter.WithGrain(c.Grain),
	}
}

// String returns a one-line summary suitable for logs.
func (c *Config) String() string {
	rows, cols := len(c.Matrix), 0
	if rows > 0 {
		cols = len(c.Matrix[0])
	}

	if c.Derive != "" {
		return fmt.Sprintf("Config{Name: %q, Matrix: %dx%d (%s), Tolerance: %g, MaxIterations: %d, Threshold: %g, Workers: %d, Grain: %d}",
			c.Name, rows, cols, c.Derive, c.Tolerance, c.MaxIterations, c.StabilityThreshold, c.Workers, c.Grain)
	}

	return fmt.Sprintf("Config{Name: %q, Matrix: %dx%d, Tolerance: %g, MaxIterations: %d, Threshold: %g, Workers: %d, Grain: %d}",
		c.Name, rows, cols, c.Tolerance, c.MaxIterations, c.StabilityThreshold, c.Workers, c.Grain)
}
