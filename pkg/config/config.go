// Package config loads the readgraph YAML configuration file.
//
// Values may reference environment variables as ${NAME}. Unknown keys are
// rejected. Command-line flags override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/engine"
	"github.com/sanonone/readgraph/pkg/readgraph"
)

// Config is the file layout.
type Config struct {
	DataDir     string `yaml:"data_dir" validate:"required"`
	Output      string `yaml:"output" validate:"required"`
	LineWidth   int    `yaml:"line_width" validate:"gte=0"`
	MaxVertices int    `yaml:"max_vertices" validate:"gte=0"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	MetricsFile string `yaml:"metrics_file"`

	Query QueryConfig `yaml:"query"`
}

// QueryConfig holds traversal defaults. The seed and radius are always flags.
type QueryConfig struct {
	AllowChimericReads bool   `yaml:"allow_chimeric_reads"`
	ChimericPolicy     string `yaml:"chimeric_policy" validate:"oneof=exclude dead-end"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir:  "data",
		Output:   "LocalReadGraph.fasta",
		LogLevel: "info",
		Query: QueryConfig{
			ChimericPolicy: readgraph.ChimericExclude.String(),
		},
	}
}

var validate = validator.New()

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s: %w", strings.Join(msgs, "; "), types.ErrInvalidArgument)
		}
		return err
	}
	return nil
}

// EngineOptions maps the file onto engine options.
func (c Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions(c.DataDir)
	opts.LineWidth = c.LineWidth
	opts.MaxVertices = c.MaxVertices
	return opts
}

// SlogLevel parses LogLevel; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
