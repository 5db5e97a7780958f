// Package config loads abidiff settings from abidiff.yaml or abidiff.toml.
//
// Values from a config file sit between built-in defaults and command-line
// flags: a flag the user sets always wins.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Names searched by Find, in order.
var FileNames = []string{"abidiff.yaml", "abidiff.yml", "abidiff.toml"}

// Config holds settings shared by the abidiff commands.
type Config struct {
	LibName      string `yaml:"lib_name" toml:"lib_name"`
	Arch         string `yaml:"arch" toml:"arch"`
	CheckAllAPIs bool   `yaml:"check_all_apis" toml:"check_all_apis"`
	AdviceOnly   bool   `yaml:"advice_only" toml:"advice_only"`
	Format       string `yaml:"format" toml:"format" validate:"oneof=text json"`
	Color        string `yaml:"color" toml:"color" validate:"oneof=auto always never"`
	Database     string `yaml:"database" toml:"database"`
}

var validate = validator.New()

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Format: "text",
		Color:  "auto",
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s %q: must be one of %s", strings.ToLower(fe.Field()), fe.Value(), fe.Param())
		}
		return err
	}
	return nil
}

// Load reads path on top of Default. The format follows the extension:
// .toml for TOML, anything else is YAML. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("parsing %s: unknown keys %s", path, unknownKeys(strict))
			}
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find returns the first config file from FileNames present in dir, or ""
// if there is none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func unknownKeys(err *toml.StrictMissingError) string {
	keys := make([]string, 0, len(err.Errors))
	for _, e := range err.Errors {
		keys = append(keys, strings.Join(e.Key(), "."))
	}
	return strings.Join(keys, ", ")
}
