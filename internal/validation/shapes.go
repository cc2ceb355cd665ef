package validation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Shape is a known-safe answer format. An answer matches when it starts with
// Prefix (if set) and contains every marker, ignoring case.
type Shape struct {
	Name    string   `yaml:"name"`
	Prefix  string   `yaml:"prefix,omitempty"`
	Markers []string `yaml:"markers,omitempty"`
}

// Matches reports whether answer has this shape.
func (s Shape) Matches(answer string) bool {
	lower := strings.ToLower(strings.TrimSpace(answer))
	if s.Prefix != "" && !strings.HasPrefix(lower, strings.ToLower(s.Prefix)) {
		return false
	}
	for _, m := range s.Markers {
		if !strings.Contains(lower, strings.ToLower(m)) {
			return false
		}
	}
	return true
}

// Config holds the exemption shapes and claim signals.
type Config struct {
	Shapes []Shape `yaml:"shapes"`
	// ClaimPhrases mark roster or list language, matched case-insensitively.
	ClaimPhrases []string `yaml:"claim_phrases"`
	// MinListLines is how many bullet or numbered lines make an enumeration.
	MinListLines int `yaml:"min_list_lines"`
}

// DefaultShapes covers the help listing and the self-status report.
var DefaultShapes = []Shape{
	{Name: "help", Prefix: "Available commands:"},
	{Name: "self_status", Prefix: "Your status:", Markers: []string{"Registration:"}},
}

// DefaultClaimPhrases is roster and fixture list language.
var DefaultClaimPhrases = []string{
	"the squad is",
	"the roster",
	"registered players",
	"available players",
	"players are",
	"upcoming matches are",
	"fixtures are",
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Shapes:       append([]Shape(nil), DefaultShapes...),
		ClaimPhrases: append([]string(nil), DefaultClaimPhrases...),
		MinListLines: 2,
	}
}

// ParseConfig reads a YAML config. Omitted sections keep their defaults.
//
//	shapes:
//	  - name: help
//	    prefix: "Available commands:"
//	claim_phrases: ["the roster"]
//	min_list_lines: 2
func ParseConfig(data []byte) (Config, error) {
	var raw Config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse shapes: %w", err)
	}

	cfg := DefaultConfig()
	if raw.Shapes != nil {
		cfg.Shapes = raw.Shapes
	}
	if raw.ClaimPhrases != nil {
		cfg.ClaimPhrases = raw.ClaimPhrases
	}
	if raw.MinListLines > 0 {
		cfg.MinListLines = raw.MinListLines
	}

	for i, s := range cfg.Shapes {
		if s.Name == "" {
			return Config{}, fmt.Errorf("shape %d has no name", i)
		}
		if s.Prefix == "" && len(s.Markers) == 0 {
			return Config{}, fmt.Errorf("shape %q needs a prefix or markers", s.Name)
		}
	}
	return cfg, nil
}

// LoadConfig reads the config at path. An empty path or a missing file
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read shapes: %w", err)
	}
	return ParseConfig(data)
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c Config) matchShape(answer string) (Shape, bool) {
	for _, s := range c.Shapes {
		if s.Matches(answer) {
			return s, true
		}
	}
	return Shape{}, false
}
