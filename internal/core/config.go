package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultUsageThreshold    = 2
	defaultMaxInlineSegments = 5
)

// Config represents the modmove.yaml configuration file.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	Exclude  ExcludeConfig  `yaml:"exclude"`
}

// StrategyConfig tunes how rewritten references are spelled.
type StrategyConfig struct {
	// UsageThreshold is the number of call sites in one scope at which a
	// shared import is added instead of inlining full paths. Zero means
	// the default.
	UsageThreshold int `yaml:"usage_threshold"`
	// MaxInlineSegments is the longest path written inline before an
	// import is preferred regardless of usage count. Zero means the
	// default.
	MaxInlineSegments int `yaml:"max_inline_segments"`
}

// ExcludeConfig holds glob patterns for files whose references are left
// untouched.
type ExcludeConfig struct {
	Paths []string `yaml:"paths"`
}

// Options are the resolved planning knobs.
type Options struct {
	UsageThreshold    int
	MaxInlineSegments int
	ExcludePaths      []string
}

// DefaultOptions returns the planning knobs used when no configuration is
// present.
func DefaultOptions() Options {
	return Options{
		UsageThreshold:    defaultUsageThreshold,
		MaxInlineSegments: defaultMaxInlineSegments,
	}
}

// Options merges the config over the defaults.
func (c Config) Options() Options {
	o := DefaultOptions()
	if c.Strategy.UsageThreshold > 0 {
		o.UsageThreshold = c.Strategy.UsageThreshold
	}
	if c.Strategy.MaxInlineSegments > 0 {
		o.MaxInlineSegments = c.Strategy.MaxInlineSegments
	}
	o.ExcludePaths = append(o.ExcludePaths, c.Exclude.Paths...)
	return o
}

// LoadConfig reads modmove.yaml from the crate root.
// Returns zero Config and nil error if the file does not exist.
func LoadConfig(rootPath string) (Config, error) {
	p := filepath.Join(rootPath, "modmove.yaml")
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("modmove.yaml: %w", err)
	}
	if err := validateGlobPatterns(cfg.Exclude.Paths); err != nil {
		return Config{}, fmt.Errorf("modmove.yaml: %w", err)
	}
	return cfg, nil
}

// validateGlobPatterns checks that none of the patterns use unsupported character classes.
func validateGlobPatterns(patterns []string) error {
	for _, p := range patterns {
		if strings.Contains(p, "[") {
			return fmt.Errorf("unsupported glob pattern (character class): %s", p)
		}
	}
	return nil
}

// globMatch matches shell-style globs.
// '*' matches any sequence of characters (including '/').
// '?' matches exactly one character.
// '[' is treated as a literal character (character classes not supported).
func globMatch(pattern, s string) bool {
	return globMatchImpl([]rune(pattern), []rune(s))
}

func globMatchImpl(pattern, s []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Skip consecutive '*'.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			// Try matching the rest of the pattern at every position.
			for i := 0; i <= len(s); i++ {
				if globMatchImpl(pattern, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		default:
			if len(s) == 0 || pattern[0] != s[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}
