package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Patterns extends the built-in console heuristics for other shell flavors.
//
// Example YAML:
//
//	readiness:
//	  - 'pry\(main\)>'
//	prompts:
//	  - '^\[\d+\] pry\(\w+\)> ?$'
//	error_classes:
//	  - Faraday::TimeoutError
type Patterns struct {
	Readiness    []string `yaml:"readiness" toml:"readiness"`
	Prompts      []string `yaml:"prompts" toml:"prompts"`
	ErrorClasses []string `yaml:"error_classes" toml:"error_classes"`
}

// LoadPatterns reads a YAML (.yaml, .yml) or TOML (.toml) pattern file.
func LoadPatterns(path string) (*Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}

	var p Patterns
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".toml":
		err = toml.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("unsupported patterns file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse patterns file %s: %w", path, err)
	}
	return &p, nil
}

// Options compiles the patterns into console manager options.
func (p *Patterns) Options() ([]console.Option, error) {
	if p == nil {
		return nil, nil
	}

	ready, err := console.CompileMatchers("readiness", p.Readiness)
	if err != nil {
		return nil, err
	}
	prompts, err := console.CompileMatchers("prompt", p.Prompts)
	if err != nil {
		return nil, err
	}

	var opts []console.Option
	if len(ready) > 0 {
		opts = append(opts, console.WithReadinessMatchers(ready...))
	}
	if len(prompts) > 0 {
		opts = append(opts, console.WithPromptMatchers(prompts...))
	}
	if len(p.ErrorClasses) > 0 {
		opts = append(opts, console.WithErrorClasses(p.ErrorClasses...))
	}
	return opts, nil
}
