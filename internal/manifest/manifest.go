// Package manifest reads the YAML files that describe a sequence of
// loader operations against a page.
//
//	page: index.html
//	base_url: http://localhost:8765/assets/
//	steps:
//	  - op: load
//	    type: js
//	    url: app.v1.js
//	    name: app
//	    wait: true
//	  - op: prefetch
//	    type: css
//	    url: print.css
package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Op is a loader operation.
type Op string

// Supported operations.
const (
	OpLoad     Op = "load"
	OpUnload   Op = "unload"
	OpIgnore   Op = "ignore"
	OpPrefetch Op = "prefetch"
)

// Validation errors.
var (
	ErrUnknownOp   = errors.New("unknown op")
	ErrInvalidKind = errors.New("type must be js or css")
	ErrMissingURL  = errors.New("url is required")
	ErrWaitNotLoad = errors.New("wait is only valid for load steps")
)

// Step is one operation.
type Step struct {
	Op   Op     `yaml:"op" json:"op"`
	Type string `yaml:"type" json:"type"`
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Wait holds the following steps until this load completes.
	Wait bool `yaml:"wait,omitempty" json:"wait,omitempty"`
}

// Manifest is a page plus the steps to run against it.
type Manifest struct {
	// Page is a path to the HTML page. Empty means a blank document.
	Page string `yaml:"page,omitempty" json:"page,omitempty"`
	// BaseURL is what relative resource URLs resolve against.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Steps   []Step `yaml:"steps" json:"steps"`
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate reports every invalid step.
func (m *Manifest) Validate() error {
	var errs []error
	for i, s := range m.Steps {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s %s): %w", i+1, s.Op, s.URL, err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	switch s.Op {
	case OpLoad, OpUnload, OpIgnore, OpPrefetch:
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, s.Op)
	}
	if s.Type != "js" && s.Type != "css" {
		return fmt.Errorf("%w, got %q", ErrInvalidKind, s.Type)
	}
	if s.URL == "" {
		return ErrMissingURL
	}
	if s.Wait && s.Op != OpLoad {
		return ErrWaitNotLoad
	}
	return nil
}
