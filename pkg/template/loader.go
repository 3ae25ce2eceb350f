// Package template loads and validates infrastructure template documents.
// Templates are JSON (or YAML) objects with a top-level Resources map of
// logical IDs to {Type, Properties, Metadata, DependsOn} declarations.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Loader reads template documents from disk and validates their shape.
type Loader struct {
	validator *validator.Validate
}

// NewLoader creates a new template loader.
func NewLoader() *Loader {
	return &Loader{
		validator: validator.New(),
	}
}

// Load reads and parses the template at path. YAML documents are accepted
// when the file extension is .yaml or .yml; everything else is parsed as
// JSON. Missing files and malformed documents are fatal input errors.
func (l *Loader) Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return l.ParseYAML(data)
	default:
		return l.Parse(data)
	}
}

// Parse parses an in-memory JSON template document.
func (l *Loader) Parse(data []byte) (*Template, error) {
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse template JSON: %w", err)
	}

	if err := l.validate(&tpl); err != nil {
		return nil, err
	}

	return &tpl, nil
}

// ParseYAML parses an in-memory YAML template document. Numeric values are
// normalized to float64 so that a YAML template and its JSON equivalent
// produce identical in-memory property trees.
func (l *Loader) ParseYAML(data []byte) (*Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse template YAML: %w", err)
	}

	if err := l.validate(&tpl); err != nil {
		return nil, err
	}

	normalizeNumbers(&tpl)
	return &tpl, nil
}

// validate checks the structural requirements on a parsed template.
func (l *Loader) validate(tpl *Template) error {
	if len(tpl.Resources) == 0 {
		return fmt.Errorf("template has no Resources section")
	}

	if err := l.validator.Struct(tpl); err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}

	for logicalID, res := range tpl.Resources {
		if res.Type == "" {
			return fmt.Errorf("resource %s has no Type", logicalID)
		}
	}

	return nil
}

// normalizeNumbers rewrites integer values produced by the YAML decoder
// into float64, matching what encoding/json produces for the same document.
func normalizeNumbers(tpl *Template) {
	for id, res := range tpl.Resources {
		res.Properties = normalizeMap(res.Properties)
		res.Metadata = normalizeMap(res.Metadata)
		tpl.Resources[id] = res
	}
	tpl.Outputs = normalizeMap(tpl.Outputs)
	tpl.Parameters = normalizeMap(tpl.Parameters)
	tpl.Metadata = normalizeMap(tpl.Metadata)
	tpl.Extra = normalizeMap(tpl.Extra)
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case map[string]interface{}:
		return normalizeMap(val)
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}
		return val
	default:
		return v
	}
}
