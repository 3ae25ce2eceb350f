package template

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template represents a parsed infrastructure template document.
type Template struct {
	// Description is the optional template description.
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`

	// Resources maps logical IDs to resource declarations.
	Resources map[string]Resource `json:"Resources" yaml:"Resources" validate:"required,min=1,dive"`

	// Outputs are the template outputs, if any.
	Outputs map[string]interface{} `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`

	// Parameters are the template parameters, if any.
	Parameters map[string]interface{} `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`

	// Metadata is template-level metadata, if any.
	Metadata map[string]interface{} `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`

	// Extra holds top-level sections outside the typed model (Mappings,
	// Conditions, Transform, format version markers). They are carried
	// through serialization so document-level comparison can see them.
	Extra map[string]interface{} `json:"-" yaml:"-"`
}

// templateAlias avoids recursing into the custom (un)marshalers.
type templateAlias Template

// knownTemplateKey reports whether a top-level key maps to a typed field.
func knownTemplateKey(key string) bool {
	switch key {
	case "Description", "Resources", "Outputs", "Parameters", "Metadata":
		return true
	}
	return false
}

// UnmarshalJSON decodes the typed sections and retains every other
// top-level key in Extra.
func (t *Template) UnmarshalJSON(data []byte) error {
	var alias templateAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Template(alias)
	for key, val := range raw {
		if knownTemplateKey(key) {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(val, &v); err != nil {
			return err
		}
		if t.Extra == nil {
			t.Extra = make(map[string]interface{})
		}
		t.Extra[key] = v
	}
	return nil
}

// MarshalJSON emits the typed sections and the retained extras as one
// top-level object.
func (t Template) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.Extra)+5)
	for key, val := range t.Extra {
		out[key] = val
	}
	if t.Description != "" {
		out["Description"] = t.Description
	}
	out["Resources"] = t.Resources
	if t.Outputs != nil {
		out["Outputs"] = t.Outputs
	}
	if t.Parameters != nil {
		out["Parameters"] = t.Parameters
	}
	if t.Metadata != nil {
		out["Metadata"] = t.Metadata
	}
	return json.Marshal(out)
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML documents.
func (t *Template) UnmarshalYAML(value *yaml.Node) error {
	var alias templateAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*t = Template(alias)
	for key, val := range raw {
		if knownTemplateKey(key) {
			continue
		}
		if t.Extra == nil {
			t.Extra = make(map[string]interface{})
		}
		t.Extra[key] = val
	}
	return nil
}

// Resource is a single resource declaration within a template.
type Resource struct {
	// Type is the resource type identifier (e.g., "AWS::S3::Bucket").
	Type string `json:"Type" yaml:"Type" validate:"required"`

	// Properties is the resource property tree.
	Properties map[string]interface{} `json:"Properties,omitempty" yaml:"Properties,omitempty"`

	// Metadata is optional per-resource metadata.
	Metadata map[string]interface{} `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`

	// DependsOn lists logical IDs this resource explicitly depends on.
	// The document form may be a single string or a list of strings.
	DependsOn DependsOnList `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`

	// Condition is the optional condition name guarding this resource.
	Condition string `json:"Condition,omitempty" yaml:"Condition,omitempty"`

	// DeletionPolicy is the optional deletion policy for this resource.
	DeletionPolicy string `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
}

// DependsOnList normalizes the DependsOn field, which templates may
// declare as either a scalar string or a list of strings.
type DependsOnList []string

// UnmarshalJSON accepts both "DependsOn": "Foo" and "DependsOn": ["Foo"].
func (d *DependsOnList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*d = DependsOnList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("DependsOn must be a string or a list of strings")
	}
	*d = DependsOnList(list)
	return nil
}

// MarshalJSON always emits the list form.
func (d DependsOnList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(d))
}

// UnmarshalYAML accepts both scalar and sequence forms.
func (d *DependsOnList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*d = DependsOnList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*d = DependsOnList(list)
		return nil
	default:
		return fmt.Errorf("DependsOn must be a string or a list of strings")
	}
}
