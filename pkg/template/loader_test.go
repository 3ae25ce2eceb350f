package template

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const jsonTemplate = `{
  "AWSTemplateFormatVersion": "2010-09-09",
  "Description": "orders stack",
  "Mappings": {
    "RegionMap": {"us-east-1": {"Shards": 4}}
  },
  "Resources": {
    "Table": {
      "Type": "AWS::DynamoDB::Table",
      "Properties": {
        "BillingMode": "PAY_PER_REQUEST",
        "ReadCapacity": 5
      }
    },
    "App": {
      "Type": "AWS::Lambda::Function",
      "DependsOn": ["Table"]
    }
  }
}`

const yamlTemplate = `
AWSTemplateFormatVersion: "2010-09-09"
Description: orders stack
Mappings:
  RegionMap:
    us-east-1:
      Shards: 4
Resources:
  Table:
    Type: AWS::DynamoDB::Table
    Properties:
      BillingMode: PAY_PER_REQUEST
      ReadCapacity: 5
  App:
    Type: AWS::Lambda::Function
    DependsOn:
      - Table
`

func TestParse(t *testing.T) {
	tpl, err := NewLoader().Parse([]byte(jsonTemplate))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if tpl.Description != "orders stack" {
		t.Errorf("Description = %q", tpl.Description)
	}
	if len(tpl.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(tpl.Resources))
	}

	table := tpl.Resources["Table"]
	if table.Type != "AWS::DynamoDB::Table" {
		t.Errorf("Type = %s", table.Type)
	}
	if table.Properties["ReadCapacity"] != float64(5) {
		t.Errorf("ReadCapacity = %v (%T), want float64(5)",
			table.Properties["ReadCapacity"], table.Properties["ReadCapacity"])
	}

	app := tpl.Resources["App"]
	if !reflect.DeepEqual([]string(app.DependsOn), []string{"Table"}) {
		t.Errorf("DependsOn = %v", app.DependsOn)
	}
}

func TestParseYAML_EquivalentToJSON(t *testing.T) {
	loader := NewLoader()

	fromJSON, err := loader.Parse([]byte(jsonTemplate))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	fromYAML, err := loader.ParseYAML([]byte(yamlTemplate))
	if err != nil {
		t.Fatalf("ParseYAML() error: %v", err)
	}

	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Errorf("JSON and YAML parses differ:\n%+v\n%+v", fromJSON, fromYAML)
	}
}

func TestParse_RetainsUnknownTopLevelSections(t *testing.T) {
	tpl, err := NewLoader().Parse([]byte(jsonTemplate))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if tpl.Extra["AWSTemplateFormatVersion"] != "2010-09-09" {
		t.Errorf("Extra format version = %v", tpl.Extra["AWSTemplateFormatVersion"])
	}
	mappings, ok := tpl.Extra["Mappings"].(map[string]interface{})
	if !ok {
		t.Fatalf("Mappings not retained: %v", tpl.Extra)
	}
	region := mappings["RegionMap"].(map[string]interface{})["us-east-1"].(map[string]interface{})
	if region["Shards"] != float64(4) {
		t.Errorf("Shards = %v (%T), want float64(4)", region["Shards"], region["Shards"])
	}

	// Retained sections survive serialization, so document-level diffs
	// can see their removal.
	data, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	for _, key := range []string{"AWSTemplateFormatVersion", "Mappings", "Resources", "Description"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("serialized template missing %s", key)
		}
	}
}

func TestParse_ScalarDependsOn(t *testing.T) {
	doc := `{
	  "Resources": {
	    "A": {"Type": "T", "DependsOn": "B"},
	    "B": {"Type": "T"}
	  }
	}`

	tpl, err := NewLoader().Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !reflect.DeepEqual([]string(tpl.Resources["A"].DependsOn), []string{"B"}) {
		t.Errorf("DependsOn = %v, want [B]", tpl.Resources["A"].DependsOn)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "malformed json", doc: `{"Resources": `},
		{name: "no resources section", doc: `{"Description": "empty"}`},
		{name: "empty resources", doc: `{"Resources": {}}`},
		{name: "resource without type", doc: `{"Resources": {"A": {"Properties": {}}}}`},
		{name: "depends on wrong shape", doc: `{"Resources": {"A": {"Type": "T", "DependsOn": 42}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader().Parse([]byte(tt.doc)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "stack.template.json")
	if err := os.WriteFile(jsonPath, []byte(jsonTemplate), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "stack.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlTemplate), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader()

	fromJSON, err := loader.Load(jsonPath)
	if err != nil {
		t.Fatalf("Load(json) error: %v", err)
	}
	fromYAML, err := loader.Load(yamlPath)
	if err != nil {
		t.Fatalf("Load(yaml) error: %v", err)
	}

	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Error("loading equivalent JSON and YAML files must produce identical templates")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := NewLoader().Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
