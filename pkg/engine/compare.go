package engine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/stackmigrate/stackmigrate/pkg/template"
)

// Comparer performs recursive structural comparison between two resource
// sets. Any difference at any depth in Type, Properties, or Metadata marks
// a resource as modified; there is no tolerance layer here. Fuzzy
// classification of differences is entirely the Classifier's job.
type Comparer struct{}

// NewComparer creates a new template comparer.
func NewComparer() *Comparer {
	return &Comparer{}
}

// Compare diffs the resource sets of two templates keyed by logical ID.
func (c *Comparer) Compare(original, migrated *template.Template) *TemplateComparisonResult {
	result := &TemplateComparisonResult{
		OriginalCount:     len(original.Resources),
		MigratedCount:     len(migrated.Resources),
		MissingResources:  []string{},
		ExtraResources:    []string{},
		ModifiedResources: []ModifiedResource{},
	}

	// Key set differences first.
	for _, id := range sortedResourceIDs(original.Resources) {
		if _, ok := migrated.Resources[id]; !ok {
			result.MissingResources = append(result.MissingResources, id)
		}
	}
	for _, id := range sortedResourceIDs(migrated.Resources) {
		if _, ok := original.Resources[id]; !ok {
			result.ExtraResources = append(result.ExtraResources, id)
		}
	}

	// Per-resource comparison for the intersection.
	for _, id := range sortedResourceIDs(original.Resources) {
		migratedRes, ok := migrated.Resources[id]
		if !ok {
			continue
		}
		originalRes := original.Resources[id]

		differences := c.compareResource(originalRes, migratedRes)
		if len(differences) > 0 {
			result.ModifiedResources = append(result.ModifiedResources, ModifiedResource{
				LogicalID:   id,
				Differences: differences,
			})
		} else {
			result.MatchingCount++
		}
	}

	return result
}

// compareResource returns all difference statements between two resource
// declarations sharing a logical ID.
func (c *Comparer) compareResource(original, migrated template.Resource) []string {
	var differences []string

	if original.Type != migrated.Type {
		differences = append(differences,
			fmt.Sprintf("Type changed: %s -> %s", original.Type, migrated.Type))
	}

	differences = append(differences,
		c.deepCompare("Properties", asValue(original.Properties), asValue(migrated.Properties))...)

	if original.Metadata != nil || migrated.Metadata != nil {
		differences = append(differences,
			c.deepCompare("Metadata", asValue(original.Metadata), asValue(migrated.Metadata))...)
	}

	return differences
}

// deepCompare recursively walks two values and reports every divergence as
// a difference statement rooted at path. Arrays are compared positionally:
// reordering elements with identical content is a difference, since
// ordered lists (e.g. policy statements) carry significant order.
func (c *Comparer) deepCompare(path string, original, migrated interface{}) []string {
	if original == nil && migrated == nil {
		return nil
	}
	if original == nil {
		return []string{fmt.Sprintf("%s added: %s", path, renderValue(migrated))}
	}
	if migrated == nil {
		return []string{fmt.Sprintf("%s removed: %s", path, renderValue(original))}
	}

	origKind := valueKind(original)
	migKind := valueKind(migrated)
	if origKind != migKind {
		return []string{fmt.Sprintf("%s kind changed: %s -> %s", path, origKind, migKind)}
	}

	switch orig := original.(type) {
	case map[string]interface{}:
		mig := migrated.(map[string]interface{})
		return c.compareMaps(path, orig, mig)
	case []interface{}:
		mig := migrated.([]interface{})
		return c.compareSlices(path, orig, mig)
	default:
		if !scalarEqual(original, migrated) {
			return []string{fmt.Sprintf("%s value changed: %s -> %s",
				path, renderValue(original), renderValue(migrated))}
		}
		return nil
	}
}

func (c *Comparer) compareMaps(path string, original, migrated map[string]interface{}) []string {
	var differences []string

	for _, key := range sortedKeys(original) {
		childPath := path + "." + key
		migVal, ok := migrated[key]
		if !ok {
			differences = append(differences,
				fmt.Sprintf("%s removed: %s", childPath, renderValue(original[key])))
			continue
		}
		differences = append(differences, c.deepCompare(childPath, original[key], migVal)...)
	}

	for _, key := range sortedKeys(migrated) {
		if _, ok := original[key]; !ok {
			differences = append(differences,
				fmt.Sprintf("%s.%s added: %s", path, key, renderValue(migrated[key])))
		}
	}

	return differences
}

func (c *Comparer) compareSlices(path string, original, migrated []interface{}) []string {
	var differences []string

	for i := range original {
		childPath := fmt.Sprintf("%s[%d]", path, i)
		if i >= len(migrated) {
			differences = append(differences,
				fmt.Sprintf("%s removed: %s", childPath, renderValue(original[i])))
			continue
		}
		differences = append(differences, c.deepCompare(childPath, original[i], migrated[i])...)
	}

	for i := len(original); i < len(migrated); i++ {
		differences = append(differences,
			fmt.Sprintf("%s[%d] added: %s", path, i, renderValue(migrated[i])))
	}

	return differences
}

// valueKind collapses runtime types into comparison categories.
func valueKind(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, int, int64:
		return "number"
	default:
		return reflect.TypeOf(v).String()
	}
}

// scalarEqual compares two scalar values, treating numerically equal
// numbers of different Go types as equal.
func scalarEqual(a, b interface{}) bool {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// renderValue serializes a value for inclusion in a difference statement.
func renderValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// asValue converts a possibly-nil map into an interface value where nil
// maps become untyped nil.
func asValue(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	return m
}

func sortedResourceIDs(resources map[string]template.Resource) []string {
	ids := make([]string, 0, len(resources))
	for id := range resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
