package engine

import (
	"sort"
	"strings"
)

// ReferenceKind distinguishes the structural shapes an intrinsic reference
// can take inside a property tree.
type ReferenceKind string

const (
	// ReferencePlain is a direct reference to another resource by logical
	// ID, i.e. {"Ref": "X"}.
	ReferencePlain ReferenceKind = "plain"

	// ReferenceDerivedAttribute is a reference to an attribute derived
	// from another resource, i.e. {"Fn::GetAtt": ["X", "Arn"]}.
	ReferenceDerivedAttribute ReferenceKind = "derived-attribute"
)

// Reference is a typed intrinsic reference found in a property tree.
// Literal strings (ARNs, CIDRs, names) never produce a Reference; only
// structural reference nodes are traceable.
type Reference struct {
	// Kind is the reference shape.
	Kind ReferenceKind `json:"kind"`

	// LogicalID is the referenced resource's logical ID.
	LogicalID string `json:"logical_id"`

	// Attribute is the derived attribute name for derived-attribute
	// references, empty for plain references.
	Attribute string `json:"attribute,omitempty"`
}

// ParseReference inspects a single value and returns the Reference it
// encodes, if any. Recognized shapes:
//
//	{"Ref": "X"}
//	{"Fn::GetAtt": ["X", "Attr"]}
//	{"Fn::GetAtt": "X.Attr"}
//
// Any other value, including literal strings that merely look like
// references, yields ok=false.
func ParseReference(value interface{}) (Reference, bool) {
	m, ok := value.(map[string]interface{})
	if !ok || len(m) != 1 {
		return Reference{}, false
	}

	if ref, ok := m["Ref"]; ok {
		id, ok := ref.(string)
		if !ok || id == "" {
			return Reference{}, false
		}
		return Reference{Kind: ReferencePlain, LogicalID: id}, true
	}

	if att, ok := m["Fn::GetAtt"]; ok {
		switch v := att.(type) {
		case []interface{}:
			if len(v) < 2 {
				return Reference{}, false
			}
			id, idOK := v[0].(string)
			attr, attrOK := v[1].(string)
			if !idOK || !attrOK || id == "" {
				return Reference{}, false
			}
			return Reference{Kind: ReferenceDerivedAttribute, LogicalID: id, Attribute: attr}, true
		case string:
			// Shorthand "X.Attr" form used by some synthesizers.
			parts := strings.SplitN(v, ".", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return Reference{}, false
			}
			return Reference{Kind: ReferenceDerivedAttribute, LogicalID: parts[0], Attribute: parts[1]}, true
		default:
			return Reference{}, false
		}
	}

	return Reference{}, false
}

// FindReferences walks a parsed property tree and collects every intrinsic
// reference it contains, in depth-first order. The walk special-cases
// exactly the reference node shapes; a reference node's own payload is not
// descended into, so nested strings can never produce false positives.
func FindReferences(value interface{}) []Reference {
	var refs []Reference
	collectReferences(value, &refs)
	return refs
}

func collectReferences(value interface{}, refs *[]Reference) {
	if ref, ok := ParseReference(value); ok {
		*refs = append(*refs, ref)
		return
	}

	switch v := value.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			collectReferences(v[key], refs)
		}
	case []interface{}:
		for _, item := range v {
			collectReferences(item, refs)
		}
	}
}

// sortedKeys returns map keys in lexical order for deterministic walks.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
