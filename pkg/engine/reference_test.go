package engine

import (
	"reflect"
	"testing"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   Reference
		wantOK bool
	}{
		{
			name:   "plain ref",
			value:  map[string]interface{}{"Ref": "TableA"},
			want:   Reference{Kind: ReferencePlain, LogicalID: "TableA"},
			wantOK: true,
		},
		{
			name:   "get att list form",
			value:  map[string]interface{}{"Fn::GetAtt": []interface{}{"TableA", "Arn"}},
			want:   Reference{Kind: ReferenceDerivedAttribute, LogicalID: "TableA", Attribute: "Arn"},
			wantOK: true,
		},
		{
			name:   "get att shorthand string",
			value:  map[string]interface{}{"Fn::GetAtt": "TableA.Arn"},
			want:   Reference{Kind: ReferenceDerivedAttribute, LogicalID: "TableA", Attribute: "Arn"},
			wantOK: true,
		},
		{
			name:   "literal string that looks like a ref",
			value:  "arn:aws:dynamodb:us-east-1:123456789012:table/TableA",
			wantOK: false,
		},
		{
			name:   "map with extra keys is not a ref",
			value:  map[string]interface{}{"Ref": "TableA", "Extra": true},
			wantOK: false,
		},
		{
			name:   "ref with non-string target",
			value:  map[string]interface{}{"Ref": 42.0},
			wantOK: false,
		},
		{
			name:   "get att with one element",
			value:  map[string]interface{}{"Fn::GetAtt": []interface{}{"TableA"}},
			wantOK: false,
		},
		{
			name:   "get att shorthand without attribute",
			value:  map[string]interface{}{"Fn::GetAtt": "TableA"},
			wantOK: false,
		},
		{
			name:   "nil value",
			value:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReference(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("ParseReference() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseReference() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFindReferences(t *testing.T) {
	tree := map[string]interface{}{
		"PolicyDocument": map[string]interface{}{
			"Statement": []interface{}{
				map[string]interface{}{
					"Effect":   "Allow",
					"Resource": map[string]interface{}{"Fn::GetAtt": []interface{}{"TableA", "Arn"}},
				},
			},
		},
		"QueueUrl": map[string]interface{}{"Ref": "QueueB"},
		"Comment":  "mentions TableA but is just a string",
	}

	refs := FindReferences(tree)

	want := []Reference{
		{Kind: ReferenceDerivedAttribute, LogicalID: "TableA", Attribute: "Arn"},
		{Kind: ReferencePlain, LogicalID: "QueueB"},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("FindReferences() = %+v, want %+v", refs, want)
	}
}

func TestFindReferences_DoesNotDescendIntoReferencePayloads(t *testing.T) {
	// A reference node's own payload must not be walked again; the GetAtt
	// list contains strings that must not be treated as nested content.
	tree := map[string]interface{}{
		"Value": map[string]interface{}{"Fn::GetAtt": []interface{}{"TableA", "Arn"}},
	}

	refs := FindReferences(tree)
	if len(refs) != 1 {
		t.Fatalf("expected exactly 1 reference, got %d: %+v", len(refs), refs)
	}
}

func TestFindReferences_Deterministic(t *testing.T) {
	tree := map[string]interface{}{
		"Zeta":  map[string]interface{}{"Ref": "C"},
		"Alpha": map[string]interface{}{"Ref": "A"},
		"Mid":   map[string]interface{}{"Ref": "B"},
	}

	first := FindReferences(tree)
	for i := 0; i < 10; i++ {
		if got := FindReferences(tree); !reflect.DeepEqual(got, first) {
			t.Fatalf("walk order is not deterministic: %+v vs %+v", got, first)
		}
	}

	// Keys are visited in lexical order.
	want := []string{"A", "B", "C"}
	for i, ref := range first {
		if ref.LogicalID != want[i] {
			t.Errorf("reference %d = %s, want %s", i, ref.LogicalID, want[i])
		}
	}
}
