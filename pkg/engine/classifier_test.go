package engine

import (
	"testing"

	"github.com/stackmigrate/stackmigrate/pkg/template"
)

func mustClassifier(t *testing.T, cfg ClassifierConfig) *Classifier {
	t.Helper()
	c, err := NewClassifier(cfg)
	if err != nil {
		t.Fatalf("NewClassifier() error: %v", err)
	}
	return c
}

func TestNewClassifier_InvalidPattern(t *testing.T) {
	_, err := NewClassifier(ClassifierConfig{AllowPatterns: []string{"("}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !IsInput(err) {
		t.Errorf("invalid pattern must be an input error, got %v", err)
	}
}

func TestClassify_NoDifferences(t *testing.T) {
	c := mustClassifier(t, ClassifierConfig{})

	comparison := &TemplateComparisonResult{MatchingCount: 3}
	if got := c.Classify(comparison, nil); got != DiffStatusNoChanges {
		t.Errorf("Classify() = %s, want %s", got, DiffStatusNoChanges)
	}
}

func TestClassify_MetadataOnlyChangeIsCosmetic(t *testing.T) {
	// Differences confined to Metadata.Description match the built-in
	// allow-list and reduce to NO_CHANGES.
	c := mustClassifier(t, ClassifierConfig{})

	comparison := &TemplateComparisonResult{
		OriginalCount: 1,
		MigratedCount: 1,
		ModifiedResources: []ModifiedResource{
			{
				LogicalID: "BucketA",
				Differences: []string{
					`Metadata.Description value changed: "old" -> "new"`,
				},
			},
		},
	}
	rawDiff := []DiffLine{
		{Op: DiffOpRemove, Text: `      "Description": "old"`},
		{Op: DiffOpAdd, Text: `      "Description": "new"`},
	}

	if got := c.Classify(comparison, rawDiff); got != DiffStatusNoChanges {
		t.Errorf("Classify() = %s, want %s", got, DiffStatusNoChanges)
	}
}

func TestClassify_FunctionalChange(t *testing.T) {
	c := mustClassifier(t, ClassifierConfig{})

	comparison := &TemplateComparisonResult{
		OriginalCount: 1,
		MigratedCount: 1,
		ModifiedResources: []ModifiedResource{
			{
				LogicalID: "BucketA",
				Differences: []string{
					"Properties.Encrypted value changed: true -> false",
				},
			},
		},
	}

	if got := c.Classify(comparison, nil); got != DiffStatusHasChanges {
		t.Errorf("Classify() = %s, want %s", got, DiffStatusHasChanges)
	}
}

func TestClassify_ExtraResourceIsNeverCosmetic(t *testing.T) {
	c := mustClassifier(t, ClassifierConfig{})

	comparison := &TemplateComparisonResult{
		OriginalCount:  1,
		MigratedCount:  2,
		MatchingCount:  1,
		ExtraResources: []string{"BucketAPolicy"},
	}

	if got := c.Classify(comparison, nil); got != DiffStatusHasChanges {
		t.Errorf("extra resource must yield %s, got %s", DiffStatusHasChanges, got)
	}
}

func TestClassify_BuildToolMetadataResourceIsCosmetic(t *testing.T) {
	c := mustClassifier(t, ClassifierConfig{})

	comparison := &TemplateComparisonResult{
		OriginalCount:  2,
		MigratedCount:  1,
		MatchingCount:  1,
		ExtraResources: []string{"CDKMetadata"},
	}

	if got := c.Classify(comparison, nil); got != DiffStatusNoChanges {
		t.Errorf("build-tool metadata resource must be cosmetic, got %s", got)
	}
}

func TestClassify_MixedChanges(t *testing.T) {
	// One cosmetic line plus one functional line: the functional line wins.
	c := mustClassifier(t, ClassifierConfig{})

	comparison := &TemplateComparisonResult{MatchingCount: 1}
	rawDiff := []DiffLine{
		{Op: DiffOpAdd, Text: `"aws:cdk:path": "Stack/Bucket/Resource"`},
		{Op: DiffOpAdd, Text: `"BucketName": "renamed-bucket"`},
	}

	if got := c.Classify(comparison, rawDiff); got != DiffStatusHasChanges {
		t.Errorf("Classify() = %s, want %s", got, DiffStatusHasChanges)
	}
}

func TestClassify_CustomAllowList(t *testing.T) {
	c := mustClassifier(t, ClassifierConfig{AllowPatterns: []string{`BucketName`}})

	comparison := &TemplateComparisonResult{MatchingCount: 1}
	rawDiff := []DiffLine{
		{Op: DiffOpAdd, Text: `"BucketName": "renamed-bucket"`},
	}

	if got := c.Classify(comparison, rawDiff); got != DiffStatusNoChanges {
		t.Errorf("custom allow-list must permit the change, got %s", got)
	}

	// The custom list replaces the defaults entirely.
	metadataDiff := []DiffLine{
		{Op: DiffOpAdd, Text: `"aws:cdk:path": "Stack/Bucket"`},
	}
	if got := c.Classify(comparison, metadataDiff); got != DiffStatusHasChanges {
		t.Errorf("defaults must not apply with a custom list, got %s", got)
	}
}

func TestDiffLines(t *testing.T) {
	tests := []struct {
		name     string
		original string
		migrated string
		want     []DiffLine
	}{
		{
			name:     "identical",
			original: "a\nb\nc",
			migrated: "a\nb\nc",
			want:     nil,
		},
		{
			name:     "changed line",
			original: "a\nb\nc",
			migrated: "a\nx\nc",
			want: []DiffLine{
				{Op: DiffOpRemove, Text: "b"},
				{Op: DiffOpAdd, Text: "x"},
			},
		},
		{
			name:     "appended line",
			original: "a",
			migrated: "a\nb",
			want: []DiffLine{
				{Op: DiffOpAdd, Text: "b"},
			},
		},
		{
			name:     "removed line",
			original: "a\nb",
			migrated: "a",
			want: []DiffLine{
				{Op: DiffOpRemove, Text: "b"},
			},
		},
		{
			name:     "both empty",
			original: "",
			migrated: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffLines(tt.original, tt.migrated)
			if len(got) != len(tt.want) {
				t.Fatalf("DiffLines() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDiffLine_String(t *testing.T) {
	line := DiffLine{Op: DiffOpAdd, Text: "hello"}
	if line.String() != "+hello" {
		t.Errorf("String() = %q, want %q", line.String(), "+hello")
	}
}

// End-to-end: compare plus classify over whole templates.
func TestCompareAndClassify_EndToEnd(t *testing.T) {
	original := &template.Template{
		Resources: map[string]template.Resource{
			"BucketA": {
				Type: "AWS::S3::Bucket",
				Properties: map[string]interface{}{
					"Encrypted": true,
				},
				Metadata: map[string]interface{}{
					"Description": "original bucket",
				},
			},
		},
	}

	cosmetic := &template.Template{
		Resources: map[string]template.Resource{
			"BucketA": {
				Type: "AWS::S3::Bucket",
				Properties: map[string]interface{}{
					"Encrypted": true,
				},
				Metadata: map[string]interface{}{
					"Description": "regenerated bucket",
				},
			},
		},
	}

	functional := &template.Template{
		Resources: map[string]template.Resource{
			"BucketA": {
				Type: "AWS::S3::Bucket",
				Properties: map[string]interface{}{
					"Encrypted": false,
				},
				Metadata: map[string]interface{}{
					"Description": "original bucket",
				},
			},
		},
	}

	comparer := NewComparer()
	c := mustClassifier(t, ClassifierConfig{})

	if got := c.Classify(comparer.Compare(original, cosmetic), nil); got != DiffStatusNoChanges {
		t.Errorf("metadata-only change = %s, want %s", got, DiffStatusNoChanges)
	}
	if got := c.Classify(comparer.Compare(original, functional), nil); got != DiffStatusHasChanges {
		t.Errorf("encryption change = %s, want %s", got, DiffStatusHasChanges)
	}
}
