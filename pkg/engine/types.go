package engine

import (
	"time"

	"github.com/stackmigrate/stackmigrate/pkg/template"
)

// ResourceRecord is an immutable view of a single resource extracted from
// a template. Identity is the LogicalID within one template.
type ResourceRecord struct {
	// LogicalID is the unique key of this resource within its template.
	LogicalID string `json:"logical_id"`

	// Type is the resource type identifier.
	Type string `json:"type"`

	// Properties is the resource property tree.
	Properties map[string]interface{} `json:"properties,omitempty"`

	// Metadata is optional per-resource metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// DependsOn lists logical IDs this resource explicitly depends on,
	// in declaration order.
	DependsOn []string `json:"depends_on,omitempty"`
}

// RelationshipKind categorizes an inferred relationship between resources.
type RelationshipKind string

const (
	// RelationshipPermissionGrant marks a policy statement granting access
	// to another resource.
	RelationshipPermissionGrant RelationshipKind = "permission-grant"

	// RelationshipNetworkAccess marks a security rule allowing traffic to
	// or from another resource.
	RelationshipNetworkAccess RelationshipKind = "network-access"

	// RelationshipDataReference marks a generic structural reference from
	// one resource's properties to another resource.
	RelationshipDataReference RelationshipKind = "data-reference"
)

// RelationshipRecord is a derived relationship between two resources.
// Relationships are evidence, not authoritative state; duplicates with
// different evidence are permitted.
type RelationshipRecord struct {
	// Source is the logical ID of the resource the relationship originates from.
	Source string `json:"source"`

	// Target is the logical ID of the referenced resource.
	Target string `json:"target"`

	// Kind is the relationship category.
	Kind RelationshipKind `json:"kind"`

	// Evidence holds the structured data that produced this relationship,
	// kept for audit and debugging.
	Evidence map[string]interface{} `json:"evidence,omitempty"`
}

// CycleEdge identifies a dependency edge that participates in a detected
// dependency cycle. Extraction does not re-enter these edges, so ordering
// guarantees do not hold for their members.
type CycleEdge struct {
	// From is the logical ID of the resource whose DependsOn entry closed
	// the cycle.
	From string `json:"from"`

	// To is the logical ID the edge points back to.
	To string `json:"to"`
}

// StackAnalysisResult is the output of analyzing one stack template.
// It is created once per analysis run and read-only afterward.
type StackAnalysisResult struct {
	// AnalysisID uniquely identifies this analysis run.
	AnalysisID string `json:"analysis_id"`

	// StackName is the name of the analyzed stack.
	StackName string `json:"stack_name"`

	// RawTemplate is the parsed template the analysis was run against.
	RawTemplate *template.Template `json:"-"`

	// Resources lists the extracted resource records in dependency order.
	Resources []ResourceRecord `json:"resources"`

	// Outputs are the template outputs, if any.
	Outputs map[string]interface{} `json:"outputs,omitempty"`

	// Parameters are the template parameters, if any.
	Parameters map[string]interface{} `json:"parameters,omitempty"`

	// Metadata is template-level metadata, if any.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CycleEdges lists dependency edges found to participate in cycles.
	CycleEdges []CycleEdge `json:"cycle_edges,omitempty"`

	// AnalyzedAt is when the analysis completed.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// ResourceIndex returns the position of a logical ID in the dependency
// ordering, or -1 if the resource is not present.
func (r *StackAnalysisResult) ResourceIndex(logicalID string) int {
	for i, res := range r.Resources {
		if res.LogicalID == logicalID {
			return i
		}
	}
	return -1
}

// ModifiedResource describes a resource present in both templates whose
// type, properties, or metadata differ.
type ModifiedResource struct {
	// LogicalID is the resource's logical ID.
	LogicalID string `json:"logical_id"`

	// Differences lists human-readable difference statements, one per
	// divergence found at any depth.
	Differences []string `json:"differences"`
}

// TemplateComparisonResult is the structured output of the template diff
// engine.
type TemplateComparisonResult struct {
	// OriginalCount is the number of resources in the original template.
	OriginalCount int `json:"original_count"`

	// MigratedCount is the number of resources in the migrated template.
	MigratedCount int `json:"migrated_count"`

	// MatchingCount is the number of resources present in both templates
	// with no differences.
	MatchingCount int `json:"matching_count"`

	// MissingResources lists logical IDs present only in the original.
	MissingResources []string `json:"missing_resources"`

	// ExtraResources lists logical IDs present only in the migrated template.
	ExtraResources []string `json:"extra_resources"`

	// ModifiedResources lists resources present in both templates that differ.
	ModifiedResources []ModifiedResource `json:"modified_resources"`
}

// HasDifferences reports whether the comparison found any missing, extra,
// or modified resources.
func (c *TemplateComparisonResult) HasDifferences() bool {
	return len(c.MissingResources) > 0 ||
		len(c.ExtraResources) > 0 ||
		len(c.ModifiedResources) > 0
}

// DiffStatus is the binary verdict of the change classifier.
type DiffStatus string

const (
	// DiffStatusNoChanges means the migrated template is state-equivalent
	// to the original, modulo configured non-functional differences.
	DiffStatusNoChanges DiffStatus = "NO_CHANGES"

	// DiffStatusHasChanges means functionally significant differences were
	// found and manual review is required.
	DiffStatusHasChanges DiffStatus = "HAS_CHANGES"
)

// ValidationResult is the structured outcome of a full migration
// validation run. It is built once per run and never mutated after return.
type ValidationResult struct {
	// ValidationID uniquely identifies this validation run.
	ValidationID string `json:"validation_id"`

	// StackName is the name of the validated stack.
	StackName string `json:"stack_name"`

	// Success reports whether the pipeline ran to completion without
	// fatal errors. It is independent of DiffStatus.
	Success bool `json:"success"`

	// DiffStatus is the classifier verdict.
	DiffStatus DiffStatus `json:"diff_status"`

	// ValidationErrors lists fatal pipeline errors (synthesis failures,
	// comparison crashes). Non-empty implies Success=false.
	ValidationErrors []string `json:"validation_errors,omitempty"`

	// Warnings lists non-fatal findings, including a HAS_CHANGES verdict.
	Warnings []string `json:"warnings,omitempty"`

	// Comparison is the structural comparison result, when available.
	Comparison *TemplateComparisonResult `json:"comparison,omitempty"`

	// StartedAt is when the validation run began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the validation run finished.
	CompletedAt time.Time `json:"completed_at"`
}
