package engine

import (
	"strings"

	"github.com/stackmigrate/stackmigrate/pkg/telemetry"
)

// RelationshipAnalyzer derives implicit relationships between resources by
// pattern-matching their property trees. Three independent passes run per
// resource: permission grants, network access, and generic data references.
// Results are concatenated; duplicate (source, target, kind) triples with
// different evidence are expected and kept.
type RelationshipAnalyzer struct {
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewRelationshipAnalyzer creates a new relationship analyzer. metrics may
// be nil.
func NewRelationshipAnalyzer(logger *telemetry.Logger, metrics *telemetry.Metrics) *RelationshipAnalyzer {
	return &RelationshipAnalyzer{
		logger:  logger.NewComponentLogger("relationships"),
		metrics: metrics,
	}
}

// Analyze infers relationships for every resource in the analysis result.
func (a *RelationshipAnalyzer) Analyze(result *StackAnalysisResult) []RelationshipRecord {
	var rels []RelationshipRecord

	for i := range result.Resources {
		res := &result.Resources[i]
		rels = append(rels, a.permissionGrants(res)...)
		rels = append(rels, a.networkAccess(res)...)
		rels = append(rels, a.dataReferences(res)...)
	}

	if a.metrics != nil {
		counts := make(map[RelationshipKind]int)
		for _, rel := range rels {
			counts[rel.Kind]++
		}
		for kind, n := range counts {
			a.metrics.RecordRelationships(string(kind), n)
		}
	}

	a.logger.WithStackName(result.StackName).
		Debugf("inferred %d relationships across %d resources", len(rels), len(result.Resources))

	return rels
}

// isPolicyLike reports whether a resource type denotes an IAM policy or
// role resource.
func isPolicyLike(resourceType string) bool {
	return strings.Contains(resourceType, "Policy") || strings.Contains(resourceType, "Role")
}

// isSecurityGroupLike reports whether a resource type denotes a security
// group or firewall rule resource.
func isSecurityGroupLike(resourceType string) bool {
	return strings.Contains(resourceType, "SecurityGroup")
}

// permissionGrants extracts permission-grant relationships from policy and
// role resources. For every Allow statement, each Resource entry that is a
// structural reference to another resource produces one relationship.
// Literal ARN strings are not traceable and are ignored.
func (a *RelationshipAnalyzer) permissionGrants(res *ResourceRecord) []RelationshipRecord {
	if !isPolicyLike(res.Type) {
		return nil
	}

	doc, ok := res.Properties["PolicyDocument"].(map[string]interface{})
	if !ok {
		// Roles may carry inline policies instead of a single document.
		return a.inlinePolicyGrants(res)
	}

	return a.grantsFromDocument(res, doc)
}

// inlinePolicyGrants handles role resources whose Policies property embeds
// a list of {PolicyName, PolicyDocument} entries.
func (a *RelationshipAnalyzer) inlinePolicyGrants(res *ResourceRecord) []RelationshipRecord {
	policies, ok := res.Properties["Policies"].([]interface{})
	if !ok {
		return nil
	}

	var rels []RelationshipRecord
	for _, p := range policies {
		entry, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		doc, ok := entry["PolicyDocument"].(map[string]interface{})
		if !ok {
			continue
		}
		rels = append(rels, a.grantsFromDocument(res, doc)...)
	}
	return rels
}

func (a *RelationshipAnalyzer) grantsFromDocument(res *ResourceRecord, doc map[string]interface{}) []RelationshipRecord {
	statements, ok := doc["Statement"].([]interface{})
	if !ok {
		return nil
	}

	var rels []RelationshipRecord
	for _, s := range statements {
		stmt, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		if effect, _ := stmt["Effect"].(string); effect != "Allow" {
			continue
		}
		target, ok := stmt["Resource"]
		if !ok {
			continue
		}

		actions := normalizeStringList(stmt["Action"])

		for _, entry := range asList(target) {
			ref, ok := ParseReference(entry)
			if !ok {
				continue
			}
			rels = append(rels, RelationshipRecord{
				Source: res.LogicalID,
				Target: ref.LogicalID,
				Kind:   RelationshipPermissionGrant,
				Evidence: map[string]interface{}{
					"actions":  actions,
					"resource": entry,
				},
			})
		}
	}
	return rels
}

// networkAccess extracts network-access relationships from security-group
// resources. Every ingress or egress rule whose peer field is a structural
// reference (not a literal CIDR) yields one relationship.
func (a *RelationshipAnalyzer) networkAccess(res *ResourceRecord) []RelationshipRecord {
	if !isSecurityGroupLike(res.Type) {
		return nil
	}

	var rules []interface{}
	rules = append(rules, asList(res.Properties["SecurityGroupIngress"])...)
	rules = append(rules, asList(res.Properties["SecurityGroupEgress"])...)

	// Peer fields that can carry a structural reference to another
	// security group or resource.
	peerFields := []string{
		"SourceSecurityGroupId",
		"DestinationSecurityGroupId",
		"SourceSecurityGroupName",
	}

	var rels []RelationshipRecord
	for _, r := range rules {
		rule, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		for _, field := range peerFields {
			peer, ok := rule[field]
			if !ok {
				continue
			}
			ref, ok := ParseReference(peer)
			if !ok {
				continue
			}
			rels = append(rels, RelationshipRecord{
				Source: res.LogicalID,
				Target: ref.LogicalID,
				Kind:   RelationshipNetworkAccess,
				Evidence: map[string]interface{}{
					"protocol": rule["IpProtocol"],
					"fromPort": rule["FromPort"],
					"toPort":   rule["ToPort"],
				},
			})
		}
	}
	return rels
}

// dataReferences is the generic fallback pass. It walks the structured
// property tree of every resource and records one relationship per
// intrinsic reference found, excluding self-references. Walking the parsed
// tree (rather than scanning serialized text) means incidental substring
// matches inside unrelated string values can never produce a relationship.
func (a *RelationshipAnalyzer) dataReferences(res *ResourceRecord) []RelationshipRecord {
	var rels []RelationshipRecord
	for _, ref := range FindReferences(res.Properties) {
		if ref.LogicalID == res.LogicalID {
			continue
		}
		rels = append(rels, RelationshipRecord{
			Source: res.LogicalID,
			Target: ref.LogicalID,
			Kind:   RelationshipDataReference,
			Evidence: map[string]interface{}{
				"type":      string(ref.Kind),
				"attribute": ref.Attribute,
			},
		})
	}
	return rels
}

// asList normalizes a value that may be a single entry or a list.
func asList(v interface{}) []interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return val
	default:
		return []interface{}{val}
	}
}

// normalizeStringList flattens an Action field that may be a string or a
// list of strings.
func normalizeStringList(v interface{}) []string {
	var out []string
	for _, entry := range asList(v) {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
