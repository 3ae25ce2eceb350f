// Package engine provides the core types and algorithms of the stackmigrate
// validation engine.
//
// # Overview
//
// stackmigrate inspects an existing infrastructure template, reconstructs
// its resource dependency graph and implicit relationships, and proves via
// structural diffing that a newly generated template is state-equivalent to
// the original (the zero-diff guarantee). The engine works in two
// independent flows:
//
//  1. Analysis - Extract resources in dependency order (Extractor) and
//     infer implicit relationships between them (RelationshipAnalyzer)
//  2. Validation - Re-synthesize the migrated definition (Synthesizer),
//     structurally diff it against the original (Comparer), and classify
//     the result into a binary verdict (Classifier, MigrationValidator)
//
// # Core Domain Types
//
//   - ResourceRecord: An immutable resource extracted from a template
//   - RelationshipRecord: A derived source->target relationship with evidence
//   - Reference: A typed intrinsic reference (plain or derived-attribute)
//   - StackAnalysisResult: The full output of one analysis run
//   - TemplateComparisonResult: The structural diff of two resource sets
//   - ValidationResult: The structured outcome of one validation run
//
// # Error Handling
//
// Errors are classified (EngineError) and only input and internal errors
// ever propagate to callers. Synthesis failures and structural findings
// such as dependency cycles are captured into result objects so automated
// pipelines always receive a structured result, never an unhandled fault.
// A dependency cycle is logged, recorded in CycleEdges, and does not halt
// extraction; ordering guarantees simply do not hold for cycle members.
//
// # Concurrency
//
// The engine is synchronous and holds no shared mutable state. Every
// analysis or validation run takes its configuration explicitly and
// produces an independent result, so concurrent runs are safe as long as
// they do not target the same filesystem output paths.
package engine
