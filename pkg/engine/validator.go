package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stackmigrate/stackmigrate/pkg/telemetry"
	"github.com/stackmigrate/stackmigrate/pkg/template"
)

// ValidationRequest carries the inputs of one migration validation run.
type ValidationRequest struct {
	// StackName is the stack under validation.
	StackName string

	// Original is the parsed original template.
	Original *template.Template

	// ProjectDir is the migrated project directory handed to the
	// synthesizer.
	ProjectDir string
}

// MigrationValidator orchestrates the full validation flow: re-synthesize
// the migrated definition, structurally diff it against the original,
// compute a raw textual diff, and classify the result.
//
// Validate never panics and never returns an error for pipeline failures:
// synthesis failures, comparison crashes, and load failures are captured
// into ValidationResult.ValidationErrors with Success=false and a
// worst-case HAS_CHANGES status, so callers always receive a structured
// result.
type MigrationValidator struct {
	loader      *template.Loader
	comparer    *Comparer
	classifier  *Classifier
	synthesizer Synthesizer
	logger      *telemetry.Logger
	metrics     *telemetry.Metrics
	tracer      *telemetry.Tracer
}

// ValidatorOption customizes a MigrationValidator.
type ValidatorOption func(*MigrationValidator)

// WithMetrics attaches a metrics collector.
func WithMetrics(m *telemetry.Metrics) ValidatorOption {
	return func(v *MigrationValidator) { v.metrics = m }
}

// WithTracer attaches a tracer; validation phases become spans.
func WithTracer(t *telemetry.Tracer) ValidatorOption {
	return func(v *MigrationValidator) { v.tracer = t }
}

// NewMigrationValidator creates a validator. The classifier configuration
// is explicit per instance; no ambient global state is consulted, so
// concurrent validations with different configurations are safe.
func NewMigrationValidator(
	synthesizer Synthesizer,
	classifierCfg ClassifierConfig,
	logger *telemetry.Logger,
	opts ...ValidatorOption,
) (*MigrationValidator, error) {
	classifier, err := NewClassifier(classifierCfg)
	if err != nil {
		return nil, err
	}

	v := &MigrationValidator{
		loader:      template.NewLoader(),
		comparer:    NewComparer(),
		classifier:  classifier,
		synthesizer: synthesizer,
		logger:      logger.NewComponentLogger("validator"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate runs the end-to-end validation flow for one stack.
func (v *MigrationValidator) Validate(ctx context.Context, req ValidationRequest) *ValidationResult {
	result := &ValidationResult{
		ValidationID: uuid.NewString(),
		StackName:    req.StackName,
		DiffStatus:   DiffStatusHasChanges,
		StartedAt:    time.Now(),
	}
	logger := v.logger.WithStackName(req.StackName).WithValidationID(result.ValidationID)

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.ValidationErrors = append(result.ValidationErrors,
				fmt.Sprintf("validation panicked: %v", r))
			result.CompletedAt = time.Now()
			logger.Errorf("validation panicked: %v", r)
		}
	}()

	if v.tracer != nil {
		var span trace.Span
		ctx, span = v.tracer.StartValidationSpan(ctx, req.StackName, result.ValidationID)
		defer span.End()
	}

	if req.Original == nil {
		result.ValidationErrors = append(result.ValidationErrors, "original template is nil")
		return v.finish(result, logger)
	}

	// Phase 1: re-synthesize the migrated definition. Failure here is
	// fatal for the run and becomes a validation error, not a diff
	// classification.
	migratedPath, err := v.synthesize(ctx, req)
	if err != nil {
		logger.WithError(err).Error("re-synthesis failed")
		result.ValidationErrors = append(result.ValidationErrors, err.Error())
		v.recordError(ClassOf(err))
		return v.finish(result, logger)
	}

	migrated, err := v.loadSynthesized(migratedPath)
	if err != nil {
		logger.WithError(err).Error("failed to load synthesized template")
		result.ValidationErrors = append(result.ValidationErrors, err.Error())
		v.recordError(ClassOf(err))
		return v.finish(result, logger)
	}

	// Phase 2: structural comparison.
	comparison := v.comparer.Compare(req.Original, migrated)
	result.Comparison = comparison

	// Phase 3: raw textual diff of the two documents.
	rawDiff, err := v.rawDiff(req.Original, migrated)
	if err != nil {
		logger.WithError(err).Error("raw diff failed")
		result.ValidationErrors = append(result.ValidationErrors,
			fmt.Sprintf("raw diff failed: %v", err))
		v.recordError(ErrorClassInternal)
		return v.finish(result, logger)
	}

	// Phase 4: classification.
	result.DiffStatus = v.classifier.Classify(comparison, rawDiff)
	result.Success = true

	if result.DiffStatus == DiffStatusHasChanges {
		// A changed verdict is a warning, not a failure: the intended
		// remediation is manual review, not an automatic halt.
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"template differences detected: %d missing, %d extra, %d modified resources, %d changed lines",
			len(comparison.MissingResources), len(comparison.ExtraResources),
			len(comparison.ModifiedResources), len(rawDiff)))
	}

	return v.finish(result, logger)
}

// loadSynthesized loads the synthesized template, classifying failures as
// input errors: a document the loader rejects is malformed input regardless
// of which side produced it.
func (v *MigrationValidator) loadSynthesized(path string) (*template.Template, error) {
	migrated, err := v.loader.Load(path)
	if err != nil {
		return nil, NewInputError("failed to load synthesized template", err).
			WithCode(ErrCodeMalformed).WithOperation("validate")
	}
	return migrated, nil
}

// synthesize runs the synthesizer under its own span.
func (v *MigrationValidator) synthesize(ctx context.Context, req ValidationRequest) (string, error) {
	if v.tracer != nil {
		var span trace.Span
		ctx, span = v.tracer.StartSynthSpan(ctx, req.StackName)
		defer span.End()

		path, err := v.synthesizer.Synthesize(ctx, req.ProjectDir, req.StackName)
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.RecordSuccess(span)
		}
		return path, err
	}

	return v.synthesizer.Synthesize(ctx, req.ProjectDir, req.StackName)
}

func (v *MigrationValidator) recordError(class ErrorClass) {
	if v.metrics != nil {
		v.metrics.RecordError(string(class))
	}
}

// finish stamps the completion time, records metrics, and logs the outcome.
func (v *MigrationValidator) finish(result *ValidationResult, logger *telemetry.Logger) *ValidationResult {
	result.CompletedAt = time.Now()

	if v.metrics != nil {
		v.metrics.RecordValidation(result.Success, string(result.DiffStatus),
			result.CompletedAt.Sub(result.StartedAt))
	}

	logger.Infof("validation finished: success=%t status=%s errors=%d warnings=%d",
		result.Success, result.DiffStatus,
		len(result.ValidationErrors), len(result.Warnings))

	return result
}

// rawDiff pretty-prints both templates and computes their changed lines.
func (v *MigrationValidator) rawDiff(original, migrated *template.Template) ([]DiffLine, error) {
	origDoc, err := json.MarshalIndent(original, "", "  ")
	if err != nil {
		return nil, NewInternalError("failed to serialize original template", err).
			WithCode(ErrCodeInternal)
	}
	migDoc, err := json.MarshalIndent(migrated, "", "  ")
	if err != nil {
		return nil, NewInternalError("failed to serialize migrated template", err).
			WithCode(ErrCodeInternal)
	}
	return DiffLines(string(origDoc), string(migDoc)), nil
}
