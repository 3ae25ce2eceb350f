package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_Disabled(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	// Recording on a disabled collector must be a no-op, not a panic.
	m.RecordAnalysis("Stack", time.Second)
	m.RecordCycles("Stack", 2)
	m.RecordRelationships("data-reference", 3)
	m.RecordValidation(true, "NO_CHANGES", time.Second)
	m.RecordError("input")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled handler status = %d, want 404", rec.Code)
	}
}

func TestMetrics_RecordAndExpose(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{
		Enabled:   true,
		Namespace: "stackmigrate",
	})
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	m.RecordAnalysis("OrdersStack", 100*time.Millisecond)
	m.RecordCycles("OrdersStack", 1)
	m.RecordRelationships("permission-grant", 2)
	m.RecordValidation(true, "HAS_CHANGES", time.Second)
	m.RecordError("synthesis")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)

	for _, metric := range []string{
		"stackmigrate_analyses_total",
		"stackmigrate_dependency_cycles_total",
		"stackmigrate_relationships_detected_total",
		"stackmigrate_validations_total",
		"stackmigrate_errors_by_class_total",
	} {
		if !strings.Contains(string(body), metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
}

func TestMetrics_ZeroCountsNotRecorded(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: true, Namespace: "stackmigrate"})
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	m.RecordCycles("Stack", 0)
	m.RecordRelationships("data-reference", 0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Body)

	// Zero counts must not materialize label series.
	if strings.Contains(string(body), `dependency_cycles_total{stack="Stack"}`) {
		t.Error("zero cycle count must not create a series")
	}
}
