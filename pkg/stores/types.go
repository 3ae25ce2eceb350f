package stores

import (
	"context"
	"time"
)

// EventLevel represents the severity level of a run event.
type EventLevel string

const (
	EventLevelDebug   EventLevel = "debug"
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
)

// ValidationRun is a persisted record of one migration validation run.
type ValidationRun struct {
	ID               string     `json:"id"`
	StackName        string     `json:"stack_name"`
	TemplatePath     string     `json:"template_path"`
	ProjectDir       string     `json:"project_dir"`
	Success          bool       `json:"success"`
	DiffStatus       string     `json:"diff_status"`
	ValidationErrors string     `json:"validation_errors"` // JSON array
	Warnings         string     `json:"warnings"`          // JSON array
	Comparison       *string    `json:"comparison,omitempty"` // JSON blob
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Event is an append-only log entry attached to a validation run.
type Event struct {
	ID        int64      `json:"id"`
	RunID     string     `json:"run_id"`
	Level     EventLevel `json:"level"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store is the persistence interface for validation history.
type Store interface {
	// Init initializes the underlying storage.
	Init(ctx context.Context) error

	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) error

	// Close releases storage resources.
	Close() error

	// SaveRun persists a validation run record.
	SaveRun(ctx context.Context, run *ValidationRun) error

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, id string) (*ValidationRun, error)

	// ListRuns lists runs ordered by start time descending.
	ListRuns(ctx context.Context, limit, offset int) ([]*ValidationRun, error)

	// AppendEvent appends an event to a run's log.
	AppendEvent(ctx context.Context, event *Event) error

	// ListEvents lists the events of a run in insertion order.
	ListEvents(ctx context.Context, runID string) ([]*Event, error)
}
