package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/stackmigrate/stackmigrate/pkg/engine"
	"github.com/stackmigrate/stackmigrate/pkg/stores"
	"github.com/stackmigrate/stackmigrate/pkg/telemetry"
	"github.com/stackmigrate/stackmigrate/pkg/template"
)

func newValidateCommand() *cobra.Command {
	var (
		originalPath  string
		projectDir    string
		stackName     string
		synthCommand  string
		synthArgs     []string
		synthOut      string
		synthTimeout  time.Duration
		allowPatterns []string
		record        bool
		dbPath        string
		watch         bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a migration against the original template",
		Long: `Validate that a migrated project re-synthesizes into a template that is
state-equivalent to the original.

This command:
  - Re-synthesizes the migrated definition via the external synthesis tool
  - Structurally diffs the result against the original template
  - Computes a raw textual diff of the two documents
  - Classifies differences into NO_CHANGES / HAS_CHANGES using the
    non-functional allow-list

HAS_CHANGES is reported as a warning, not a failure; policy decisions such
as failing CI belong to the caller.`,
		Example: `  # Validate a migrated project
  stackmigrate validate --original stack.template.json --project ./migrated --stack OrdersStack

  # Record the run in the history database
  stackmigrate validate --original stack.template.json --project ./migrated --stack OrdersStack --record

  # Re-validate whenever the original template changes
  stackmigrate validate --original stack.template.json --project ./migrated --stack OrdersStack --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tel, err := newTelemetry(cmd.Root().Version)
			if err != nil {
				return err
			}
			defer tel.Shutdown(cmd.Context())

			if stackName == "" {
				return fmt.Errorf("--stack is required")
			}

			synth := engine.NewCLISynthesizer(engine.SynthConfig{
				Command:   synthCommand,
				Args:      synthArgs,
				OutputDir: synthOut,
				Timeout:   synthTimeout,
			}, &engine.ExecRunner{Dir: projectDir})

			validator, err := engine.NewMigrationValidator(
				synth,
				engine.ClassifierConfig{AllowPatterns: allowPatterns},
				tel.Logger,
				engine.WithMetrics(tel.Metrics),
				engine.WithTracer(tel.Tracer),
			)
			if err != nil {
				return err
			}

			var store stores.Store
			if record {
				store, err = openStore(cmd.Context(), dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			runOnce := func(ctx context.Context) error {
				original, err := template.NewLoader().Load(originalPath)
				if err != nil {
					return err
				}

				result := validator.Validate(ctx, engine.ValidationRequest{
					StackName:  stackName,
					Original:   original,
					ProjectDir: projectDir,
				})

				if store != nil {
					if err := recordRun(ctx, store, result, originalPath, projectDir); err != nil {
						tel.Logger.WithError(err).Warn("failed to record validation run")
					}
				}

				return printResult(result)
			}

			if err := runOnce(cmd.Context()); err != nil {
				return err
			}

			if watch {
				return watchAndRevalidate(cmd.Context(), tel, originalPath, runOnce)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&originalPath, "original", "o", "", "path of the original template document")
	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "migrated project directory")
	cmd.Flags().StringVarP(&stackName, "stack", "s", "", "stack name")
	cmd.Flags().StringVar(&synthCommand, "synth-command", "cdk", "synthesis executable")
	cmd.Flags().StringSliceVar(&synthArgs, "synth-arg", nil, "synthesis arguments before the stack name")
	cmd.Flags().StringVar(&synthOut, "synth-out", "cdk.out", "synthesis output directory relative to the project")
	cmd.Flags().DurationVar(&synthTimeout, "synth-timeout", 10*time.Minute, "synthesis invocation timeout")
	cmd.Flags().StringArrayVar(&allowPatterns, "allow-pattern", nil, "non-functional allow-list regex (repeatable, overrides defaults)")
	cmd.Flags().BoolVar(&record, "record", false, "record the run in the history database")
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "history database path")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate when the original template changes")

	_ = cmd.MarkFlagRequired("original")

	return cmd
}

// printResult writes the validation outcome to stdout.
func printResult(result *engine.ValidationResult) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Validation %s: success=%t status=%s\n",
		result.ValidationID, result.Success, result.DiffStatus)
	for _, e := range result.ValidationErrors {
		fmt.Printf("  error: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if c := result.Comparison; c != nil {
		fmt.Printf("  resources: %d original, %d migrated, %d matching\n",
			c.OriginalCount, c.MigratedCount, c.MatchingCount)
		for _, id := range c.MissingResources {
			fmt.Printf("  missing: %s\n", id)
		}
		for _, id := range c.ExtraResources {
			fmt.Printf("  extra: %s\n", id)
		}
		for _, mod := range c.ModifiedResources {
			fmt.Printf("  modified: %s\n", mod.LogicalID)
			for _, diff := range mod.Differences {
				fmt.Printf("    %s\n", diff)
			}
		}
	}
	return nil
}

// recordRun persists a validation result into the history store.
func recordRun(ctx context.Context, store stores.Store, result *engine.ValidationResult, templatePath, projectDir string) error {
	errsJSON, err := json.Marshal(result.ValidationErrors)
	if err != nil {
		return err
	}
	warnJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return err
	}

	run := &stores.ValidationRun{
		ID:               result.ValidationID,
		StackName:        result.StackName,
		TemplatePath:     templatePath,
		ProjectDir:       projectDir,
		Success:          result.Success,
		DiffStatus:       string(result.DiffStatus),
		ValidationErrors: string(errsJSON),
		Warnings:         string(warnJSON),
		StartedAt:        result.StartedAt,
		CreatedAt:        time.Now(),
	}
	completed := result.CompletedAt
	run.CompletedAt = &completed

	if result.Comparison != nil {
		compJSON, err := json.Marshal(result.Comparison)
		if err != nil {
			return err
		}
		comp := string(compJSON)
		run.Comparison = &comp
	}

	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	return recordEvents(ctx, store, result)
}

// recordEvents appends the per-run event log: one event per validation
// error and warning, plus a completion event.
func recordEvents(ctx context.Context, store stores.Store, result *engine.ValidationResult) error {
	now := time.Now()
	add := func(level stores.EventLevel, message string) error {
		return store.AppendEvent(ctx, &stores.Event{
			RunID:     result.ValidationID,
			Level:     level,
			Message:   message,
			CreatedAt: now,
		})
	}

	for _, e := range result.ValidationErrors {
		if err := add(stores.EventLevelError, e); err != nil {
			return err
		}
	}
	for _, w := range result.Warnings {
		if err := add(stores.EventLevelWarning, w); err != nil {
			return err
		}
	}
	return add(stores.EventLevelInfo,
		fmt.Sprintf("validation completed: success=%t status=%s", result.Success, result.DiffStatus))
}

// watchAndRevalidate blocks re-running the validation whenever the original
// template file changes, until the context is cancelled.
func watchAndRevalidate(ctx context.Context, tel *telemetry.Telemetry, path string, runOnce func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files rather than write in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	logger := tel.Logger.NewComponentLogger("watch")
	logger.Infof("watching %s for changes", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Infof("template changed, revalidating")
			if err := runOnce(ctx); err != nil {
				logger.WithError(err).Error("revalidation failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("watch error")
		}
	}
}

// openStore opens and migrates the history database.
func openStore(ctx context.Context, path string) (stores.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// defaultDBPath returns the default history database location.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "stackmigrate.db"
	}
	return filepath.Join(home, ".stackmigrate", "history.db")
}
