package engine

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CommandRunner is the narrow interface behind all external process
// invocation. Keeping it this small lets retry or timeout policy be added
// without touching the analysis or diff logic, and lets tests substitute a
// fake runner.
type CommandRunner interface {
	// Run executes a command and returns its captured stdout and stderr.
	// A non-zero exit is returned as an error alongside the output.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs commands with os/exec. The external call is atomic and
// blocking; cancellation is the caller's context.
type ExecRunner struct {
	// Dir is the working directory for invoked commands, empty for the
	// process default.
	Dir string
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Synthesizer produces the migrated template document for a stack. It is
// an external collaborator: success yields a filesystem path to a JSON
// template; failure yields structured error text.
type Synthesizer interface {
	// Synthesize runs the synthesis tool for projectDir/stackName and
	// returns the path of the produced template document.
	Synthesize(ctx context.Context, projectDir, stackName string) (string, error)
}

// SynthConfig configures the CLI synthesizer.
type SynthConfig struct {
	// Command is the synthesis executable (e.g. "cdk").
	Command string

	// Args are the arguments before the stack name (e.g. ["synth"]).
	Args []string

	// OutputDir is the directory, relative to the project, where the
	// synthesized template is written.
	OutputDir string

	// Timeout bounds a single synthesis invocation. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration
}

// CLISynthesizer invokes an external synthesis command and locates the
// template document it produces. Failures are reported as synthesis-class
// errors carrying human-readable summaries extracted from the tool output.
type CLISynthesizer struct {
	config SynthConfig
	runner CommandRunner
}

// NewCLISynthesizer creates a synthesizer around the given runner.
func NewCLISynthesizer(cfg SynthConfig, runner CommandRunner) *CLISynthesizer {
	if cfg.Command == "" {
		cfg.Command = "cdk"
	}
	if len(cfg.Args) == 0 {
		cfg.Args = []string{"synth"}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "cdk.out"
	}
	return &CLISynthesizer{config: cfg, runner: runner}
}

// Synthesize implements Synthesizer.
func (s *CLISynthesizer) Synthesize(ctx context.Context, projectDir, stackName string) (string, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, s.config.Args...), stackName)
	stdout, stderr, err := s.runner.Run(ctx, s.config.Command, args...)
	if err != nil {
		summary := ExtractErrorSummary(stdout + "\n" + stderr)
		if summary == "" {
			summary = err.Error()
		}
		return "", NewSynthesisError(
			fmt.Sprintf("synthesis of stack %s failed: %s", stackName, summary), err).
			WithCode(ErrCodeSynthFailed).WithOperation("synthesize")
	}

	return filepath.Join(projectDir, s.config.OutputDir,
		fmt.Sprintf("%s.template.json", stackName)), nil
}

// errorMarkers are the substrings that identify human-relevant error lines
// in synthesis tool output.
var errorMarkers = []string{"ERROR", "FAILED", "Invalid"}

// ExtractErrorSummary scans tool output for lines containing error markers
// and joins them into a short human-readable summary.
func ExtractErrorSummary(output string) string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, marker := range errorMarkers {
			if strings.Contains(line, marker) {
				lines = append(lines, line)
				break
			}
		}
	}
	return strings.Join(lines, "; ")
}
