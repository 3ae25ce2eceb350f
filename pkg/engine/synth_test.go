package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner records the last invocation and returns canned output.
type fakeRunner struct {
	stdout string
	stderr string
	err    error

	lastName string
	lastArgs []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	r.lastName = name
	r.lastArgs = args
	return r.stdout, r.stderr, r.err
}

func TestCLISynthesizer_Success(t *testing.T) {
	runner := &fakeRunner{stdout: "Successfully synthesized"}
	synth := NewCLISynthesizer(SynthConfig{}, runner)

	path, err := synth.Synthesize(context.Background(), "/work/project", "OrdersStack")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}

	want := filepath.Join("/work/project", "cdk.out", "OrdersStack.template.json")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	if runner.lastName != "cdk" {
		t.Errorf("command = %s, want cdk", runner.lastName)
	}
	if len(runner.lastArgs) != 2 || runner.lastArgs[0] != "synth" || runner.lastArgs[1] != "OrdersStack" {
		t.Errorf("args = %v, want [synth OrdersStack]", runner.lastArgs)
	}
}

func TestCLISynthesizer_CustomConfig(t *testing.T) {
	runner := &fakeRunner{}
	synth := NewCLISynthesizer(SynthConfig{
		Command:   "npx",
		Args:      []string{"cdk", "synth"},
		OutputDir: "build",
	}, runner)

	path, err := synth.Synthesize(context.Background(), "proj", "S")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if path != filepath.Join("proj", "build", "S.template.json") {
		t.Errorf("unexpected path: %s", path)
	}
	if runner.lastName != "npx" {
		t.Errorf("command = %s, want npx", runner.lastName)
	}
}

func TestCLISynthesizer_Failure(t *testing.T) {
	runner := &fakeRunner{
		stderr: "Error: ERROR: missing context value\nat someFrame()",
		err:    errors.New("exit status 1"),
	}
	synth := NewCLISynthesizer(SynthConfig{}, runner)

	_, err := synth.Synthesize(context.Background(), "proj", "S")
	if err == nil {
		t.Fatal("expected synthesis error")
	}
	if !IsSynthesis(err) {
		t.Errorf("expected synthesis-class error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing context value") {
		t.Errorf("error must carry the extracted summary: %v", err)
	}
	if IsFatal(err) {
		t.Errorf("synthesis errors are captured, not fatal: %v", err)
	}
}

func TestExtractErrorSummary(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "single error line",
			output: "Synthesizing...\nERROR: template invalid\ndone",
			want:   "ERROR: template invalid",
		},
		{
			name:   "multiple markers joined",
			output: "build FAILED\nInvalid resource type\nall good here",
			want:   "build FAILED; Invalid resource type",
		},
		{
			name:   "no markers",
			output: "all fine\nnothing to report",
			want:   "",
		},
		{
			name:   "blank lines skipped",
			output: "\n\nERROR: boom\n\n",
			want:   "ERROR: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractErrorSummary(tt.output); got != tt.want {
				t.Errorf("ExtractErrorSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
