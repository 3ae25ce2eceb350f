package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultAllowPatterns is the built-in allow-list of non-functional
// difference patterns: metadata blocks, description fields, build-tool
// injected metadata resources, and timestamps. Lines and difference
// statements matching any pattern are treated as cosmetic.
var DefaultAllowPatterns = []string{
	`(?i)\bdescription\b`,
	`(?i)^\s*Metadata\b`,
	`(?i)Metadata\.`,
	`"Metadata"`,
	`aws:cdk:path`,
	`CDKMetadata`,
	`BootstrapVersion`,
	`cdk\.out`,
	`(?i)asset[a-f0-9]*hash`,
	`[a-f0-9]{64}`,
	`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`,
}

// ClassifierConfig configures change classification. Configuration is
// passed explicitly so concurrent validations with different allow-lists
// stay independent and deterministic.
type ClassifierConfig struct {
	// AllowPatterns is the allow-list of regular expressions marking
	// non-functional differences. Empty means DefaultAllowPatterns.
	AllowPatterns []string
}

// Classifier decides a binary DiffStatus from a structural comparison and
// a raw line-oriented textual diff.
type Classifier struct {
	patterns []*regexp.Regexp
}

// NewClassifier compiles the configured allow-list patterns.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	sources := cfg.AllowPatterns
	if len(sources) == 0 {
		sources = DefaultAllowPatterns
	}

	patterns := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, NewInputError(
				fmt.Sprintf("invalid allow-list pattern %q", src), err).
				WithCode(ErrCodeValidation)
		}
		patterns = append(patterns, re)
	}

	return &Classifier{patterns: patterns}, nil
}

// Classify determines the verdict for a comparison result plus the raw
// textual diff of the two template documents.
//
// Zero structural differences and an empty raw diff is NO_CHANGES
// outright. Otherwise every changed line and every modified-resource
// difference statement must match at least one allow-listed pattern for
// the change to count as cosmetic; any unmatched line or statement makes
// the verdict HAS_CHANGES. Missing or extra resources are never cosmetic
// unless their logical IDs themselves match an allow-listed pattern
// (build-tool metadata resources).
func (c *Classifier) Classify(comparison *TemplateComparisonResult, rawDiff []DiffLine) DiffStatus {
	if !comparison.HasDifferences() && len(rawDiff) == 0 {
		return DiffStatusNoChanges
	}

	for _, id := range comparison.MissingResources {
		if !c.allowed(id) {
			return DiffStatusHasChanges
		}
	}
	for _, id := range comparison.ExtraResources {
		if !c.allowed(id) {
			return DiffStatusHasChanges
		}
	}
	for _, mod := range comparison.ModifiedResources {
		for _, diff := range mod.Differences {
			if !c.allowed(diff) {
				return DiffStatusHasChanges
			}
		}
	}
	for _, line := range rawDiff {
		if !c.allowed(line.Text) {
			return DiffStatusHasChanges
		}
	}

	return DiffStatusNoChanges
}

// allowed reports whether a changed line or statement matches any
// allow-listed pattern.
func (c *Classifier) allowed(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	for _, re := range c.patterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// DiffOp marks whether a diff line was added or removed.
type DiffOp string

const (
	// DiffOpAdd marks a line present only in the migrated document.
	DiffOpAdd DiffOp = "+"

	// DiffOpRemove marks a line present only in the original document.
	DiffOpRemove DiffOp = "-"
)

// DiffLine is one changed line of a raw textual diff.
type DiffLine struct {
	// Op is the diff operation.
	Op DiffOp `json:"op"`

	// Text is the line content without the operation marker.
	Text string `json:"text"`
}

// String renders the line in conventional unified-diff form.
func (l DiffLine) String() string {
	return string(l.Op) + l.Text
}

// DiffLines computes the changed lines between two documents using a
// longest-common-subsequence alignment. Identical documents yield an empty
// result. Only changed lines are returned; context lines are omitted since
// classification operates line-by-line.
func DiffLines(original, migrated string) []DiffLine {
	a := splitLines(original)
	b := splitLines(migrated)

	// LCS table.
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	// Walk the table emitting removed/added lines.
	var out []DiffLine
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, DiffLine{Op: DiffOpRemove, Text: a[i]})
			i++
		default:
			out = append(out, DiffLine{Op: DiffOpAdd, Text: b[j]})
			j++
		}
	}
	for ; i < len(a); i++ {
		out = append(out, DiffLine{Op: DiffOpRemove, Text: a[i]})
	}
	for ; j < len(b); j++ {
		out = append(out, DiffLine{Op: DiffOpAdd, Text: b[j]})
	}

	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
