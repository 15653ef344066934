// Package invariant classifies a child run's combined output into
// pass/fail by counting textual markers.
//
// The property under test is that a failing node startup surfaces
// exactly one diagnostic: one stack trace, one typed error, one
// terminal failure message. Matching is count-based, not order-based;
// both a missing marker (count 0) and a duplicated one (count > 1)
// are violations, so "at least one" semantics would be wrong here.
package invariant

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/faultline/faultline/internal/relaunch"
	"github.com/faultline/faultline/internal/scenario"
)

// Markers counted in every captured run, independent of scenario.
// The scenario-specific exception pattern is the third marker.
var (
	tracebackMarker = regexp.MustCompile(`Traceback`)
	failureMarker   = regexp.MustCompile(`Test failed\. Test logging available at`)
)

// Report holds per-marker occurrence counts for one captured run.
// Reports are ephemeral: recomputed per scenario, never persisted.
type Report struct {
	TracebackCount      int
	ExceptionCount      int
	FailureMessageCount int
}

// Ok reports whether every count is exactly one.
func (r Report) Ok() bool {
	return r.TracebackCount == 1 && r.ExceptionCount == 1 && r.FailureMessageCount == 1
}

// Count derives a Report from combined output. The output is NFC
// normalized first so marker counts cannot be skewed by equivalent
// Unicode encodings of the same text.
func Count(output string, exception *regexp.Regexp) Report {
	text := norm.NFC.String(output)
	return Report{
		TracebackCount:      len(tracebackMarker.FindAllString(text, -1)),
		ExceptionCount:      len(exception.FindAllString(text, -1)),
		FailureMessageCount: len(failureMarker.FindAllString(text, -1)),
	}
}

// MismatchError is returned when any marker count differs from one.
// It carries the full captured output: a count failure without the
// text that produced it is unactionable.
type MismatchError struct {
	Scenario string
	Pattern  string
	Report   Report
	Output   string
}

// Error renders the counts alongside the raw output.
func (e *MismatchError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "invariant violation in scenario %q\n", e.Scenario)
	fmt.Fprintf(&buf, "  traceback marker %q: want 1, got %d\n", tracebackMarker.String(), e.Report.TracebackCount)
	fmt.Fprintf(&buf, "  exception pattern %q: want 1, got %d\n", e.Pattern, e.Report.ExceptionCount)
	fmt.Fprintf(&buf, "  failure marker %q: want 1, got %d\n", failureMarker.String(), e.Report.FailureMessageCount)

	fmt.Fprintf(&buf, "\nCaptured output:\n")
	buf.WriteString(e.Output)
	if !strings.HasSuffix(e.Output, "\n") {
		buf.WriteByte('\n')
	}
	buf.WriteString("Captured output end")

	return buf.String()
}

// Check validates a captured run against a scenario's expectations.
// It returns a *MismatchError when any marker count differs from one,
// and nil when the single-exception invariant holds.
func Check(run *relaunch.CapturedRun, spec scenario.Spec) error {
	report := Count(run.CombinedOutput, spec.ExpectedException)
	if report.Ok() {
		return nil
	}
	return &MismatchError{
		Scenario: spec.Name,
		Pattern:  spec.ExpectedException.String(),
		Report:   report,
		Output:   run.CombinedOutput,
	}
}
