package result

import (
	"regexp"
	"strings"

	"github.com/unkn0wn-root/hurldeck/internal/hurlfile"
	"github.com/unkn0wn-root/hurldeck/internal/runner"
)

const (
	bodyMarker    = "* Response body:"
	bodyEnd       = "*"
	timingsPrefix = "* Timings:"
	linePrefix    = "* "
)

var (
	actualRe   = regexp.MustCompile(`(?m)^\s*actual:\s*(.*)$`)
	expectedRe = regexp.MustCompile(`(?m)^\s*expected:\s*(.*)$`)
)

// View is what the browser renders after a run: the final response plus the
// user-authored assertion outcomes, correlated back to source lines.
type View struct {
	Executed bool              `json:"executed"`
	Status   int               `json:"status,omitempty"`
	Headers  []hurlfile.Header `json:"headers,omitempty"`
	Body     string            `json:"body"`
	Asserts  []Assert          `json:"asserts"`
	Error    string            `json:"error,omitempty"`
}

type Assert struct {
	Line     int    `json:"line"`
	Source   string `json:"source"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// Extract builds the structured view from a run. Only the last entry and its
// last call are consulted: a request may redirect or retry, and intermediate
// hops are deliberately not shown. A failed run is still extracted from
// whatever partial output exists, since the runner exits non-zero when
// assertions fail while producing a complete trace.
func Extract(res runner.Result, sourceText string) View {
	view := View{Error: res.Err}

	entry := res.Trace.LastEntry()
	if entry != nil {
		if resp := entry.LastResponse(); resp != nil {
			view.Executed = true
			view.Status = resp.Status
			for _, h := range resp.Headers {
				view.Headers = append(view.Headers, hurlfile.Header{
					Name:  h.Name,
					Value: h.Value,
				})
			}
		}
		view.Asserts = extractAsserts(entry.Asserts, sourceText)
	}

	body, found := extractVerboseBody(res.Stderr)
	switch {
	case found:
		view.Body = body
	case res.Trace == nil:
		// nothing structured at all; raw stderr is the best diagnostic left
		view.Body = res.Stderr
	}

	return view
}

// The verbose log dumps the response body between a literal marker line and
// either a bare "*" or the timings block, each line prefixed with "* ".
func extractVerboseBody(stderr string) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(stderr, "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		if line == bodyMarker {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", false
	}

	var body []string
	for _, line := range lines[start:] {
		if line == bodyEnd || strings.HasPrefix(line, timingsPrefix) {
			break
		}
		body = append(body, strings.TrimPrefix(line, linePrefix))
	}
	if len(body) == 0 {
		return "", false
	}
	return strings.Join(body, "\n"), true
}

// The runner injects an implicit status/version check for the HTTP line
// itself; it is not a user-authored assertion, so outcomes attributed to a
// source line starting with HTTP are dropped.
func extractAsserts(outcomes []runner.AssertOutcome, sourceText string) []Assert {
	sourceLines := strings.Split(strings.ReplaceAll(sourceText, "\r\n", "\n"), "\n")

	var asserts []Assert
	for _, outcome := range outcomes {
		source := ""
		if outcome.Line >= 1 && outcome.Line <= len(sourceLines) {
			source = strings.TrimSpace(sourceLines[outcome.Line-1])
		}
		if strings.HasPrefix(source, "HTTP") {
			continue
		}

		assert := Assert{
			Line:    outcome.Line,
			Source:  source,
			Success: outcome.Success,
			Message: outcome.Message,
		}
		if actual, expected, ok := splitDetail(outcome.Message); ok {
			assert.Actual = actual
			assert.Expected = expected
		}
		asserts = append(asserts, assert)
	}
	return asserts
}

// splitDetail pulls the actual/expected pair out of a failure message so the
// UI can show them side by side. Messages carrying only one of the two stay
// unstructured.
func splitDetail(message string) (string, string, bool) {
	actual := actualRe.FindStringSubmatch(message)
	expected := expectedRe.FindStringSubmatch(message)
	if actual == nil || expected == nil {
		return "", "", false
	}
	return strings.TrimSpace(actual[1]), strings.TrimSpace(expected[1]), true
}
