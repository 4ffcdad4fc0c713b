package runner

import (
	"github.com/bytedance/sonic"
)

// Trace mirrors the runner's --json report on stdout. Only the fields the
// result view needs are decoded; everything else is ignored.
type Trace struct {
	Success bool    `json:"success"`
	Time    int64   `json:"time"`
	Entries []Entry `json:"entries"`
}

// Entry is one logical request execution. Its calls are the individual HTTP
// exchanges; redirects and retries append calls, so the last call carries the
// final response.
type Entry struct {
	Index    int             `json:"index"`
	Time     int64           `json:"time"`
	Calls    []Call          `json:"calls"`
	Asserts  []AssertOutcome `json:"asserts"`
	Captures []Capture       `json:"captures"`
}

type Call struct {
	Request  *CallRequest  `json:"request"`
	Response *CallResponse `json:"response"`
}

type CallRequest struct {
	Method  string        `json:"method"`
	URL     string        `json:"url"`
	Headers []HeaderValue `json:"headers"`
}

type CallResponse struct {
	Status      int           `json:"status"`
	HTTPVersion string        `json:"http_version"`
	Headers     []HeaderValue `json:"headers"`
}

type HeaderValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type AssertOutcome struct {
	Line    int    `json:"line"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Capture struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// DecodeTrace parses the runner's stdout. A nil trace with nil error means
// the output was not valid JSON, which callers tolerate: the runner can be
// killed mid-write or emit plain text on catastrophic failures.
func DecodeTrace(stdout []byte) *Trace {
	if len(stdout) == 0 {
		return nil
	}
	var trace Trace
	if err := sonic.Unmarshal(stdout, &trace); err != nil {
		return nil
	}
	return &trace
}

// traceSummary pulls the final status code and the failed-assert count out
// of a trace for span attributes. A nil trace yields zeros.
func traceSummary(t *Trace) (status int, failed int) {
	if t == nil {
		return 0, 0
	}
	if resp := t.LastEntry().LastResponse(); resp != nil {
		status = resp.Status
	}
	for _, entry := range t.Entries {
		for _, assert := range entry.Asserts {
			if !assert.Success {
				failed++
			}
		}
	}
	return status, failed
}

// LastEntry returns the final entry, or nil when the trace has none.
func (t *Trace) LastEntry() *Entry {
	if t == nil || len(t.Entries) == 0 {
		return nil
	}
	return &t.Entries[len(t.Entries)-1]
}

// LastResponse returns the final call's response of the given entry. Earlier
// calls are intermediate redirect hops and are deliberately not surfaced.
func (e *Entry) LastResponse() *CallResponse {
	if e == nil {
		return nil
	}
	for i := len(e.Calls) - 1; i >= 0; i-- {
		if e.Calls[i].Response != nil {
			return e.Calls[i].Response
		}
	}
	return nil
}
