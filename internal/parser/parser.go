package parser

import (
	"strings"

	"github.com/unkn0wn-root/hurldeck/internal/hurlfile"
)

const (
	sectionCaptures = "[Captures]"
	sectionAsserts  = "[Asserts]"
)

// Parse converts Hurl request text into a structured document. It is total:
// any input, including a half-typed buffer, yields a best-effort document
// instead of an error. The caller is a live editor, so malformed structure
// degrades to empty fields.
//
// The format has no strict grammar for telling headers from body, so
// classification is an ordered heuristic: a header line is non-blank, has a
// colon, does not start with HTTP and does not start with "{" or "[" (which
// would be a JSON body or a section marker). That heuristic is the behaviour
// the rest of the system depends on, not an approximation of one.
func Parse(text string) *hurlfile.Document {
	doc := &hurlfile.Document{Method: "GET"}
	lines := splitLines(text)

	i := parseRequestLine(doc, lines, 0)
	i = parseHeaders(doc, lines, i)
	i = parseBody(doc, lines, i)
	i = parseResponseLine(doc, lines, i)
	parseSections(doc, lines, i)
	return doc
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func parseRequestLine(doc *hurlfile.Document, lines []string, i int) int {
	if i >= len(lines) {
		return i
	}
	line := strings.TrimSpace(lines[i])
	if line == "" {
		return i + 1
	}
	if idx := strings.Index(line, " "); idx >= 0 {
		doc.Method = strings.ToUpper(strings.TrimSpace(line[:idx]))
		doc.URL = strings.TrimSpace(line[idx+1:])
	} else {
		doc.Method = strings.ToUpper(line)
	}
	if doc.Method == "" {
		doc.Method = "GET"
	}
	return i + 1
}

// Headers are only recognised in the contiguous run directly after the
// request line. A header-shaped line later in the body is never reclassified.
func parseHeaders(doc *hurlfile.Document, lines []string, i int) int {
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// blank separator is consumed; body starts after it
			return i + 1
		}
		if !isHeaderLine(trimmed) {
			return i
		}
		idx := strings.Index(line, ":")
		doc.Headers = append(doc.Headers, hurlfile.Header{
			Name:  strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
		i++
	}
	return i
}

func isHeaderLine(trimmed string) bool {
	if strings.HasPrefix(trimmed, "HTTP") {
		return false
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return false
	}
	return strings.Contains(trimmed, ":")
}

// The body runs until the expected-response line. Section markers end it too,
// so a file that declares asserts without an HTTP line still gets them
// scanned instead of swallowed into the body.
func parseBody(doc *hurlfile.Document, lines []string, i int) int {
	var body []string
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "HTTP") || isSectionMarker(trimmed) {
			break
		}
		body = append(body, lines[i])
		i++
	}
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	doc.Body = strings.Join(body, "\n")
	return i
}

func parseResponseLine(doc *hurlfile.Document, lines []string, i int) int {
	if i >= len(lines) {
		return i
	}
	trimmed := strings.TrimSpace(lines[i])
	if !strings.HasPrefix(trimmed, "HTTP") {
		return i
	}
	fields := strings.Fields(trimmed)
	if len(fields) > 1 && fields[1] != "*" {
		// "*" means any status and is the writer's spelling of an unset
		// expectation, so it maps back to empty for round-trip equality
		doc.ResponseStatus = fields[1]
	}
	return i + 1
}

// Lines before the first marker are discarded as orphans. Lines after a
// marker are kept verbatim, blanks included, so separators the user typed in
// the structured editor survive a round trip.
func parseSections(doc *hurlfile.Document, lines []string, i int) {
	section := ""
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if isSectionMarker(trimmed) {
			section = trimmed
			continue
		}
		switch section {
		case sectionCaptures:
			doc.Captures = append(doc.Captures, lines[i])
		case sectionAsserts:
			doc.Asserts = append(doc.Asserts, lines[i])
		}
	}
}

func isSectionMarker(trimmed string) bool {
	return trimmed == sectionCaptures || trimmed == sectionAsserts
}
