package parser

import (
	"testing"
)

func TestParseFullRequest(t *testing.T) {
	src := `POST https://api.example.com/users
Content-Type: application/json

{"name": "a"}

HTTP 201
[Asserts]
jsonpath "$.id" exists
`

	doc := Parse(src)
	if doc.Method != "POST" {
		t.Fatalf("expected POST, got %q", doc.Method)
	}
	if doc.URL != "https://api.example.com/users" {
		t.Fatalf("unexpected url: %q", doc.URL)
	}
	if len(doc.Headers) != 1 {
		t.Fatalf("expected 1 header, got %d", len(doc.Headers))
	}
	if doc.Headers[0].Name != "Content-Type" || doc.Headers[0].Value != "application/json" {
		t.Fatalf("unexpected header: %+v", doc.Headers[0])
	}
	if doc.Body != `{"name": "a"}` {
		t.Fatalf("unexpected body: %q", doc.Body)
	}
	if doc.ResponseStatus != "201" {
		t.Fatalf("unexpected status: %q", doc.ResponseStatus)
	}
	if len(doc.Asserts) != 1 || doc.Asserts[0] != `jsonpath "$.id" exists` {
		t.Fatalf("unexpected asserts: %v", doc.Asserts)
	}
	if len(doc.Captures) != 0 {
		t.Fatalf("expected no captures, got %v", doc.Captures)
	}
}

func TestParseHeaderColonDisambiguation(t *testing.T) {
	src := "GET /x\nAuthorization: Bearer abc\n\n{\"a\": 1}\n\nHTTP 200"

	doc := Parse(src)
	if len(doc.Headers) != 1 {
		t.Fatalf("expected exactly 1 header, got %d: %+v", len(doc.Headers), doc.Headers)
	}
	if doc.Headers[0].Name != "Authorization" || doc.Headers[0].Value != "Bearer abc" {
		t.Fatalf("unexpected header: %+v", doc.Headers[0])
	}
	if doc.Body != `{"a": 1}` {
		t.Fatalf("json line misclassified, body: %q", doc.Body)
	}
	if doc.ResponseStatus != "200" {
		t.Fatalf("unexpected status: %q", doc.ResponseStatus)
	}
}

func TestParseMethodOnlyLine(t *testing.T) {
	doc := Parse("delete")
	if doc.Method != "DELETE" {
		t.Fatalf("expected uppercased DELETE, got %q", doc.Method)
	}
	if doc.URL != "" {
		t.Fatalf("expected empty url, got %q", doc.URL)
	}
}

func TestParseEmptyInput(t *testing.T) {
	doc := Parse("")
	if doc.Method != "GET" {
		t.Fatalf("expected GET default, got %q", doc.Method)
	}
	if doc.URL != "" || doc.Body != "" || doc.ResponseStatus != "" {
		t.Fatalf("expected empty fields, got %+v", doc)
	}
}

func TestParseHeaderLikeLineAfterBodyStays(t *testing.T) {
	src := "GET /x\n\nplain text\nLooks-Like: a header\n\nHTTP 200"

	doc := Parse(src)
	if len(doc.Headers) != 0 {
		t.Fatalf("expected no headers, got %+v", doc.Headers)
	}
	if doc.Body != "plain text\nLooks-Like: a header" {
		t.Fatalf("unexpected body: %q", doc.Body)
	}
}

func TestParseCapturesAndAsserts(t *testing.T) {
	src := `GET /x

HTTP 200
[Captures]
id: jsonpath "$.id"

token: jsonpath "$.token"
[Asserts]
status == 200
`

	doc := Parse(src)
	if len(doc.Captures) != 3 {
		t.Fatalf("expected 3 capture lines (blank kept), got %v", doc.Captures)
	}
	if doc.Captures[1] != "" {
		t.Fatalf("expected blank separator preserved, got %q", doc.Captures[1])
	}
	if len(doc.Asserts) != 1 || doc.Asserts[0] != "status == 200" {
		t.Fatalf("unexpected asserts: %v", doc.Asserts)
	}
}

func TestParseOrphanSectionLinesDiscarded(t *testing.T) {
	src := "GET /x\n\nHTTP 200\norphan line\n[Asserts]\nstatus == 200\n"

	doc := Parse(src)
	if len(doc.Asserts) != 1 {
		t.Fatalf("expected 1 assert, got %v", doc.Asserts)
	}
	if len(doc.Captures) != 0 {
		t.Fatalf("expected orphan discarded, got %v", doc.Captures)
	}
}

func TestParseAssertsWithoutStatusLine(t *testing.T) {
	src := "GET /x\n[Asserts]\nstatus < 500\n"

	doc := Parse(src)
	if doc.ResponseStatus != "" {
		t.Fatalf("expected empty status, got %q", doc.ResponseStatus)
	}
	if len(doc.Asserts) != 1 || doc.Asserts[0] != "status < 500" {
		t.Fatalf("unexpected asserts: %v", doc.Asserts)
	}
}

func TestParseWildcardStatusMapsToEmpty(t *testing.T) {
	src := "GET /x\n\nHTTP *\n[Asserts]\nstatus < 500\n"

	doc := Parse(src)
	if doc.ResponseStatus != "" {
		t.Fatalf("expected wildcard to map to empty, got %q", doc.ResponseStatus)
	}
}

func TestParseCRLFInput(t *testing.T) {
	src := "GET /x\r\nAccept: text/plain\r\n\r\nbody\r\n"

	doc := Parse(src)
	if len(doc.Headers) != 1 || doc.Headers[0].Name != "Accept" {
		t.Fatalf("unexpected headers: %+v", doc.Headers)
	}
	if doc.Body != "body" {
		t.Fatalf("unexpected body: %q", doc.Body)
	}
}

func TestParseBlankHeaderRow(t *testing.T) {
	doc := Parse("GET /x\n: \n")
	if len(doc.Headers) != 1 {
		t.Fatalf("expected blank header row kept, got %+v", doc.Headers)
	}
	if doc.Headers[0].Name != "" || doc.Headers[0].Value != "" {
		t.Fatalf("expected empty pair, got %+v", doc.Headers[0])
	}
}
