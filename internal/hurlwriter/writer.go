package hurlwriter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/hurldeck/internal/hurlfile"
)

// Render turns a document back into Hurl text. It is the inverse of
// parser.Parse: the output parses to a field-wise equal document, and the
// structured editor re-renders after every mutation, so the function must be
// deterministic and total.
func Render(doc *hurlfile.Document) string {
	var b strings.Builder

	method := strings.ToUpper(strings.TrimSpace(doc.Method))
	if method == "" {
		method = "GET"
	}
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(strings.TrimSpace(doc.URL))
	b.WriteString("\n")

	// headers go out verbatim, blank pairs included, so a transient empty
	// row in the editor survives re-parsing while it is being filled in
	for _, h := range doc.Headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\n")
	}

	if strings.TrimSpace(doc.Body) != "" {
		b.WriteString("\n")
		b.WriteString(doc.Body)
		if !strings.HasSuffix(doc.Body, "\n") {
			b.WriteString("\n")
		}
	}

	if doc.HasExpectations() {
		status := strings.TrimSpace(doc.ResponseStatus)
		if status == "" {
			status = "*"
		}
		b.WriteString("\nHTTP ")
		b.WriteString(status)
		b.WriteString("\n")
	}

	// captures always precede asserts, the order the format requires
	if len(doc.Captures) > 0 {
		b.WriteString("[Captures]\n")
		for _, line := range doc.Captures {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if len(doc.Asserts) > 0 {
		b.WriteString("[Asserts]\n")
		for _, line := range doc.Asserts {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// WriteDocument renders the document and persists it at dst, replacing any
// existing file.
func WriteDocument(ctx context.Context, doc *hurlfile.Document, dst string) error {
	if doc == nil {
		return errors.New("writer: document is nil")
	}
	if strings.TrimSpace(dst) == "" {
		return errors.New("writer: destination path is empty")
	}

	content := Render(doc)
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(dst, content)
}

// write to temp file then rename so readers never see partial content.
func writeFile(dst, content string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writer: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "hurldeck-*.hurl")
	if err != nil {
		return fmt.Errorf("writer: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.WriteString(tmp, content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writer: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writer: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("writer: rename temp file: %w", err)
	}
	return nil
}
