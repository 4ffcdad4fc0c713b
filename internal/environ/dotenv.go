package environ

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

type quoteMode int

const (
	quoteModeNone quoteMode = iota
	quoteModeSingle
	quoteModeDouble
)

// ParseReader reads KEY=value lines into a map. Supported: `export` prefix,
// single/double quotes with escapes, inline comments, and ${ref} expansion
// against keys defined above or the OS environment.
func ParseReader(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read env data")
	}
	return Parse(string(data))
}

func Parse(text string) (map[string]string, error) {
	values := make(map[string]string)
	lineNumber := 0
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lineNumber++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}

		key, rawValue, err := parseAssignment(trimmed, lineNumber)
		if err != nil {
			return nil, err
		}

		value, mode, err := parseValue(rawValue, lineNumber)
		if err != nil {
			return nil, err
		}

		finalValue := value
		if mode != quoteModeSingle {
			// single quotes stay literal so '${TOKEN}' never expands by surprise
			expanded, err := expandValue(value, values, lineNumber)
			if err != nil {
				return nil, err
			}
			finalValue = expanded
		}
		values[key] = finalValue
	}
	return values, nil
}

func parseAssignment(line string, lineNumber int) (string, string, error) {
	trimmed := strings.TrimSpace(line)

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "export ") || strings.HasPrefix(lower, "export\t") {
		trimmed = strings.TrimSpace(trimmed[len("export"):])
	}

	idx := strings.IndexRune(trimmed, '=')
	if idx < 0 {
		return "", "", errdef.New(
			errdef.CodeParse,
			"env line %d: expected KEY=value",
			lineNumber,
		)
	}

	key := strings.TrimSpace(trimmed[:idx])
	if key == "" {
		return "", "", errdef.New(errdef.CodeParse, "env line %d: missing key", lineNumber)
	}

	return key, trimmed[idx+1:], nil
}

func parseValue(raw string, lineNumber int) (string, quoteMode, error) {
	leadingTrimmed := strings.TrimLeft(raw, " \t")
	if leadingTrimmed == "" {
		return "", quoteModeNone, nil
	}

	switch leadingTrimmed[0] {
	case '"':
		value, err := parseQuotedValue(leadingTrimmed, quoteModeDouble, lineNumber)
		return value, quoteModeDouble, err
	case '\'':
		value, err := parseQuotedValue(leadingTrimmed, quoteModeSingle, lineNumber)
		return value, quoteModeSingle, err
	default:
		return stripInlineComment(leadingTrimmed), quoteModeNone, nil
	}
}

func parseQuotedValue(input string, mode quoteMode, lineNumber int) (string, error) {
	quote := byte('"')
	if mode == quoteModeSingle {
		quote = '\''
	}

	var b strings.Builder
	for i := 1; i < len(input); i++ {
		ch := input[i]
		if ch == '\\' {
			if i+1 >= len(input) {
				return "", errdef.New(
					errdef.CodeParse,
					"env line %d: unfinished escape",
					lineNumber,
				)
			}
			i++
			next := input[i]
			if mode == quoteModeDouble {
				if next == '$' {
					// keep the escape so expansion sees a literal dollar
					b.WriteString(`\$`)
				} else {
					b.WriteByte(resolveDoubleQuoteEscape(next))
				}
			} else {
				b.WriteByte(next)
			}
			continue
		}
		if ch == quote {
			remainder := strings.TrimSpace(input[i+1:])
			if remainder != "" && remainder[0] != '#' && remainder[0] != ';' {
				return "", errdef.New(
					errdef.CodeParse,
					"env line %d: unexpected content after quoted value",
					lineNumber,
				)
			}
			return b.String(), nil
		}
		b.WriteByte(ch)
	}
	return "", errdef.New(
		errdef.CodeParse,
		"env line %d: unterminated quoted value",
		lineNumber,
	)
}

func stripInlineComment(value string) string {
	inWhitespace := false
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case ' ', '\t':
			inWhitespace = true
		case '#', ';':
			if i == 0 || inWhitespace {
				return strings.TrimSpace(value[:i])
			}
			inWhitespace = false
		default:
			inWhitespace = false
		}
	}
	return strings.TrimSpace(value)
}

// single pass keeps evaluation predictable; repeated expansion could mask typos
func expandValue(value string, resolved map[string]string, lineNumber int) (string, error) {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if ch == '\\' && i+1 < len(value) && value[i+1] == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if ch != '$' || i+1 >= len(value) {
			b.WriteByte(ch)
			continue
		}
		if value[i+1] == '{' {
			end := strings.IndexByte(value[i+2:], '}')
			if end < 0 {
				return "", errdef.New(
					errdef.CodeParse,
					"env line %d: missing closing brace for ${",
					lineNumber,
				)
			}
			end += i + 2
			name := strings.TrimSpace(value[i+2 : end])
			if name == "" {
				return "", errdef.New(
					errdef.CodeParse,
					"env line %d: empty variable name",
					lineNumber,
				)
			}
			replacement, err := resolveRef(name, resolved, lineNumber)
			if err != nil {
				return "", err
			}
			b.WriteString(replacement)
			i = end
			continue
		}
		if isNameChar(value[i+1]) {
			j := i + 1
			for j < len(value) && isNameChar(value[j]) {
				j++
			}
			name := value[i+1 : j]
			replacement, err := resolveRef(name, resolved, lineNumber)
			if err != nil {
				return "", err
			}
			b.WriteString(replacement)
			i = j - 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String(), nil
}

func resolveRef(name string, resolved map[string]string, lineNumber int) (string, error) {
	if value, ok := resolved[name]; ok {
		return value, nil
	}
	// OS env fallback lets sensitive values stay outside the file entirely
	if envValue, ok := os.LookupEnv(name); ok {
		return envValue, nil
	}
	if envValue, ok := os.LookupEnv(strings.ToUpper(name)); ok {
		return envValue, nil
	}
	return "", errdef.New(
		errdef.CodeParse,
		"env line %d: variable %q is not defined",
		lineNumber,
		name,
	)
}

func isNameChar(ch byte) bool {
	if ch >= 'a' && ch <= 'z' {
		return true
	}
	if ch >= 'A' && ch <= 'Z' {
		return true
	}
	if ch >= '0' && ch <= '9' {
		return true
	}
	return ch == '_'
}

func resolveDoubleQuoteEscape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case '0':
		return 0
	case '"':
		return '"'
	case '\\':
		return '\\'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return ch
	}
}

// Render writes values back as sorted KEY=value lines, quoting values that
// would not survive a re-parse bare.
func Render(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(quoteIfNeeded(values[key]))
		b.WriteString("\n")
	}
	return b.String()
}

func quoteIfNeeded(value string) string {
	if value == "" {
		return value
	}
	if !strings.ContainsAny(value, " \t#;\"'$\\\n") {
		return value
	}
	escaped := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
	).Replace(value)
	// keep $ literal through the double-quote expansion pass
	escaped = strings.ReplaceAll(escaped, "$", "\\$")
	return "\"" + escaped + "\""
}
