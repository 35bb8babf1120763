// Package llmjson extracts a JSON object from free-form text-generation
// output. Model responses wrap JSON in prose, code fences, or quotes, and may
// be cut off at the output-token limit; each transformation here recovers one
// of those failure shapes so a mostly-usable response is not discarded.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrNoJSON is returned when the text contains no opening brace at all.
var ErrNoJSON = errors.New("no JSON object found in response")

// ParseError reports a fatal decode failure with enough context to diagnose
// the offending payload.
type ParseError struct {
	Offset  int64
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse JSON at offset %d (near %q): %v", e.Offset, e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extract returns the JSON object embedded in raw, repaired if the response
// was truncated mid-object. The returned string is the exact source substring
// whenever the object is complete.
func Extract(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = stripFences(s)
	s = stripQuotes(s)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	end, open, inString := scanObject(s, start)
	if end >= 0 {
		return s[start : end+1], nil
	}

	// Truncated response: close the open string, then every delimiter still
	// open, innermost first.
	var b strings.Builder
	b.WriteString(s[start:])
	if inString {
		b.WriteByte('"')
	}
	for i := len(open) - 1; i >= 0; i-- {
		switch open[i] {
		case '{':
			b.WriteByte('}')
		case '[':
			b.WriteByte(']')
		}
	}
	return b.String(), nil
}

// Decode extracts the embedded object and unmarshals it into v. A decode
// failure after extraction is not recoverable and surfaces as *ParseError.
func Decode(raw string, v any) error {
	payload, err := Extract(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return toParseError(payload, err)
	}
	return nil
}

// stripFences removes a leading code-fence line (``` with an optional
// language tag) and its closing marker. Each side is stripped independently
// so a response truncated before the closing fence still parses.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// stripQuotes removes quote characters wrapping the entire payload. Matching
// pairs are stripped repeatedly; a quote on only one end is stripped once and
// the loop stops, so legitimate interior quoting survives.
func stripQuotes(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = s[1 : len(s)-1]
			continue
		}
		if first == '"' || first == '\'' {
			return s[1:]
		}
		if last == '"' || last == '\'' {
			return s[:len(s)-1]
		}
		break
	}
	return s
}

// scanObject walks from the opening brace at start tracking open delimiters.
// Braces inside string literals are ignored; the in-string flag respects
// backslash-escaped quotes, so observation text like `"a { brace"` cannot
// skew the count. Returns the index of the brace closing the outermost
// object, or -1 with the still-open delimiter stack and string state when the
// text ends first.
func scanObject(s string, start int) (end int, open []byte, inString bool) {
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			open = append(open, ch)
		case '}', ']':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
			if len(open) == 0 {
				return i, nil, false
			}
		}
	}
	return -1, open, inString
}

func toParseError(payload string, err error) *ParseError {
	pe := &ParseError{Err: err}
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		pe.Offset = syn.Offset
	case errors.As(err, &typ):
		pe.Offset = typ.Offset
	}
	lo := int(pe.Offset) - 20
	if lo < 0 {
		lo = 0
	}
	hi := int(pe.Offset) + 20
	if hi > len(payload) {
		hi = len(payload)
	}
	// The window is computed in bytes; widen both ends to rune starts so a
	// multi-byte character is never split in the diagnostic.
	for lo > 0 && !utf8.RuneStart(payload[lo]) {
		lo--
	}
	for hi < len(payload) && !utf8.RuneStart(payload[hi]) {
		hi++
	}
	pe.Snippet = payload[lo:hi]
	return pe
}
