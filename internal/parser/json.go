package parser

import (
	"errors"
	"strconv"
	"time"

	"logcore/internal/types"
)

// ErrNotJSONObject is returned when the payload does not begin with '{'.
var ErrNotJSONObject = errors.New("json: payload is not an object")

// targetKeys are the only fields the scanner extracts, per spec.md §4.3:
// a full json.Unmarshal into a generic map is deliberately avoided in
// favor of a single-pass scan for exactly these keys.
var targetKeys = map[string]bool{
	"message":   true,
	"level":     true,
	"host":      true,
	"app_name":  true,
	"timestamp": true,
}

// ParseJSON scans a JSON-over-HTTP payload for the fields spec.md §4.3
// names and builds a LogEntry, without doing a general-purpose unmarshal.
func ParseJSON(payload []byte, now time.Time) (*types.LogEntry, error) {
	raw := make([]byte, len(payload))
	copy(raw, payload)

	fields, timestamp, hasTimestamp, err := scanTopLevelStrings(payload)
	if err != nil {
		return nil, err
	}

	entry := &types.LogEntry{
		Source:    types.SourceRESTAPI,
		Level:     types.ParseLevelName(fields["level"]),
		Host:      fields["host"],
		AppName:   fields["app_name"],
		Message:   fields["message"],
		RawData:   raw,
		Timestamp: now.Unix(),
	}
	if entry.Host == "" {
		entry.Host = "unknown"
	}
	if hasTimestamp {
		entry.Timestamp = timestamp
	}

	return entry, nil
}

// scanTopLevelStrings walks the top-level object of payload and extracts
// the string value of each key present in targetKeys, ignoring everything
// else (nested objects/arrays are skipped over, not descended into). The
// "timestamp" key is handled separately per spec.md §4.3: its value is
// not a quoted string but contiguous ASCII decimal digits scanned directly
// after the colon and parsed as a signed 64-bit integer.
func scanTopLevelStrings(payload []byte) (map[string]string, int64, bool, error) {
	i := skipWhitespace(payload, 0)
	if i >= len(payload) || payload[i] != '{' {
		return nil, 0, false, ErrNotJSONObject
	}
	i++

	result := make(map[string]string, len(targetKeys))
	var timestamp int64
	hasTimestamp := false

	for i < len(payload) {
		i = skipWhitespace(payload, i)
		if i >= len(payload) {
			break
		}
		if payload[i] == '}' {
			break
		}
		if payload[i] == ',' {
			i++
			continue
		}
		if payload[i] != '"' {
			i++
			continue
		}

		key, next, ok := readJSONString(payload, i)
		if !ok {
			break
		}
		i = next

		i = skipWhitespace(payload, i)
		if i >= len(payload) || payload[i] != ':' {
			break
		}
		i++
		i = skipWhitespace(payload, i)

		if key == "timestamp" {
			digits, next := readJSONDigits(payload, i)
			i = next
			if v, err := strconv.ParseInt(digits, 10, 64); err == nil {
				timestamp = v
				hasTimestamp = true
			}
			continue
		}

		value, next, wasString := readJSONValue(payload, i)
		i = next

		if targetKeys[key] && wasString {
			result[key] = value
		}
	}

	return result, timestamp, hasTimestamp, nil
}

// readJSONDigits scans an optional leading '-' followed by contiguous
// ASCII decimal digits starting at b[i], returning the scanned text and
// the index just past it. Returns an empty string if b[i] is not the
// start of a digit run (e.g. the field held a quoted string instead).
func readJSONDigits(b []byte, i int) (string, int) {
	start := i
	if i < len(b) && b[i] == '-' {
		i++
	}
	for i < len(b) && isDigit(b[i]) {
		i++
	}
	if i == start || (i == start+1 && b[start] == '-') {
		return "", start
	}
	return string(b[start:i]), i
}

func skipWhitespace(b []byte, i int) int {
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

// readJSONString reads a quoted JSON string starting at b[i] == '"' and
// returns the unescaped value plus the index just past the closing quote.
func readJSONString(b []byte, i int) (string, int, bool) {
	if i >= len(b) || b[i] != '"' {
		return "", i, false
	}
	i++
	start := i
	hasEscape := false
	for i < len(b) && b[i] != '"' {
		if b[i] == '\\' {
			hasEscape = true
			i++
		}
		i++
	}
	if i >= len(b) {
		return "", i, false
	}
	raw := b[start:i]
	i++ // past closing quote

	if !hasEscape {
		return string(raw), i, true
	}
	return unescapeJSON(raw), i, true
}

func unescapeJSON(b []byte) string {
	out := make([]byte, 0, len(b))
	for j := 0; j < len(b); j++ {
		if b[j] == '\\' && j+1 < len(b) {
			j++
			switch b[j] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case '/':
				out = append(out, '/')
			default:
				out = append(out, b[j])
			}
			continue
		}
		out = append(out, b[j])
	}
	return string(out)
}

// readJSONValue reads one JSON value (string, number, literal, object, or
// array) starting at b[i], returning its string form only when it was a
// string, and the index just past it regardless.
func readJSONValue(b []byte, i int) (string, int, bool) {
	if i >= len(b) {
		return "", i, false
	}
	switch b[i] {
	case '"':
		v, next, ok := readJSONString(b, i)
		return v, next, ok
	case '{':
		return "", skipBalanced(b, i, '{', '}'), false
	case '[':
		return "", skipBalanced(b, i, '[', ']'), false
	default:
		j := i
		for j < len(b) && b[j] != ',' && b[j] != '}' && !isWhitespace(b[j]) {
			j++
		}
		return "", j, false
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// skipBalanced skips a nested structure, respecting quoted strings so
// braces/brackets inside them are not counted.
func skipBalanced(b []byte, i int, open, close byte) int {
	depth := 0
	for i < len(b) {
		switch b[i] {
		case '"':
			_, next, ok := readJSONString(b, i)
			if !ok {
				return len(b)
			}
			i = next
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}
