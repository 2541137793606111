// Package parser implements the three source-specific decoders that turn
// raw network payloads into a canonical types.LogEntry: RFC 3164 syslog,
// a field-targeted JSON scanner, and a BER/ASN.1 SNMP trap decoder.
package parser

import (
	"errors"
	"time"

	"logcore/internal/types"
)

// ErrInvalidPriority is returned when a syslog datagram lacks a well-formed
// <DDD> priority prefix, per spec.md §4.1 step 1.
var ErrInvalidPriority = errors.New("syslog: invalid priority")

var monthDays = [...]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

var monthIndex = map[string]int{
	"Jan": 0, "Feb": 1, "Mar": 2, "Apr": 3, "May": 4, "Jun": 5,
	"Jul": 6, "Aug": 7, "Sep": 8, "Oct": 9, "Nov": 10, "Dec": 11,
}

// ParseSyslog parses a single RFC 3164 datagram payload into a LogEntry.
// now is injected so timestamp synthesis is deterministic in tests.
func ParseSyslog(payload []byte, now time.Time) (*types.LogEntry, error) {
	raw := make([]byte, len(payload))
	copy(raw, payload)

	pos := 0

	priority, n, err := parsePriority(payload)
	if err != nil {
		return nil, err
	}
	pos = n

	facility := priority >> 3
	severity := priority & 7

	entry := &types.LogEntry{
		Source:   types.SourceSyslog,
		Level:    types.Level(severity),
		Facility: &facility,
		RawData:  raw,
	}

	// The HOSTNAME/APP-PID header fields only exist as a unit with
	// TIMESTAMP: when the fixed-width timestamp shape doesn't match,
	// there is no header to parse and the remainder is the message
	// verbatim, per spec.md §4.1 step 2's "parsing continues at the
	// same position" applied to a payload with no recognizable header
	// at all (e.g. a bare "<134>Test").
	ts, newPos, ok := parseTimestamp(payload[pos:], now)
	if !ok {
		entry.Timestamp = now.Unix()
		entry.Host = "unknown"
		entry.Message = string(payload[pos:])
		return entry, nil
	}

	entry.Timestamp = ts
	pos += newPos
	if pos < len(payload) && payload[pos] == ' ' {
		pos++
	}

	host, newPos := parseHostname(payload[pos:])
	pos += newPos
	if host == "" {
		host = "unknown"
	}
	entry.Host = host

	appName, procID, newPos := parseAppAndPID(payload[pos:])
	pos += newPos
	entry.AppName = appName
	entry.ProcID = procID

	entry.Message = string(payload[pos:])

	return entry, nil
}

// parsePriority parses the leading "<DDD>" and returns the priority value
// plus the number of bytes consumed.
func parsePriority(b []byte) (int, int, error) {
	if len(b) == 0 || b[0] != '<' {
		return 0, 0, ErrInvalidPriority
	}
	i := 1
	digits := 0
	value := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' && digits < 3 {
		value = value*10 + int(b[i]-'0')
		i++
		digits++
	}
	if digits == 0 || i >= len(b) || b[i] != '>' {
		return 0, 0, ErrInvalidPriority
	}
	if value > 255 {
		return 0, 0, ErrInvalidPriority
	}
	return value, i + 1, nil
}

// parseTimestamp attempts to match the fixed 15-byte "MMM DD HH:MM:SS"
// shape at the start of b. On success it returns a synthetic epoch and the
// number of bytes consumed (15); on any mismatch it returns ok=false and
// the caller continues parsing from the same position, per spec.md §4.1
// step 2.
func parseTimestamp(b []byte, now time.Time) (int64, int, bool) {
	if len(b) < 15 {
		return 0, 0, false
	}
	month, ok := monthIndex[string(b[0:3])]
	if !ok {
		return 0, 0, false
	}
	if b[3] != ' ' {
		return 0, 0, false
	}
	// DD: space-padded or zero-padded two digits.
	d0, d1 := b[4], b[5]
	if !((d0 == ' ' || isDigit(d0)) && isDigit(d1)) {
		return 0, 0, false
	}
	day := int(d1 - '0')
	if isDigit(d0) {
		day = int(d0-'0')*10 + day
	}
	if b[6] != ' ' {
		return 0, 0, false
	}
	if !isDigit(b[7]) || !isDigit(b[8]) || b[9] != ':' ||
		!isDigit(b[10]) || !isDigit(b[11]) || b[12] != ':' ||
		!isDigit(b[13]) || !isDigit(b[14]) {
		return 0, 0, false
	}
	hh := int(b[7]-'0')*10 + int(b[8]-'0')
	mm := int(b[10]-'0')*10 + int(b[11]-'0')
	ss := int(b[13]-'0')*10 + int(b[14]-'0')
	if day < 1 || day > 31 || hh > 23 || mm > 59 || ss > 59 {
		return 0, 0, false
	}

	// Synthetic epoch per spec.md §4.1: leap years deliberately ignored.
	const secondsPerYear = 31536000
	const secondsPerDay = 86400
	yearStart := (now.Unix() / secondsPerYear) * secondsPerYear
	epoch := yearStart + int64(monthDays[month])*secondsPerDay +
		int64(day-1)*secondsPerDay + int64(hh)*3600 + int64(mm)*60 + int64(ss)

	return epoch, 15, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseHostname consumes characters up to the first space or colon.
func parseHostname(b []byte) (string, int) {
	i := 0
	for i < len(b) && b[i] != ' ' && b[i] != ':' {
		i++
	}
	host := string(b[:i])
	// Skip exactly one separating space, matching the grammar's greedy
	// left-to-right consumption before the app/pid token begins.
	if i < len(b) && b[i] == ' ' {
		i++
	}
	return host, i
}

// parseAppAndPID consumes the app-name token, an optional "[pid]" suffix,
// and trailing colon(s)/spaces.
func parseAppAndPID(b []byte) (app, procID string, consumed int) {
	i := 0
	for i < len(b) && b[i] != '[' && b[i] != ':' && b[i] != ' ' {
		i++
	}
	app = string(b[:i])

	if i < len(b) && b[i] == '[' {
		start := i + 1
		j := start
		for j < len(b) && b[j] != ']' {
			j++
		}
		if j < len(b) {
			procID = string(b[start:j])
			i = j + 1
		}
	}

	for i < len(b) && (b[i] == ':' || b[i] == ' ') {
		i++
	}

	return app, procID, i
}
