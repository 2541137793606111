package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyslog_PriorityOnly(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry, err := ParseSyslog([]byte("<134>Test"), now)
	require.NoError(t, err)
	assert.Equal(t, 134>>3, *entry.Facility)
	assert.Equal(t, 134&7, int(entry.Level))
	assert.Equal(t, "unknown", entry.Host)
	assert.Equal(t, "Test", entry.Message)
}

func TestParseSyslog_FullHeader(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	payload := "<134>Jan 15 12:34:56 myhost myapp[1234]: Test message"
	entry, err := ParseSyslog([]byte(payload), now)
	require.NoError(t, err)
	assert.Equal(t, "myhost", entry.Host)
	assert.Equal(t, "myapp", entry.AppName)
	assert.Equal(t, "1234", entry.ProcID)
	assert.Equal(t, "Test message", entry.Message)
	assert.NotZero(t, entry.Timestamp)
}

func TestParseSyslog_NoProcID(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	payload := "<13>Jan  5 01:02:03 host app: no pid here"
	entry, err := ParseSyslog([]byte(payload), now)
	require.NoError(t, err)
	assert.Equal(t, "host", entry.Host)
	assert.Equal(t, "app", entry.AppName)
	assert.Equal(t, "", entry.ProcID)
	assert.Equal(t, "no pid here", entry.Message)
}

func TestParseSyslog_InvalidPriority(t *testing.T) {
	_, err := ParseSyslog([]byte("no priority here"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = ParseSyslog([]byte("<999>overflow"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = ParseSyslog([]byte("<12no closing bracket"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestParseSyslog_FacilitySeverityDecomposition(t *testing.T) {
	now := time.Now()
	entry, err := ParseSyslog([]byte("<0>kernel emergency"), now)
	require.NoError(t, err)
	assert.Equal(t, 0, *entry.Facility)
	assert.Equal(t, 0, int(entry.Level))

	entry, err = ParseSyslog([]byte("<191>local7 debug"), now)
	require.NoError(t, err)
	assert.Equal(t, 23, *entry.Facility)
	assert.Equal(t, 7, int(entry.Level))
}

func TestParseSyslog_MalformedTimestampFallsBackToNow(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	entry, err := ParseSyslog([]byte("<13>Xyz 99 99:99:99 host app: msg"), now)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), entry.Timestamp)
}
