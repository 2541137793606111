package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_AllFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	payload := `{"message":"hello world","level":"error","host":"web-1","app_name":"api","timestamp":1700000000}`
	entry, err := ParseJSON([]byte(payload), now)
	require.NoError(t, err)
	assert.Equal(t, "hello world", entry.Message)
	assert.Equal(t, "web-1", entry.Host)
	assert.Equal(t, "api", entry.AppName)
	assert.Equal(t, int64(1700000000), entry.Timestamp)
}

func TestParseJSON_NegativeTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	payload := `{"message":"pre-epoch","timestamp":-5}`
	entry, err := ParseJSON([]byte(payload), now)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), entry.Timestamp)
}

func TestParseJSON_QuotedTimestampIsIgnored(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	payload := `{"message":"ignored ts","timestamp":"2026-02-03T04:05:06Z"}`
	entry, err := ParseJSON([]byte(payload), now)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), entry.Timestamp)
}

func TestParseJSON_MissingFieldsUseDefaults(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry, err := ParseJSON([]byte(`{"message":"only message"}`), now)
	require.NoError(t, err)
	assert.Equal(t, "only message", entry.Message)
	assert.Equal(t, "unknown", entry.Host)
	assert.Equal(t, now.Unix(), entry.Timestamp)
}

func TestParseJSON_IgnoresNestedAndExtraFields(t *testing.T) {
	now := time.Now()
	payload := `{"meta":{"nested":"value","arr":[1,2,3]},"message":"ok","extra":123,"level":"warning"}`
	entry, err := ParseJSON([]byte(payload), now)
	require.NoError(t, err)
	assert.Equal(t, "ok", entry.Message)
	assert.Equal(t, 4, int(entry.Level))
}

func TestParseJSON_EscapedString(t *testing.T) {
	now := time.Now()
	payload := `{"message":"line one\nline two \"quoted\""}`
	entry, err := ParseJSON([]byte(payload), now)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two \"quoted\"", entry.Message)
}

func TestParseJSON_NotAnObject(t *testing.T) {
	_, err := ParseJSON([]byte(`["just", "an", "array"]`), time.Now())
	assert.ErrorIs(t, err, ErrNotJSONObject)
}
