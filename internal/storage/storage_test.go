package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"logcore/internal/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "logs.db")
	s, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(raw string) *types.LogEntry {
	return &types.LogEntry{
		Timestamp: 1700000000,
		Level:     types.LevelInfo,
		Source:    types.SourceSyslog,
		Host:      "host1",
		Message:   "test",
		RawData:   []byte(raw),
	}
}

func TestStore_InsertAssignsMonotonicIDs(t *testing.T) {
	s := openTestStore(t)

	e1 := entry("first")
	id1, err := s.Insert(e1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)

	e2 := entry("second")
	id2, err := s.Insert(e2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2)

	count, err := s.GetLogCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStore_HMACChain(t *testing.T) {
	s := openTestStore(t)

	e1 := entry("raw-one")
	_, err := s.Insert(e1)
	require.NoError(t, err)
	require.Len(t, e1.HMAC, hmacSize)

	e2 := entry("raw-two")
	_, err = s.Insert(e2)
	require.NoError(t, err)
	require.Len(t, e2.HMAC, hmacSize)

	assert.NotEqual(t, e1.HMAC, e2.HMAC)

	err = s.VerifyChain(1, 2)
	assert.NoError(t, err)
}

func TestStore_VerifyChainDetectsTamper(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Insert(entry("raw-one"))
	require.NoError(t, err)
	_, err = s.Insert(entry("raw-two"))
	require.NoError(t, err)

	err = s.db.Model(&logRow{}).Where("id = ?", 1).Update("raw_data", []byte("tampered")).Error
	require.NoError(t, err)

	err = s.VerifyChain(1, 2)
	assert.Error(t, err)
}

func TestStore_InsertBatchAtomicity(t *testing.T) {
	s := openTestStore(t)

	entries := []*types.LogEntry{entry("a"), entry("b"), entry("c")}
	written, err := s.InsertBatch(entries)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	count, err := s.GetLogCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStore_QueryByTimeRangeRoundTripsRawData(t *testing.T) {
	s := openTestStore(t)

	withNul := entry("has\x00a\x00nul")
	withNul.Timestamp = 1700000100
	_, err := s.Insert(withNul)
	require.NoError(t, err)

	rows, err := s.QueryByTimeRange(1700000000, 1700000200, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []byte("has\x00a\x00nul"), rows[0].RawData)
}

func TestStore_InsertBatchRollsBackOnFailure(t *testing.T) {
	s := openTestStore(t)

	bad := entry("bad")
	bad.RawData = nil // violates the raw_data NOT NULL constraint

	entries := []*types.LogEntry{entry("good-one"), bad, entry("good-two")}
	_, err := s.InsertBatch(entries)
	assert.Error(t, err)

	count, err := s.GetLogCount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

// TestStore_InsertBatchRollsBackOnEngineError exercises the rollback path
// against a mocked SQL connection, asserting a begin/select/insert/
// rollback sequence rather than depending on a live database error.
func TestStore_InsertBatchRollsBackOnEngineError(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	s := &Store{db: gormDB, prev: append([]byte{}, zeroHMAC...), now: time.Now}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(
		sqlmock.NewRows([]string{"coalesce"}).AddRow(1))
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("forced engine failure"))
	mock.ExpectRollback()

	_, err = s.InsertBatch([]*types.LogEntry{entry("x")})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ResumeChainAcrossReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "logs.db")

	s1, err := Open(dsn)
	require.NoError(t, err)
	e1 := entry("persisted")
	_, err = s1.Insert(e1)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(dsn)
	require.NoError(t, err)
	defer s2.Close()

	e2 := entry("after-reopen")
	_, err = s2.Insert(e2)
	require.NoError(t, err)

	assert.NoError(t, s2.VerifyChain(1, 2))
}
