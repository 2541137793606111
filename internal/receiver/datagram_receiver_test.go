package receiver

import (
	"net"
	"strconv"
	"testing"
	"time"

	"logcore/internal/queue"
	"logcore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueueStore struct {
	batches [][]*types.LogEntry
}

func (f *fakeQueueStore) InsertBatch(entries []*types.LogEntry) (int, error) {
	f.batches = append(f.batches, entries)
	return len(entries), nil
}

func waitForEnqueue(t *testing.T, q *queue.WriteQueue, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if q.Len() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("queue never reached %d entries, stuck at %d", want, q.Len())
}

func TestSyslogReceiver_PollOnceParsesAndEnqueues(t *testing.T) {
	store := &fakeQueueStore{}
	q := queue.New(store, 100, time.Hour)
	r := NewSyslogReceiver(0, q)

	require.NoError(t, r.Start())
	defer r.Stop()

	port := r.conn.LocalAddr().(*net.UDPAddr).Port

	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("<34>Oct 11 22:14:15 mymachine su: 'su root' failed for lonvick"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		if err := r.PollOnce(); err != nil {
			return false
		}
		return q.Len() == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, "syslog", r.Name())
}

func TestSyslogReceiver_PollOnceDropsUnparsable(t *testing.T) {
	store := &fakeQueueStore{}
	q := queue.New(store, 100, time.Hour)
	r := NewSyslogReceiver(0, q)
	require.NoError(t, r.Start())
	defer r.Stop()

	port := r.conn.LocalAddr().(*net.UDPAddr).Port
	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not a valid priority at all"))
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, r.PollOnce())
	assert.Equal(t, 0, q.Len())
}

func TestSNMPReceiver_PollOnceTimesOutWithoutData(t *testing.T) {
	store := &fakeQueueStore{}
	q := queue.New(store, 100, time.Hour)
	r := NewSNMPReceiver(0, q)
	require.NoError(t, r.Start())
	defer r.Stop()

	assert.NoError(t, r.PollOnce())
	assert.Equal(t, "snmp", r.Name())
}

func TestDatagramReceiver_PollBeforeStartErrors(t *testing.T) {
	store := &fakeQueueStore{}
	q := queue.New(store, 100, time.Hour)
	r := NewSyslogReceiver(0, q)
	assert.Error(t, r.PollOnce())
}

func TestDatagramReceiver_StopBeforeStartIsNoop(t *testing.T) {
	store := &fakeQueueStore{}
	q := queue.New(store, 100, time.Hour)
	r := NewSNMPReceiver(0, q)
	assert.NoError(t, r.Stop())
}
