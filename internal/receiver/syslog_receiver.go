package receiver

import (
	"logcore/internal/parser"
	"logcore/internal/queue"
	"logcore/internal/types"
)

// SyslogReceiver is the UDP datagram receiver for RFC 3164 syslog
// messages (spec.md §4.1, §4.5).
type SyslogReceiver struct {
	*datagramReceiver
}

var _ types.Receiver = (*SyslogReceiver)(nil)

// NewSyslogReceiver builds a receiver bound to 0.0.0.0:port, handing
// parsed entries to q.
func NewSyslogReceiver(port uint16, q *queue.WriteQueue) *SyslogReceiver {
	return &SyslogReceiver{
		datagramReceiver: newDatagramReceiver("syslog", port, parser.ParseSyslog, q),
	}
}
