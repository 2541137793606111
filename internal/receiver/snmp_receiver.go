package receiver

import (
	"logcore/internal/parser"
	"logcore/internal/queue"
	"logcore/internal/types"
)

// SNMPReceiver is the UDP datagram receiver for BER-encoded v1/v2c SNMP
// trap PDUs (spec.md §4.4, §4.5).
type SNMPReceiver struct {
	*datagramReceiver
}

var _ types.Receiver = (*SNMPReceiver)(nil)

// NewSNMPReceiver builds a receiver bound to 0.0.0.0:port, handing parsed
// entries to q.
func NewSNMPReceiver(port uint16, q *queue.WriteQueue) *SNMPReceiver {
	return &SNMPReceiver{
		datagramReceiver: newDatagramReceiver("snmp", port, parser.ParseSNMP, q),
	}
}
