package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"logcore/internal/types"
)

// SNMP PDU tags this package recognizes (context-specific, constructed):
// trap-v1 (RFC 1157) and trapv2/SNMPv2-Trap-PDU (RFC 3416).
const (
	pduTrapV1 = 0xA4
	pduTrapV2 = 0xA7
)

// ErrNotTrap is returned when the decoded PDU is not a trap type this
// decoder understands.
var ErrNotTrap = errors.New("snmp: not a trap PDU")

// ErrInvalidVersion is returned for an SNMP version this core does not
// recognize (spec.md §4.4: 0->v1, 1->v2c, 3->v3, else InvalidVersion).
var ErrInvalidVersion = errors.New("snmp: invalid version")

// ParseSNMP decodes an SNMP v1/v2c trap datagram into a LogEntry. Only the
// subset of BER needed for trap PDUs is handled: SEQUENCE, INTEGER, OCTET
// STRING, OBJECT IDENTIFIER, and the trap PDU tags themselves. Varbinds beyond the envelope
// are folded into the message for readability; this core does not
// interpret trap semantics beyond the envelope, per spec.md §1 Non-goals.
func ParseSNMP(payload []byte, now time.Time) (*types.LogEntry, error) {
	raw := make([]byte, len(payload))
	copy(raw, payload)

	msg, err := readElement(payload, 0)
	if err != nil {
		return nil, err
	}
	if msg.tag != tagSequence {
		return nil, ErrNotTrap
	}

	// Message ::= SEQUENCE { version INTEGER, community OCTET STRING, data PDU }
	body := msg.content
	i := 0

	versionEl, err := readElement(body, i)
	if err != nil {
		return nil, err
	}
	i = versionEl.next
	switch decodeInteger(versionEl.content) {
	case 0, 1, 3:
		// v1, v2c, v3 envelope recognized; trap-PDU decoding below is
		// identical for v1/v2c and this core does not speak v3 security.
	default:
		return nil, ErrInvalidVersion
	}

	communityEl, err := readElement(body, i)
	if err != nil {
		return nil, err
	}
	i = communityEl.next

	pdu, err := readElement(body, i)
	if err != nil {
		return nil, err
	}

	entry := &types.LogEntry{
		Source:    types.SourceSNMP,
		Level:     types.LevelNotice,
		Host:      "unknown",
		AppName:   "snmptrapd",
		RawData:   raw,
		Timestamp: now.Unix(),
	}

	var genericTrap, specificTrap int64
	var oidParts []string

	switch pdu.tag {
	case pduTrapV1:
		genericTrap, specificTrap, oidParts, err = decodeTrapV1(pdu.content, entry)
	case pduTrapV2:
		genericTrap, specificTrap, oidParts, err = decodeTrapV2(pdu.content)
	default:
		return nil, ErrNotTrap
	}
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Trap Type: ")
	b.WriteString(strconv.FormatInt(genericTrap, 10))
	b.WriteString(" Specific: ")
	b.WriteString(strconv.FormatInt(specificTrap, 10))
	for _, part := range oidParts {
		b.WriteString(" [")
		b.WriteString(part)
		b.WriteString("]")
	}
	entry.Message = b.String()

	return entry, nil
}

// decodeTrapV1 decodes an RFC 1157 Trap-PDU:
// SEQUENCE { enterprise OID, agent-addr OCTET STRING (4 bytes),
//            generic-trap INTEGER, specific-trap INTEGER, time-stamp
//            INTEGER, variable-bindings SEQUENCE OF ... }
// and fills entry.Host from the agent address.
func decodeTrapV1(b []byte, entry *types.LogEntry) (generic, specific int64, oidParts []string, err error) {
	i := 0

	enterprise, err := readElement(b, i)
	if err != nil {
		return 0, 0, nil, err
	}
	i = enterprise.next

	agentAddr, err := readElement(b, i)
	if err != nil {
		return 0, 0, nil, err
	}
	i = agentAddr.next
	entry.Host = formatIPv4(agentAddr.content)

	genericEl, err := readElement(b, i)
	if err != nil {
		return 0, 0, nil, err
	}
	i = genericEl.next
	generic = decodeInteger(genericEl.content)

	specificEl, err := readElement(b, i)
	if err != nil {
		return 0, 0, nil, err
	}
	i = specificEl.next
	specific = decodeInteger(specificEl.content)

	// time-stamp element present but unused: spec.md treats ingest time as
	// authoritative, matching the syslog path.
	if ts, tsErr := readElement(b, i); tsErr == nil {
		i = ts.next
	}

	if i < len(b) {
		if varbinds, vErr := readElement(b, i); vErr == nil {
			oidParts = decodeVarbindPairs(varbinds.content)
		}
	}

	return generic, specific, oidParts, nil
}

// decodeTrapV2 decodes an RFC 3416 SNMPv2-Trap-PDU: SEQUENCE { request-id
// INTEGER, error-status INTEGER, error-index INTEGER, variable-bindings
// SEQUENCE OF VarBind }. This core has no v1 generic/specific-trap fields
// to report for v2c, so generic is reported as 6 (enterpriseSpecific) and
// specific as 0, placeholders for a trap that carries no v1 envelope.
func decodeTrapV2(b []byte) (generic, specific int64, oidParts []string, err error) {
	i := 0

	for n := 0; n < 3; n++ {
		el, elErr := readElement(b, i)
		if elErr != nil {
			return 0, 0, nil, elErr
		}
		i = el.next
	}

	if i >= len(b) {
		return 6, 0, nil, nil
	}
	varbinds, err := readElement(b, i)
	if err != nil {
		return 0, 0, nil, err
	}

	return 6, 0, decodeVarbindPairs(varbinds.content), nil
}

// decodeVarbindPairs decodes a SEQUENCE OF VarBind (each VarBind itself a
// SEQUENCE { name OID, value ANY }) into "oid=val" strings. Only OCTET
// STRING and INTEGER values render a value; other types render as
// "<unsupported>".
func decodeVarbindPairs(b []byte) []string {
	var parts []string
	i := 0
	for i < len(b) {
		vb, err := readElement(b, i)
		if err != nil || vb.tag != tagSequence {
			return parts
		}
		i = vb.next

		nameEl, err := readElement(vb.content, 0)
		if err != nil {
			continue
		}
		oid := decodeOID(nameEl.content)

		valEl, err := readElement(vb.content, nameEl.next)
		if err != nil {
			continue
		}

		var val string
		switch valEl.tag {
		case tagOctetString:
			val = string(valEl.content)
		case tagInteger:
			val = strconv.FormatInt(decodeInteger(valEl.content), 10)
		default:
			val = "<unsupported>"
		}
		parts = append(parts, oid+"="+val)
	}
	return parts
}

// formatIPv4 renders a 4-byte OCTET STRING as dotted-decimal; anything
// else is rendered as "unknown".
func formatIPv4(b []byte) string {
	if len(b) != 4 {
		return "unknown"
	}
	return strconv.Itoa(int(b[0])) + "." + strconv.Itoa(int(b[1])) + "." +
		strconv.Itoa(int(b[2])) + "." + strconv.Itoa(int(b[3]))
}
