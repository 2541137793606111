package parser

import "errors"

// ErrTruncated is returned when a BER element's declared length runs past
// the end of the buffer.
var ErrTruncated = errors.New("ber: truncated element")

// ErrBadLength is returned for an unsupported or malformed length encoding
// (indefinite length, or a long-form length of more than 4 bytes).
var ErrBadLength = errors.New("ber: bad length encoding")

// BER tag numbers used by the SNMP trap subset this package decodes.
const (
	tagInteger     = 0x02
	tagOctetString = 0x04
	tagNull        = 0x05
	tagOID         = 0x06
	tagSequence    = 0x30
)

// element is one decoded BER TLV: its tag, the raw contents bytes, and the
// index in the source buffer just past the element.
type element struct {
	tag     byte
	content []byte
	next    int
}

// readLength decodes a BER length field starting at b[i] (short or long
// form) and returns the length value plus the index just past it.
func readLength(b []byte, i int) (int, int, error) {
	if i >= len(b) {
		return 0, 0, ErrTruncated
	}
	first := b[i]
	i++
	if first&0x80 == 0 {
		return int(first), i, nil
	}
	numBytes := int(first & 0x7f)
	if numBytes == 0 || numBytes > 4 {
		return 0, 0, ErrBadLength
	}
	if i+numBytes > len(b) {
		return 0, 0, ErrTruncated
	}
	length := 0
	for j := 0; j < numBytes; j++ {
		length = (length << 8) | int(b[i+j])
	}
	return length, i + numBytes, nil
}

// readElement decodes one TLV (tag, length, content) starting at b[i].
func readElement(b []byte, i int) (element, error) {
	if i >= len(b) {
		return element{}, ErrTruncated
	}
	tag := b[i]
	i++
	length, i2, err := readLength(b, i)
	if err != nil {
		return element{}, err
	}
	if i2+length > len(b) {
		return element{}, ErrTruncated
	}
	return element{tag: tag, content: b[i2 : i2+length], next: i2 + length}, nil
}

// decodeInteger interprets BER content bytes as a two's-complement
// big-endian signed integer, per X.690 §8.3.
func decodeInteger(content []byte) int64 {
	if len(content) == 0 {
		return 0
	}
	var v int64
	if content[0]&0x80 != 0 {
		v = -1
	}
	for _, c := range content {
		v = (v << 8) | int64(c)
	}
	return v
}

// decodeOID decodes a BER OBJECT IDENTIFIER into dotted-decimal form,
// handling the first-byte packing (X = 40*a + b) and base-128 continuation
// for subsequent arcs.
func decodeOID(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	arcs := make([]int64, 0, len(content)+1)
	first := int64(content[0])
	arcs = append(arcs, first/40, first%40)

	var value int64
	for _, c := range content[1:] {
		value = (value << 7) | int64(c&0x7f)
		if c&0x80 == 0 {
			arcs = append(arcs, value)
			value = 0
		}
	}

	out := make([]byte, 0, len(arcs)*3)
	for i, a := range arcs {
		if i > 0 {
			out = append(out, '.')
		}
		out = append(out, itoa64(a)...)
	}
	return string(out)
}

func itoa64(v int64) []byte {
	if v == 0 {
		return []byte{'0'}
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	pos := len(buf)
	for v > 0 {
		pos--
		buf[pos] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return buf[pos:]
}
