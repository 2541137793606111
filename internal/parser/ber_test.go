package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLength_ShortForm(t *testing.T) {
	length, next, err := readLength([]byte{0x05, 0xFF}, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, length)
	assert.Equal(t, 1, next)
}

func TestReadLength_LongForm(t *testing.T) {
	// 0x82 => two following length bytes: 0x01, 0x2C = 300
	length, next, err := readLength([]byte{0x82, 0x01, 0x2C, 0xAA}, 0)
	require.NoError(t, err)
	assert.Equal(t, 300, length)
	assert.Equal(t, 3, next)
}

func TestReadLength_Truncated(t *testing.T) {
	_, _, err := readLength([]byte{0x82, 0x01}, 0)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReadElement_Integer(t *testing.T) {
	el, err := readElement([]byte{tagInteger, 0x01, 0x05}, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(tagInteger), el.tag)
	assert.Equal(t, int64(5), decodeInteger(el.content))
	assert.Equal(t, 3, el.next)
}

func TestDecodeInteger_Negative(t *testing.T) {
	assert.Equal(t, int64(-1), decodeInteger([]byte{0xFF}))
	assert.Equal(t, int64(-128), decodeInteger([]byte{0x80}))
}

func TestDecodeOID(t *testing.T) {
	// 1.3.6.1.4.1.8072.2.3.0.1 (net-snmp example trap OID), encoded bytes:
	// 2B 06 01 04 01 BF 08 02 03 00 01
	content := []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0xBF, 0x08, 0x02, 0x03, 0x00, 0x01}
	assert.Equal(t, "1.3.6.1.4.1.8072.2.3.0.1", decodeOID(content))
}

func TestReadElement_TruncatedContent(t *testing.T) {
	_, err := readElement([]byte{tagOctetString, 0x05, 0x01, 0x02}, 0)
	assert.ErrorIs(t, err, ErrTruncated)
}
