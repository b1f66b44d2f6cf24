package msgpack

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBytes(t *testing.T, data []byte) *Decoder {
	t.Helper()
	return NewDecoderBytes(data)
}

// --- tag coverage -------------------------------------------------------

func TestTagCoverage_Fixnum(t *testing.T) {
	d := decodeBytes(t, []byte{0x05})
	v, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)
}

func TestTagCoverage_NegativeFixnum(t *testing.T) {
	d := decodeBytes(t, []byte{0xFF}) // -1
	v, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, -1, v)
}

func TestTagCoverage_FixRawEmpty(t *testing.T) {
	d := decodeBytes(t, []byte{0xA0})
	v, err := d.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, []byte{}, v)
}

func TestTagCoverage_FixArray(t *testing.T) {
	d := decodeBytes(t, []byte{0x93, 0x01, 0x02, 0x03})
	n, err := d.ReadArrayHeader()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for i := int32(1); i <= 3; i++ {
		v, err := d.ReadInt()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestTagCoverage_FixMap(t *testing.T) {
	// {1: "a"}
	d := decodeBytes(t, []byte{0x81, 0x01, 0xA1, 0x61})
	n, err := d.ReadMapHeader()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	k, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, 1, k)
	v, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestTagCoverage_Nil(t *testing.T) {
	d := decodeBytes(t, []byte{0xC0})
	require.NoError(t, d.ReadNil())
}

func TestTagCoverage_BoolFalseTrue(t *testing.T) {
	d := decodeBytes(t, []byte{0xC2, 0xC3})
	v, err := d.ReadBoolean()
	require.NoError(t, err)
	assert.False(t, v)
	v, err = d.ReadBoolean()
	require.NoError(t, err)
	assert.True(t, v)
}

func TestTagCoverage_Float32(t *testing.T) {
	buf := []byte{0xCA, 0, 0, 0, 0}
	bits := math.Float32bits(3.5)
	buf[1] = byte(bits >> 24)
	buf[2] = byte(bits >> 16)
	buf[3] = byte(bits >> 8)
	buf[4] = byte(bits)
	d := decodeBytes(t, buf)
	v, err := d.ReadDouble()
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}

func TestTagCoverage_Float64(t *testing.T) {
	buf := make([]byte, 9)
	buf[0] = 0xCB
	bits := math.Float64bits(-2.25)
	for i := 0; i < 8; i++ {
		buf[1+i] = byte(bits >> (56 - 8*i))
	}
	d := decodeBytes(t, buf)
	v, err := d.ReadDouble()
	require.NoError(t, err)
	assert.Equal(t, -2.25, v)
}

func TestTagCoverage_Raw16Raw32(t *testing.T) {
	d := decodeBytes(t, []byte{0xDA, 0x00, 0x03, 'f', 'o', 'o'})
	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "foo", s)

	d = decodeBytes(t, []byte{0xDB, 0x00, 0x00, 0x00, 0x03, 'b', 'a', 'r'})
	s, err = d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "bar", s)
}

func TestTagCoverage_Array16Array32Map16Map32(t *testing.T) {
	d := decodeBytes(t, []byte{0xDC, 0x00, 0x02, 0x01, 0x02})
	n, err := d.ReadArrayHeader()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	d = decodeBytes(t, []byte{0xDD, 0x00, 0x00, 0x00, 0x01, 0x01})
	n, err = d.ReadArrayHeader()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d = decodeBytes(t, []byte{0xDE, 0x00, 0x01, 0x01, 0x01})
	n, err = d.ReadMapHeader()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d = decodeBytes(t, []byte{0xDF, 0x00, 0x00, 0x00, 0x01, 0x01, 0x01})
	n, err = d.ReadMapHeader()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTagCoverage_InvalidTag(t *testing.T) {
	d := decodeBytes(t, []byte{0xC1}) // reserved, unused
	_, err := d.ReadInt()
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, byte(0xC1), fe.Byte)
}

func TestTagCoverage_SentinelByteIsInvalid(t *testing.T) {
	d := decodeBytes(t, []byte{headEmpty})
	_, err := d.NextType()
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
}

// --- peek idempotence ----------------------------------------------------

func TestNextType_Idempotent(t *testing.T) {
	d := decodeBytes(t, []byte{0x2A}) // fixnum 42
	for i := 0; i < 3; i++ {
		typ, err := d.NextType()
		require.NoError(t, err)
		assert.Equal(t, IntegerType, typ)
	}
	v, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

// --- try-skip-nil laws -----------------------------------------------------

func TestTrySkipNil_True(t *testing.T) {
	d := decodeBytes(t, []byte{0xC0, 0x07})
	skipped, err := d.TrySkipNil()
	require.NoError(t, err)
	assert.True(t, skipped)
	v, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestTrySkipNil_False(t *testing.T) {
	d := decodeBytes(t, []byte{0x07})
	skipped, err := d.TrySkipNil()
	require.NoError(t, err)
	assert.False(t, skipped)
	v, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestTrySkipNil_UnknownTagDefersFormatError(t *testing.T) {
	// TrySkipNil silently returns false on an unrecognized tag rather
	// than eagerly failing; the format error surfaces on the next read.
	d := decodeBytes(t, []byte{0xC1})
	skipped, err := d.TrySkipNil()
	require.NoError(t, err)
	assert.False(t, skipped)

	_, err = d.ReadInt()
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
}

// --- size-limit guard -------------------------------------------------------

func TestSizeLimitGuard_Array(t *testing.T) {
	d := NewDecoderBytes([]byte{0xDC, 0x00, 0x05}, WithArrayLimit(4))
	_, err := d.ReadArrayHeader()
	require.Error(t, err)
	var sle *SizeLimitError
	require.ErrorAs(t, err, &sle)
	assert.Equal(t, ArrayType, sle.Kind)
	assert.EqualValues(t, 5, sle.Size)
	assert.Equal(t, 4, sle.Limit)
}

func TestSizeLimitGuard_Map(t *testing.T) {
	d := NewDecoderBytes([]byte{0xDE, 0x00, 0x05}, WithMapLimit(4))
	_, err := d.ReadMapHeader()
	require.Error(t, err)
	var sle *SizeLimitError
	require.ErrorAs(t, err, &sle)
	assert.Equal(t, MapType, sle.Kind)
}

func TestSizeLimitGuard_RawFiresBeforeAllocation(t *testing.T) {
	// The announced size is enormous; if the guard fired after
	// allocating, this test would OOM instead of failing fast.
	buf := []byte{0xDB, 0x7F, 0xFF, 0xFF, 0xFF}
	d := NewDecoderBytes(buf, WithRawLimit(1024))
	_, err := d.ReadByteArray()
	require.Error(t, err)
	var sle *SizeLimitError
	require.ErrorAs(t, err, &sle)
	assert.Equal(t, RawType, sle.Kind)
	assert.Equal(t, 1024, sle.Limit)
}

// --- integer promotion -------------------------------------------------------

func TestIntegerPromotion_Uint32Max(t *testing.T) {
	d := decodeBytes(t, []byte{0xCE, 0xFF, 0xFF, 0xFF, 0xFF})
	v, err := d.ReadLong()
	require.NoError(t, err)
	assert.EqualValues(t, 4294967295, v)

	d = decodeBytes(t, []byte{0xCE, 0xFF, 0xFF, 0xFF, 0xFF})
	_, err = d.ReadInt()
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestIntegerPromotion_Uint64Overflow(t *testing.T) {
	buf := []byte{0xCF, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	d := decodeBytes(t, buf)
	big, err := d.ReadBigInteger()
	require.NoError(t, err)
	assert.Equal(t, "9223372036854775808", big.String())

	d = decodeBytes(t, buf)
	_, err = d.ReadLong()
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestIntegerPromotion_Int64NegativeOne(t *testing.T) {
	buf := []byte{0xD3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	d := decodeBytes(t, buf)
	v, err := d.ReadLong()
	require.NoError(t, err)
	assert.EqualValues(t, -1, v)

	// -1 fits comfortably in int32 too.
	d = decodeBytes(t, buf)
	iv, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, -1, iv)
}

func TestIntegerPromotion_Int64OutOfInt32Range(t *testing.T) {
	// -2^32, representable as a long but not as an int.
	buf := []byte{0xD3, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}
	d := decodeBytes(t, buf)
	v, err := d.ReadLong()
	require.NoError(t, err)
	assert.EqualValues(t, -4294967296, v)

	d = decodeBytes(t, buf)
	_, err = d.ReadInt()
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestIntegerPromotion_Uint32NoHighBit(t *testing.T) {
	d := decodeBytes(t, []byte{0xCE, 0x00, 0x00, 0x01, 0x00})
	v, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, 256, v)
}

func TestIntegerPromotion_SmallWidths(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  int32
	}{
		{[]byte{0xCC, 200}, 200},                    // uint8
		{[]byte{0xCD, 0x01, 0x00}, 256},              // uint16
		{[]byte{0xD0, 0x80}, -128},                   // int8
		{[]byte{0xD1, 0xFF, 0x00}, -256},             // int16
		{[]byte{0xD2, 0xFF, 0xFF, 0xFF, 0xFF}, -1},   // int32
	}
	for _, c := range cases {
		d := decodeBytes(t, c.bytes)
		v, err := d.ReadInt()
		require.NoError(t, err)
		assert.Equal(t, c.want, v)
	}
}

// --- raw round trip -------------------------------------------------------

func TestRawRoundTrip_String(t *testing.T) {
	d := decodeBytes(t, []byte{0xA3, 0x66, 0x6F, 0x6F})
	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "foo", s)
}

func TestRawRoundTrip_ByteArray(t *testing.T) {
	d := decodeBytes(t, []byte{0xA3, 0x01, 0x02, 0x03})
	b, err := d.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, b)
}

// --- EOF --------------------------------------------------------------------

func TestEOF_TruncatedMultiByteHeader(t *testing.T) {
	d := decodeBytes(t, []byte{0xCC}) // uint8 tag with no following byte
	_, err := d.ReadInt()
	require.Error(t, err)
	var eofErr *EOFError
	require.ErrorAs(t, err, &eofErr)
}

func TestEOF_TruncatedRawBody(t *testing.T) {
	d := decodeBytes(t, []byte{0xA3, 'f', 'o'}) // announces 3, only 2 present
	_, err := d.ReadString()
	require.Error(t, err)
	var eofErr *EOFError
	require.ErrorAs(t, err, &eofErr)
}

func TestEOF_EmptyStream(t *testing.T) {
	d := decodeBytes(t, nil)
	_, err := d.ReadInt()
	require.Error(t, err)
	var eofErr *EOFError
	require.ErrorAs(t, err, &eofErr)
}

// --- malformed UTF-8 -------------------------------------------------------

func TestMalformedUTF8_StringFailsByteArraySucceeds(t *testing.T) {
	d := decodeBytes(t, []byte{0xA1, 0xFF})
	_, err := d.ReadString()
	require.Error(t, err)
	var ue *InvalidUTF8Error
	require.ErrorAs(t, err, &ue)

	d = decodeBytes(t, []byte{0xA1, 0xFF})
	b, err := d.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF}, b)
}

// --- resumable raw body -----------------------------------------------------

// slowReader trickles bytes one at a time so a raw body read spans
// multiple Channel.Read calls without ever hitting EOF prematurely.
type slowReader struct {
	data []byte
	pos  int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p[:1], r.data[r.pos:r.pos+1])
	r.pos += n
	return n, nil
}

func TestResumableRawBody_TrickleReader(t *testing.T) {
	payload := []byte("hello world")
	buf := append([]byte{0xDB, 0, 0, 0, byte(len(payload))}, payload...)
	d := NewDecoder(&slowReader{data: buf})
	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)
}

// --- container traversal / peek + full read composition ---------------------

func TestNextType_DrivesDispatch(t *testing.T) {
	d := decodeBytes(t, []byte{0x92, 0xA1, 'x', 0xC0})
	n, err := d.ReadArrayHeader()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	typ, err := d.NextType()
	require.NoError(t, err)
	assert.Equal(t, RawType, typ)
	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	typ, err = d.NextType()
	require.NoError(t, err)
	assert.Equal(t, NilType, typ)
	require.NoError(t, d.ReadNil())
}

// --- reader-backed channel --------------------------------------------------

func TestNewDecoder_ReaderChannel(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte{0x2A}))
	v, err := d.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}
