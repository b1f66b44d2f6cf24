package msgpack

// ValueType classifies the next value in a stream without consuming it.
// See Decoder.NextType.
type ValueType int8

const (
	InvalidType ValueType = iota
	IntegerType
	FloatType
	BooleanType
	NilType
	RawType
	ArrayType
	MapType
)

var valueTypeNames = [...]string{
	"INVALID",
	"INTEGER",
	"FLOAT",
	"BOOLEAN",
	"NIL",
	"RAW",
	"ARRAY",
	"MAP",
}

func (t ValueType) String() string {
	if t >= InvalidType && int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return valueTypeNames[InvalidType]
}

// Format tag bytes of the classic MessagePack grammar. Masks are applied
// to the head byte to recognize the single-byte-prefix families; the
// explicit tags below them each own their full byte value.
const (
	tagPosFixnumMask  = 0x80 // b&tagPosFixnumMask == 0x00 -> positive fixnum
	tagNegFixnumMask  = 0xE0 // b&tagNegFixnumMask == 0xE0 -> negative fixnum
	tagFixRawMask     = 0xE0 // b&tagFixRawMask == 0xA0 -> fixraw, len = b&0x1F
	tagFixRawValue    = 0xA0
	tagFixArrayMask   = 0xF0 // b&tagFixArrayMask == 0x90 -> fixarray, len = b&0x0F
	tagFixArrayValue  = 0x90
	tagFixMapMask     = 0xF0 // b&tagFixMapMask == 0x80 -> fixmap, len = b&0x0F
	tagFixMapValue    = 0x80
	tagFixRawLenMask  = 0x1F
	tagFixArrLenMask  = 0x0F
	tagFixMapLenMask  = 0x0F

	tagNil     = 0xC0
	tagFalse   = 0xC2
	tagTrue    = 0xC3
	tagFloat32 = 0xCA
	tagFloat64 = 0xCB

	tagUint8  = 0xCC
	tagUint16 = 0xCD
	tagUint32 = 0xCE
	tagUint64 = 0xCF

	tagInt8  = 0xD0
	tagInt16 = 0xD1
	tagInt32 = 0xD2
	tagInt64 = 0xD3

	tagRaw16 = 0xDA
	tagRaw32 = 0xDB

	tagArray16 = 0xDC
	tagArray32 = 0xDD

	tagMap16 = 0xDE
	tagMap32 = 0xDF

	// headEmpty is the sentinel stored in the head-byte cache to mean
	// "no byte fetched yet". 0xC6 is unused in the classic tag table, so
	// it can never collide with a real value on the wire.
	headEmpty = 0xC6
)

func isPositiveFixnum(b byte) bool { return b&tagPosFixnumMask == 0x00 }
func isNegativeFixnum(b byte) bool { return b&tagNegFixnumMask == 0xE0 }
func isFixRaw(b byte) bool         { return b&tagFixRawMask == tagFixRawValue }
func isFixArray(b byte) bool       { return b&tagFixArrayMask == tagFixArrayValue }
func isFixMap(b byte) bool         { return b&tagFixMapMask == tagFixMapValue }
