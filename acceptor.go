package msgpack

import (
	"math/big"
	"unicode/utf8"
)

// Acceptor is the polymorphic sink the token dispatcher delivers exactly
// one semantic event to per call to Decoder.ReadToken. Each typed read
// method on Decoder allocates the acceptor that wants its kind of value,
// calls ReadToken, and returns whatever that acceptor captured.
//
// A concrete Acceptor rejects token kinds it doesn't handle with a
// *TypeError, except where widening to a larger kind is safe (e.g. an
// int accepted by a LongAcceptor, or a float32 accepted by a
// DoubleAcceptor).
type Acceptor interface {
	acceptInt(v int32)
	acceptLong(v int64)
	acceptUnsignedLong(v uint64)
	acceptFloat(v float32)
	acceptDouble(v float64)
	acceptBoolean(v bool)
	acceptNil()
	acceptByteArray(v []byte)
	acceptEmptyByteArray()
	acceptArrayHeader(size int)
	acceptMapHeader(size int)

	// acceptErr returns the rejection recorded by a mismatched accept*
	// call, or nil if the acceptor captured a value cleanly.
	acceptErr() error
}

// baseAcceptor turns every accept* call into a *TypeError by default;
// concrete acceptors embed it and override only the methods whose kind
// they actually want.
type baseAcceptor struct {
	want string
	err  error
}

func (a *baseAcceptor) fail(got ValueType) {
	if a.err == nil {
		a.err = &TypeError{Want: a.want, Got: got}
	}
}

func (a *baseAcceptor) acceptErr() error { return a.err }

func (a *baseAcceptor) acceptInt(int32)           { a.fail(IntegerType) }
func (a *baseAcceptor) acceptLong(int64)          { a.fail(IntegerType) }
func (a *baseAcceptor) acceptUnsignedLong(uint64) { a.fail(IntegerType) }
func (a *baseAcceptor) acceptFloat(float32)       { a.fail(FloatType) }
func (a *baseAcceptor) acceptDouble(float64)      { a.fail(FloatType) }
func (a *baseAcceptor) acceptBoolean(bool)        { a.fail(BooleanType) }
func (a *baseAcceptor) acceptNil()                { a.fail(NilType) }
func (a *baseAcceptor) acceptByteArray([]byte)    { a.fail(RawType) }
func (a *baseAcceptor) acceptEmptyByteArray()     { a.fail(RawType) }
func (a *baseAcceptor) acceptArrayHeader(int)     { a.fail(ArrayType) }
func (a *baseAcceptor) acceptMapHeader(int)       { a.fail(MapType) }

// intAcceptor accepts an int outright, or a long that fits in int32.
type intAcceptor struct {
	baseAcceptor
	value int32
}

func newIntAcceptor() *intAcceptor {
	return &intAcceptor{baseAcceptor: baseAcceptor{want: "int"}}
}

func (a *intAcceptor) acceptInt(v int32) { a.value = v }
func (a *intAcceptor) acceptLong(v int64) {
	if v < int64(minInt32) || v > int64(maxInt32) {
		a.fail(IntegerType)
		return
	}
	a.value = int32(v)
}

// longAcceptor accepts an int (widened) or a long outright; an
// unsigned-long token (the uint64 overflow case) is out of range for it.
type longAcceptor struct {
	baseAcceptor
	value int64
}

func newLongAcceptor() *longAcceptor {
	return &longAcceptor{baseAcceptor: baseAcceptor{want: "long"}}
}

func (a *longAcceptor) acceptInt(v int32)  { a.value = int64(v) }
func (a *longAcceptor) acceptLong(v int64) { a.value = v }

// bigIntegerAcceptor accepts int, long, and unsigned-long. The
// unsigned-long branch is the reason this acceptor exists at all: a
// decoded uint64 whose top bit is set has no signed 64-bit
// representation. big.Int is the idiomatic Go counterpart of Java's
// BigInteger and, unlike a bare uint64, still represents a negative
// long correctly, so it's used for all three branches rather than just
// the overflow one.
type bigIntegerAcceptor struct {
	baseAcceptor
	value big.Int
}

func newBigIntegerAcceptor() *bigIntegerAcceptor {
	return &bigIntegerAcceptor{baseAcceptor: baseAcceptor{want: "big integer"}}
}

func (a *bigIntegerAcceptor) acceptInt(v int32)  { a.value.SetInt64(int64(v)) }
func (a *bigIntegerAcceptor) acceptLong(v int64) { a.value.SetInt64(v) }
func (a *bigIntegerAcceptor) acceptUnsignedLong(v uint64) {
	a.value.SetUint64(v)
}

// doubleAcceptor accepts a float32 (widened) or a float64 outright.
type doubleAcceptor struct {
	baseAcceptor
	value float64
}

func newDoubleAcceptor() *doubleAcceptor {
	return &doubleAcceptor{baseAcceptor: baseAcceptor{want: "double"}}
}

func (a *doubleAcceptor) acceptFloat(v float32)  { a.value = float64(v) }
func (a *doubleAcceptor) acceptDouble(v float64) { a.value = v }

type booleanAcceptor struct {
	baseAcceptor
	value bool
}

func newBooleanAcceptor() *booleanAcceptor {
	return &booleanAcceptor{baseAcceptor: baseAcceptor{want: "boolean"}}
}

func (a *booleanAcceptor) acceptBoolean(v bool) { a.value = v }

type nilAcceptor struct {
	baseAcceptor
}

func newNilAcceptor() *nilAcceptor {
	return &nilAcceptor{baseAcceptor: baseAcceptor{want: "nil"}}
}

func (a *nilAcceptor) acceptNil() {}

// byteArrayAcceptor accepts a raw body as-is.
type byteArrayAcceptor struct {
	baseAcceptor
	value []byte
}

func newByteArrayAcceptor() *byteArrayAcceptor {
	return &byteArrayAcceptor{baseAcceptor: baseAcceptor{want: "byte array"}}
}

func (a *byteArrayAcceptor) acceptByteArray(v []byte) { a.value = v }
func (a *byteArrayAcceptor) acceptEmptyByteArray()    { a.value = []byte{} }

// stringAcceptor accepts a raw body and validates it as UTF-8.
type stringAcceptor struct {
	baseAcceptor
	value string
}

func newStringAcceptor() *stringAcceptor {
	return &stringAcceptor{baseAcceptor: baseAcceptor{want: "string"}}
}

func (a *stringAcceptor) acceptByteArray(v []byte) {
	if !utf8.Valid(v) {
		a.err = &InvalidUTF8Error{}
		return
	}
	a.value = string(v)
}

func (a *stringAcceptor) acceptEmptyByteArray() { a.value = "" }

// arrayAcceptor captures the announced size of an array header; the
// caller reads the elements themselves via subsequent ReadToken calls.
type arrayAcceptor struct {
	baseAcceptor
	size int
}

func newArrayAcceptor() *arrayAcceptor {
	return &arrayAcceptor{baseAcceptor: baseAcceptor{want: "array header"}}
}

func (a *arrayAcceptor) acceptArrayHeader(size int) { a.size = size }

// mapAcceptor captures the announced size of a map header.
type mapAcceptor struct {
	baseAcceptor
	size int
}

func newMapAcceptor() *mapAcceptor {
	return &mapAcceptor{baseAcceptor: baseAcceptor{want: "map header"}}
}

func (a *mapAcceptor) acceptMapHeader(size int) { a.size = size }

const (
	minInt32 = -1 << 31
	maxInt32 = 1<<31 - 1
)
