package msgpack

import (
	"io"
	"math/big"
)

// Decoder reads and decodes a stream of MessagePack-encoded values one at
// a time. It owns a Channel, three size guards, a one-byte lookahead
// cache (the "head byte"), and a scratch buffer for a raw body that may
// have been only partially filled before a channel read failed.
//
// A Decoder is not safe for concurrent use by multiple goroutines; each
// stream gets its own instance.
type Decoder struct {
	ch     Channel
	limits Limits

	head byte // cached head byte, or headEmpty if nothing is cached

	rawBuf  []byte // non-nil only while a raw body is partially filled
	rawFill int
}

// NewDecoder returns a Decoder reading from r with the default size
// limits, adjusted by any Options given.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return newDecoder(NewChannel(r), opts)
}

// NewDecoderBytes returns a Decoder reading directly from buf without an
// intermediate io.Reader.
func NewDecoderBytes(buf []byte, opts ...Option) *Decoder {
	return newDecoder(NewBytesChannel(buf), opts)
}

// NewDecoderChannel returns a Decoder reading from an arbitrary Channel,
// for callers supplying their own byte source.
func NewDecoderChannel(ch Channel, opts ...Option) *Decoder {
	return newDecoder(ch, opts)
}

func newDecoder(ch Channel, opts []Option) *Decoder {
	d := &Decoder{
		ch:     ch,
		limits: DefaultLimits(),
		head:   headEmpty,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.limits = d.limits.normalize()
	return d
}

// Close closes the underlying channel. The decoder must not be used
// afterward.
func (d *Decoder) Close() error {
	return d.ch.Close()
}

// getHead returns the cached head byte, fetching one from the channel if
// the cache is empty. It never clears the cache.
func (d *Decoder) getHead() (byte, error) {
	if d.head != headEmpty {
		return d.head, nil
	}
	b, err := d.ch.ReadByte()
	if err != nil {
		return 0, wrapIOError(err)
	}
	d.head = b
	return b, nil
}

// resetHead clears the cache so the next getHead fetches a fresh byte.
func (d *Decoder) resetHead() {
	d.head = headEmpty
}

// TrySkipNil peeks the head byte. If it is the nil tag, the cache is
// cleared and true is returned. Otherwise the cache is left primed and
// false is returned — this lets a caller probe for an optional field
// without committing to a full read. An unrecognized head byte is not an
// error here; the format failure is deferred to whatever typed read the
// caller performs next.
func (d *Decoder) TrySkipNil() (bool, error) {
	b, err := d.getHead()
	if err != nil {
		return false, err
	}
	if b == tagNil {
		d.resetHead()
		return true, nil
	}
	return false, nil
}

// NextType peeks the head byte and classifies it, without consuming the
// cache and without allocating. An unrecognized tag is a *FormatError.
func (d *Decoder) NextType() (ValueType, error) {
	b, err := d.getHead()
	if err != nil {
		return InvalidType, err
	}
	return classify(b)
}

func classify(b byte) (ValueType, error) {
	switch {
	case isPositiveFixnum(b), isNegativeFixnum(b):
		return IntegerType, nil
	case isFixRaw(b):
		return RawType, nil
	case isFixArray(b):
		return ArrayType, nil
	case isFixMap(b):
		return MapType, nil
	}
	switch b {
	case tagNil:
		return NilType, nil
	case tagFalse, tagTrue:
		return BooleanType, nil
	case tagFloat32, tagFloat64:
		return FloatType, nil
	case tagUint8, tagUint16, tagUint32, tagUint64, tagInt8, tagInt16, tagInt32, tagInt64:
		return IntegerType, nil
	case tagRaw16, tagRaw32:
		return RawType, nil
	case tagArray16, tagArray32:
		return ArrayType, nil
	case tagMap16, tagMap32:
		return MapType, nil
	}
	return InvalidType, &FormatError{Byte: b}
}

// ReadToken is the low-level escape hatch: it reads the head byte,
// classifies it, drives the appropriate sub-reader, and delivers exactly
// one accept* call to a. Postcondition on success: the cache is empty
// (the value was consumed). This holds for a container header too: the
// header is itself a value, and its elements are read by subsequent
// ReadToken calls.
func (d *Decoder) ReadToken(a Acceptor) error {
	if d.rawBuf != nil {
		if err := d.readRawBodyCont(); err != nil {
			return err
		}
		buf := d.rawBuf
		d.rawBuf = nil
		a.acceptByteArray(buf)
		d.resetHead()
		return a.acceptErr()
	}

	b, err := d.getHead()
	if err != nil {
		return err
	}

	switch {
	case isPositiveFixnum(b), isNegativeFixnum(b):
		a.acceptInt(int32(int8(b)))
		d.resetHead()
		return a.acceptErr()

	case isFixRaw(b):
		size := int(b & tagFixRawLenMask)
		return d.dispatchRaw(a, size)

	case isFixArray(b):
		size := int(b & tagFixArrLenMask)
		return d.dispatchArray(a, size)

	case isFixMap(b):
		size := int(b & tagFixMapLenMask)
		return d.dispatchMap(a, size)
	}

	return d.readTokenExplicit(a, b)
}

func (d *Decoder) readTokenExplicit(a Acceptor, b byte) error {
	switch b {
	case tagNil:
		a.acceptNil()
		d.resetHead()
		return a.acceptErr()

	case tagFalse:
		a.acceptBoolean(false)
		d.resetHead()
		return a.acceptErr()

	case tagTrue:
		a.acceptBoolean(true)
		d.resetHead()
		return a.acceptErr()

	case tagFloat32:
		v, err := d.ch.ReadFloat32()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptFloat(v)
		d.resetHead()
		return a.acceptErr()

	case tagFloat64:
		v, err := d.ch.ReadFloat64()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptDouble(v)
		d.resetHead()
		return a.acceptErr()

	case tagUint8:
		v, err := d.ch.ReadByte()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptInt(int32(v))
		d.resetHead()
		return a.acceptErr()

	case tagUint16:
		v, err := d.ch.ReadUint16()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptInt(int32(v))
		d.resetHead()
		return a.acceptErr()

	case tagUint32:
		v, err := d.ch.ReadUint32()
		if err != nil {
			return wrapIOError(err)
		}
		if v&0x80000000 != 0 {
			// Promote to signed 64-bit: low 31 bits plus 2^31, exactly
			// as the Java reference computes it (v & 0x7fffffff) +
			// 0x80000000, so there is no intermediate overflow.
			a.acceptLong(int64(v&0x7fffffff) + 0x80000000)
		} else {
			a.acceptInt(int32(v))
		}
		d.resetHead()
		return a.acceptErr()

	case tagUint64:
		v, err := d.ch.ReadUint64()
		if err != nil {
			return wrapIOError(err)
		}
		if int64(v) < 0 {
			a.acceptUnsignedLong(v)
		} else {
			a.acceptLong(int64(v))
		}
		d.resetHead()
		return a.acceptErr()

	case tagInt8:
		v, err := d.ch.ReadByte()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptInt(int32(int8(v)))
		d.resetHead()
		return a.acceptErr()

	case tagInt16:
		v, err := d.ch.ReadUint16()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptInt(int32(int16(v)))
		d.resetHead()
		return a.acceptErr()

	case tagInt32:
		v, err := d.ch.ReadUint32()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptInt(int32(v))
		d.resetHead()
		return a.acceptErr()

	case tagInt64:
		v, err := d.ch.ReadUint64()
		if err != nil {
			return wrapIOError(err)
		}
		a.acceptLong(int64(v))
		d.resetHead()
		return a.acceptErr()

	case tagRaw16:
		size, err := d.ch.ReadUint16()
		if err != nil {
			return wrapIOError(err)
		}
		return d.dispatchRaw(a, int(size))

	case tagRaw32:
		size, err := d.ch.ReadUint32()
		if err != nil {
			return wrapIOError(err)
		}
		return d.dispatchRaw(a, int(size))

	case tagArray16:
		size, err := d.ch.ReadUint16()
		if err != nil {
			return wrapIOError(err)
		}
		return d.dispatchArray(a, int(size))

	case tagArray32:
		size, err := d.ch.ReadUint32()
		if err != nil {
			return wrapIOError(err)
		}
		return d.dispatchArray(a, int(size))

	case tagMap16:
		size, err := d.ch.ReadUint16()
		if err != nil {
			return wrapIOError(err)
		}
		return d.dispatchMap(a, int(size))

	case tagMap32:
		size, err := d.ch.ReadUint32()
		if err != nil {
			return wrapIOError(err)
		}
		return d.dispatchMap(a, int(size))
	}

	return &FormatError{Byte: b}
}

func (d *Decoder) dispatchRaw(a Acceptor, size int) error {
	if size < 0 || size >= d.limits.Raw {
		return &SizeLimitError{Kind: RawType, Size: int64(uint32(size)), Limit: d.limits.Raw}
	}
	if size == 0 {
		a.acceptEmptyByteArray()
		d.resetHead()
		return a.acceptErr()
	}
	if err := d.readRawBody(size); err != nil {
		return err
	}
	buf := d.rawBuf
	d.rawBuf = nil
	a.acceptByteArray(buf)
	d.resetHead()
	return a.acceptErr()
}

func (d *Decoder) dispatchArray(a Acceptor, size int) error {
	if size < 0 || size >= d.limits.Array {
		return &SizeLimitError{Kind: ArrayType, Size: int64(uint32(size)), Limit: d.limits.Array}
	}
	a.acceptArrayHeader(size)
	d.resetHead()
	return a.acceptErr()
}

func (d *Decoder) dispatchMap(a Acceptor, size int) error {
	if size < 0 || size >= d.limits.Map {
		return &SizeLimitError{Kind: MapType, Size: int64(uint32(size)), Limit: d.limits.Map}
	}
	a.acceptMapHeader(size)
	d.resetHead()
	return a.acceptErr()
}

// readRawBody allocates a buffer of exactly size bytes and drives the
// channel until it is filled. If the channel fails partway through, the
// partially filled buffer is kept in d.rawBuf so the next ReadToken call
// resumes filling it rather than losing the bytes already read.
func (d *Decoder) readRawBody(size int) error {
	d.rawBuf = make([]byte, size)
	d.rawFill = 0
	return d.readRawBodyCont()
}

func (d *Decoder) readRawBodyCont() error {
	for d.rawFill < len(d.rawBuf) {
		n, err := d.ch.Read(d.rawBuf[d.rawFill:])
		d.rawFill += n
		if err != nil {
			if err == io.EOF {
				return &EOFError{}
			}
			return wrapIOError(err)
		}
		if n == 0 {
			return &EOFError{}
		}
	}
	return nil
}

// --- typed read façade -----------------------------------------------

// ReadInt reads the next value as a 32-bit signed integer. It fails with
// a *TypeError if the decoded value needs more than 32 bits.
func (d *Decoder) ReadInt() (int32, error) {
	a := newIntAcceptor()
	if err := d.ReadToken(a); err != nil {
		return 0, err
	}
	return a.value, nil
}

// ReadLong reads the next value as a 64-bit signed integer.
func (d *Decoder) ReadLong() (int64, error) {
	a := newLongAcceptor()
	if err := d.ReadToken(a); err != nil {
		return 0, err
	}
	return a.value, nil
}

// ReadBigInteger reads the next value as an arbitrary-precision integer,
// accepting int, long, and the uint64-overflow case that has no signed
// 64-bit representation.
func (d *Decoder) ReadBigInteger() (*big.Int, error) {
	a := newBigIntegerAcceptor()
	if err := d.ReadToken(a); err != nil {
		return nil, err
	}
	return new(big.Int).Set(&a.value), nil
}

// ReadDouble reads the next value as a double, widening a float32 if
// that's what's on the wire.
func (d *Decoder) ReadDouble() (float64, error) {
	a := newDoubleAcceptor()
	if err := d.ReadToken(a); err != nil {
		return 0, err
	}
	return a.value, nil
}

// ReadBoolean reads the next value as a bool.
func (d *Decoder) ReadBoolean() (bool, error) {
	a := newBooleanAcceptor()
	if err := d.ReadToken(a); err != nil {
		return false, err
	}
	return a.value, nil
}

// ReadNil reads the next value, which must be nil.
func (d *Decoder) ReadNil() error {
	a := newNilAcceptor()
	return d.ReadToken(a)
}

// ReadByteArray reads the next value as a raw byte string.
func (d *Decoder) ReadByteArray() ([]byte, error) {
	a := newByteArrayAcceptor()
	if err := d.ReadToken(a); err != nil {
		return nil, err
	}
	return a.value, nil
}

// ReadString reads the next value as a raw byte string and decodes it as
// UTF-8. Malformed UTF-8 fails with *InvalidUTF8Error.
func (d *Decoder) ReadString() (string, error) {
	a := newStringAcceptor()
	if err := d.ReadToken(a); err != nil {
		return "", err
	}
	return a.value, nil
}

// ReadArrayHeader reads an array header and returns its announced
// element count; the caller reads that many values with subsequent calls.
func (d *Decoder) ReadArrayHeader() (int, error) {
	a := newArrayAcceptor()
	if err := d.ReadToken(a); err != nil {
		return 0, err
	}
	return a.size, nil
}

// ReadMapHeader reads a map header and returns its announced entry
// count; the caller reads that many key/value pairs with subsequent
// calls.
func (d *Decoder) ReadMapHeader() (int, error) {
	a := newMapAcceptor()
	if err := d.ReadToken(a); err != nil {
		return 0, err
	}
	return a.size, nil
}
