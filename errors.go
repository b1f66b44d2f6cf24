package msgpack

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// FormatError reports an unrecognized tag byte. Raw bytes that fail UTF-8
// validation when read as a string are reported as *InvalidUTF8Error.
type FormatError struct {
	Byte byte
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("msgpack: unrecognized format byte: 0x%02x", e.Byte)
}

// InvalidUTF8Error reports a raw body that doesn't decode as UTF-8 when
// read with ReadString.
type InvalidUTF8Error struct{}

func (e *InvalidUTF8Error) Error() string {
	return "msgpack: raw body is not valid UTF-8"
}

// SizeLimitError reports an announced raw/array/map size that was negative
// once widened, or that met or exceeded the configured limit. It carries
// both the attempted size and the limit so callers can log something
// actionable.
type SizeLimitError struct {
	Kind  ValueType
	Size  int64
	Limit int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("msgpack: %s size %d exceeds limit %d", e.Kind, e.Size, e.Limit)
}

// TypeError reports that a typed read method was called but the next
// token in the stream is not a kind that acceptor can hold, or that the
// decoded value doesn't fit in the width the caller asked for.
type TypeError struct {
	Want string
	Got  ValueType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("msgpack: cannot read %s as %s", e.Got, e.Want)
}

// EOFError reports that the channel was exhausted before a value (or the
// remainder of a raw body) was fully read.
type EOFError struct{}

func (e *EOFError) Error() string {
	return "msgpack: unexpected end of stream"
}

// wrapIOError normalizes a channel failure: end of stream always becomes
// *EOFError regardless of what the underlying io.Reader called it
// (io.EOF or io.ErrUnexpectedEOF), and any other failure is wrapped with
// errors.Wrap so a caller can still get back to the original cause via
// errors.Cause, following the wrap-don't-swallow convention used
// throughout the rest of the corpus this package was cut from.
func wrapIOError(err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case io.EOF, io.ErrUnexpectedEOF:
		return &EOFError{}
	}
	switch err.(type) {
	case *FormatError, *InvalidUTF8Error, *SizeLimitError, *TypeError, *EOFError:
		return err
	}
	return errors.Wrap(err, "msgpack: channel read failed")
}
