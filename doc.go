// Package msgpack implements a streaming decoder for the classic
// MessagePack binary format (pre str/bin split):
//
//	http://wiki.msgpack.org/display/MSGPACK/Format+specification
//
// The package decodes one value at a time from a Channel, promoting
// integers across signed/unsigned widths without silent truncation,
// enforcing configurable size limits on raw/array/map headers before any
// allocation, and exposing a typed read surface (ReadInt, ReadLong,
// ReadBigInteger, ReadDouble, ReadBoolean, ReadNil, ReadByteArray,
// ReadString, ReadArrayHeader, ReadMapHeader) plus two peeks: NextType,
// which never consumes the next value, and TrySkipNil, which consumes it
// only when it is nil.
//
// A Decoder is not safe for concurrent use; each stream gets its own.
// Encoding, reflection-based struct codecs, and the generic Value tree
// object model are out of scope for this package.
package msgpack
