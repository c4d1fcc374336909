// Package kafkaproto implements the primitive wire-format codec for the
// subset of the Kafka protocol this broker speaks: fixed-width integers,
// varints, UUIDs, compact and nullable strings/arrays, and tagged fields.
package kafkaproto

import "errors"

// Decoding errors are connection-fatal: the caller closes the connection
// rather than reporting them in-band.
var (
	// ErrTruncated is returned when a bounded read runs past the end of
	// the buffer it is reading from.
	ErrTruncated = errors.New("kafkaproto: truncated")

	// ErrMalformedVarint is returned when an unsigned varint consumes more
	// than 5 bytes without its continuation bit clearing.
	ErrMalformedVarint = errors.New("kafkaproto: malformed varint")

	// ErrUnsupportedTaggedFields is returned when a tagged-fields byte is
	// not the single supported value 0x00.
	ErrUnsupportedTaggedFields = errors.New("kafkaproto: unsupported tagged fields")

	// ErrNullCompactString is returned when a COMPACT_STRING field (which
	// is not nullable) decodes a zero-length uvarint.
	ErrNullCompactString = errors.New("kafkaproto: null compact string in non-nullable field")
)
