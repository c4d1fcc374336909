package kafkaproto

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Reader decodes Kafka primitive types from a fixed byte slice. It has no
// notion of a stream — bounded sub-buffers (record batches, individual
// records) are created with Sub, which slices out a region and hands back
// an independent Reader over it, so an over-read in a nested structure
// can't run past its own bound into a sibling's bytes.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for decoding. It does not copy buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Bytes returns the unread tail of the buffer without advancing the reader.
func (r *Reader) Bytes() []byte {
	return r.buf[r.pos:]
}

func (r *Reader) need(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.pos, len(r.buf)-r.pos)
	}
	return nil
}

// Raw reads and returns the next n bytes verbatim.
func (r *Reader) Raw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Sub carves out the next n bytes as an independent Reader, so a bug in the
// nested decoder can't read past the bound into the parent's remaining bytes.
func (r *Reader) Sub(n int) (*Reader, error) {
	b, err := r.Raw(n)
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

func (r *Reader) Boolean() (bool, error) {
	b, err := r.Raw(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) Int8() (int8, error) {
	b, err := r.Raw(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) Int16() (int16, error) {
	b, err := r.Raw(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (r *Reader) Int32() (int32, error) {
	b, err := r.Raw(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *Reader) Int64() (int64, error) {
	b, err := r.Raw(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Raw(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// UnsignedVarint decodes a LEB128 unsigned varint, failing with
// ErrMalformedVarint if more than 5 bytes are consumed without the
// continuation bit clearing (5 bytes is the max for a 32-bit value).
func (r *Reader) UnsignedVarint() (uint32, error) {
	var n uint32
	for shift := uint(0); ; shift += 7 {
		if shift >= 35 {
			return 0, ErrMalformedVarint
		}
		b, err := r.Raw(1)
		if err != nil {
			return 0, err
		}
		n |= uint32(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return n, nil
		}
	}
}

// Varint decodes a zigzag-encoded signed 32-bit varint.
func (r *Reader) Varint() (int32, error) {
	n, err := r.UnsignedVarint()
	if err != nil {
		return 0, err
	}
	return int32(n>>1) ^ -int32(n&1), nil
}

// Varlong decodes a zigzag-encoded signed 64-bit varint.
func (r *Reader) Varlong() (int64, error) {
	var n uint64
	for shift := uint(0); ; shift += 7 {
		if shift >= 70 {
			return 0, ErrMalformedVarint
		}
		b, err := r.Raw(1)
		if err != nil {
			return 0, err
		}
		n |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			break
		}
	}
	return int64(n>>1) ^ -int64(n&1), nil
}

func (r *Reader) UUID() (uuid.UUID, error) {
	b, err := r.Raw(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}

// CompactString decodes a COMPACT_STRING: uvarint length+1. A zero reading
// is a protocol violation for this non-nullable field.
func (r *Reader) CompactString() (string, error) {
	n, err := r.UnsignedVarint()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrNullCompactString
	}
	b, err := r.Raw(int(n - 1))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompactNullableString decodes a COMPACT_NULLABLE_STRING: 0 ⇒ null.
func (r *Reader) CompactNullableString() (*string, error) {
	n, err := r.UnsignedVarint()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b, err := r.Raw(int(n - 1))
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// NullableString decodes a NULLABLE_STRING: INT16 length, -1 ⇒ null.
func (r *Reader) NullableString() (*string, error) {
	n, err := r.Int16()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	b, err := r.Raw(int(n))
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// CompactBytes decodes a COMPACT_BYTES: uvarint length+1.
func (r *Reader) CompactBytes() ([]byte, error) {
	n, err := r.UnsignedVarint()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.Raw(int(n - 1))
}

// DecodeArray decodes an ARRAY(INT32 length); -1 ⇒ null, reported as an
// empty slice.
func DecodeArray[T any](r *Reader, elem func(*Reader) (T, error)) ([]T, error) {
	n, err := r.Int32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	out := make([]T, n)
	for i := range out {
		out[i], err = elem(r)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeCompactArray decodes a COMPACT_ARRAY: uvarint N; N==0 ⇒ null/empty,
// else N−1 elements follow.
func DecodeCompactArray[T any](r *Reader, elem func(*Reader) (T, error)) ([]T, error) {
	n, err := r.UnsignedVarint()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]T, n-1)
	for i := range out {
		out[i], err = elem(r)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// TaggedFields decodes a TAGGED_FIELDS section, which this server never
// expects to carry actual tags: exactly one 0x00 byte.
func (r *Reader) TaggedFields() error {
	b, err := r.Raw(1)
	if err != nil {
		return err
	}
	if b[0] != 0x00 {
		return ErrUnsupportedTaggedFields
	}
	return nil
}
