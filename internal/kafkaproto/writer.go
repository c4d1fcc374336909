package kafkaproto

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Writer builds a Kafka wire-format byte sequence by appending to an
// internal buffer. The zero value is ready to use.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) Boolean(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) Int8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) Int16(v int16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

func (w *Writer) Int32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) Int64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

func (w *Writer) Uint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// UnsignedVarint encodes n as a LEB128 unsigned varint.
func (w *Writer) UnsignedVarint(n uint32) {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if n == 0 {
			return
		}
	}
}

// Varint zigzag-encodes a signed 32-bit value: (v<<1) XOR (v>>31).
func (w *Writer) Varint(v int32) {
	w.UnsignedVarint(uint32((v << 1) ^ (v >> 31)))
}

// Varlong zigzag-encodes a signed 64-bit value: (v<<1) XOR (v>>63).
func (w *Writer) Varlong(v int64) {
	n := uint64((v << 1) ^ (v >> 63))
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if n == 0 {
			return
		}
	}
}

func (w *Writer) UUID(u uuid.UUID) {
	w.buf = append(w.buf, u[:]...)
}

// CompactString encodes a COMPACT_STRING: uvarint(len+1) then bytes.
func (w *Writer) CompactString(s string) {
	w.UnsignedVarint(uint32(len(s)) + 1)
	w.buf = append(w.buf, s...)
}

// CompactNullableString encodes a COMPACT_NULLABLE_STRING; nil ⇒ uvarint 0.
func (w *Writer) CompactNullableString(s *string) {
	if s == nil {
		w.UnsignedVarint(0)
		return
	}
	w.CompactString(*s)
}

// NullableString encodes a NULLABLE_STRING; nil ⇒ INT16 -1.
func (w *Writer) NullableString(s *string) {
	if s == nil {
		w.Int16(-1)
		return
	}
	w.Int16(int16(len(*s)))
	w.buf = append(w.buf, *s...)
}

// CompactBytes encodes COMPACT_BYTES: uvarint(len+1) then raw bytes.
func (w *Writer) CompactBytes(b []byte) {
	if b == nil {
		w.UnsignedVarint(0)
		return
	}
	w.UnsignedVarint(uint32(len(b)) + 1)
	w.buf = append(w.buf, b...)
}

// EncodeArray encodes an ARRAY(INT32 length).
func EncodeArray[T any](w *Writer, items []T, elem func(*Writer, T)) {
	w.Int32(int32(len(items)))
	for _, it := range items {
		elem(w, it)
	}
}

// EncodeCompactArray encodes a COMPACT_ARRAY: uvarint(len+1) then elements.
func EncodeCompactArray[T any](w *Writer, items []T, elem func(*Writer, T)) {
	w.UnsignedVarint(uint32(len(items)) + 1)
	for _, it := range items {
		elem(w, it)
	}
}

// TaggedFields encodes the single supported tagged-fields byte: 0x00.
func (w *Writer) TaggedFields() {
	w.buf = append(w.buf, 0x00)
}
