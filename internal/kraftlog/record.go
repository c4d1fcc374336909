// Package kraftlog decodes the on-disk KRaft commit log format: record
// batches, the records inside them, and the metadata-record subtypes
// (TopicRecord, PartitionRecord, FeatureLevelRecord) carried by the
// __cluster_metadata partition.
package kraftlog

import (
	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

// RecordHeader is a single key/value pair attached to a Record.
type RecordHeader struct {
	Key   string
	Value []byte
}

func decodeRecordHeader(r *kafkaproto.Reader) (RecordHeader, error) {
	keyLen, err := r.Varint()
	if err != nil {
		return RecordHeader{}, err
	}
	key, err := r.Raw(int(keyLen))
	if err != nil {
		return RecordHeader{}, err
	}
	valLen, err := r.Varint()
	if err != nil {
		return RecordHeader{}, err
	}
	val, err := r.Raw(int(valLen))
	if err != nil {
		return RecordHeader{}, err
	}
	return RecordHeader{Key: string(key), Value: val}, nil
}

func (h RecordHeader) encode(w *kafkaproto.Writer) {
	w.Varint(int32(len(h.Key)))
	w.Raw([]byte(h.Key))
	w.Varint(int32(len(h.Value)))
	w.Raw(h.Value)
}

// Record is a single record inside a RecordBatch.
type Record struct {
	Attributes     int8
	TimestampDelta int64
	OffsetDelta    int32
	Key            []byte // nil means the key is null
	Value          []byte
	Headers        []RecordHeader
}

// DecodeRecord decodes a length-prefixed Record. The varint length bounds a
// sub-reader, so a truncated record is detected locally rather than
// consuming bytes that belong to the next record.
func DecodeRecord(r *kafkaproto.Reader) (Record, error) {
	length, err := r.Varint()
	if err != nil {
		return Record{}, err
	}
	body, err := r.Sub(int(length))
	if err != nil {
		return Record{}, err
	}

	attributes, err := body.Int8()
	if err != nil {
		return Record{}, err
	}
	timestampDelta, err := body.Varlong()
	if err != nil {
		return Record{}, err
	}
	offsetDelta, err := body.Varint()
	if err != nil {
		return Record{}, err
	}

	keyLength, err := body.Varint()
	if err != nil {
		return Record{}, err
	}
	var key []byte
	if keyLength >= 0 {
		key, err = body.Raw(int(keyLength))
		if err != nil {
			return Record{}, err
		}
	}

	valueLength, err := body.Varint()
	if err != nil {
		return Record{}, err
	}
	value, err := body.Raw(int(valueLength))
	if err != nil {
		return Record{}, err
	}

	headerCount, err := body.UnsignedVarint()
	if err != nil {
		return Record{}, err
	}
	headers := make([]RecordHeader, headerCount)
	for i := range headers {
		headers[i], err = decodeRecordHeader(body)
		if err != nil {
			return Record{}, err
		}
	}

	return Record{
		Attributes:     attributes,
		TimestampDelta: timestampDelta,
		OffsetDelta:    offsetDelta,
		Key:            key,
		Value:          value,
		Headers:        headers,
	}, nil
}

// Encode writes the record in its length-prefixed wire form. It is used to
// build test fixtures — the Fetch handler itself replays on-disk bytes
// verbatim rather than re-encoding.
func (rec Record) Encode(w *kafkaproto.Writer) {
	body := kafkaproto.NewWriter()
	body.Int8(rec.Attributes)
	body.Varlong(rec.TimestampDelta)
	body.Varint(rec.OffsetDelta)
	if rec.Key == nil {
		body.Varint(-1)
	} else {
		body.Varint(int32(len(rec.Key)))
		body.Raw(rec.Key)
	}
	body.Varint(int32(len(rec.Value)))
	body.Raw(rec.Value)
	body.UnsignedVarint(uint32(len(rec.Headers)))
	for _, h := range rec.Headers {
		h.encode(body)
	}

	w.Varint(int32(body.Len()))
	w.Raw(body.Bytes())
}
