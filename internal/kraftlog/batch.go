package kraftlog

import (
	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

// RecordBatch is the on-disk and on-wire container of zero or more Records,
// magic version 2.
type RecordBatch struct {
	BaseOffset           int64
	BatchLength          int32
	PartitionLeaderEpoch int32
	Magic                int8
	CRC                  uint32
	Attributes           int16
	LastOffsetDelta      int32
	BaseTimestamp        int64
	MaxTimestamp         int64
	ProducerID           int64
	ProducerEpoch        int16
	BaseSequence         int32
	Records              []Record

	// Raw holds the exact on-disk bytes this batch was decoded from,
	// base_offset through the last record, inclusive. Fetch emits this
	// verbatim rather than re-encoding.
	Raw []byte
}

// DecodeRecordBatch decodes a RecordBatch from its full raw bytes (the
// 12-byte base_offset/batch_length prefix plus exactly batch_length more
// bytes). raw is retained on the result for byte-identical replay.
func DecodeRecordBatch(raw []byte) (RecordBatch, error) {
	r := kafkaproto.NewReader(raw)

	baseOffset, err := r.Int64()
	if err != nil {
		return RecordBatch{}, err
	}
	batchLength, err := r.Int32()
	if err != nil {
		return RecordBatch{}, err
	}
	body, err := r.Sub(int(batchLength))
	if err != nil {
		return RecordBatch{}, err
	}

	partitionLeaderEpoch, err := body.Int32()
	if err != nil {
		return RecordBatch{}, err
	}
	magic, err := body.Int8()
	if err != nil {
		return RecordBatch{}, err
	}
	// crc is read but never verified, so a corrupt batch is not detected
	// here: Fetch replays it as is and the consumer sees the corruption, and
	// a corrupt metadata batch either fails to decode or is indexed as read.
	crc, err := body.Uint32()
	if err != nil {
		return RecordBatch{}, err
	}
	attributes, err := body.Int16()
	if err != nil {
		return RecordBatch{}, err
	}
	lastOffsetDelta, err := body.Int32()
	if err != nil {
		return RecordBatch{}, err
	}
	baseTimestamp, err := body.Int64()
	if err != nil {
		return RecordBatch{}, err
	}
	maxTimestamp, err := body.Int64()
	if err != nil {
		return RecordBatch{}, err
	}
	producerID, err := body.Int64()
	if err != nil {
		return RecordBatch{}, err
	}
	producerEpoch, err := body.Int16()
	if err != nil {
		return RecordBatch{}, err
	}
	baseSequence, err := body.Int32()
	if err != nil {
		return RecordBatch{}, err
	}
	records, err := kafkaproto.DecodeArray(body, DecodeRecord)
	if err != nil {
		return RecordBatch{}, err
	}

	return RecordBatch{
		BaseOffset:           baseOffset,
		BatchLength:          batchLength,
		PartitionLeaderEpoch: partitionLeaderEpoch,
		Magic:                magic,
		CRC:                  crc,
		Attributes:           attributes,
		LastOffsetDelta:      lastOffsetDelta,
		BaseTimestamp:        baseTimestamp,
		MaxTimestamp:         maxTimestamp,
		ProducerID:           producerID,
		ProducerEpoch:        producerEpoch,
		BaseSequence:         baseSequence,
		Records:              records,
		Raw:                  raw,
	}, nil
}

// Encode rebuilds the wire bytes for the batch from its fields, recomputing
// batch_length but not crc (crc is not validated by this server; see the
// comment on the crc read in DecodeRecordBatch). It is used by tests to
// build segment fixtures.
func (b RecordBatch) Encode(w *kafkaproto.Writer) {
	w.Int64(b.BaseOffset)

	body := kafkaproto.NewWriter()
	body.Int32(b.PartitionLeaderEpoch)
	body.Int8(b.Magic)
	body.Uint32(b.CRC)
	body.Int16(b.Attributes)
	body.Int32(b.LastOffsetDelta)
	body.Int64(b.BaseTimestamp)
	body.Int64(b.MaxTimestamp)
	body.Int64(b.ProducerID)
	body.Int16(b.ProducerEpoch)
	body.Int32(b.BaseSequence)
	kafkaproto.EncodeArray(body, b.Records, func(w *kafkaproto.Writer, rec Record) { rec.Encode(w) })

	w.Int32(int32(body.Len()))
	w.Raw(body.Bytes())
}
