package kraftlog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

// segmentFileName is the first (and, for this server's purposes, only)
// segment of a partition's commit log.
const segmentFileName = "00000000000000000000.log"

// SegmentPath returns the path to a partition's first log segment under
// logDir, following the KRaft layout {logDir}/{topic}-{partition}/
// 00000000000000000000.log.
func SegmentPath(logDir, topic string, partition int32) string {
	return filepath.Join(logDir, fmt.Sprintf("%s-%d", topic, partition), segmentFileName)
}

// ReadSegment yields the RecordBatches stored in a partition's first
// segment file, in file order. A missing file is reported as an empty,
// non-error result. A
// partial trailing batch that can't be fully read returns ErrTruncated.
func ReadSegment(logDir, topic string, partition int32) ([]RecordBatch, error) {
	f, err := os.Open(SegmentPath(logDir, topic, partition))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeSegment(bufio.NewReader(f))
}

// decodeSegment peeks one byte to decide whether another batch follows,
// the same discipline the original KRaft log reader uses, rather than
// tracking a byte budget — it does not validate CRC.
func decodeSegment(r *bufio.Reader) ([]RecordBatch, error) {
	var batches []RecordBatch
	for {
		if _, err := r.Peek(1); err != nil {
			if err == io.EOF {
				return batches, nil
			}
			return batches, err
		}

		batch, err := decodeOneBatch(r)
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
	}
}

// decodeOneBatch reads exactly one RecordBatch's bytes (the 12-byte
// base_offset/batch_length prefix, then batch_length more bytes) and
// decodes it, preserving the exact bytes read for verbatim replay.
func decodeOneBatch(r *bufio.Reader) (RecordBatch, error) {
	prefix := make([]byte, 12)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return RecordBatch{}, fmt.Errorf("%w: record batch prefix: %v", kafkaproto.ErrTruncated, err)
	}

	batchLength := int32(binary.BigEndian.Uint32(prefix[8:12]))
	if batchLength < 0 {
		return RecordBatch{}, fmt.Errorf("%w: negative batch_length %d", kafkaproto.ErrTruncated, batchLength)
	}

	rest := make([]byte, batchLength)
	if _, err := io.ReadFull(r, rest); err != nil {
		return RecordBatch{}, fmt.Errorf("%w: record batch body: %v", kafkaproto.ErrTruncated, err)
	}

	raw := make([]byte, 0, len(prefix)+len(rest))
	raw = append(raw, prefix...)
	raw = append(raw, rest...)
	return DecodeRecordBatch(raw)
}
