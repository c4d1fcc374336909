package api

import (
	"github.com/google/uuid"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
	"github.com/dmoss/kraft-broker/internal/metadata"
)

// DescribeTopicPartitionsTopicRequest is one requested topic.
type DescribeTopicPartitionsTopicRequest struct {
	Name string
}

// Cursor is the pagination cursor carried in the request. This server
// never produces a non-null cursor (it never paginates a response), but
// still decodes one that a client sends.
type Cursor struct {
	TopicName      string
	PartitionIndex int32
}

// DescribeTopicPartitionsRequest is the key=75 v0 request body.
type DescribeTopicPartitionsRequest struct {
	Topics                 []DescribeTopicPartitionsTopicRequest
	ResponsePartitionLimit int32
	Cursor                 *Cursor
}

// decodeCursor implements the one-leading-byte probe: read a
// byte; 0xff means null; otherwise that byte is the first byte of the
// structured cursor body and decoding continues from it rather than
// re-reading it from r.
func decodeCursor(r *kafkaproto.Reader) (*Cursor, error) {
	first, err := r.Raw(1)
	if err != nil {
		return nil, err
	}
	if first[0] == 0xff {
		return nil, nil
	}

	n, err := decodeUvarintFrom(first[0], r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, kafkaproto.ErrNullCompactString
	}
	nameBytes, err := r.Raw(int(n - 1))
	if err != nil {
		return nil, err
	}
	partitionIndex, err := r.Int32()
	if err != nil {
		return nil, err
	}
	if err := r.TaggedFields(); err != nil {
		return nil, err
	}
	return &Cursor{TopicName: string(nameBytes), PartitionIndex: partitionIndex}, nil
}

// decodeUvarintFrom continues decoding a LEB128 unsigned varint whose first
// byte has already been consumed from r.
func decodeUvarintFrom(first byte, r *kafkaproto.Reader) (uint32, error) {
	var n uint32
	shift := uint(0)
	b := first
	for {
		if shift >= 35 {
			return 0, kafkaproto.ErrMalformedVarint
		}
		n |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return n, nil
		}
		shift += 7
		next, err := r.Raw(1)
		if err != nil {
			return 0, err
		}
		b = next[0]
	}
}

// encodeNullCursor always writes 0xff: this server never paginates a
// response, so next_cursor is always null.
func encodeNullCursor(w *kafkaproto.Writer) {
	w.Raw([]byte{0xff})
}

// DecodeDescribeTopicPartitionsRequest decodes the body.
func DecodeDescribeTopicPartitionsRequest(r *kafkaproto.Reader) (DescribeTopicPartitionsRequest, error) {
	topics, err := kafkaproto.DecodeCompactArray(r, func(r *kafkaproto.Reader) (DescribeTopicPartitionsTopicRequest, error) {
		name, err := r.CompactString()
		if err != nil {
			return DescribeTopicPartitionsTopicRequest{}, err
		}
		if err := r.TaggedFields(); err != nil {
			return DescribeTopicPartitionsTopicRequest{}, err
		}
		return DescribeTopicPartitionsTopicRequest{Name: name}, nil
	})
	if err != nil {
		return DescribeTopicPartitionsRequest{}, err
	}

	limit, err := r.Int32()
	if err != nil {
		return DescribeTopicPartitionsRequest{}, err
	}
	cursor, err := decodeCursor(r)
	if err != nil {
		return DescribeTopicPartitionsRequest{}, err
	}
	if err := r.TaggedFields(); err != nil {
		return DescribeTopicPartitionsRequest{}, err
	}

	return DescribeTopicPartitionsRequest{Topics: topics, ResponsePartitionLimit: limit, Cursor: cursor}, nil
}

// responsePartition is one partition entry of a known topic's response.
type responsePartition struct {
	partitionIndex int32
}

func encodeDescribeTopicPartitionsPartition(w *kafkaproto.Writer, p responsePartition) {
	w.Int16(int16(ErrorNone))
	w.Int32(p.partitionIndex)
	w.Int32(0) // leader
	w.Int32(0) // leader_epoch
	kafkaproto.EncodeCompactArray(w, []int32{}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) }) // replicas
	kafkaproto.EncodeCompactArray(w, []int32{}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) }) // isr
	kafkaproto.EncodeCompactArray(w, []int32{}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) }) // elr
	kafkaproto.EncodeCompactArray(w, []int32{}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) }) // last_known_elr
	kafkaproto.EncodeCompactArray(w, []int32{}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) }) // offline_replicas
	w.TaggedFields()
}

// encodeDescribeTopicPartitionsTopic encodes one topic entry, looking it up
// in cluster on demand rather than pre-building a response struct — the
// per-topic branching is local enough to do inline.
func encodeDescribeTopicPartitionsTopic(w *kafkaproto.Writer, cluster *metadata.Cluster, req DescribeTopicPartitionsTopicRequest) {
	topicID, ok := cluster.GetTopicID(req.Name)
	if !ok {
		w.Int16(int16(ErrorUnknownTopicOrPartition))
		w.CompactString(req.Name)
		w.UUID(uuid.UUID{})
		w.Boolean(false) // is_internal
		kafkaproto.EncodeCompactArray(w, []responsePartition{}, encodeDescribeTopicPartitionsPartition)
		w.Int32(0) // authorized_operations
		w.TaggedFields()
		return
	}

	partitionIDs, _ := cluster.GetTopicPartitions(topicID)
	partitions := make([]responsePartition, len(partitionIDs))
	for i, p := range partitionIDs {
		partitions[i] = responsePartition{partitionIndex: p}
	}

	w.Int16(int16(ErrorNone))
	w.CompactString(req.Name)
	w.UUID(topicID)
	w.Boolean(false) // is_internal
	kafkaproto.EncodeCompactArray(w, partitions, encodeDescribeTopicPartitionsPartition)
	w.Int32(0) // authorized_operations
	w.TaggedFields()
}

// HandleDescribeTopicPartitions implements key 75 v0.
func HandleDescribeTopicPartitions(cluster *metadata.Cluster, req DescribeTopicPartitionsRequest) []byte {
	w := kafkaproto.NewWriter()
	w.Int32(0) // throttle_time_ms
	kafkaproto.EncodeCompactArray(w, req.Topics, func(w *kafkaproto.Writer, t DescribeTopicPartitionsTopicRequest) {
		encodeDescribeTopicPartitionsTopic(w, cluster, t)
	})
	encodeNullCursor(w)
	w.TaggedFields()
	return w.Bytes()
}
