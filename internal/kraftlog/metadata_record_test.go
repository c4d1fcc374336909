package kraftlog

import (
	"testing"

	"github.com/google/uuid"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

func TestDecodeMetadataValue_Topic(t *testing.T) {
	id := uuid.New()
	w := kafkaproto.NewWriter()
	w.Int8(1) // frame_version
	w.Int8(int8(MetadataRecordTypeTopic))
	w.Int8(0) // version
	w.CompactString("orders")
	w.UUID(id)
	w.TaggedFields()

	v, err := DecodeMetadataValue(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	topic, ok := v.(TopicRecord)
	if !ok {
		t.Fatalf("got %T, want TopicRecord", v)
	}
	if topic.Name != "orders" || topic.TopicID != id {
		t.Errorf("got %+v", topic)
	}
}

func TestDecodeMetadataValue_Partition(t *testing.T) {
	topicID := uuid.New()
	dir := uuid.New()
	w := kafkaproto.NewWriter()
	w.Int8(1)
	w.Int8(int8(MetadataRecordTypePartition))
	w.Int8(0)
	w.Int32(3) // partition_id
	w.UUID(topicID)
	kafkaproto.EncodeCompactArray(w, []int32{1, 2}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) })
	kafkaproto.EncodeCompactArray(w, []int32{1}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) })
	kafkaproto.EncodeCompactArray(w, []int32{}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) })
	kafkaproto.EncodeCompactArray(w, []int32{}, func(w *kafkaproto.Writer, v int32) { w.Int32(v) })
	w.Int32(1) // leader
	w.Int32(0) // leader_epoch
	w.Int32(0) // partition_epoch
	kafkaproto.EncodeCompactArray(w, []uuid.UUID{dir}, func(w *kafkaproto.Writer, u uuid.UUID) { w.UUID(u) })
	w.TaggedFields()

	v, err := DecodeMetadataValue(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	p, ok := v.(PartitionRecord)
	if !ok {
		t.Fatalf("got %T, want PartitionRecord", v)
	}
	if p.PartitionID != 3 || p.TopicID != topicID || len(p.Replicas) != 2 || len(p.Directories) != 1 {
		t.Errorf("got %+v", p)
	}
}

func TestDecodeMetadataValue_FeatureLevel(t *testing.T) {
	w := kafkaproto.NewWriter()
	w.Int8(1)
	w.Int8(int8(MetadataRecordTypeFeatureLevel))
	w.Int8(0)
	w.CompactString("metadata.version")
	w.Int16(20)
	w.TaggedFields()

	v, err := DecodeMetadataValue(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	f, ok := v.(FeatureLevelRecord)
	if !ok {
		t.Fatalf("got %T, want FeatureLevelRecord", v)
	}
	if f.Name != "metadata.version" || f.FeatureLevel != 20 {
		t.Errorf("got %+v", f)
	}
}

func TestDecodeMetadataValue_UnknownTypeIsIgnorable(t *testing.T) {
	w := kafkaproto.NewWriter()
	w.Int8(1)
	w.Int8(99) // unrecognized record_type
	w.Int8(0)
	w.Raw([]byte{0x01, 0x02, 0x03})

	v, err := DecodeMetadataValue(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	u, ok := v.(UnknownMetadataRecord)
	if !ok {
		t.Fatalf("got %T, want UnknownMetadataRecord", v)
	}
	if u.RecordType != 99 {
		t.Errorf("got record type %d", u.RecordType)
	}
}
