package kraftlog

import (
	"github.com/google/uuid"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

// MetadataRecordType discriminates the body of a Record whose value is
// metadata-formatted.
type MetadataRecordType int8

const (
	MetadataRecordTypeTopic        MetadataRecordType = 2
	MetadataRecordTypePartition    MetadataRecordType = 3
	MetadataRecordTypeFeatureLevel MetadataRecordType = 12
)

// MetadataValue is the tagged-variant sum type a metadata record's value
// decodes to: exactly one of TopicRecord, PartitionRecord, FeatureLevelRecord,
// or UnknownMetadataRecord.
type MetadataValue interface {
	isMetadataValue()
}

// TopicRecord associates a topic name with its UUID.
type TopicRecord struct {
	Name    string
	TopicID uuid.UUID
}

func (TopicRecord) isMetadataValue() {}

// PartitionRecord describes one partition of a topic.
type PartitionRecord struct {
	PartitionID      int32
	TopicID          uuid.UUID
	Replicas         []int32
	ISR              []int32
	RemovingReplicas []int32
	AddingReplicas   []int32
	Leader           int32
	LeaderEpoch      int32
	PartitionEpoch   int32
	Directories      []uuid.UUID
}

func (PartitionRecord) isMetadataValue() {}

// FeatureLevelRecord advertises a supported feature's version. The metadata
// index accepts and ignores these.
type FeatureLevelRecord struct {
	Name         string
	FeatureLevel int16
}

func (FeatureLevelRecord) isMetadataValue() {}

// UnknownMetadataRecord carries the raw value bytes of a metadata record
// whose record_type this server doesn't recognize. The metadata index
// ignores these; they exist so a forward-compatible log doesn't abort
// startup.
type UnknownMetadataRecord struct {
	RecordType int8
	Raw        []byte
}

func (UnknownMetadataRecord) isMetadataValue() {}

// DecodeMetadataValue parses a Record.Value that carries a metadata record:
// frame_version:INT8, record_type:INT8, version:INT8, then the type-specific
// body, terminated by a tagged_fields byte.
func DecodeMetadataValue(value []byte) (MetadataValue, error) {
	r := kafkaproto.NewReader(value)

	if _, err := r.Int8(); err != nil { // frame_version, unused
		return nil, err
	}
	recordType, err := r.Int8()
	if err != nil {
		return nil, err
	}
	if _, err := r.Int8(); err != nil { // version, unused
		return nil, err
	}

	switch MetadataRecordType(recordType) {
	case MetadataRecordTypeTopic:
		return decodeTopicRecord(r)
	case MetadataRecordTypePartition:
		return decodePartitionRecord(r)
	case MetadataRecordTypeFeatureLevel:
		return decodeFeatureLevelRecord(r)
	default:
		return UnknownMetadataRecord{RecordType: recordType, Raw: value}, nil
	}
}

func decodeTopicRecord(r *kafkaproto.Reader) (MetadataValue, error) {
	name, err := r.CompactString()
	if err != nil {
		return nil, err
	}
	topicID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	if err := r.TaggedFields(); err != nil {
		return nil, err
	}
	return TopicRecord{Name: name, TopicID: topicID}, nil
}

func decodeInt32Array(r *kafkaproto.Reader) ([]int32, error) {
	return kafkaproto.DecodeCompactArray(r, func(r *kafkaproto.Reader) (int32, error) { return r.Int32() })
}

func decodePartitionRecord(r *kafkaproto.Reader) (MetadataValue, error) {
	partitionID, err := r.Int32()
	if err != nil {
		return nil, err
	}
	topicID, err := r.UUID()
	if err != nil {
		return nil, err
	}
	replicas, err := decodeInt32Array(r)
	if err != nil {
		return nil, err
	}
	isr, err := decodeInt32Array(r)
	if err != nil {
		return nil, err
	}
	removing, err := decodeInt32Array(r)
	if err != nil {
		return nil, err
	}
	adding, err := decodeInt32Array(r)
	if err != nil {
		return nil, err
	}
	leader, err := r.Int32()
	if err != nil {
		return nil, err
	}
	leaderEpoch, err := r.Int32()
	if err != nil {
		return nil, err
	}
	partitionEpoch, err := r.Int32()
	if err != nil {
		return nil, err
	}
	directories, err := kafkaproto.DecodeCompactArray(r, func(r *kafkaproto.Reader) (uuid.UUID, error) { return r.UUID() })
	if err != nil {
		return nil, err
	}
	if err := r.TaggedFields(); err != nil {
		return nil, err
	}
	return PartitionRecord{
		PartitionID:      partitionID,
		TopicID:          topicID,
		Replicas:         replicas,
		ISR:              isr,
		RemovingReplicas: removing,
		AddingReplicas:   adding,
		Leader:           leader,
		LeaderEpoch:      leaderEpoch,
		PartitionEpoch:   partitionEpoch,
		Directories:      directories,
	}, nil
}

func decodeFeatureLevelRecord(r *kafkaproto.Reader) (MetadataValue, error) {
	name, err := r.CompactString()
	if err != nil {
		return nil, err
	}
	level, err := r.Int16()
	if err != nil {
		return nil, err
	}
	if err := r.TaggedFields(); err != nil {
		return nil, err
	}
	return FeatureLevelRecord{Name: name, FeatureLevel: level}, nil
}
