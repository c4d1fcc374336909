package api

import (
	"github.com/google/uuid"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
	"github.com/dmoss/kraft-broker/internal/kraftlog"
	"github.com/dmoss/kraft-broker/internal/metadata"
)

// FetchPartitionRequest is one requested partition within a FetchTopicRequest.
type FetchPartitionRequest struct {
	Partition          int32
	CurrentLeaderEpoch int32
	FetchOffset        int64
	LastFetchedEpoch   int32
	LogStartOffset     int64
	PartitionMaxBytes  int32
}

// FetchTopicRequest is one requested topic, addressed by UUID (not name).
type FetchTopicRequest struct {
	TopicID    uuid.UUID
	Partitions []FetchPartitionRequest
}

// ForgottenTopic is an entry of forgotten_topics_data; this server has no
// session state to forget anything from, so these are decoded and dropped.
type ForgottenTopic struct {
	TopicID    uuid.UUID
	Partitions []int32
}

// FetchRequest is the key=1 v16 request body.
type FetchRequest struct {
	MaxWaitMs       int32
	MinBytes        int32
	MaxBytes        int32
	IsolationLevel  int8
	SessionID       int32
	SessionEpoch    int32
	Topics          []FetchTopicRequest
	ForgottenTopics []ForgottenTopic
	RackID          string
}

func decodeFetchPartitionRequest(r *kafkaproto.Reader) (FetchPartitionRequest, error) {
	partition, err := r.Int32()
	if err != nil {
		return FetchPartitionRequest{}, err
	}
	currentLeaderEpoch, err := r.Int32()
	if err != nil {
		return FetchPartitionRequest{}, err
	}
	fetchOffset, err := r.Int64()
	if err != nil {
		return FetchPartitionRequest{}, err
	}
	lastFetchedEpoch, err := r.Int32()
	if err != nil {
		return FetchPartitionRequest{}, err
	}
	logStartOffset, err := r.Int64()
	if err != nil {
		return FetchPartitionRequest{}, err
	}
	partitionMaxBytes, err := r.Int32()
	if err != nil {
		return FetchPartitionRequest{}, err
	}
	if err := r.TaggedFields(); err != nil {
		return FetchPartitionRequest{}, err
	}
	return FetchPartitionRequest{
		Partition:          partition,
		CurrentLeaderEpoch: currentLeaderEpoch,
		FetchOffset:        fetchOffset,
		LastFetchedEpoch:   lastFetchedEpoch,
		LogStartOffset:     logStartOffset,
		PartitionMaxBytes:  partitionMaxBytes,
	}, nil
}

func decodeFetchTopicRequest(r *kafkaproto.Reader) (FetchTopicRequest, error) {
	topicID, err := r.UUID()
	if err != nil {
		return FetchTopicRequest{}, err
	}
	partitions, err := kafkaproto.DecodeCompactArray(r, decodeFetchPartitionRequest)
	if err != nil {
		return FetchTopicRequest{}, err
	}
	if err := r.TaggedFields(); err != nil {
		return FetchTopicRequest{}, err
	}
	return FetchTopicRequest{TopicID: topicID, Partitions: partitions}, nil
}

func decodeForgottenTopic(r *kafkaproto.Reader) (ForgottenTopic, error) {
	topicID, err := r.UUID()
	if err != nil {
		return ForgottenTopic{}, err
	}
	partitions, err := kafkaproto.DecodeCompactArray(r, func(r *kafkaproto.Reader) (int32, error) { return r.Int32() })
	if err != nil {
		return ForgottenTopic{}, err
	}
	if err := r.TaggedFields(); err != nil {
		return ForgottenTopic{}, err
	}
	return ForgottenTopic{TopicID: topicID, Partitions: partitions}, nil
}

// DecodeFetchRequest decodes the body.
func DecodeFetchRequest(r *kafkaproto.Reader) (FetchRequest, error) {
	maxWaitMs, err := r.Int32()
	if err != nil {
		return FetchRequest{}, err
	}
	minBytes, err := r.Int32()
	if err != nil {
		return FetchRequest{}, err
	}
	maxBytes, err := r.Int32()
	if err != nil {
		return FetchRequest{}, err
	}
	isolationLevel, err := r.Int8()
	if err != nil {
		return FetchRequest{}, err
	}
	sessionID, err := r.Int32()
	if err != nil {
		return FetchRequest{}, err
	}
	sessionEpoch, err := r.Int32()
	if err != nil {
		return FetchRequest{}, err
	}
	topics, err := kafkaproto.DecodeCompactArray(r, decodeFetchTopicRequest)
	if err != nil {
		return FetchRequest{}, err
	}
	forgotten, err := kafkaproto.DecodeCompactArray(r, decodeForgottenTopic)
	if err != nil {
		return FetchRequest{}, err
	}
	rackID, err := r.CompactString()
	if err != nil {
		return FetchRequest{}, err
	}
	if err := r.TaggedFields(); err != nil {
		return FetchRequest{}, err
	}

	return FetchRequest{
		MaxWaitMs:       maxWaitMs,
		MinBytes:        minBytes,
		MaxBytes:        maxBytes,
		IsolationLevel:  isolationLevel,
		SessionID:       sessionID,
		SessionEpoch:    sessionEpoch,
		Topics:          topics,
		ForgottenTopics: forgotten,
		RackID:          rackID,
	}, nil
}

func encodeFetchPartitionResponse(w *kafkaproto.Writer, errorCode ErrorCode, partitionIndex int32, records []byte) {
	w.Int32(partitionIndex)
	w.Int16(int16(errorCode))
	w.Int64(0) // high_watermark
	w.Int64(0) // last_stable_offset
	w.Int64(0) // log_start_offset
	kafkaproto.EncodeCompactArray(w, []struct{}{}, func(w *kafkaproto.Writer, _ struct{}) {}) // aborted_transactions
	w.Int32(0)                                                                                // preferred_read_replica
	// records: uvarint byte length followed by the raw bytes, matching
	// Kafka's COMPACT_RECORDS contract rather than COMPACT_BYTES (whose
	// uvarint carries length+1).
	w.UnsignedVarint(uint32(len(records)))
	w.Raw(records)
	w.TaggedFields()
}

// encodeFetchTopicResponse looks the topic up by id and either returns the
// UNKNOWN_TOPIC_ID error partition or reads every requested partition's log
// segment and replays its RecordBatches verbatim.
func encodeFetchTopicResponse(w *kafkaproto.Writer, cluster *metadata.Cluster, logDir string, topic FetchTopicRequest) {
	w.UUID(topic.TopicID)

	name, ok := cluster.GetTopicName(topic.TopicID)
	if !ok {
		kafkaproto.EncodeCompactArray(w, []struct{}{{}}, func(w *kafkaproto.Writer, _ struct{}) {
			encodeFetchPartitionResponse(w, ErrorUnknownTopicID, 0, nil)
		})
		w.TaggedFields()
		return
	}

	kafkaproto.EncodeCompactArray(w, topic.Partitions, func(w *kafkaproto.Writer, p FetchPartitionRequest) {
		records, err := fetchPartitionRecords(logDir, name, p.Partition)
		if err != nil {
			// The topic is known; only its log is unreadable. Treat the
			// partition as empty rather than failing the whole response.
			records = nil
		}
		encodeFetchPartitionResponse(w, ErrorNone, p.Partition, records)
	})
	w.TaggedFields()
}

// fetchPartitionRecords reads a partition's log segment and concatenates
// its RecordBatches' exact on-disk bytes, which the records field replays
// verbatim.
func fetchPartitionRecords(logDir, topic string, partition int32) ([]byte, error) {
	batches, err := kraftlog.ReadSegment(logDir, topic, partition)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, b := range batches {
		out = append(out, b.Raw...)
	}
	return out, nil
}

// HandleFetch implements key 1 v16.
func HandleFetch(cluster *metadata.Cluster, logDir string, req FetchRequest) []byte {
	w := kafkaproto.NewWriter()
	w.Int32(0)                  // throttle_time_ms
	w.Int16(int16(ErrorNone))   // top-level error_code, always NONE
	w.Int32(0)                  // session_id, always 0
	kafkaproto.EncodeCompactArray(w, req.Topics, func(w *kafkaproto.Writer, t FetchTopicRequest) {
		encodeFetchTopicResponse(w, cluster, logDir, t)
	})
	w.TaggedFields()
	return w.Bytes()
}
