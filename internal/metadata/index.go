// Package metadata builds and serves the process-wide index of topics and
// partitions known to the broker, populated once at startup from the
// __cluster_metadata KRaft log.
package metadata

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dmoss/kraft-broker/internal/kraftlog"
)

const (
	clusterMetadataTopic     = "__cluster_metadata"
	clusterMetadataPartition = 0
)

// Cluster is the immutable, process-wide topic/partition index. It is built
// once at startup and is safe for concurrent reads thereafter without
// synchronization — nothing ever mutates it after Build returns.
type Cluster struct {
	nameToID       map[string]uuid.UUID
	idToName       map[uuid.UUID]string
	idToPartitions map[uuid.UUID][]int32
}

// Build scans __cluster_metadata partition 0 under logDir and constructs
// the index. A missing log file yields an empty, valid Cluster (no topics
// known) rather than an error; any other read or decode failure is
// returned, since a partial scan of the metadata log would leave the index
// silently incomplete.
func Build(logDir string) (*Cluster, error) {
	batches, err := kraftlog.ReadSegment(logDir, clusterMetadataTopic, clusterMetadataPartition)
	if err != nil {
		return nil, fmt.Errorf("metadata: reading %s-%d: %w", clusterMetadataTopic, clusterMetadataPartition, err)
	}

	c := &Cluster{
		nameToID:       make(map[string]uuid.UUID),
		idToName:       make(map[uuid.UUID]string),
		idToPartitions: make(map[uuid.UUID][]int32),
	}

	for _, batch := range batches {
		for _, rec := range batch.Records {
			value, err := kraftlog.DecodeMetadataValue(rec.Value)
			if err != nil {
				return nil, fmt.Errorf("metadata: decoding record: %w", err)
			}
			switch v := value.(type) {
			case kraftlog.TopicRecord:
				c.nameToID[v.Name] = v.TopicID
				c.idToName[v.TopicID] = v.Name
			case kraftlog.PartitionRecord:
				c.idToPartitions[v.TopicID] = append(c.idToPartitions[v.TopicID], v.PartitionID)
			case kraftlog.FeatureLevelRecord, kraftlog.UnknownMetadataRecord:
				// accepted and ignored
			}
		}
	}

	return c, nil
}

// GetTopicID returns the UUID for a topic name, if known.
func (c *Cluster) GetTopicID(name string) (uuid.UUID, bool) {
	id, ok := c.nameToID[name]
	return id, ok
}

// GetTopicName returns the name for a topic UUID, if known.
func (c *Cluster) GetTopicName(id uuid.UUID) (string, bool) {
	name, ok := c.idToName[id]
	return name, ok
}

// GetTopicPartitions returns the partition ids of a topic, in the order
// they were encountered in the metadata log, if the topic is known.
func (c *Cluster) GetTopicPartitions(id uuid.UUID) ([]int32, bool) {
	partitions, ok := c.idToPartitions[id]
	return partitions, ok
}
