package kraftlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

func writeSegment(t *testing.T, dir, topic string, partition int32, batches []RecordBatch) {
	t.Helper()
	path := SegmentPath(dir, topic, partition)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	w := kafkaproto.NewWriter()
	for _, b := range batches {
		b.Encode(w)
	}
	if err := os.WriteFile(path, w.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadSegment_MissingFileIsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	batches, err := ReadSegment(dir, "no-such-topic", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 0 {
		t.Errorf("got %d batches, want 0", len(batches))
	}
}

func TestReadSegment_SingleBatchRoundTrips(t *testing.T) {
	dir := t.TempDir()
	b := sampleBatch()
	writeSegment(t, dir, "orders", 0, []RecordBatch{b})

	batches, err := ReadSegment(dir, "orders", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	if len(batches[0].Records) != 1 {
		t.Errorf("got %d records, want 1", len(batches[0].Records))
	}
}

func TestReadSegment_MultipleBatchesPreserveOrder(t *testing.T) {
	dir := t.TempDir()
	b1 := sampleBatch()
	b1.BaseOffset = 0
	b2 := sampleBatch()
	b2.BaseOffset = 1
	b2.Records[0].Value = []byte("second")
	writeSegment(t, dir, "orders", 0, []RecordBatch{b1, b2})

	batches, err := ReadSegment(dir, "orders", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if batches[0].BaseOffset != 0 || batches[1].BaseOffset != 1 {
		t.Errorf("got base offsets %d, %d", batches[0].BaseOffset, batches[1].BaseOffset)
	}
}

func TestReadSegment_TruncatedTrailingBytesFails(t *testing.T) {
	dir := t.TempDir()
	b := sampleBatch()
	w := kafkaproto.NewWriter()
	b.Encode(w)

	path := SegmentPath(dir, "orders", 0)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	truncated := w.Bytes()[:len(w.Bytes())-3]
	if err := os.WriteFile(path, truncated, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadSegment(dir, "orders", 0)
	if !errors.Is(err, kafkaproto.ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}
