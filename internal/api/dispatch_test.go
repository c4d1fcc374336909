package api

import (
	"errors"
	"testing"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

func TestDispatch_ApiVersionsEndToEnd(t *testing.T) {
	cluster := buildCluster(t, nil)

	w := kafkaproto.NewWriter()
	writeRequestHeader(w, ApiKeyApiVersions, 4, 0x11223344, nil)
	w.CompactString("")
	w.CompactString("0.1.0")
	w.TaggedFields()

	framed, err := Dispatch(cluster, t.TempDir(), w.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	r := kafkaproto.NewReader(framed)
	length, err := r.Int32()
	if err != nil {
		t.Fatal(err)
	}
	if int(length) != r.Remaining() {
		t.Fatalf("length prefix mismatch: %d vs %d", length, r.Remaining())
	}
	correlationID, err := r.Int32()
	if err != nil {
		t.Fatal(err)
	}
	if correlationID != 0x11223344 {
		t.Errorf("got correlation id %x", correlationID)
	}
	errorCode, err := r.Int16()
	if err != nil {
		t.Fatal(err)
	}
	if ErrorCode(errorCode) != ErrorNone {
		t.Errorf("got error_code %d", errorCode)
	}
}

func TestDispatch_ExtraneousBytesFail(t *testing.T) {
	cluster := buildCluster(t, nil)

	w := kafkaproto.NewWriter()
	writeRequestHeader(w, ApiKeyApiVersions, 4, 1, nil)
	w.CompactString("")
	w.CompactString("")
	w.TaggedFields()
	w.Raw([]byte{0x01, 0x02}) // trailing junk

	_, err := Dispatch(cluster, t.TempDir(), w.Bytes())
	if !errors.Is(err, ErrExtraneousRequestBytes) {
		t.Errorf("got %v, want ErrExtraneousRequestBytes", err)
	}
}

func TestDispatch_UnknownApiKeyFails(t *testing.T) {
	cluster := buildCluster(t, nil)

	w := kafkaproto.NewWriter()
	writeRequestHeader(w, ApiKey(42), 0, 1, nil)

	_, err := Dispatch(cluster, t.TempDir(), w.Bytes())
	if !errors.Is(err, ErrUnsupportedApiKey) {
		t.Errorf("got %v, want ErrUnsupportedApiKey", err)
	}
}
