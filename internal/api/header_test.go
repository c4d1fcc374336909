package api

import (
	"errors"
	"testing"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

func writeRequestHeader(w *kafkaproto.Writer, apiKey ApiKey, apiVersion int16, correlationID int32, clientID *string) {
	w.Int16(int16(apiKey))
	w.Int16(apiVersion)
	w.Int32(correlationID)
	w.NullableString(clientID)
	w.TaggedFields()
}

func TestDecodeRequestHeader_RoundTrips(t *testing.T) {
	clientID := "kafka-cli"
	w := kafkaproto.NewWriter()
	writeRequestHeader(w, ApiKeyFetch, 16, 0x11223344, &clientID)

	h, err := DecodeRequestHeader(kafkaproto.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if h.ApiKey != ApiKeyFetch || h.ApiVersion != 16 || h.CorrelationID != 0x11223344 {
		t.Errorf("got %+v", h)
	}
	if h.ClientID == nil || *h.ClientID != "kafka-cli" {
		t.Errorf("got client id %v", h.ClientID)
	}
}

func TestDecodeRequestHeader_UnknownApiKeyFails(t *testing.T) {
	w := kafkaproto.NewWriter()
	writeRequestHeader(w, ApiKey(999), 0, 1, nil)

	_, err := DecodeRequestHeader(kafkaproto.NewReader(w.Bytes()))
	if !errors.Is(err, ErrUnsupportedApiKey) {
		t.Errorf("got %v, want ErrUnsupportedApiKey", err)
	}
}
