package api

import (
	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

// FrameResponse encodes a response header (v0 for ApiVersions, v1 for
// everything else) followed by body, then
// prepends the 4-byte big-endian length prefix used on both directions of
// the wire.
func FrameResponse(apiKey ApiKey, correlationID int32, body []byte) []byte {
	w := kafkaproto.NewWriter()
	w.Int32(correlationID)
	if apiKey != ApiKeyApiVersions {
		w.TaggedFields()
	}
	w.Raw(body)

	framed := kafkaproto.NewWriter()
	framed.Int32(int32(w.Len()))
	framed.Raw(w.Bytes())
	return framed.Bytes()
}
