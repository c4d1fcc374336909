package api

import (
	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

// ApiVersionsRequest is the key=18 request body. The client software
// fields are accepted and otherwise unused.
type ApiVersionsRequest struct {
	ClientSoftwareName    string
	ClientSoftwareVersion string
}

// DecodeApiVersionsRequest decodes the body.
func DecodeApiVersionsRequest(r *kafkaproto.Reader) (ApiVersionsRequest, error) {
	name, err := r.CompactString()
	if err != nil {
		return ApiVersionsRequest{}, err
	}
	version, err := r.CompactString()
	if err != nil {
		return ApiVersionsRequest{}, err
	}
	if err := r.TaggedFields(); err != nil {
		return ApiVersionsRequest{}, err
	}
	return ApiVersionsRequest{ClientSoftwareName: name, ClientSoftwareVersion: version}, nil
}

// apiVersionEntry is one element of the advertised api_keys array.
type apiVersionEntry struct {
	apiKey     ApiKey
	minVersion int16
	maxVersion int16
}

// advertisedApiVersions is this server's fixed support matrix.
// FETCH is advertised even though some source variants omit it — this
// server picks the policy that matches modern clients.
var advertisedApiVersions = []apiVersionEntry{
	{ApiKeyApiVersions, 4, 4},
	{ApiKeyDescribeTopicPartitions, 0, 0},
	{ApiKeyFetch, 16, 16},
}

// HandleApiVersions implements key 18: only api_version 4 is fully
// supported; any other requested version is reported in-band as
// UNSUPPORTED_VERSION rather than rejected at the header/decode layer.
func HandleApiVersions(header RequestHeader, _ ApiVersionsRequest) []byte {
	errorCode := ErrorNone
	if header.ApiVersion != 4 {
		errorCode = ErrorUnsupportedVersion
	}

	w := kafkaproto.NewWriter()
	w.Int16(int16(errorCode))
	kafkaproto.EncodeCompactArray(w, advertisedApiVersions, func(w *kafkaproto.Writer, e apiVersionEntry) {
		w.Int16(int16(e.apiKey))
		w.Int16(e.minVersion)
		w.Int16(e.maxVersion)
		w.TaggedFields()
	})
	w.Int32(0) // throttle_time_ms
	w.TaggedFields()
	return w.Bytes()
}
