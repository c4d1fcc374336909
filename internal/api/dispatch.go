package api

import (
	"github.com/dmoss/kraft-broker/internal/kafkaproto"
	"github.com/dmoss/kraft-broker/internal/metadata"
)

// Dispatch decodes a single framed request (header plus body, with no
// outer length prefix — that has already been stripped by the connection
// loop) and returns the framed response bytes ready to write to the wire.
//
// frame must be fully consumed by body decoding; leftover bytes fail with
// ErrExtraneousRequestBytes.
func Dispatch(cluster *metadata.Cluster, logDir string, frame []byte) ([]byte, error) {
	r := kafkaproto.NewReader(frame)

	header, err := DecodeRequestHeader(r)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch header.ApiKey {
	case ApiKeyApiVersions:
		req, err := DecodeApiVersionsRequest(r)
		if err != nil {
			return nil, err
		}
		if r.Remaining() != 0 {
			return nil, ErrExtraneousRequestBytes
		}
		body = HandleApiVersions(header, req)

	case ApiKeyDescribeTopicPartitions:
		req, err := DecodeDescribeTopicPartitionsRequest(r)
		if err != nil {
			return nil, err
		}
		if r.Remaining() != 0 {
			return nil, ErrExtraneousRequestBytes
		}
		body = HandleDescribeTopicPartitions(cluster, req)

	case ApiKeyFetch:
		req, err := DecodeFetchRequest(r)
		if err != nil {
			return nil, err
		}
		if r.Remaining() != 0 {
			return nil, ErrExtraneousRequestBytes
		}
		body = HandleFetch(cluster, logDir, req)

	default:
		return nil, ErrUnsupportedApiKey
	}

	return FrameResponse(header.ApiKey, header.CorrelationID, body), nil
}
