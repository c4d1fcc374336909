// Package api implements the request header, per-API body handlers, and
// response framing for the subset of the Kafka protocol this broker serves.
package api

import (
	"github.com/dmoss/kraft-broker/internal/kafkaproto"
)

// ApiKey identifies a Kafka API. Only the three below are dispatchable;
// any other value fails header decoding with ErrUnsupportedApiKey.
type ApiKey int16

const (
	ApiKeyFetch                   ApiKey = 1
	ApiKeyApiVersions             ApiKey = 18
	ApiKeyDescribeTopicPartitions ApiKey = 75
)

// RequestHeader is common to every request.
type RequestHeader struct {
	ApiKey        ApiKey
	ApiVersion    int16
	CorrelationID int32
	ClientID      *string
}

// DecodeRequestHeader decodes a RequestHeader and validates that ApiKey is
// one this server dispatches. Version compatibility is left to the
// handler: an out-of-range api_version is admitted here and reported
// in-band by the handler.
func DecodeRequestHeader(r *kafkaproto.Reader) (RequestHeader, error) {
	apiKey, err := r.Int16()
	if err != nil {
		return RequestHeader{}, err
	}
	apiVersion, err := r.Int16()
	if err != nil {
		return RequestHeader{}, err
	}
	correlationID, err := r.Int32()
	if err != nil {
		return RequestHeader{}, err
	}
	clientID, err := r.NullableString()
	if err != nil {
		return RequestHeader{}, err
	}
	if err := r.TaggedFields(); err != nil {
		return RequestHeader{}, err
	}

	switch ApiKey(apiKey) {
	case ApiKeyFetch, ApiKeyApiVersions, ApiKeyDescribeTopicPartitions:
	default:
		return RequestHeader{}, ErrUnsupportedApiKey
	}

	return RequestHeader{
		ApiKey:        ApiKey(apiKey),
		ApiVersion:    apiVersion,
		CorrelationID: correlationID,
		ClientID:      clientID,
	}, nil
}
