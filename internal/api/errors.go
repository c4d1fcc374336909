package api

import "errors"

// Decoding errors are connection-fatal: the caller closes the connection
// rather than responding in-band.
var (
	ErrUnsupportedApiKey      = errors.New("api: unsupported api key")
	ErrExtraneousRequestBytes = errors.New("api: extraneous bytes after request body")
)

// ErrorCode is a Kafka protocol-level result code, carried in a response
// body rather than surfaced as a Go error — the connection stays open.
type ErrorCode int16

const (
	ErrorNone                    ErrorCode = 0
	ErrorUnknownTopicOrPartition ErrorCode = 3
	ErrorUnsupportedVersion      ErrorCode = 35
	ErrorUnknownTopicID          ErrorCode = 100
)
