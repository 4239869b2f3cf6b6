package common

import "time"

const (
	// MaxRequestBody limits JSON request bodies for write endpoints.
	MaxRequestBody = 64 << 10
	// MaxListLimit is the largest limit a client may request.
	MaxListLimit = 200
	// RequestTimeout bounds one-shot reads and writes.
	RequestTimeout = 5 * time.Second
)
