package port

import (
	"context"
	"io"
)

// LogSource is the transport boundary: it opens a streaming body for a log
// artifact URL. Implementations return a TransportError for non-2xx
// responses or connection failures. The payload is plain newline-delimited
// text; no custom wire protocol.
type LogSource interface {
	// Open opens a streaming response for the given URL. The caller owns
	// the returned body and must close it. Cancellation of ctx aborts
	// both the open and subsequent reads.
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}
