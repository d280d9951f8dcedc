package fetcher

import (
	"bytes"
	"context"
	"io"
	"unicode/utf8"

	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/port"
	"go.uber.org/zap"
)

const defaultChunkSize = 32 * 1024

// Request describes one fetch attempt. It is immutable once the fetch
// starts; limits captured here are not affected by config reloads.
type Request struct {
	URL             string
	ByteLimit       int64
	LineLengthLimit int

	// OnProgress, if set, receives the byte length of each chunk as it
	// arrives (the delta, not the running total). It is fire-and-forget:
	// a panicking observer never aborts the fetch.
	OnProgress func(bytesInChunk int)
}

// Fetcher streams a newline-delimited text artifact while enforcing a total
// byte ceiling and a per-line length ceiling. Hitting either ceiling
// produces a truncated result, not an error; only transport failures and
// cancellation are errors.
type Fetcher struct {
	source    port.LogSource
	logger    *zap.Logger
	chunkSize int
}

// New creates a new Fetcher. chunkSize is the read granularity in bytes;
// zero selects the default. The chunk size is a tuning knob of the fetcher,
// never controlled per request.
func New(source port.LogSource, logger *zap.Logger, chunkSize int) *Fetcher {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Fetcher{
		source:    source,
		logger:    logger,
		chunkSize: chunkSize,
	}
}

// Fetch downloads the artifact at req.URL and returns the collected lines
// plus truncation metadata. Cancellation is cooperative: the context is
// checked at every chunk boundary, so at most one chunk of extra work
// happens after ctx is done. A canceled attempt returns an error and
// discards all buffered state; it is never folded into a result.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*domain.FetchResult, error) {
	if req.URL == "" {
		return nil, domain.ErrEmptyURL
	}
	if req.ByteLimit <= 0 || req.LineLengthLimit <= 0 {
		return nil, domain.ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewCanceledError(err)
	}

	body, err := f.source.Open(ctx, req.URL)
	if err != nil {
		if domain.IsCanceled(err) {
			return nil, domain.NewCanceledError(err)
		}
		return nil, err
	}
	defer body.Close()

	var (
		lines       = []string{}
		carry       []byte
		trimmed     int
		total       int64
		buf         = make([]byte, f.chunkSize)
		byteLimited bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewCanceledError(err)
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			for {
				idx := bytes.IndexByte(carry, '\n')
				if idx < 0 {
					break
				}
				line, wasTrimmed := trimLine(string(carry[:idx]), req.LineLengthLimit)
				if wasTrimmed {
					trimmed++
				}
				lines = append(lines, line)
				carry = carry[idx+1:]
			}

			f.emitProgress(req.OnProgress, n)

			total += int64(n)
			if total >= req.ByteLimit {
				byteLimited = true
				break
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if domain.IsCanceled(readErr) {
				return nil, domain.NewCanceledError(readErr)
			}
			return nil, domain.NewTransportError(req.URL, 0, readErr)
		}
	}

	// Flush the partial final line. This covers both a body without a
	// trailing newline and whatever was assembled when the byte ceiling
	// stopped the stream.
	if len(carry) > 0 {
		line, wasTrimmed := trimLine(string(carry), req.LineLengthLimit)
		if wasTrimmed {
			trimmed++
		}
		lines = append(lines, line)
	}

	result := &domain.FetchResult{
		Lines:            lines,
		TrimmedLineCount: trimmed,
		BytesRead:        total,
	}
	// Byte-limit truncation wins when both ceilings were hit in the same
	// attempt: it is the reason the stream stopped. Line trimming is still
	// visible through TrimmedLineCount.
	switch {
	case byteLimited:
		result.Truncated = true
		result.TruncationReason = domain.TruncationByteLimit
	case trimmed > 0:
		result.Truncated = true
		result.TruncationReason = domain.TruncationLineLength
	}

	return result, nil
}

// emitProgress invokes the progress observer, shielding the fetch loop from
// observer panics.
func (f *Fetcher) emitProgress(onProgress func(int), n int) {
	if onProgress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("progress observer panicked", zap.Any("panic", r))
		}
	}()
	onProgress(n)
}

// trimLine shortens a line to limit runes. A line exactly at the limit is
// kept verbatim; the ceiling is exceeded only when strictly longer.
func trimLine(line string, limit int) (string, bool) {
	if utf8.RuneCountInString(line) <= limit {
		return line, false
	}
	runes := []rune(line)
	return string(runes[:limit]), true
}
