package domain

// TruncationReason identifies why a fetch returned less than the full
// remote artifact.
type TruncationReason string

const (
	// TruncationNone means the artifact was retrieved in full.
	TruncationNone TruncationReason = ""

	// TruncationByteLimit means streaming stopped because the running
	// byte total reached the configured ceiling.
	TruncationByteLimit TruncationReason = "byte_limit"

	// TruncationLineLength means at least one line was shortened to the
	// per-line ceiling and the stream otherwise completed.
	TruncationLineLength TruncationReason = "line_length_limit"
)

// FetchResult is the outcome of one successful fetch attempt. Truncation is
// policy, not failure: a truncated result still carries every line assembled
// before the stream was stopped.
type FetchResult struct {
	// Lines holds the decoded lines in file order. A trailing empty
	// element caused purely by a final newline is never included.
	Lines []string

	// TrimmedLineCount is the number of lines shortened to the per-line
	// limit. It is reported independently of TruncationReason: a run
	// stopped by the byte ceiling still counts its trimmed lines here.
	TrimmedLineCount int

	// BytesRead is the total bytes consumed from the stream.
	BytesRead int64

	Truncated        bool
	TruncationReason TruncationReason
}
