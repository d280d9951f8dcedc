package vo

import (
	"errors"
	"fmt"
)

// ByteSize represents a byte count value object.
// It provides type-safe limit checks and human-readable formatting.
type ByteSize struct {
	bytes int64
}

const (
	KB int64 = 1024
	MB int64 = 1024 * KB
	GB int64 = 1024 * MB
)

var (
	ErrNegativeSize = errors.New("byte size cannot be negative")
)

// NewByteSize creates a new ByteSize value object.
func NewByteSize(bytes int64) (ByteSize, error) {
	if bytes < 0 {
		return ByteSize{}, ErrNegativeSize
	}
	return ByteSize{bytes: bytes}, nil
}

// MustByteSize creates a new ByteSize, panicking if invalid.
func MustByteSize(bytes int64) ByteSize {
	bs, err := NewByteSize(bytes)
	if err != nil {
		panic(err)
	}
	return bs
}

// ByteSizeFromMB creates a ByteSize from megabytes.
func ByteSizeFromMB(mb float64) ByteSize {
	return ByteSize{bytes: int64(mb * float64(MB))}
}

// Bytes returns the size in bytes.
func (bs ByteSize) Bytes() int64 {
	return bs.bytes
}

// IsZero returns true if the size is zero.
func (bs ByteSize) IsZero() bool {
	return bs.bytes == 0
}

// Reached checks if this size meets or exceeds the given ceiling.
// The streaming byte ceiling is inclusive: a running total equal to the
// ceiling stops the stream.
func (bs ByteSize) Reached(ceiling ByteSize) bool {
	return bs.bytes >= ceiling.bytes
}

// Add returns a new ByteSize with the given size added.
func (bs ByteSize) Add(other ByteSize) ByteSize {
	return ByteSize{bytes: bs.bytes + other.bytes}
}

// String returns a human-readable string representation.
func (bs ByteSize) String() string {
	bytes := bs.bytes
	if bytes < KB {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < MB {
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	}
	if bytes < GB {
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	}
	return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
}
