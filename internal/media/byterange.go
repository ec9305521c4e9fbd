package media

import (
	"errors"
	"strconv"
	"strings"
)

// Range parsing errors.
var (
	// ErrMalformedRange means the header did not match "bytes=<start>-[<end>]".
	ErrMalformedRange = errors.New("malformed Range header")
	// ErrUnsatisfiableRange means the requested interval starts at or beyond
	// the end of the file. Maps to HTTP 416.
	ErrUnsatisfiableRange = errors.New("requested range not satisfiable")
)

// ByteRange is a validated inclusive byte interval within a file of TotalSize
// bytes. Invariant: 0 <= Start <= End < TotalSize, except for the full range
// over a zero-byte file, which is Start 0 and End -1 (an empty interval).
type ByteRange struct {
	Start     int64
	End       int64
	TotalSize int64
}

// ChunkSize returns the number of bytes covered by the range.
func (r ByteRange) ChunkSize() int64 {
	return r.End - r.Start + 1
}

// Full reports whether the range covers the entire file, i.e. the response
// should be a plain 200 rather than a 206.
func (r ByteRange) Full() bool {
	return r.Start == 0 && r.End == r.TotalSize-1
}

// ContentRange formats the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange() string {
	return "bytes " + strconv.FormatInt(r.Start, 10) + "-" +
		strconv.FormatInt(r.End, 10) + "/" + strconv.FormatInt(r.TotalSize, 10)
}

// ParseRange parses an HTTP Range header against the resolved file size.
//
// An empty header yields the full range, even for a zero-byte file: only a
// request that actually carried a Range header may come out unsatisfiable.
// Only the single-interval form "bytes=<start>-[<end>]" with digit-only
// offsets is accepted; the suffix form ("bytes=-N") and multi-interval lists
// are rejected as malformed, matching what video player clients actually
// send. An explicit end past the last byte is clamped to size-1 rather than
// rejected; a start at or past EOF is unsatisfiable.
func ParseRange(header string, size int64) (ByteRange, error) {
	if header == "" {
		return ByteRange{Start: 0, End: size - 1, TotalSize: size}, nil
	}
	if size <= 0 {
		return ByteRange{}, ErrUnsatisfiableRange
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return ByteRange{}, ErrMalformedRange
	}
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, ErrMalformedRange
	}

	// Offsets are DIGIT-only: ParseInt alone would admit "+100".
	if !isDigits(startStr) {
		return ByteRange{}, ErrMalformedRange
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return ByteRange{}, ErrMalformedRange
	}

	end := size - 1
	if endStr != "" {
		if !isDigits(endStr) {
			return ByteRange{}, ErrMalformedRange
		}
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return ByteRange{}, ErrMalformedRange
		}
		if end > size-1 {
			end = size - 1
		}
	}

	if start >= size || start > end {
		return ByteRange{}, ErrUnsatisfiableRange
	}
	return ByteRange{Start: start, End: end, TotalSize: size}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
