package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"vodgate/internal/media"
	"vodgate/internal/storage"
)

// ErrAssetNotFound means the validated, authorized asset is missing from the
// media store. Maps to HTTP 404, distinct from an authorization failure.
var ErrAssetNotFound = errors.New("file not found")

// RangeNotSatisfiableError carries the file size so the handler can answer
// 416 with "Content-Range: bytes */{size}".
type RangeNotSatisfiableError struct {
	TotalSize int64
}

func (e *RangeNotSatisfiableError) Error() string {
	return fmt.Sprintf("requested range not satisfiable (size %d)", e.TotalSize)
}

func (e *RangeNotSatisfiableError) Unwrap() error {
	return media.ErrUnsatisfiableRange
}

// Stream is an open, ready-to-send response body plus the header values the
// transport needs. The caller owns Body and must ensure it is closed; the
// HTTP layer closes it when the response finishes or the client disconnects.
type Stream struct {
	Body          io.ReadCloser
	StatusCode    int   // 200 for full content, 206 for a sub-range
	ContentLength int64 // bytes in Body
	TotalSize     int64
	ContentRange  string // Content-Range value, empty for full content
	MimeType      string
	Disposition   string // Content-Disposition value
}

// StreamService opens authorized assets for streaming.
//
// It must only be called after the access decision: Stat is the first point
// where file existence leaks, and a denied request must never get that far.
type StreamService interface {
	Open(ctx context.Context, req media.AssetRequest, rangeHeader string) (*Stream, error)
}

// streamService is a concrete implementation of StreamService.
type streamService struct {
	store   storage.MediaStore
	metrics *StreamMetrics
}

// NewStreamService constructs a new StreamService.
func NewStreamService(store storage.MediaStore, metrics *StreamMetrics) StreamService {
	return &streamService{store: store, metrics: metrics}
}

// Open resolves the asset, validates the range against its size, and opens a
// bounded reader over exactly the requested bytes. Large files are never
// buffered: Body reads lazily from the store until drained or closed.
func (s *streamService) Open(ctx context.Context, req media.AssetRequest, rangeHeader string) (*Stream, error) {
	info, err := s.store.Stat(ctx, req.Key())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.metrics.streamOpened("not_found")
			return nil, ErrAssetNotFound
		}
		s.metrics.streamOpened("error")
		return nil, fmt.Errorf("stat asset %s: %w", req.Key(), err)
	}

	br, err := media.ParseRange(rangeHeader, info.Size)
	if err != nil {
		if errors.Is(err, media.ErrUnsatisfiableRange) {
			s.metrics.streamOpened("unsatisfiable")
			return nil, &RangeNotSatisfiableError{TotalSize: info.Size}
		}
		s.metrics.streamOpened("bad_range")
		return nil, err
	}

	var body io.ReadCloser
	if br.ChunkSize() == 0 {
		// Zero-byte asset: nothing to read, the store is not opened.
		body = io.NopCloser(bytes.NewReader(nil))
	} else {
		body, err = s.store.OpenRange(ctx, req.Key(), br.Start, br.End)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Deleted between Stat and open; still a plain 404.
				s.metrics.streamOpened("not_found")
				return nil, ErrAssetNotFound
			}
			s.metrics.streamOpened("error")
			return nil, fmt.Errorf("open asset %s: %w", req.Key(), err)
		}
	}

	stream := &Stream{
		Body:          s.metrics.track(body, req.Key()),
		StatusCode:    206,
		ContentLength: br.ChunkSize(),
		TotalSize:     info.Size,
		ContentRange:  br.ContentRange(),
		MimeType:      req.MimeType(),
		Disposition:   disposition(req),
	}
	if br.Full() && rangeHeader == "" {
		stream.StatusCode = 200
		stream.ContentRange = ""
	}

	s.metrics.streamOpened("ok")
	return stream, nil
}

// disposition is inline for videos; other categories also carry the filename
// so a direct download saves under its original name.
func disposition(req media.AssetRequest) string {
	if req.Category == media.CategoryVideos {
		return "inline"
	}
	return fmt.Sprintf("inline; filename=%q", req.Filename)
}
