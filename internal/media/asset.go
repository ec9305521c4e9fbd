package media

// Package media contains the pure domain logic of the delivery gateway:
// asset path validation and byte-range parsing. No I/O happens here.

import (
	"errors"
	"path"
	"strings"
)

// Category is one of the asset kinds the gateway serves. Each category has its
// own authorization tier and its own extension allow-list.
type Category string

const (
	CategoryPosters   Category = "posters"
	CategoryVideos    Category = "videos"
	CategorySubtitles Category = "subtitles"
)

// Public reports whether assets in this category are served without
// authentication. Posters are an intentional carve-out so that anonymous
// visitors can browse cover art.
func (c Category) Public() bool {
	return c == CategoryPosters
}

// Validation errors returned by ValidatePath. All of them map to HTTP 400.
var (
	ErrWrongSegmentCount   = errors.New("expected path format: {category}/{filename}")
	ErrUnknownCategory     = errors.New("unknown asset category")
	ErrDisallowedExtension = errors.New("file extension not allowed")
	ErrPathTraversal       = errors.New("filename contains path traversal characters")
)

// allowedExtensions maps each category to its lowercase extension allow-list.
var allowedExtensions = map[Category][]string{
	CategoryVideos:    {".mp4", ".webm", ".mov", ".avi", ".mkv"},
	CategoryPosters:   {".jpg", ".jpeg", ".png", ".webp", ".avif"},
	CategorySubtitles: {".srt", ".vtt", ".ass", ".ssa"},
}

var mimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".avif": "image/avif",
	".srt":  "text/srt",
	".vtt":  "text/vtt",
	".ass":  "text/x-ass",
	".ssa":  "text/x-ssa",
}

// AssetRequest is a validated reference to a single asset. It is only
// constructed by ValidatePath, so holding one implies the category is known,
// the extension is allow-listed and the filename is traversal-free.
type AssetRequest struct {
	Category Category
	Filename string
}

// Key returns the storage key for the asset ("{category}/{filename}").
func (a AssetRequest) Key() string {
	return string(a.Category) + "/" + a.Filename
}

// MimeType resolves the content type from the filename extension.
func (a AssetRequest) MimeType() string {
	if mt, ok := mimeTypes[strings.ToLower(path.Ext(a.Filename))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// ValidatePath validates the two request path segments ({category}/{filename})
// and returns a typed AssetRequest. Traversal characters are rejected before
// the category and extension checks so a probing client learns nothing from
// the error ordering.
func ValidatePath(segments []string) (AssetRequest, error) {
	if len(segments) != 2 {
		return AssetRequest{}, ErrWrongSegmentCount
	}
	category, filename := Category(segments[0]), segments[1]

	if filename == "" {
		return AssetRequest{}, ErrWrongSegmentCount
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return AssetRequest{}, ErrPathTraversal
	}

	exts, ok := allowedExtensions[category]
	if !ok {
		return AssetRequest{}, ErrUnknownCategory
	}

	lower := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return AssetRequest{Category: category, Filename: filename}, nil
		}
	}
	return AssetRequest{}, ErrDisallowedExtension
}
