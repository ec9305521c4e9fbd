package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vodgate/internal/config"
)

// localStore implements MediaStore over a directory on the local filesystem.
// It is the default backend: files are produced by an external uploader into
// {root}/{category}/{filename} and served from here read-only.
type localStore struct {
	root string
}

// NewLocal creates a filesystem-backed media store rooted at cfg.Root.
// The root must exist and be a directory.
func NewLocal(cfg config.MediaConfig) (MediaStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("media root is required")
	}
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat media root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("media root %s is not a directory", abs)
	}
	return &localStore{root: abs}, nil
}

// resolve maps a slash-separated key onto the root directory. Keys arrive
// pre-validated, but the store re-checks containment so it stays safe even if
// another caller hands it a raw key.
func (l *localStore) resolve(key string) (string, error) {
	if strings.Contains(key, "..") {
		return "", ErrNotFound
	}
	p := filepath.Join(l.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	return p, nil
}

func (l *localStore) Stat(_ context.Context, key string) (ObjectInfo, error) {
	p, err := l.resolve(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if st.IsDir() {
		return ObjectInfo{}, ErrNotFound
	}
	return ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}, nil
}

// OpenRange opens the file, seeks to start, and returns a reader bounded to
// the inclusive interval [start, end]. Closing the reader closes the file, so
// an aborted response releases the descriptor and stops disk reads.
func (l *localStore) OpenRange(_ context.Context, key string, start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid range %d-%d for %s", start, end, key)
	}
	p, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("seek %s to %d: %w", key, start, err)
		}
	}
	return &boundedFile{f: f, remaining: end - start + 1}, nil
}

// boundedFile reads at most `remaining` bytes from the underlying file and
// then reports EOF, keeping a 206 body exactly chunk-sized.
type boundedFile struct {
	f         *os.File
	remaining int64
}

func (b *boundedFile) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.f.Read(p)
	b.remaining -= int64(n)
	return n, err
}

func (b *boundedFile) Close() error {
	return b.f.Close()
}
