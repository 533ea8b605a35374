// Package media handles the binary resources (images) a user attaches to a
// chat message: where their bytes come from, how large they are, and how
// they are encoded for the wire.
package media

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageBytes is the largest image accepted for a message (5 MiB).
const MaxImageBytes int64 = 5 << 20

// sniffLen is how many leading bytes http.DetectContentType looks at.
const sniffLen = 512

// Resource is a binary resource with a declared media type. Implementations
// must allow Open to be called more than once.
type Resource interface {
	// Name is a human readable label, usually the file name.
	Name() string

	// MediaType is the declared MIME type, e.g. "image/jpeg".
	MediaType() string

	// Size is the resource size in bytes.
	Size() int64

	// Open returns a reader over the full resource content.
	Open() (io.ReadCloser, error)
}

// FileResource is a Resource backed by a file on disk.
type FileResource struct {
	path      string
	mediaType string
	size      int64
}

// OpenFile stats the file at path and returns a FileResource describing it.
// The media type comes from the file extension, falling back to sniffing the
// leading bytes when the extension is unknown.
func OpenFile(path string) (*FileResource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mediaType := mediaTypeFromExt(path)
	if mediaType == "" {
		mediaType, err = sniffFile(path)
		if err != nil {
			return nil, err
		}
	}

	return &FileResource{
		path:      path,
		mediaType: mediaType,
		size:      info.Size(),
	}, nil
}

func (f *FileResource) Name() string      { return filepath.Base(f.path) }
func (f *FileResource) MediaType() string { return f.mediaType }
func (f *FileResource) Size() int64       { return f.size }

// Path returns the file path the resource was opened from.
func (f *FileResource) Path() string { return f.path }

func (f *FileResource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// BytesResource is an in-memory Resource.
type BytesResource struct {
	name      string
	mediaType string
	data      []byte
}

// NewBytesResource wraps data. An empty mediaType is sniffed from the data.
func NewBytesResource(name, mediaType string, data []byte) *BytesResource {
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return &BytesResource{name: name, mediaType: mediaType, data: data}
}

func (b *BytesResource) Name() string      { return b.name }
func (b *BytesResource) MediaType() string { return b.mediaType }
func (b *BytesResource) Size() int64       { return int64(len(b.data)) }

func (b *BytesResource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func mediaTypeFromExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	// Drop parameters such as "; charset=utf-8".
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

func sniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return http.DetectContentType(head[:n]), nil
}
