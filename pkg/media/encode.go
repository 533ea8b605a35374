package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrOversizedImage is matched by every *OversizedError.
var ErrOversizedImage = errors.New("image too large")

// OversizedError is returned when a resource exceeds the size limit.
type OversizedError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *OversizedError) Error() string {
	return fmt.Sprintf("image %q is %d bytes, limit is %d bytes", e.Name, e.Size, e.Limit)
}

func (e *OversizedError) Is(target error) bool {
	return target == ErrOversizedImage
}

// EncodeError is returned when a resource cannot be read for encoding.
type EncodeError struct {
	Name string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %q: %v", e.Name, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// CheckSize reports an *OversizedError when r is larger than limit bytes.
func CheckSize(r Resource, limit int64) error {
	if r.Size() > limit {
		return &OversizedError{Name: r.Name(), Size: r.Size(), Limit: limit}
	}
	return nil
}

// Encode reads the whole resource and returns its standard base64 encoding.
func Encode(r Resource) (string, error) {
	rc, err := r.Open()
	if err != nil {
		return "", &EncodeError{Name: r.Name(), Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", &EncodeError{Name: r.Name(), Err: err}
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
