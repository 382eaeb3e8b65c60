// Package blobstore keeps uploaded images outside the document records.
// Posts only hold the opaque references returned by Store.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotFound is returned when a reference names no blob.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidRef is returned for references a store did not issue.
	ErrInvalidRef = errors.New("invalid blob reference")
)

// Store saves and releases binary objects.
type Store interface {
	// Store saves data and returns a reference to it.
	Store(ctx context.Context, data []byte, contentType string) (string, error)
	// Get returns the blob and the content type it was stored with.
	Get(ctx context.Context, ref string) ([]byte, string, error)
	// Delete releases the blob. Unknown references yield ErrNotFound.
	Delete(ctx context.Context, ref string) error
}

// DefaultMaxImageBytes is the upload limit when none is configured.
const DefaultMaxImageBytes = 5 << 20

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageError reports an upload rejected before it reached a store.
type ImageError struct {
	Reason string
}

func (e *ImageError) Error() string {
	return e.Reason
}

// CheckImage sniffs data and returns its content type when it is an accepted
// image no larger than maxBytes.
func CheckImage(data []byte, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if len(data) == 0 {
		return "", &ImageError{Reason: "Image file is empty"}
	}
	if int64(len(data)) > maxBytes {
		return "", &ImageError{Reason: fmt.Sprintf("Image cannot exceed %d bytes", maxBytes)}
	}
	mtype := mimetype.Detect(data)
	for _, allowed := range imageTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}
	return "", &ImageError{Reason: fmt.Sprintf("Only image files are allowed, got %s", mtype.String())}
}

// IsImageType reports whether contentType is one of the accepted image types.
func IsImageType(contentType string) bool {
	return slices.Contains(imageTypes, contentType)
}
