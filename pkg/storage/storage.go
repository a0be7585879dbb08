package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how many leading bytes are inspected to classify an upload.
const sniffLen = 3072

// ProductPrefix is the key prefix for product images.
const ProductPrefix = "products"

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// ObjectStore persists uploaded objects and resolves their public URLs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// DetectImage sniffs r and returns its content type, canonical extension and
// a reader that still yields the full payload. Non-image payloads are
// rejected with a validation error.
func DetectImage(r io.Reader) (string, string, io.Reader, error) {
	if r == nil {
		return "", "", nil, pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", nil, fmt.Errorf("reading upload: %w", err)
	}
	if n == 0 {
		return "", "", nil, pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	for _, allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			return allowed, detected.Extension(), io.MultiReader(bytes.NewReader(head), r), nil
		}
	}
	return "", "", nil, pkgerrors.New(pkgerrors.CodeValidation, "image must be png, jpeg, webp or gif").
		WithDetails(map[string]string{"detected": detected.String()})
}

// ObjectKey builds a unique key for a new product image.
func ObjectKey(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(ProductPrefix, uuid.NewString()+ext)
}

// CleanKey rejects keys that would escape the storage root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return cleaned, nil
}
