package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var extensionsByMime = map[string]string{
	"application/pdf":    ".pdf",
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/tiff":         ".tiff",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// Gateway stores document bytes under server-generated, user-namespaced keys.
// Keys have the form {userId}/{uuid}{ext}; callers never choose them.
type Gateway struct {
	backend Storage
	newID   func() string
}

// NewGateway wraps backend.
func NewGateway(backend Storage) *Gateway {
	return &Gateway{backend: backend, newID: uuid.NewString}
}

// Put writes data for userID and returns the generated key. An existing
// object at the generated key fails with ErrConflict instead of being replaced.
func (g *Gateway) Put(ctx context.Context, userID string, data []byte, contentType, filename string) (string, error) {
	if strings.TrimSpace(userID) == "" || strings.Contains(userID, "/") {
		return "", fmt.Errorf("invalid storage namespace %q", userID)
	}
	key := path.Join(userID, g.newID()+extension(filename, contentType))

	_, err := g.backend.Stat(ctx, key)
	switch {
	case err == nil:
		return "", fmt.Errorf("%w: %s", ErrConflict, key)
	case !errors.Is(err, ErrNotFound):
		return "", fmt.Errorf("stat %s: %w", key, err)
	}

	_, err = g.backend.Put(ctx, key, bytes.NewReader(data), PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": filepath.Base(filename)},
		IfAbsent:    true,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get reads the full object stored at key.
func (g *Gateway) Get(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := g.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Stat reports whether key exists, returning ErrNotFound otherwise.
func (g *Gateway) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	return g.backend.Stat(ctx, key)
}

// Delete removes key. Deleting a missing object is not an error.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	if err := g.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// PresignGet returns a download URL for key valid for expiry.
func (g *Gateway) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return g.backend.PresignGet(ctx, key, expiry)
}

func extension(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if extPattern.MatchString(ext) {
		return ext
	}
	return extensionsByMime[contentType]
}
