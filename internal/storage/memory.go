package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// MemoryStorage keeps objects in process memory. It backs local development
// and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

var _ Storage = (*MemoryStorage)(nil)

func (m *MemoryStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("read body: %w", err)
	}
	sum := md5.Sum(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok && opt.IfAbsent {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrConflict, key)
	}
	info := ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ETag:         hex.EncodeToString(sum[:]),
		ContentType:  opt.ContentType,
		LastModified: time.Now().UTC(),
		Metadata:     opt.Metadata,
	}
	m.objects[key] = memoryObject{data: data, info: info}
	return info, nil
}

func (m *MemoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (m *MemoryStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return obj.info, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// PresignGet returns a memory:// URL; it is not fetchable over HTTP.
func (m *MemoryStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := m.Stat(ctx, key); err != nil {
		return "", err
	}
	u := url.URL{Scheme: "memory", Path: "/" + key}
	q := u.Query()
	q.Set("expires", time.Now().Add(expiry).UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
