package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

var _ Bucket = (*MemoryBucket)(nil)

type memoryObject struct {
	data []byte
	meta HTTPMetadata
	etag string
}

// MemoryBucket is a Bucket binding held in process memory.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryBucket returns an empty MemoryBucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memoryObject)}
}

func (m *MemoryBucket) Get(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return &Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.meta.ContentType,
		Size:        int64(len(obj.data)),
		ETag:        obj.etag,
	}, nil
}

func (m *MemoryBucket) Put(_ context.Context, key string, body io.Reader, _ int64, meta HTTPMetadata) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	sum := md5.Sum(data)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, meta: meta, etag: hex.EncodeToString(sum[:])}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBucket) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored objects.
func (m *MemoryBucket) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
