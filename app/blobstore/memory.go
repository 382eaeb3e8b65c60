package blobstore

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps blobs in process memory. It is used by tests and the
// "memory" backend.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	data        []byte
	contentType string
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memoryBlob)}
}

func (m *Memory) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := "mem/" + uuid.NewString()
	m.mu.Lock()
	m.blobs[ref] = memoryBlob{data: slices.Clone(data), contentType: contentType}
	m.mu.Unlock()
	return ref, nil
}

func (m *Memory) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[ref]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, ref)
	return nil
}

// Get returns the blob stored under ref.
func (m *Memory) Get(ctx context.Context, ref string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[ref]
	if !ok {
		return nil, "", ErrNotFound
	}
	return slices.Clone(blob.data), blob.contentType, nil
}

// Refs lists the stored references in sorted order.
func (m *Memory) Refs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	refs := make([]string, 0, len(m.blobs))
	for ref := range m.blobs {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}
