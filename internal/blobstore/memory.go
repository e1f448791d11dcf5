package blobstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/booknook/internal/common"
)

// Memory is a goroutine-safe, non-durable Store.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, p string, data []byte) error {
	if err := ValidatePath(p); err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.blobs[p] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, p string) ([]byte, error) {
	if err := ValidatePath(p); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.blobs[p]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", p, common.ErrorNotFound)
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *Memory) Delete(ctx context.Context, p string) error {
	if err := ValidatePath(p); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.blobs, p)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []string{}
	for p := range m.blobs {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}
