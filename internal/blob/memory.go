package blob

import (
	"context"
	"net/http"
	"sync"
)

const memoryPrefix = "memory://blob"

// MemoryStore keeps payloads in process. Used by tests and STORAGE_DRIVER=memory runs.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte

	// FailPut, when set, makes Put fail with the given upstream status.
	FailPut int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newTransferError("put", 0, "", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPut != 0 {
		return "", newTransferError("put", m.FailPut, http.StatusText(m.FailPut), nil)
	}

	url := memoryPrefix + "/" + NewKey(ext)
	cp := make([]byte, len(data))
	copy(cp, data)
	m.items[url] = cp

	return url, nil
}

func (m *MemoryStore) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, newTransferError("get", 0, "", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[url]
	if !ok {
		return nil, newTransferError("get", http.StatusNotFound, "not found", nil)
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
