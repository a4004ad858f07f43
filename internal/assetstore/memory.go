package assetstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and credential-less dev
// mode. Objects are content-addressed: uploading identical bytes to the
// same folder returns the existing asset instead of creating a second
// object, which keeps repeated editor saves from duplicating images.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Asset
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]Asset),
		now:     time.Now,
	}
}

func contentKey(folder string, data []byte) string {
	h := sha256.Sum256(data)
	id := hex.EncodeToString(h[:12])
	if folder == "" {
		return id
	}
	return strings.TrimSuffix(folder, "/") + "/" + id
}

// Upload stores data under folder. Re-uploading the same bytes returns
// the already-stored asset.
func (m *Memory) Upload(_ context.Context, data []byte, folder string) (Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := contentKey(folder, data)
	if existing, ok := m.objects[id]; ok {
		return existing, nil
	}
	asset := Asset{
		RemoteID:  id,
		PublicURL: "mem://" + id,
		CreatedAt: m.now().UTC(),
	}
	m.objects[id] = asset
	return asset, nil
}

// Delete removes the object; deleting a missing id is success.
func (m *Memory) Delete(_ context.Context, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, remoteID)
	return nil
}

// ListByFolder returns assets whose remote id starts with prefix, oldest
// first, capped at MaxListResults.
func (m *Memory) ListByFolder(_ context.Context, prefix string) ([]Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Asset
	for id, a := range m.objects {
		if strings.HasPrefix(id, prefix) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RemoteID < out[j].RemoteID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > MaxListResults {
		out = out[:MaxListResults]
	}
	return out, nil
}

// Put seeds the store with a prebuilt asset, used by tests.
func (m *Memory) Put(a Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[a.RemoteID] = a
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
