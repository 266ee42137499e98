package objstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hdfgroup/hsds-an/cmn"
)

// MemClient is a map-backed fake Client+DNClient used by every test in this
// module, in place of the pack's s3iface-mock idiom (no code generation —
// the surface here is six methods, so a plain struct suffices).
type MemClient struct {
	mu      sync.Mutex
	objects map[string][]byte
	stats   map[string]Stats
	deletes []DeleteCall
	// DeleteErr, when set, is returned by Delete for keys matching it.
	DeleteErr map[string]error
}

// DeleteCall records one invocation of Delete, for assertions in sweep
// tests.
type DeleteCall struct {
	DNURL, Collection, ObjID string
}

// NewMemClient returns an empty MemClient.
func NewMemClient() *MemClient {
	return &MemClient{
		objects: make(map[string][]byte),
		stats:   make(map[string]Stats),
	}
}

// PutObject seeds key with data and explicit stats — used by tests to set
// up fixtures without going through PutBytes' auto-stat behavior.
func (m *MemClient) PutObject(key string, data []byte, st Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.stats[key] = st
}

func (m *MemClient) Stat(_ context.Context, key string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[key]
	if !ok {
		return Stats{}, ErrNotFound
	}
	return st, nil
}

func (m *MemClient) GetJSON(_ context.Context, key string, v any) error {
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (m *MemClient) PutBytes(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	st := m.stats[key]
	st.Size = int64(len(data))
	if st.ETag == "" {
		st.ETag = fmt.Sprintf("etag-%d", len(data))
	}
	m.stats[key] = st
	return nil
}

func (m *MemClient) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemClient) ListKeys(_ context.Context, prefix string) ([]ListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ListEntry
	for k, st := range m.stats {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, ListEntry{Key: k, Stats: st})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete implements DNClient for tests: it records the call and removes the
// backing object from the fake store, unless DeleteErr is configured for
// objid.
func (m *MemClient) Delete(_ context.Context, dnURL, collection, objid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.DeleteErr[objid]; ok {
		return err
	}
	m.deletes = append(m.deletes, DeleteCall{DNURL: dnURL, Collection: collection, ObjID: objid})
	key := cmn.KeyOf(cmn.ObjID(objid))
	delete(m.objects, key)
	delete(m.stats, key)
	return nil
}

// GetBytes returns the raw bytes stored at key, for assertions against
// non-JSON payloads (manifest text) that GetJSON cannot inspect.
func (m *MemClient) GetBytes(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

// Deletes returns a snapshot of recorded Delete calls, in call order.
func (m *MemClient) Deletes() []DeleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DeleteCall, len(m.deletes))
	copy(out, m.deletes)
	return out
}
