package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory ObjectStore used for local runs and tests. Listing
// order is lexicographic, which matches GCS enumeration.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func key(bucket, object string) string { return bucket + "/" + object }

func (s *MemStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := key(bucket, prefix)
	var names []string
	for k := range s.objects {
		if !strings.HasPrefix(k, full) {
			continue
		}
		name := strings.TrimPrefix(k, bucket+"/")
		if strings.HasSuffix(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) Read(_ context.Context, bucket, object string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key(bucket, object)]
	if !ok {
		return nil, ErrObjectNotExist
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemStore) Write(_ context.Context, bucket, object string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key(bucket, object)] = cp
	return nil
}

func (s *MemStore) Move(_ context.Context, bucket, object, destPrefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := key(bucket, object)
	data, ok := s.objects[src]
	if !ok {
		return "", ErrObjectNotExist
	}
	newName := strings.TrimSuffix(destPrefix, "/") + "/" + BaseName(object)
	s.objects[key(bucket, newName)] = data
	delete(s.objects, src)
	return newName, nil
}

func (s *MemStore) Exists(_ context.Context, bucket, object string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.objects[key(bucket, object)]
	return ok, nil
}
