package store

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore is an in-memory ObjectStore with strict version checking.
// Tests use it in place of MinIO.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	seq     int64
}

type memObject struct {
	data        []byte
	contentType string
	version     string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func memKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *MemoryStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, _, err := s.GetVersioned(ctx, bucket, key)
	return data, err
}

func (s *MemoryStore) GetVersioned(ctx context.Context, bucket, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[memKey(bucket, key)]
	if !ok {
		return nil, "", ErrNotFound
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, obj.version, nil
}

func (s *MemoryStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(bucket, key, data, contentType)
	return nil
}

func (s *MemoryStore) PutVersioned(ctx context.Context, bucket, key string, data []byte, contentType, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, exists := s.objects[memKey(bucket, key)]
	if !exists {
		if version != "" {
			return ErrVersionConflict
		}
	} else if obj.version != version {
		return ErrVersionConflict
	}
	s.putLocked(bucket, key, data, contentType)
	return nil
}

func (s *MemoryStore) putLocked(bucket, key string, data []byte, contentType string) {
	s.seq++
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[memKey(bucket, key)] = memObject{
		data:        cp,
		contentType: contentType,
		version:     strconv.FormatInt(s.seq, 10),
	}
}

func (s *MemoryStore) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.objects[memKey(bucket, srcKey)]
	if !ok {
		return ErrNotFound
	}
	s.putLocked(bucket, dstKey, src.data, src.contentType)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, memKey(bucket, key))
	return nil
}

// Exists reports whether an object is present; a test helper.
func (s *MemoryStore) Exists(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[memKey(bucket, key)]
	return ok
}

// Len reports the number of stored objects; a test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
