package preview

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound 表示 handle 不存在或已被释放。
var ErrNotFound = errors.New("preview: document not found")

// Document 是一份已生成的预览文档。
type Document struct {
	Data        []byte
	ContentType string
	FileName    string
	Pages       int
}

// Store 保存预览文档，按 handle 取回；Release 之后 handle 失效。
type Store interface {
	Put(doc Document) (string, error)
	Get(handle string) (Document, error)
	Release(handle string)
}

// MemoryStore 把文档保存在内存中，可并发使用。
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore 创建空的 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// Put 保存文档并返回新的 handle。
func (s *MemoryStore) Put(doc Document) (string, error) {
	handle := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[handle] = doc
	return handle, nil
}

// Get 返回 handle 对应的文档。
func (s *MemoryStore) Get(handle string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[handle]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// Release 释放 handle；重复释放无副作用。
func (s *MemoryStore) Release(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, handle)
}

// Len 返回当前保存的文档数。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
