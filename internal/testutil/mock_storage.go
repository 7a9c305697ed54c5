// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/varbridge/backend/internal/models"
	"github.com/varbridge/backend/internal/storage"
)

// MockStorage implements storage.Store in memory for testing
type MockStorage struct {
	docs map[string]*models.DocumentInfo
	data map[string][]byte
	mu   sync.RWMutex

	// SaveErr, when set, is returned by Save and SaveBytes.
	SaveErr error
}

// NewMockStorage creates a new empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		docs: make(map[string]*models.DocumentInfo),
		data: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name string, r io.Reader) (*models.DocumentInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.SaveBytes(name, data)
}

func (m *MockStorage) SaveBytes(name string, data []byte) (*models.DocumentInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	return m.AddDocument(generateTestID(), name, data), nil
}

func (m *MockStorage) Get(id string) (*models.DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return info, nil
}

func (m *MockStorage) List(limit int) ([]*models.DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.DocumentInfo, 0, len(m.docs))
	for _, info := range m.docs {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.docs, id)
	delete(m.data, id)
	return nil
}

func (m *MockStorage) Rename(id string, newName string) (*models.DocumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	info.Name = newName
	return info, nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddDocument adds a document directly to the mock
func (m *MockStorage) AddDocument(id string, name string, data []byte) *models.DocumentInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &models.DocumentInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}
	m.docs[id] = info
	m.data[id] = data
	return info
}

// Count returns the number of stored documents
func (m *MockStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
