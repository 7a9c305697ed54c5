package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/varbridge/backend/internal/models"
)

// indexFile holds document metadata next to the stored documents.
const indexFile = "index.json"

// ErrNotFound is returned for unknown document ids.
var ErrNotFound = errors.New("document not found")

// Store defines the interface for document storage.
type Store interface {
	Save(name string, r io.Reader) (*models.DocumentInfo, error)
	SaveBytes(name string, data []byte) (*models.DocumentInfo, error)
	Get(id string) (*models.DocumentInfo, error)
	List(limit int) ([]*models.DocumentInfo, error)
	Delete(id string) error
	Rename(id string, newName string) (*models.DocumentInfo, error)
	Open(id string) (io.ReadCloser, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu   sync.RWMutex
	dir  string
	docs map[string]*models.DocumentInfo
}

// NewLocalStore creates a LocalStore in dir, loading any existing index.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}

	s := &LocalStore{
		dir:  dir,
		docs: make(map[string]*models.DocumentInfo),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}

	var docs []*models.DocumentInfo
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parsing index: %w", err)
	}
	for _, d := range docs {
		if _, err := os.Stat(s.path(d.ID)); err == nil {
			s.docs[d.ID] = d
		}
	}
	return nil
}

// saveIndex must be called with mu held.
func (s *LocalStore) saveIndex() error {
	docs := make([]*models.DocumentInfo, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	tmp := filepath.Join(s.dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return os.Rename(tmp, filepath.Join(s.dir, indexFile))
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id+".doc")
}

// Save saves a document to the local filesystem.
func (s *LocalStore) Save(name string, r io.Reader) (*models.DocumentInfo, error) {
	id := uuid.New().String()
	path := s.path(id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.DocumentInfo{
		ID:         id,
		Name:       name,
		Size:       size,
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = info
	if err := s.saveIndex(); err != nil {
		return nil, err
	}

	return info, nil
}

// SaveBytes saves an in-memory document.
func (s *LocalStore) SaveBytes(name string, data []byte) (*models.DocumentInfo, error) {
	return s.Save(name, bytes.NewReader(data))
}

// Get retrieves document metadata by ID.
func (s *LocalStore) Get(id string) (*models.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return info, nil
}

// List returns the most recent documents.
func (s *LocalStore) List(limit int) ([]*models.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.DocumentInfo, 0, len(s.docs))
	for _, info := range s.docs {
		list = append(list, info)
	}

	// Sort by UploadedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a document from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.docs, id)
	return s.saveIndex()
}

// Rename updates the display name of a document.
func (s *LocalStore) Rename(id string, newName string) (*models.DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	info.Name = newName
	if err := s.saveIndex(); err != nil {
		return nil, err
	}
	return info, nil
}

// Open returns a reader over the stored document.
func (s *LocalStore) Open(id string) (io.ReadCloser, error) {
	s.mu.RLock()
	_, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	return f, nil
}
