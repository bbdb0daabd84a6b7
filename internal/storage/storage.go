package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bilgisen/postcraft/internal/models"
)

// ErrNotFound is returned when no archived record has the requested ID.
var ErrNotFound = errors.New("record not found")

// Storage archives generated records as JSON files under dated directories.
type Storage struct {
	basePath string
	mu       sync.RWMutex
	now      func() time.Time
}

func NewStorage(basePath string) (*Storage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Storage{
		basePath: basePath,
		now:      time.Now,
	}, nil
}

// SaveRecord writes a record to disk and sets its FilePath.
func (s *Storage) SaveRecord(ctx context.Context, record *models.ContentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		return errors.New("record has no ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Create dated directory (YYYY/MM/DD)
	now := s.now()
	datePath := filepath.Join(s.basePath, now.Format("2006/01/02"))
	if err := os.MkdirAll(datePath, 0755); err != nil {
		return fmt.Errorf("failed to create date directory: %w", err)
	}

	filePath := filepath.Join(datePath, fmt.Sprintf("%d_%s.json", now.Unix(), record.ID))
	record.FilePath = filePath

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		record.FilePath = ""
		return fmt.Errorf("failed to write record file: %w", err)
	}

	return nil
}

// GetRecordByID finds an archived record by its ID.
func (s *Storage) GetRecordByID(ctx context.Context, id string) (*models.ContentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return readRecord(path)
}

// ListRecords returns a page of records, newest first. Pages start at 1.
func (s *Storage) ListRecords(ctx context.Context, page, pageSize int) ([]*models.ContentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.files()
	if err != nil {
		return nil, err
	}

	// File names start with the unix time, and dated directories sort the same way
	sort.Slice(files, func(i, j int) bool {
		return newer(files[i], files[j])
	})

	start := (page - 1) * pageSize
	if start >= len(files) {
		return []*models.ContentRecord{}, nil
	}
	end := min(start+pageSize, len(files))

	records := make([]*models.ContentRecord, 0, end-start)
	for _, file := range files[start:end] {
		record, err := readRecord(file)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// DeleteRecord removes an archived record.
func (s *Storage) DeleteRecord(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete record file: %w", err)
	}
	return nil
}

func (s *Storage) files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking the path: %w", err)
	}
	return files, nil
}

func (s *Storage) find(id string) (string, error) {
	files, err := s.files()
	if err != nil {
		return "", err
	}
	suffix := "_" + id + ".json"
	for _, f := range files {
		if strings.HasSuffix(filepath.Base(f), suffix) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, id)
}

func readRecord(path string) (*models.ContentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var record models.ContentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", path, err)
	}
	record.FilePath = path
	return &record, nil
}

func newer(a, b string) bool {
	da, db := filepath.Dir(a), filepath.Dir(b)
	if da != db {
		return da > db
	}
	return filepath.Base(a) > filepath.Base(b)
}
