// Package history persists executed cross-chain swaps so status polling
// can resolve a tracking id back to its full plan later.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"crossroute/pkg/types"
)

const DefaultStorageFileName = ".crossroute-history.json"

// Record is one executed swap as stored on disk.
type Record struct {
	TrackingID string                      `json:"tracking_id"`
	FromChain  uint64                      `json:"from_chain"`
	ToChain    uint64                      `json:"to_chain"`
	TokenIn    string                      `json:"token_in"`
	TokenOut   string                      `json:"token_out"`
	AmountIn   string                      `json:"amount_in"`
	Recipient  string                      `json:"recipient"`
	CreatedAt  time.Time                   `json:"created_at"`
	Result     *types.CrossChainSwapResult `json:"result"`
}

// Store handles persistence of executed swaps in a single JSON file.
type Store struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
}

type storeFile struct {
	Swaps map[string]*Record `json:"swaps"`
}

// NewStore opens (or lazily creates) the history file. An empty path
// defaults to the home directory.
func NewStore(filePath string) (*Store, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	store := &Store{
		filePath: filePath,
		records:  make(map[string]*Record),
	}

	if err := store.load(); err != nil {
		// Missing file is fine, it is created on first save.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load swap history: %w", err)
		}
	}
	return store, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal swap history: %w", err)
	}

	s.records = file.Swaps
	if s.records == nil {
		s.records = make(map[string]*Record)
	}
	return nil
}

// saveLocked writes the records to disk. Callers must hold mu.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(storeFile{Swaps: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal swap history: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write-then-rename keeps the file whole if we crash mid-write.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write swap history: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Add stores a newly executed swap.
func (s *Store) Add(record *Record) error {
	if record.TrackingID == "" {
		return fmt.Errorf("record has no tracking id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records[record.TrackingID] = record
	return s.saveLocked()
}

// Get retrieves a swap by tracking id.
func (s *Store) Get(trackingID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[trackingID]
	if !exists {
		return nil, fmt.Errorf("no recorded swap with tracking id %q", trackingID)
	}
	return record, nil
}

// Update persists a refreshed record, typically after a status poll.
func (s *Store) Update(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.TrackingID]; !exists {
		return fmt.Errorf("no recorded swap with tracking id %q", record.TrackingID)
	}
	s.records[record.TrackingID] = record
	return s.saveLocked()
}

// List returns all recorded swaps, newest first.
func (s *Store) List() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records
}

// Count returns the number of recorded swaps.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FilePath returns the backing file's path.
func (s *Store) FilePath() string {
	return s.filePath
}
