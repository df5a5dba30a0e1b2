package memorybank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/enviweather/envi-advisor/internal/storage"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// FileStoreConfig configures the file-backed store.
type FileStoreConfig struct {
	// Provider is the storage backend, typically the "memory" namespace
	// of the storage manager. Required.
	Provider storage.FileProvider

	// Logger is required.
	Logger logger.Logger
}

// FileStore persists each session as one JSON document through a
// FileProvider, so the same code serves local disk and S3. Mutations to a
// session are serialized by a per-session lock; the document is loaded,
// changed and written back inside the critical section.
type FileStore struct {
	config FileStoreConfig

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewFileStore validates the configuration and creates the store.
func NewFileStore(config FileStoreConfig) (*FileStore, error) {
	if config.Provider == nil {
		return nil, errors.New("storage provider is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &FileStore{
		config: config,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// EnsureSession writes an empty session document when none exists yet.
func (s *FileStore) EnsureSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.config.Provider.Exists(ctx, sessionPath(sessionID))
	if err != nil {
		return fmt.Errorf("check session %s: %w", sessionID, err)
	}
	if exists {
		return nil
	}
	record := newSessionRecord(sessionID, time.Now().UTC())
	return s.save(ctx, record)
}

// SetPreference replaces the stored preference record.
func (s *FileStore) SetPreference(ctx context.Context, sessionID string, pref UserPreference) error {
	return s.mutate(ctx, sessionID, func(record *SessionRecord, now time.Time) {
		record.setPreference(pref, now)
	})
}

// GetPreference returns the stored preference, if any.
func (s *FileStore) GetPreference(ctx context.Context, sessionID string) (UserPreference, bool, error) {
	record, err := s.read(ctx, sessionID)
	if err != nil {
		return UserPreference{}, false, err
	}
	if record == nil || record.Preference == nil {
		return UserPreference{}, false, nil
	}
	return *record.Preference, true, nil
}

// RecordQuery appends to the bounded history.
func (s *FileStore) RecordQuery(ctx context.Context, sessionID string, entry QueryHistoryEntry) error {
	return s.mutate(ctx, sessionID, func(record *SessionRecord, now time.Time) {
		record.appendHistory(entry, now)
	})
}

// GetHistory returns recent entries, most recent first.
func (s *FileStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]QueryHistoryEntry, error) {
	record, err := s.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return []QueryHistoryEntry{}, nil
	}
	return record.recentHistory(limit), nil
}

// SearchHistory filters the history by keyword.
func (s *FileStore) SearchHistory(ctx context.Context, sessionID string, keyword string) ([]QueryHistoryEntry, error) {
	record, err := s.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return []QueryHistoryEntry{}, nil
	}
	return record.searchHistory(keyword), nil
}

// SaveFavorite upserts a favorite by location id.
func (s *FileStore) SaveFavorite(ctx context.Context, sessionID string, fav FavoriteLocation) error {
	return s.mutate(ctx, sessionID, func(record *SessionRecord, now time.Time) {
		record.saveFavorite(fav, now)
	})
}

// ListFavorites returns the session's favorites.
func (s *FileStore) ListFavorites(ctx context.Context, sessionID string) ([]FavoriteLocation, error) {
	record, err := s.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return []FavoriteLocation{}, nil
	}
	return record.listFavorites(), nil
}

// RemoveFavorite deletes a favorite, reporting whether it existed.
// Removing from an unknown session is (false, nil).
func (s *FileStore) RemoveFavorite(ctx context.Context, sessionID string, locationID string) (bool, error) {
	if err := validateSessionID(sessionID); err != nil {
		return false, err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if !record.removeFavorite(locationID) {
		return false, nil
	}
	record.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}

// mutate runs fn against the session document under its lock and writes
// the result back. An unknown session is created on first mutation.
func (s *FileStore) mutate(ctx context.Context, sessionID string, fn func(*SessionRecord, time.Time)) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if record == nil {
		record = newSessionRecord(sessionID, now)
	}
	fn(record, now)
	return s.save(ctx, record)
}

// read loads the session document under its lock. A missing document
// returns (nil, nil).
func (s *FileStore) read(ctx context.Context, sessionID string) (*SessionRecord, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return s.load(ctx, sessionID)
}

func (s *FileStore) load(ctx context.Context, sessionID string) (*SessionRecord, error) {
	path := sessionPath(sessionID)
	exists, err := s.config.Provider.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("check session %s: %w", sessionID, err)
	}
	if !exists {
		return nil, nil
	}

	data, err := s.config.Provider.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", sessionID, err)
	}
	if record.Favorites == nil {
		record.Favorites = map[string]FavoriteLocation{}
	}
	if record.History == nil {
		record.History = []QueryHistoryEntry{}
	}
	return &record, nil
}

func (s *FileStore) save(ctx context.Context, record *SessionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize session %s: %w", record.SessionID, err)
	}
	if err := s.config.Provider.Write(ctx, sessionPath(record.SessionID), data); err != nil {
		return fmt.Errorf("write session %s: %w", record.SessionID, err)
	}
	s.config.Logger.Debug("Persisted session memory",
		logger.StringField("session_id", record.SessionID),
		logger.IntField("history_entries", len(record.History)),
		logger.IntField("favorites", len(record.Favorites)),
	)
	return nil
}

// sessionLock returns the mutex serializing access to one session's
// document, creating it on first use.
func (s *FileStore) sessionLock(sessionID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if lock, ok := s.locks[sessionID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[sessionID] = lock
	return lock
}

func sessionPath(sessionID string) string {
	return fmt.Sprintf("sessions/%s.json", sessionID)
}
