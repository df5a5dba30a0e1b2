package memorybank

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps all session state in process memory. It is the
// default backend; the file and Postgres stores match its semantics.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*SessionRecord),
	}
}

// EnsureSession creates empty state for the session when absent.
func (s *InMemoryStore) EnsureSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(sessionID)
	return nil
}

// SetPreference replaces the session's preference record.
func (s *InMemoryStore) SetPreference(ctx context.Context, sessionID string, pref UserPreference) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(sessionID).setPreference(pref, time.Now().UTC())
	return nil
}

// GetPreference returns the stored preference, if any.
func (s *InMemoryStore) GetPreference(ctx context.Context, sessionID string) (UserPreference, bool, error) {
	if err := validateSessionID(sessionID); err != nil {
		return UserPreference{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[sessionID]
	if !ok || record.Preference == nil {
		return UserPreference{}, false, nil
	}
	pref := *record.Preference
	if pref.Extensions != nil {
		copied := make(map[string]string, len(pref.Extensions))
		for k, v := range pref.Extensions {
			copied[k] = v
		}
		pref.Extensions = copied
	}
	return pref, true, nil
}

// RecordQuery appends to the bounded history.
func (s *InMemoryStore) RecordQuery(ctx context.Context, sessionID string, entry QueryHistoryEntry) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(sessionID).appendHistory(entry, time.Now().UTC())
	return nil
}

// GetHistory returns recent entries, most recent first.
func (s *InMemoryStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]QueryHistoryEntry, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return []QueryHistoryEntry{}, nil
	}
	return record.recentHistory(limit), nil
}

// SearchHistory filters the history by keyword.
func (s *InMemoryStore) SearchHistory(ctx context.Context, sessionID string, keyword string) ([]QueryHistoryEntry, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return []QueryHistoryEntry{}, nil
	}
	return record.searchHistory(keyword), nil
}

// SaveFavorite upserts a favorite by location id.
func (s *InMemoryStore) SaveFavorite(ctx context.Context, sessionID string, fav FavoriteLocation) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(sessionID).saveFavorite(fav, time.Now().UTC())
	return nil
}

// ListFavorites returns the session's favorites.
func (s *InMemoryStore) ListFavorites(ctx context.Context, sessionID string) ([]FavoriteLocation, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return []FavoriteLocation{}, nil
	}
	return record.listFavorites(), nil
}

// RemoveFavorite deletes a favorite, reporting whether it existed.
func (s *InMemoryStore) RemoveFavorite(ctx context.Context, sessionID string, locationID string) (bool, error) {
	if err := validateSessionID(sessionID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	removed := record.removeFavorite(locationID)
	if removed {
		record.UpdatedAt = time.Now().UTC()
	}
	return removed, nil
}

// getOrCreate must be called with the write lock held.
func (s *InMemoryStore) getOrCreate(sessionID string) *SessionRecord {
	if record, ok := s.sessions[sessionID]; ok {
		return record
	}
	record := newSessionRecord(sessionID, time.Now().UTC())
	s.sessions[sessionID] = record
	return record
}
