// Package memorybank holds session-scoped advisory state: the stored
// preference, a bounded query history, and favorite locations. Every
// backend enforces the same capacity, eviction and upsert semantics.
package memorybank

import (
	"sort"
	"strings"
	"time"

	"github.com/enviweather/envi-advisor/internal/risk"
)

// HistoryCapacity is the fixed size of the query history. Inserting
// beyond it evicts the oldest entry, never any other.
const HistoryCapacity = 20

// UserPreference is the single preference record of a session.
// Writes replace the whole record; the last write wins.
type UserPreference struct {
	ActivityType  string            `json:"activity_type"`
	RiskTolerance risk.Severity     `json:"risk_tolerance"`
	Extensions    map[string]string `json:"extensions,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// QueryHistoryEntry records one advisory query.
type QueryHistoryEntry struct {
	QueryText           string    `json:"query_text"`
	LocationsConsidered []string  `json:"locations_considered"`
	Timestamp           time.Time `json:"timestamp"`
}

// FavoriteLocation is a saved place, unique by LocationID within its
// session. Re-saving overwrites the note but keeps the original SavedAt.
type FavoriteLocation struct {
	LocationID string    `json:"location_id"`
	Name       string    `json:"name"`
	Note       string    `json:"note,omitempty"`
	SavedAt    time.Time `json:"saved_at"`
}

// SessionRecord is the full state of one session. The file backend
// serializes it as a JSON document; the in-memory backend holds it
// directly.
type SessionRecord struct {
	SessionID  string                      `json:"session_id"`
	Preference *UserPreference             `json:"preference,omitempty"`
	History    []QueryHistoryEntry         `json:"history"`
	Favorites  map[string]FavoriteLocation `json:"favorites"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// newSessionRecord initializes an empty record.
func newSessionRecord(sessionID string, now time.Time) *SessionRecord {
	return &SessionRecord{
		SessionID: sessionID,
		History:   []QueryHistoryEntry{},
		Favorites: map[string]FavoriteLocation{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// setPreference replaces the stored preference record.
func (r *SessionRecord) setPreference(pref UserPreference, now time.Time) {
	if pref.UpdatedAt.IsZero() {
		pref.UpdatedAt = now
	}
	if pref.Extensions != nil {
		copied := make(map[string]string, len(pref.Extensions))
		for k, v := range pref.Extensions {
			copied[k] = v
		}
		pref.Extensions = copied
	}
	r.Preference = &pref
	r.UpdatedAt = now
}

// appendHistory adds an entry and enforces the FIFO capacity by dropping
// entries from the front.
func (r *SessionRecord) appendHistory(entry QueryHistoryEntry, now time.Time) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	entry.LocationsConsidered = append([]string{}, entry.LocationsConsidered...)
	r.History = append(r.History, entry)
	if over := len(r.History) - HistoryCapacity; over > 0 {
		r.History = append([]QueryHistoryEntry{}, r.History[over:]...)
	}
	r.UpdatedAt = now
}

// recentHistory returns up to limit entries, most recent first. A
// non-positive limit returns everything.
func (r *SessionRecord) recentHistory(limit int) []QueryHistoryEntry {
	n := len(r.History)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]QueryHistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		entry := r.History[i]
		entry.LocationsConsidered = append([]string{}, entry.LocationsConsidered...)
		out = append(out, entry)
	}
	return out
}

// searchHistory returns entries whose query text contains the keyword,
// case-insensitively, most recent first.
func (r *SessionRecord) searchHistory(keyword string) []QueryHistoryEntry {
	needle := strings.ToLower(keyword)
	out := []QueryHistoryEntry{}
	for i := len(r.History) - 1; i >= 0; i-- {
		entry := r.History[i]
		if strings.Contains(strings.ToLower(entry.QueryText), needle) {
			entry.LocationsConsidered = append([]string{}, entry.LocationsConsidered...)
			out = append(out, entry)
		}
	}
	return out
}

// saveFavorite upserts by location id. An existing favorite keeps its
// original SavedAt; name and note are overwritten.
func (r *SessionRecord) saveFavorite(fav FavoriteLocation, now time.Time) {
	if existing, ok := r.Favorites[fav.LocationID]; ok {
		fav.SavedAt = existing.SavedAt
	} else if fav.SavedAt.IsZero() {
		fav.SavedAt = now
	}
	r.Favorites[fav.LocationID] = fav
	r.UpdatedAt = now
}

// removeFavorite deletes by location id, reporting whether anything was
// removed. Absence is a normal outcome, not an error.
func (r *SessionRecord) removeFavorite(locationID string) bool {
	if _, ok := r.Favorites[locationID]; !ok {
		return false
	}
	delete(r.Favorites, locationID)
	return true
}

// listFavorites returns the favorites sorted by location id. Callers must
// not rely on insertion order.
func (r *SessionRecord) listFavorites() []FavoriteLocation {
	out := make([]FavoriteLocation, 0, len(r.Favorites))
	for _, fav := range r.Favorites {
		out = append(out, fav)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LocationID < out[j].LocationID
	})
	return out
}
