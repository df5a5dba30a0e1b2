package memorybank

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSessionID marks a session identifier the store refuses to
// work with.
var ErrInvalidSessionID = errors.New("invalid session id")

// Store is the session-scoped memory surface. All operations are keyed by
// an explicit session id; backends serialize concurrent mutations to the
// same session and may serve reads from a consistent snapshot.
type Store interface {
	// EnsureSession makes the session usable, creating empty state when
	// the backend requires it. Idempotent.
	EnsureSession(ctx context.Context, sessionID string) error

	// SetPreference replaces the session's single preference record.
	SetPreference(ctx context.Context, sessionID string, pref UserPreference) error

	// GetPreference returns the stored preference. The boolean is false
	// when the session has none.
	GetPreference(ctx context.Context, sessionID string) (UserPreference, bool, error)

	// RecordQuery appends to the session history, evicting the oldest
	// entry once the capacity of HistoryCapacity is exceeded.
	RecordQuery(ctx context.Context, sessionID string, entry QueryHistoryEntry) error

	// GetHistory returns up to limit entries, most recent first.
	// A non-positive limit returns the full history.
	GetHistory(ctx context.Context, sessionID string, limit int) ([]QueryHistoryEntry, error)

	// SearchHistory returns entries whose query text contains keyword,
	// case-insensitively, most recent first.
	SearchHistory(ctx context.Context, sessionID string, keyword string) ([]QueryHistoryEntry, error)

	// SaveFavorite upserts by location id. Re-saving overwrites the note
	// and name but keeps the original SavedAt.
	SaveFavorite(ctx context.Context, sessionID string, fav FavoriteLocation) error

	// ListFavorites returns the session's favorites, sorted by location id.
	ListFavorites(ctx context.Context, sessionID string) ([]FavoriteLocation, error)

	// RemoveFavorite deletes by location id. Removing an absent favorite
	// returns (false, nil), never an error.
	RemoveFavorite(ctx context.Context, sessionID string, locationID string) (bool, error)
}

// validateSessionID rejects ids that are empty or would escape a
// path-based backend.
func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSessionID)
	}
	if strings.ContainsAny(sessionID, "/\\") || strings.Contains(sessionID, "..") {
		return fmt.Errorf("%w: %q contains path separators", ErrInvalidSessionID, sessionID)
	}
	return nil
}
