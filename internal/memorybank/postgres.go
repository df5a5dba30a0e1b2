package memorybank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enviweather/envi-advisor/internal/risk"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// PostgresStore keeps session memory in PostgreSQL. The FIFO cap is
// enforced transactionally on insert, so the history invariant holds even
// under concurrent writers on different connections.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// NewPostgresStore validates its inputs and creates the store. Callers
// run Migrate before first use.
func NewPostgresStore(pool *pgxpool.Pool, log logger.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("connection pool is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

// EnsureSession inserts the session row when absent.
func (s *PostgresStore) EnsureSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO advisor_sessions (session_id) VALUES ($1) ON CONFLICT DO NOTHING`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("ensure session %s: %w", sessionID, err)
	}
	return nil
}

// SetPreference replaces the session's preference record.
func (s *PostgresStore) SetPreference(ctx context.Context, sessionID string, pref UserPreference) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return err
	}
	extensions, err := json.Marshal(pref.Extensions)
	if err != nil {
		return fmt.Errorf("serialize preference extensions: %w", err)
	}
	updatedAt := pref.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO session_preferences (session_id, activity_type, risk_tolerance, extensions, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id) DO UPDATE SET
		   activity_type = EXCLUDED.activity_type,
		   risk_tolerance = EXCLUDED.risk_tolerance,
		   extensions = EXCLUDED.extensions,
		   updated_at = EXCLUDED.updated_at`,
		sessionID, pref.ActivityType, string(pref.RiskTolerance), extensions, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("set preference for %s: %w", sessionID, err)
	}
	return nil
}

// GetPreference returns the stored preference, if any.
func (s *PostgresStore) GetPreference(ctx context.Context, sessionID string) (UserPreference, bool, error) {
	if err := validateSessionID(sessionID); err != nil {
		return UserPreference{}, false, err
	}
	var (
		pref       UserPreference
		tolerance  string
		extensions []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT activity_type, risk_tolerance, extensions, updated_at
		 FROM session_preferences WHERE session_id = $1`,
		sessionID,
	).Scan(&pref.ActivityType, &tolerance, &extensions, &pref.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserPreference{}, false, nil
	}
	if err != nil {
		return UserPreference{}, false, fmt.Errorf("get preference for %s: %w", sessionID, err)
	}
	pref.RiskTolerance = risk.Severity(tolerance)
	if len(extensions) > 0 {
		if err := json.Unmarshal(extensions, &pref.Extensions); err != nil {
			return UserPreference{}, false, fmt.Errorf("parse preference extensions for %s: %w", sessionID, err)
		}
	}
	return pref, true, nil
}

// RecordQuery appends to the history and trims beyond the capacity in the
// same transaction.
func (s *PostgresStore) RecordQuery(ctx context.Context, sessionID string, entry QueryHistoryEntry) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return err
	}
	recordedAt := entry.Timestamp
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO query_history (session_id, query_text, locations_considered, recorded_at)
		 VALUES ($1, $2, $3, $4)`,
		sessionID, entry.QueryText, entry.LocationsConsidered, recordedAt,
	)
	if err != nil {
		return fmt.Errorf("record query for %s: %w", sessionID, err)
	}

	// Oldest rows beyond the capacity are evicted by insertion order, so
	// the 21st insert always removes the 1st entry still present.
	_, err = tx.Exec(ctx,
		`DELETE FROM query_history
		 WHERE session_id = $1 AND id NOT IN (
		   SELECT id FROM query_history WHERE session_id = $1 ORDER BY id DESC LIMIT $2
		 )`,
		sessionID, HistoryCapacity,
	)
	if err != nil {
		return fmt.Errorf("trim history for %s: %w", sessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}
	s.log.Debug("Recorded query history entry",
		logger.StringField("session_id", sessionID),
		logger.IntField("locations", len(entry.LocationsConsidered)))
	return nil
}

// GetHistory returns recent entries, most recent first.
func (s *PostgresStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]QueryHistoryEntry, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > HistoryCapacity {
		limit = HistoryCapacity
	}
	rows, err := s.pool.Query(ctx,
		`SELECT query_text, locations_considered, recorded_at
		 FROM query_history WHERE session_id = $1 ORDER BY id DESC LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get history for %s: %w", sessionID, err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

// SearchHistory returns entries containing the keyword, most recent
// first. Plain substring matching, no pattern characters.
func (s *PostgresStore) SearchHistory(ctx context.Context, sessionID string, keyword string) ([]QueryHistoryEntry, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT query_text, locations_considered, recorded_at
		 FROM query_history
		 WHERE session_id = $1 AND position(lower($2) in lower(query_text)) > 0
		 ORDER BY id DESC`,
		sessionID, keyword,
	)
	if err != nil {
		return nil, fmt.Errorf("search history for %s: %w", sessionID, err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

// SaveFavorite upserts by location id, keeping the original saved_at.
func (s *PostgresStore) SaveFavorite(ctx context.Context, sessionID string, fav FavoriteLocation) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return err
	}
	savedAt := fav.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO favorite_locations (session_id, location_id, name, note, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id, location_id) DO UPDATE SET
		   name = EXCLUDED.name,
		   note = EXCLUDED.note`,
		sessionID, fav.LocationID, fav.Name, fav.Note, savedAt,
	)
	if err != nil {
		return fmt.Errorf("save favorite for %s: %w", sessionID, err)
	}
	return nil
}

// ListFavorites returns the session's favorites.
func (s *PostgresStore) ListFavorites(ctx context.Context, sessionID string) ([]FavoriteLocation, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT location_id, name, note, saved_at
		 FROM favorite_locations WHERE session_id = $1 ORDER BY location_id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorites for %s: %w", sessionID, err)
	}
	defer rows.Close()

	favorites := []FavoriteLocation{}
	for rows.Next() {
		var fav FavoriteLocation
		if err := rows.Scan(&fav.LocationID, &fav.Name, &fav.Note, &fav.SavedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return favorites, nil
}

// RemoveFavorite deletes by location id, reporting whether a row existed.
func (s *PostgresStore) RemoveFavorite(ctx context.Context, sessionID string, locationID string) (bool, error) {
	if err := validateSessionID(sessionID); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM favorite_locations WHERE session_id = $1 AND location_id = $2`,
		sessionID, locationID,
	)
	if err != nil {
		return false, fmt.Errorf("remove favorite for %s: %w", sessionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping verifies database connectivity, used by the readiness check.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanHistory(rows pgx.Rows) ([]QueryHistoryEntry, error) {
	entries := []QueryHistoryEntry{}
	for rows.Next() {
		var entry QueryHistoryEntry
		if err := rows.Scan(&entry.QueryText, &entry.LocationsConsidered, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
