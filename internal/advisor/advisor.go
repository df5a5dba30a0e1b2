// Package advisor orchestrates one advisory query end to end: session
// resolution, geocoding, condition fetch, risk assessment, ranking,
// report assembly and the session memory side effects. Individual
// locations fail in isolation; the batch degrades instead of aborting.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/enviweather/envi-advisor/internal/cache"
	"github.com/enviweather/envi-advisor/internal/memorybank"
	"github.com/enviweather/envi-advisor/internal/provider"
	"github.com/enviweather/envi-advisor/internal/ranking"
	"github.com/enviweather/envi-advisor/internal/report"
	"github.com/enviweather/envi-advisor/internal/risk"
	"github.com/enviweather/envi-advisor/internal/storage"
	"github.com/enviweather/envi-advisor/internal/weather"
	"github.com/enviweather/envi-advisor/internal/writer"
	"github.com/enviweather/envi-advisor/pkg/logger"
	"github.com/enviweather/envi-advisor/pkg/prefixed_uuid"
)

const (
	// maxAreas bounds the locations considered in one query.
	maxAreas = 5

	// fetchWorkers bounds concurrent upstream lookups per query.
	fetchWorkers = 5

	// geocodeLimit asks the source for the single best match per area.
	geocodeLimit = 1

	sessionIDPrefix = "session"
	reportIDPrefix  = "report"

	// defaultActivity labels queries that name no activity and have no
	// stored preference to fall back on.
	defaultActivity = "general"
)

// ErrInvalidRequest marks client-side validation failures.
var ErrInvalidRequest = errors.New("invalid advisory request")

// Config holds the advisor's collaborators.
type Config struct {
	// Source resolves place queries and fetches current conditions.
	// Required.
	Source provider.Source

	// Classifier grades snapshots against the risk thresholds. Required.
	Classifier *risk.Classifier

	// Memory is the session-scoped store for preferences, history and
	// favorites. Required.
	Memory memorybank.Store

	// Logger is required.
	Logger logger.Logger

	// Cache is the optional snapshot cache. Nil disables caching.
	Cache cache.SnapshotCache

	// Writer is the optional prose renderer. Nil keeps responses
	// structured-only.
	Writer *writer.Writer

	// Reports is the optional archive for assembled reports. Nil
	// disables persistence.
	Reports storage.FileProvider
}

// Service executes advisory queries. Safe for concurrent use.
type Service struct {
	config Config
}

// New validates the configuration and creates the service.
func New(config Config) (*Service, error) {
	if config.Source == nil {
		return nil, errors.New("condition source is required")
	}
	if config.Classifier == nil {
		return nil, errors.New("risk classifier is required")
	}
	if config.Memory == nil {
		return nil, errors.New("memory store is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{config: config}, nil
}

// Request is one advisory query.
type Request struct {
	// SessionID is optional; a fresh session is created when empty.
	SessionID string `json:"session_id,omitempty"`

	// Activity the user plans. Falls back to the stored preference.
	Activity string `json:"activity,omitempty"`

	// Areas are free-text place queries, 1 to 5 per request.
	Areas []string `json:"areas"`

	// TimeWindow is a free-text label carried into the report.
	TimeWindow string `json:"time_window,omitempty"`

	// SaveFavorite stores the top ranked location as a session favorite.
	SaveFavorite bool `json:"save_favorite,omitempty"`
}

// Failure describes one area that could not be assessed.
type Failure struct {
	Area   string `json:"area"`
	Reason string `json:"reason"`
}

// Result is the complete advisory answer.
type Result struct {
	SessionID string       `json:"session_id"`
	ReportID  string       `json:"report_id"`
	Report    report.Model `json:"report"`
	Rendered  string       `json:"rendered,omitempty"`
	Failures  []Failure    `json:"failures"`
}

func (r Request) validate() error {
	var problems *multierror.Error
	if len(r.Areas) == 0 {
		problems = multierror.Append(problems, errors.New("at least one area is required"))
	}
	if len(r.Areas) > maxAreas {
		problems = multierror.Append(problems, fmt.Errorf("at most %d areas per request, got %d", maxAreas, len(r.Areas)))
	}
	for i, area := range r.Areas {
		if strings.TrimSpace(area) == "" {
			problems = multierror.Append(problems, fmt.Errorf("area %d is blank", i+1))
		}
	}
	if err := problems.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Advise runs the full pipeline for one query. Per-location failures are
// reported in the result; the call errs only when the request is invalid,
// when session memory fails, or when the condition source failed for
// every single area (errors.Is provider.ErrUnavailable).
func (s *Service) Advise(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = prefixed_uuid.New(sessionIDPrefix).String()
	}
	if err := s.config.Memory.EnsureSession(ctx, sessionID); err != nil {
		if errors.Is(err, memorybank.ErrInvalidSessionID) {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return Result{}, fmt.Errorf("ensure session: %w", err)
	}

	outcomes := s.fetchAll(ctx, req.Areas)

	snapshots := make([]weather.Snapshot, 0, len(outcomes))
	failures := make([]Failure, 0)
	var failureErrs *multierror.Error
	for i, outcome := range outcomes {
		if outcome.err != nil {
			failures = append(failures, Failure{Area: strings.TrimSpace(req.Areas[i]), Reason: outcome.err.Error()})
			failureErrs = multierror.Append(failureErrs, outcome.err)
			continue
		}
		snapshots = append(snapshots, outcome.snapshot)
	}

	// A batch where the source itself was down for every area is an
	// upstream failure, not an empty answer. All areas merely unknown
	// still yields a valid empty report.
	if len(snapshots) == 0 {
		if combined := failureErrs.ErrorOrNil(); combined != nil && errors.Is(combined, provider.ErrUnavailable) {
			return Result{}, fmt.Errorf("no area could be assessed: %w", combined)
		}
	}

	pref, hasPref, err := s.config.Memory.GetPreference(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("load preference: %w", err)
	}

	activity := strings.TrimSpace(req.Activity)
	if activity == "" && hasPref {
		activity = strings.TrimSpace(pref.ActivityType)
	}
	if activity == "" {
		activity = defaultActivity
	}

	opts := ranking.Options{}
	if hasPref {
		opts.Tolerance = pref.RiskTolerance
	}

	ranked := ranking.Rank(snapshots, s.config.Classifier, risk.ProfileFor(activity), opts)
	assembled := report.Assemble(ranked, activity, strings.TrimSpace(req.TimeWindow))

	result := Result{
		SessionID: sessionID,
		ReportID:  prefixed_uuid.New(reportIDPrefix).String(),
		Report:    assembled,
		Failures:  failures,
	}

	entry := memorybank.QueryHistoryEntry{
		QueryText:           queryText(activity, req.Areas),
		LocationsConsidered: locationIDs(snapshots),
		Timestamp:           time.Now().UTC(),
	}
	if err := s.config.Memory.RecordQuery(ctx, sessionID, entry); err != nil {
		return Result{}, fmt.Errorf("record query history: %w", err)
	}

	if req.SaveFavorite && len(ranked) > 0 {
		top := ranked[0].Snapshot
		fav := memorybank.FavoriteLocation{
			LocationID: top.LocationID,
			Name:       top.Name,
			Note:       fmt.Sprintf("top pick for %s", activity),
		}
		if err := s.config.Memory.SaveFavorite(ctx, sessionID, fav); err != nil {
			return Result{}, fmt.Errorf("save favorite: %w", err)
		}
	}

	if s.config.Writer != nil && len(ranked) > 0 {
		rendered, err := s.config.Writer.Render(ctx, assembled)
		if err != nil {
			s.config.Logger.Warn("Prose rendering failed, returning structured report only",
				logger.StringField("report_id", result.ReportID),
				logger.ErrorField(err))
		} else {
			result.Rendered = rendered
		}
	}

	s.persistReport(ctx, result)

	s.config.Logger.Info("Advisory query completed",
		logger.StringField("session_id", sessionID),
		logger.StringField("report_id", result.ReportID),
		logger.StringField("activity", activity),
		logger.IntField("assessed", len(ranked)),
		logger.IntField("failed", len(failures)))

	return result, nil
}

type fetchOutcome struct {
	snapshot weather.Snapshot
	err      error
}

// fetchAll resolves and fetches every area with bounded concurrency,
// preserving the input order. Each element carries either a snapshot or
// the error that stopped that area.
func (s *Service) fetchAll(ctx context.Context, areas []string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(areas))
	sem := make(chan struct{}, fetchWorkers)
	var wg sync.WaitGroup

	for i, area := range areas {
		wg.Add(1)
		go func(i int, area string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.fetchArea(ctx, strings.TrimSpace(area))
		}(i, area)
	}

	wg.Wait()
	return outcomes
}

// fetchArea turns one free-text area into a normalized snapshot: best
// geocoding match, then cached or freshly fetched current conditions.
func (s *Service) fetchArea(ctx context.Context, area string) fetchOutcome {
	places, err := s.config.Source.Geocode(ctx, area, geocodeLimit)
	if err != nil {
		return fetchOutcome{err: err}
	}
	if len(places) == 0 {
		return fetchOutcome{err: fmt.Errorf("no place found for %q", area)}
	}
	place := places[0]

	if s.config.Cache != nil {
		if snap, ok := s.config.Cache.Get(ctx, place.Latitude, place.Longitude); ok {
			return fetchOutcome{snapshot: snap}
		}
	}

	obs, err := s.config.Source.Current(ctx, place)
	if err != nil {
		return fetchOutcome{err: err}
	}

	snap, err := weather.Normalize(obs)
	if err != nil {
		return fetchOutcome{err: err}
	}

	if s.config.Cache != nil {
		s.config.Cache.Put(ctx, snap)
	}
	return fetchOutcome{snapshot: snap}
}

// archivedReport is the persisted JSON document for one advisory answer.
type archivedReport struct {
	ReportID  string       `json:"report_id"`
	SessionID string       `json:"session_id"`
	CreatedAt time.Time    `json:"created_at"`
	Report    report.Model `json:"report"`
	Rendered  string       `json:"rendered,omitempty"`
}

// persistReport archives the full result document. Archive failures are
// logged and never fail the query.
func (s *Service) persistReport(ctx context.Context, result Result) {
	if s.config.Reports == nil {
		return
	}

	doc := archivedReport{
		ReportID:  result.ReportID,
		SessionID: result.SessionID,
		CreatedAt: time.Now().UTC(),
		Report:    result.Report,
		Rendered:  result.Rendered,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.config.Logger.Warn("Failed to encode report for archiving",
			logger.StringField("report_id", result.ReportID),
			logger.ErrorField(err))
		return
	}

	if err := s.config.Reports.Write(ctx, result.ReportID+".json", data); err != nil {
		s.config.Logger.Warn("Failed to archive report",
			logger.StringField("report_id", result.ReportID),
			logger.ErrorField(err))
		return
	}

	s.config.Logger.Debug("Archived advisory report",
		logger.StringField("report_id", result.ReportID))
}

func queryText(activity string, areas []string) string {
	trimmed := make([]string, 0, len(areas))
	for _, area := range areas {
		trimmed = append(trimmed, strings.TrimSpace(area))
	}
	return fmt.Sprintf("%s in %s", activity, strings.Join(trimmed, ", "))
}

func locationIDs(snapshots []weather.Snapshot) []string {
	ids := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		ids = append(ids, snap.LocationID)
	}
	return ids
}
