package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/policy"
	"github.com/wricardo/tile-pathfinder/game/search"
	"github.com/wricardo/tile-pathfinder/internal/ctxlog"
)

// pathServiceImpl implements the PathService interface
type pathServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	metrics  *Metrics
}

// Option configures the path service
type Option func(*pathServiceImpl)

// WithMetrics records run telemetry into m
func WithMetrics(m *Metrics) Option {
	return func(s *pathServiceImpl) {
		s.metrics = m
	}
}

// NewPathService creates a new path service instance
func NewPathService(sessions SessionManager, configs ConfigManager, opts ...Option) PathService {
	s := &pathServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a session from a library map. An empty name uses the
// default map.
func (s *pathServiceImpl) CreateSession(ctx context.Context, mapName string) (*SessionInfo, error) {
	var (
		config *engine.MapConfig
		err    error
	)
	mapID := mapName
	if mapName != "" {
		config, err = s.configs.LoadConfig(mapName)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, s.mapNotFound(mapName)
			}
			return nil, fmt.Errorf("failed to load map %s: %w", mapName, err)
		}
	} else {
		config = s.configs.GetDefault()
		mapID = config.Name
	}

	sess, err := s.sessions.Create("", mapID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", classify(err))
	}

	ctxlog.FromContext(ctx).Info("session created", "session", sess.ID, "map", mapID)
	return newSessionInfo(sess), nil
}

// mapNotFound lists the available map IDs in the error
func (s *pathServiceImpl) mapNotFound(mapName string) error {
	maps, err := s.configs.ListConfigs()
	if err != nil || len(maps) == 0 {
		return fmt.Errorf("%w: map '%s'", ErrNotFound, mapName)
	}
	ids := make([]string, 0, len(maps))
	for _, m := range maps {
		ids = append(ids, m.MapID)
	}
	return fmt.Errorf("%w: map '%s'. Available maps: %s", ErrNotFound, mapName, strings.Join(ids, ", "))
}

// GetSession retrieves session information
func (s *pathServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return newSessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *pathServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, newSessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *pathServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	ctxlog.FromContext(ctx).Info("session deleted", "session", sessionID)
	return nil
}

// EditTile changes the terrain of one tile
func (s *pathServiceImpl) EditTile(ctx context.Context, sessionID string, x, y int, kind string) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	terrain, err := grid.ParseTerrainKind(kind)
	if err != nil {
		return nil, classify(err)
	}
	if err := sess.Engine.SetTerrain(grid.Coord{X: x, Y: y}, terrain); err != nil {
		return nil, classify(err)
	}
	return sess.Engine.Snapshot(), nil
}

// SelectStart sets the start tile
func (s *pathServiceImpl) SelectStart(ctx context.Context, sessionID string, x, y int) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.SelectStart(grid.Coord{X: x, Y: y}); err != nil {
		return nil, classify(err)
	}
	return sess.Engine.Snapshot(), nil
}

// SelectGoal sets the goal tile
func (s *pathServiceImpl) SelectGoal(ctx context.Context, sessionID string, x, y int) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.SelectGoal(grid.Coord{X: x, Y: y}); err != nil {
		return nil, classify(err)
	}
	return sess.Engine.Snapshot(), nil
}

// Configure changes strategy and heuristic. Both values are validated before
// either is applied.
func (s *pathServiceImpl) Configure(ctx context.Context, sessionID string, settings Settings) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var (
		strategy  search.Strategy
		heuristic policy.HeuristicKind
	)
	if settings.Strategy != "" {
		if strategy, err = search.ParseStrategy(settings.Strategy); err != nil {
			return nil, classify(err)
		}
	}
	if settings.Heuristic != "" {
		if heuristic, err = policy.ParseHeuristic(settings.Heuristic); err != nil {
			return nil, classify(err)
		}
	}

	if strategy != "" {
		if err := sess.Engine.SetStrategy(strategy); err != nil {
			return nil, classify(err)
		}
	}
	if heuristic != "" {
		if err := sess.Engine.SetHeuristic(heuristic); err != nil {
			return nil, classify(err)
		}
	}
	return sess.Engine.Snapshot(), nil
}

// Reset clears terrain, selection and results
func (s *pathServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.Reset(); err != nil {
		return nil, classify(err)
	}
	return sess.Engine.Snapshot(), nil
}

// Regenerate replaces the board with an open grid of the given size
func (s *pathServiceImpl) Regenerate(ctx context.Context, sessionID string, width, height int) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.Regenerate(width, height); err != nil {
		return nil, classify(err)
	}
	return sess.Engine.Snapshot(), nil
}

// FindPath runs the configured strategy
func (s *pathServiceImpl) FindPath(ctx context.Context, sessionID string) (*RunResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx).With("session", sess.ID)
	result, err := sess.Engine.Run(ctx)
	if err != nil {
		err = classify(err)
		s.metrics.ObserveError(err)
		logger.Warn("run rejected", "error", err)
		return nil, err
	}
	s.metrics.ObserveRun(result)

	logger.Info("run finished",
		"strategy", result.Strategy,
		"found", result.Found,
		"cost", result.TotalCost,
		"nodes_explored", result.NodesExplored,
		"elapsed", result.Elapsed,
	)

	return &RunResponse{
		SessionID: sess.ID,
		Result:    NewRunReport(result),
		State:     sess.Engine.Snapshot(),
	}, nil
}

// Compare runs every strategy on the current board
func (s *pathServiceImpl) Compare(ctx context.Context, sessionID string) (*CompareResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	results, err := sess.Engine.Compare(ctx)
	if err != nil {
		err = classify(err)
		s.metrics.ObserveError(err)
		return nil, err
	}
	s.metrics.ObserveComparison(results)

	resp := &CompareResponse{
		SessionID: sess.ID,
		Results:   make([]*RunReport, 0, len(results)),
	}
	for _, r := range results {
		resp.Start, resp.Goal = r.Start, r.Goal
		resp.Results = append(resp.Results, NewRunReport(r))
	}
	return resp, nil
}

// GetState returns the board snapshot
func (s *pathServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Snapshot(), nil
}

// ListMaps returns the map library
func (s *pathServiceImpl) ListMaps(ctx context.Context) ([]*MapInfo, error) {
	return s.configs.ListConfigs()
}

// GetMap loads a map by name
func (s *pathServiceImpl) GetMap(ctx context.Context, mapName string) (*engine.MapConfig, error) {
	config, err := s.configs.LoadConfig(mapName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.mapNotFound(mapName)
		}
		return nil, err
	}
	return config, nil
}

// SaveMap validates and stores a map in the library
func (s *pathServiceImpl) SaveMap(ctx context.Context, mapName string, config *engine.MapConfig) error {
	if mapName == "" {
		return fmt.Errorf("%w: map name is required", ErrInvalidInput)
	}
	if err := engine.ValidateMapConfig(config); err != nil {
		return classify(err)
	}
	if err := s.configs.SaveConfig(mapName, config); err != nil {
		return classify(err)
	}
	ctxlog.FromContext(ctx).Info("map saved", "map", mapName)
	return nil
}

// session resolves a session and marks it accessed
func (s *pathServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	// Only a concurrent delete can make this fail; the caller keeps its handle.
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func newSessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		MapID:          sess.MapID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		State:          sess.Engine.Snapshot(),
		Map:            sess.Config,
	}
}
