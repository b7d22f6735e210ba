package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/game/search"
	"github.com/wricardo/tile-pathfinder/game/service"
	"github.com/wricardo/tile-pathfinder/game/session"
	"github.com/wricardo/tile-pathfinder/internal/ctxlog"
)

// memConfigs is an in-memory map library
type memConfigs struct {
	maps  map[string]*engine.MapConfig
	saved []string
}

func newMemConfigs() *memConfigs {
	return &memConfigs{maps: map[string]*engine.MapConfig{
		"detour": {
			Name: "detour",
			Layout: []string{
				"..G",
				"~#.",
				"S..",
			},
			Strategy: "dijkstra",
		},
	}}
}

func (m *memConfigs) LoadConfig(name string) (*engine.MapConfig, error) {
	config, ok := m.maps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrNotFound, name)
	}
	return config, nil
}

func (m *memConfigs) ListConfigs() ([]*service.MapInfo, error) {
	var infos []*service.MapInfo
	for id, config := range m.maps {
		infos = append(infos, &service.MapInfo{MapID: id, Name: config.Name})
	}
	return infos, nil
}

func (m *memConfigs) GetDefault() *engine.MapConfig {
	return engine.DefaultMapConfig()
}

func (m *memConfigs) SaveConfig(name string, config *engine.MapConfig) error {
	m.maps[name] = config
	m.saved = append(m.saved, name)
	return nil
}

type PathServiceSuite struct {
	suite.Suite
	ctx     context.Context
	configs *memConfigs
	svc     service.PathService
}

func TestPathServiceSuite(t *testing.T) {
	suite.Run(t, new(PathServiceSuite))
}

func (s *PathServiceSuite) SetupTest() {
	s.ctx = ctxlog.WithLogger(context.Background(), ctxlog.Discard())
	s.configs = newMemConfigs()
	s.svc = service.NewPathService(session.NewManagerWithLogger(ctxlog.Discard()), s.configs)
}

func (s *PathServiceSuite) newSession(mapName string) string {
	info, err := s.svc.CreateSession(s.ctx, mapName)
	s.Require().NoError(err)
	return info.ID
}

func (s *PathServiceSuite) TestCreateSessionUsesDefaultMap() {
	info, err := s.svc.CreateSession(s.ctx, "")
	s.Require().NoError(err)

	s.NotEmpty(info.ID)
	s.Equal("default", info.MapID)
	s.Equal(engine.Idle, info.State.State)
	s.Equal(5, info.State.Width)
	s.Equal(5, info.State.Height)
}

func (s *PathServiceSuite) TestCreateSessionFromLayoutMarkers() {
	info, err := s.svc.CreateSession(s.ctx, "detour")
	s.Require().NoError(err)

	s.Equal("detour", info.MapID)
	s.Require().NotNil(info.State.Start)
	s.Require().NotNil(info.State.Goal)
	s.Equal(0, info.State.Start.X)
	s.Equal(0, info.State.Start.Y)
	s.Equal(2, info.State.Goal.X)
	s.Equal(2, info.State.Goal.Y)
	s.Equal(search.Dijkstra, info.State.Strategy)
}

func (s *PathServiceSuite) TestCreateSessionUnknownMap() {
	_, err := s.svc.CreateSession(s.ctx, "nowhere")
	s.Require().ErrorIs(err, service.ErrNotFound)
	s.Contains(err.Error(), "Available maps: detour")
}

func (s *PathServiceSuite) TestUnknownSession() {
	_, err := s.svc.GetState(s.ctx, "missing")
	s.ErrorIs(err, service.ErrNotFound)

	_, err = s.svc.FindPath(s.ctx, "missing")
	s.ErrorIs(err, service.ErrNotFound)

	s.ErrorIs(s.svc.DeleteSession(s.ctx, "missing"), service.ErrNotFound)
}

func (s *PathServiceSuite) TestFindPathRequiresSelection() {
	id := s.newSession("")

	_, err := s.svc.FindPath(s.ctx, id)
	s.Require().ErrorIs(err, service.ErrInvalidInput)
	s.ErrorIs(err, engine.ErrStartNotSet)

	state, err := s.svc.GetState(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(engine.Idle, state.State)
}

func (s *PathServiceSuite) TestFindPathOpenGrid() {
	id := s.newSession("")

	_, err := s.svc.SelectStart(s.ctx, id, 0, 0)
	s.Require().NoError(err)
	_, err = s.svc.SelectGoal(s.ctx, id, 4, 4)
	s.Require().NoError(err)

	resp, err := s.svc.FindPath(s.ctx, id)
	s.Require().NoError(err)

	s.Equal(id, resp.SessionID)
	s.True(resp.Result.Found)
	s.Equal(8.0, resp.Result.TotalCost)
	s.Equal(8, resp.Result.PathLength)
	s.Len(resp.Result.Path, 9)
	s.Equal("astar", resp.Result.Strategy)
	s.Equal("manhattan", resp.Result.Heuristic)
	s.Contains(resp.Result.Message, "path found! Total cost: 8")
	s.Equal(engine.Resolved, resp.State.State)
}

func (s *PathServiceSuite) TestSwampDetour() {
	id := s.newSession("detour")

	resp, err := s.svc.FindPath(s.ctx, id)
	s.Require().NoError(err)
	s.True(resp.Result.Found)
	s.Equal("dijkstra", resp.Result.Strategy)
	s.Empty(resp.Result.Heuristic)
	s.Equal(4.0, resp.Result.TotalCost)
	s.Equal("Tile_0_0 -> Tile_1_0 -> Tile_2_0 -> Tile_2_1 -> Tile_2_2", resp.Result.PathString)
}

func (s *PathServiceSuite) TestEditTile() {
	id := s.newSession("")

	state, err := s.svc.EditTile(s.ctx, id, 2, 2, "wall")
	s.Require().NoError(err)
	kind, ok := state.Tile(grid.Coord{X: 2, Y: 2})
	s.True(ok)
	s.Equal("wall", string(kind))

	_, err = s.svc.EditTile(s.ctx, id, 2, 2, "lava")
	s.ErrorIs(err, service.ErrInvalidInput)

	_, err = s.svc.EditTile(s.ctx, id, 9, 9, "swamp")
	s.ErrorIs(err, service.ErrInvalidInput)

	_, err = s.svc.SelectStart(s.ctx, id, 2, 2)
	s.ErrorIs(err, service.ErrInvalidInput)
	s.ErrorIs(err, engine.ErrWallSelected)
}

func (s *PathServiceSuite) TestConfigureValidatesBothFields() {
	id := s.newSession("")

	_, err := s.svc.Configure(s.ctx, id, service.Settings{Strategy: "bfs", Heuristic: "teleport"})
	s.Require().ErrorIs(err, service.ErrInvalidInput)

	state, err := s.svc.GetState(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(search.AStar, state.Strategy)

	state, err = s.svc.Configure(s.ctx, id, service.Settings{Strategy: "a*", Heuristic: "euclidean"})
	s.Require().NoError(err)
	s.Equal(search.AStar, state.Strategy)
	s.Equal("euclidean", string(state.Heuristic))

	state, err = s.svc.Configure(s.ctx, id, service.Settings{Strategy: "bfs"})
	s.Require().NoError(err)
	s.Equal(search.BFS, state.Strategy)
	s.Equal("euclidean", string(state.Heuristic))
}

func (s *PathServiceSuite) TestCompareKeepsState() {
	id := s.newSession("detour")

	resp, err := s.svc.Compare(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 4)
	s.Equal(0, resp.Start.X)
	s.Equal(2, resp.Goal.Y)

	for _, r := range resp.Results {
		s.True(r.Found, r.Strategy)
	}

	state, err := s.svc.GetState(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(engine.Idle, state.State)
	s.Nil(state.LastResult)
}

func (s *PathServiceSuite) TestResetAndRegenerate() {
	id := s.newSession("detour")

	_, err := s.svc.FindPath(s.ctx, id)
	s.Require().NoError(err)

	state, err := s.svc.Reset(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(engine.Idle, state.State)
	s.Nil(state.Start)
	s.Nil(state.LastResult)
	s.Equal([]string{"OOO", "OOO", "OOO"}, state.Layout)

	state, err = s.svc.Regenerate(s.ctx, id, 7, 4)
	s.Require().NoError(err)
	s.Equal(7, state.Width)
	s.Equal(4, state.Height)

	_, err = s.svc.Regenerate(s.ctx, id, 0, 4)
	s.ErrorIs(err, service.ErrInvalidInput)
}

func (s *PathServiceSuite) TestListAndDeleteSessions() {
	first := s.newSession("")
	second := s.newSession("detour")

	sessions, err := s.svc.ListSessions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	ids := []string{sessions[0].ID, sessions[1].ID}
	s.ElementsMatch([]string{first, second}, ids)

	s.Require().NoError(s.svc.DeleteSession(s.ctx, first))
	_, err = s.svc.GetSession(s.ctx, first)
	s.ErrorIs(err, service.ErrNotFound)
}

func (s *PathServiceSuite) TestSaveMap() {
	err := s.svc.SaveMap(s.ctx, "", engine.DefaultMapConfig())
	s.ErrorIs(err, service.ErrInvalidInput)

	err = s.svc.SaveMap(s.ctx, "broken", &engine.MapConfig{Name: "broken", Layout: []string{"..", "."}})
	s.ErrorIs(err, service.ErrInvalidInput)

	cfg := &engine.MapConfig{Name: "tiny", Layout: []string{"SG"}}
	s.Require().NoError(s.svc.SaveMap(s.ctx, "tiny", cfg))
	s.Equal([]string{"tiny"}, s.configs.saved)

	got, err := s.svc.GetMap(s.ctx, "tiny")
	s.Require().NoError(err)
	s.Equal(cfg, got)
}

func TestNoPathIsNotAnError(t *testing.T) {
	configs := newMemConfigs()
	configs.maps["sealed"] = &engine.MapConfig{
		Name: "sealed",
		Layout: []string{
			"..#G",
			"..##",
			"S...",
		},
	}
	svc := service.NewPathService(session.NewManagerWithLogger(ctxlog.Discard()), configs)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "sealed")
	require.NoError(t, err)

	resp, err := svc.FindPath(ctx, info.ID)
	require.NoError(t, err)
	require.False(t, resp.Result.Found)
	require.Empty(t, resp.Result.Path)
	require.Zero(t, resp.Result.TotalCost)
	require.Equal(t, 8, resp.Result.NodesExplored)
	require.Contains(t, resp.Result.Message, "no path found")
	require.Equal(t, engine.Resolved, resp.State.State)
}

func TestConcurrentRequestsOnOneSession(t *testing.T) {
	svc := service.NewPathService(session.NewManagerWithLogger(ctxlog.Discard()), newMemConfigs())
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "detour")
	require.NoError(t, err)
	created := info.LastAccessedAt

	var wg sync.WaitGroup
	errs := make(chan error, 8*50*3)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.GetSession(ctx, info.ID); err != nil {
					errs <- err
				}
				if _, err := svc.ListSessions(ctx); err != nil {
					errs <- err
				}
				if _, err := svc.SelectStart(ctx, info.ID, worker%2, 0); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent request failed: %v", err)
	}

	got, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	require.False(t, got.LastAccessedAt.Before(created))
	require.WithinDuration(t, time.Now(), got.LastAccessedAt, time.Minute)
}
