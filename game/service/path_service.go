package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wricardo/tile-pathfinder/game/engine"
)

// Error classes returned by PathService
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// PathService defines all pathfinding operations
type PathService interface {
	// Session management
	CreateSession(ctx context.Context, mapName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Board editing
	EditTile(ctx context.Context, sessionID string, x, y int, kind string) (*engine.Snapshot, error)
	SelectStart(ctx context.Context, sessionID string, x, y int) (*engine.Snapshot, error)
	SelectGoal(ctx context.Context, sessionID string, x, y int) (*engine.Snapshot, error)
	Configure(ctx context.Context, sessionID string, settings Settings) (*engine.Snapshot, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Regenerate(ctx context.Context, sessionID string, width, height int) (*engine.Snapshot, error)

	// Runs
	FindPath(ctx context.Context, sessionID string) (*RunResponse, error)
	Compare(ctx context.Context, sessionID string) (*CompareResponse, error)
	GetState(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Map library
	ListMaps(ctx context.Context) ([]*MapInfo, error)
	GetMap(ctx context.Context, mapName string) (*engine.MapConfig, error)
	SaveMap(ctx context.Context, mapName string, config *engine.MapConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, mapID string, config *engine.MapConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager loads maps from the map library
type ConfigManager interface {
	LoadConfig(name string) (*engine.MapConfig, error)
	ListConfigs() ([]*MapInfo, error)
	GetDefault() *engine.MapConfig
	SaveConfig(name string, config *engine.MapConfig) error
}

// Session is one live board. Requests on the same session run concurrently;
// the access time is read through LastAccessed.
type Session struct {
	ID        string
	MapID     string
	Engine    *engine.Engine
	Config    *engine.MapConfig
	CreatedAt time.Time

	lastAccessed atomic.Int64
}

// Touch records t as the last access time
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}

// LastAccessed returns the last access time
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// classify wraps engine errors into the service error classes
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConflict):
		return err
	case engine.IsConflict(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case engine.IsInvalidInput(err):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
