package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/grid"
	"github.com/wricardo/tile-pathfinder/internal/ctxlog"
)

func createTestConfig() *engine.MapConfig {
	return &engine.MapConfig{
		Name:        "Test Map",
		Description: "Test map",
		Layout: []string{
			"OOOOG",
			"OWWWO",
			"OOOOO",
			"OTTTO",
			"SOOOO",
		},
	}
}

func newTestManager() *Manager {
	return NewManagerWithLogger(ctxlog.Discard())
}

func TestManager_Create(t *testing.T) {
	manager := newTestManager()
	config := createTestConfig()

	t.Run("create with explicit ID", func(t *testing.T) {
		session, err := manager.Create("ab12", "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "ab12" {
			t.Errorf("Expected ID ab12, got %s", session.ID)
		}
		if session.MapID != "test" {
			t.Errorf("Expected map ID test, got %s", session.MapID)
		}
		if session.Engine == nil {
			t.Fatal("Expected engine to be created")
		}
		if session.Engine.State() != engine.Idle {
			t.Errorf("Expected idle engine, got %s", session.Engine.State())
		}
	})

	t.Run("duplicate ID is rejected case-insensitively", func(t *testing.T) {
		_, err := manager.Create("AB12", "test", config)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %q", session.ID)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("a/b", "test", config)
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := manager.Create("", "bad", &engine.MapConfig{Name: "bad", Layout: []string{"OX"}})
		if !errors.Is(err, engine.ErrInvalidMapConfig) {
			t.Errorf("Expected ErrInvalidMapConfig, got %v", err)
		}
	})

	t.Run("nil config uses default board", func(t *testing.T) {
		session, err := manager.Create("", "", nil)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.Config.Name != "default" {
			t.Errorf("Expected default config, got %s", session.Config.Name)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := newTestManager()
	created, _ := manager.Create("CaFe", "test", createTestConfig())

	for _, id := range []string{"CaFe", "cafe", "CAFE"} {
		session, err := manager.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		if session != created {
			t.Errorf("Get(%q) returned a different session", id)
		}
	}

	if _, err := manager.Get("none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := newTestManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("beef", "test", config)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := manager.GetOrCreate("BEEF", "test", config)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first != second {
		t.Error("Expected GetOrCreate to return the existing session")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager := newTestManager()
	manager.Create("dead", "test", createTestConfig())

	if err := manager.Delete("DEAD"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get("dead"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected session to be gone")
	}
	if err := manager.Delete("dead"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := newTestManager()
	for i := 0; i < 3; i++ {
		manager.Create(fmt.Sprintf("s%03d", i), "test", createTestConfig())
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := newTestManager()
	old, _ := manager.Create("old1", "test", createTestConfig())
	manager.Create("new1", "test", createTestConfig())

	old.Touch(time.Now().Add(-2 * time.Hour))

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("old1"); err == nil {
		t.Error("Expected old session to be removed")
	}
	if _, err := manager.Get("new1"); err != nil {
		t.Error("Expected recent session to remain")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := newTestManager()
	session, _ := manager.Create("acce", "test", createTestConfig())
	before := session.LastAccessed()

	time.Sleep(2 * time.Millisecond)
	if err := manager.UpdateLastAccessed("ACCE"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !session.LastAccessed().After(before) {
		t.Error("Expected LastAccessedAt to advance")
	}
	if err := manager.UpdateLastAccessed("none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := newTestManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", "test", config)
			if err != nil {
				errs <- err
				return
			}
			if _, err := manager.Get(strings.ToUpper(session.ID)); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 100 {
		t.Errorf("Expected 100 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := newTestManager()
	config := createTestConfig()

	session1, _ := manager.Create("iso1", "test", config)
	session2, _ := manager.Create("iso2", "test", config)

	if err := session1.Engine.SetTerrain(grid.Coord{X: 1, Y: 0}, grid.Wall); err != nil {
		t.Fatalf("SetTerrain failed: %v", err)
	}
	if _, err := session1.Engine.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	tile, _ := session2.Engine.Tile(grid.Coord{X: 1, Y: 0})
	if tile.Kind != grid.Open {
		t.Error("Session 2 should not see session 1 edits")
	}
	if session2.Engine.State() != engine.Idle {
		t.Error("Session 2 should still be idle")
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := newTestManager()
	config := createTestConfig()

	generatedIDs := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := manager.Create("", "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}
