package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/service"
)

func createValidConfig() *engine.MapConfig {
	return &engine.MapConfig{
		Name:        "Test Map",
		Description: "Test map",
		Layout: []string{
			"OOOOG",
			"OWWWO",
			"OTTTO",
			"OWWWO",
			"SOOOO",
		},
		Strategy:  "astar",
		Heuristic: "manhattan",
	}
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.MapConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func writeRawFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

const mazeHCL = `
name        = "Maze"
description = "Walls with a swamp shortcut"
strategy    = "dijkstra"
layout = [
  "S.#..",
  ".~#.#",
  "...~G",
]
`

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Classic" {
			t.Errorf("Expected default map 'Classic', got '%s'", got)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in map", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without map files, got error: %v", err)
		}
		defaultConfig := manager.GetDefault()
		if defaultConfig == nil {
			t.Fatal("Expected default map to be available")
		}
		if defaultConfig.Name != engine.DefaultMapConfig().Name {
			t.Errorf("Expected built-in default, got '%s'", defaultConfig.Name)
		}
	})

	t.Run("without classic the first map is the default", func(t *testing.T) {
		dir := t.TempDir()
		b := createValidConfig()
		b.Name = "Bravo"
		writeConfigFile(t, dir, "bravo", b)
		a := createValidConfig()
		a.Name = "Alpha"
		writeConfigFile(t, dir, "alpha", a)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Alpha" {
			t.Errorf("Expected default 'Alpha', got '%s'", got)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	easy := createValidConfig()
	easy.Name = "Easy"
	easy.Strategy = "bfs"
	writeConfigFile(t, dir, "easy", easy)
	writeRawFile(t, dir, "maze.hcl", mazeHCL)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", config.Name)
		}
		if config.Strategy != "bfs" {
			t.Errorf("Expected strategy bfs, got %s", config.Strategy)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("easy.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", config.Name)
		}
	})

	t.Run("load hcl map", func(t *testing.T) {
		config, err := manager.LoadConfig("maze")
		if err != nil {
			t.Fatalf("Failed to load hcl map: %v", err)
		}
		if config.Name != "Maze" {
			t.Errorf("Expected name 'Maze', got '%s'", config.Name)
		}
		if config.Strategy != "dijkstra" {
			t.Errorf("Expected strategy dijkstra, got %s", config.Strategy)
		}
		if len(config.Layout) != 3 || config.Layout[2] != "...~G" {
			t.Errorf("Unexpected layout: %v", config.Layout)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("easy")
		config2, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
		if !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Expected error to wrap service.ErrNotFound, got %v", err)
		}
	})

	t.Run("reject path traversal", func(t *testing.T) {
		for _, name := range []string{"../easy", "sub/easy", ".hidden", ""} {
			if _, err := manager.LoadConfig(name); !errors.Is(err, ErrConfigNotFound) {
				t.Errorf("LoadConfig(%q): expected ErrConfigNotFound, got %v", name, err)
			}
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		writeRawFile(t, dir, "broken.json", `{"name": "Broken", "layout": ["OO", "O"]}`)
		_, err := manager.LoadConfig("broken")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Expected error to wrap service.ErrInvalidInput, got %v", err)
		}
	})

	t.Run("load malformed hcl", func(t *testing.T) {
		writeRawFile(t, dir, "garbled.hcl", `name = "Garbled"` + "\nlayout = [\n")
		if _, err := manager.LoadConfig("garbled"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		writeRawFile(t, dir, "map.yaml", "name: nope")
		if _, err := LoadFile(filepath.Join(dir, "map.yaml")); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(dir, "gone.json")); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("unknown strategy", func(t *testing.T) {
		writeRawFile(t, dir, "odd.hcl", `
name     = "Odd"
width    = 3
height   = 3
strategy = "teleport"
`)
		if _, err := LoadFile(filepath.Join(dir, "odd.hcl")); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("dimensions only", func(t *testing.T) {
		writeRawFile(t, dir, "wide.hcl", `
name   = "Wide"
width  = 12
height = 4
`)
		config, err := LoadFile(filepath.Join(dir, "wide.hcl"))
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if config.Width != 12 || config.Height != 4 {
			t.Errorf("Expected 12x4, got %dx%d", config.Width, config.Height)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"zeta", "alpha"} {
		c := createValidConfig()
		c.Name = name
		writeConfigFile(t, dir, name, c)
	}
	writeRawFile(t, dir, "maze.hcl", mazeHCL)
	writeRawFile(t, dir, "broken.json", `{"layout": ["OO"]}`)
	writeRawFile(t, dir, "notes.txt", "not a map")
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	maps, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}

	want := []string{"alpha", "maze", "zeta"}
	if len(maps) != len(want) {
		t.Fatalf("Expected %d maps, got %d", len(want), len(maps))
	}
	for i, id := range want {
		if maps[i].MapID != id {
			t.Errorf("maps[%d]: expected %s, got %s", i, id, maps[i].MapID)
		}
	}

	maze := maps[1]
	if maze.Filename != "maze.hcl" {
		t.Errorf("Expected filename maze.hcl, got %s", maze.Filename)
	}
	if maze.Width != 5 || maze.Height != 3 {
		t.Errorf("Expected 5x3 from layout, got %dx%d", maze.Width, maze.Height)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "maze.hcl", mazeHCL)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("maze"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if got := manager.GetDefault().Name; got != "Maze" {
		t.Errorf("Expected default 'Maze', got '%s'", got)
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := createValidConfig()
	config.Name = "Saved"
	if err := manager.SaveConfig("saved", config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("Expected saved.json to exist: %v", err)
	}

	manager.RefreshCache()
	loaded, err := manager.LoadConfig("saved")
	if err != nil {
		t.Fatalf("Failed to reload saved map: %v", err)
	}
	if loaded.Name != "Saved" || len(loaded.Layout) != 5 {
		t.Errorf("Saved map did not round trip: %+v", loaded)
	}

	t.Run("invalid map", func(t *testing.T) {
		err := manager.SaveConfig("bad", &engine.MapConfig{Name: "Bad", Width: 0, Height: 7})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("bad name", func(t *testing.T) {
		for _, name := range []string{"", "../escape", ".hidden"} {
			if err := manager.SaveConfig(name, config); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("SaveConfig(%q): expected ErrInvalidConfig, got %v", name, err)
			}
		}
	})
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "maze.hcl", mazeHCL)
	writeConfigFile(t, dir, "classic", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("maze"); err != nil {
				t.Errorf("LoadConfig failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := manager.ListConfigs(); err != nil {
				t.Errorf("ListConfigs failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			manager.RefreshCache()
		}()
	}
	wg.Wait()
}
