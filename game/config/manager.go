package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/service"
)

// Map errors wrap the service error classes so callers can map them to
// transport status codes.
var (
	ErrConfigNotFound = fmt.Errorf("map %w", service.ErrNotFound)
	ErrInvalidConfig  = fmt.Errorf("map %w", service.ErrInvalidInput)
)

const (
	extJSON = ".json"
	extHCL  = ".hcl"

	defaultMapName = "classic"
)

// Manager loads and caches map files from a directory
type Manager struct {
	configDir     string
	defaultConfig *engine.MapConfig
	configs       map[string]*engine.MapConfig
	mu            sync.RWMutex
}

// NewManager creates a map library rooted at configDir
func NewManager(configDir string) (*Manager, error) {
	info, err := os.Stat(configDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.MapConfig),
	}
	m.loadDefaultConfig()
	return m, nil
}

// LoadConfig loads a map by name. The name may include its extension; without
// one, name.json is tried before name.hcl.
func (m *Manager) LoadConfig(name string) (*engine.MapConfig, error) {
	id := mapID(name)

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	config, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, exists := m.configs[id]; exists {
		return cached, nil
	}
	m.configs[id] = config
	return config, nil
}

// resolve finds the file backing a map name
func (m *Manager) resolve(name string) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	candidates := []string{name + extJSON, name + extHCL}
	if ext := filepath.Ext(name); ext == extJSON || ext == extHCL {
		candidates = []string{name}
	}

	for _, c := range candidates {
		path := filepath.Join(m.configDir, c)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrConfigNotFound, name)
}

// LoadFile reads and validates a single map file
func LoadFile(path string) (*engine.MapConfig, error) {
	var (
		config engine.MapConfig
		err    error
	)

	switch filepath.Ext(path) {
	case extJSON:
		err = decodeJSON(path, &config)
	case extHCL:
		err = decodeHCL(path, &config)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := engine.ValidateMapConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &config, nil
}

func decodeJSON(path string, config *engine.MapConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func decodeHCL(path string, config *engine.MapConfig) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %w", path, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, config); diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %w", path, diags)
	}
	return nil
}

// ListConfigs describes every valid map in the directory, sorted by ID.
// Invalid files are skipped.
func (m *Manager) ListConfigs() ([]*service.MapInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var maps []*service.MapInfo
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != extJSON && ext != extHCL) {
			continue
		}
		id := mapID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			continue
		}
		seen[id] = true

		maps = append(maps, newMapInfo(entry.Name(), id, config))
	}

	sort.Slice(maps, func(i, j int) bool { return maps[i].MapID < maps[j].MapID })
	return maps, nil
}

func newMapInfo(filename, id string, config *engine.MapConfig) *service.MapInfo {
	info := &service.MapInfo{
		Filename:    filename,
		MapID:       id,
		Name:        config.Name,
		Description: config.Description,
		Width:       config.Width,
		Height:      config.Height,
		Strategy:    config.Strategy,
		Heuristic:   config.Heuristic,
	}
	if len(config.Layout) > 0 {
		info.Height = len(config.Layout)
		info.Width = len(config.Layout[0])
	}
	return info
}

// GetDefault returns the default map
func (m *Manager) GetDefault() *engine.MapConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default map by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached map and reloads the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.MapConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

func (m *Manager) loadDefaultConfig() {
	config, err := m.LoadConfig(defaultMapName)
	if err != nil {
		config = engine.DefaultMapConfig()
		if maps, listErr := m.ListConfigs(); listErr == nil && len(maps) > 0 {
			if first, err := m.LoadConfig(maps[0].Filename); err == nil {
				config = first
			}
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig writes a map as JSON and caches it
func (m *Manager) SaveConfig(name string, config *engine.MapConfig) error {
	if err := engine.ValidateMapConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := mapID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: bad map name %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, id+extJSON), data, 0644); err != nil {
		return fmt.Errorf("failed to write map file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()
	return nil
}

// mapID strips a known extension
func mapID(name string) string {
	switch filepath.Ext(name) {
	case extJSON, extHCL:
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
