package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current camera configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (for applying to the capture device)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with the given config.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Quality returns the current JPEG quality.
func (m *Manager) Quality() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Quality
}

// SetConfig replaces the camera configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig applies runtime-tunable fields from a JSON-style map.
// Source and resolution are fixed once capture is open; a preset only
// contributes its framerate, quality and buffer size.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg.Framerate = preset.Framerate
		cfg.Quality = preset.Quality
		cfg.BufferSize = preset.BufferSize
	}

	for key, value := range params {
		switch key {
		case "preset":
		case "framerate":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("framerate: expected a number, got %T", value)
			}
			cfg.Framerate = v
		case "quality":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("quality: expected a number, got %T", value)
			}
			cfg.Quality = v
		case "buffer_size":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("buffer_size: expected a number, got %T", value)
			}
			cfg.BufferSize = v
		default:
			return fmt.Errorf("%s cannot be changed at runtime", key)
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	data, _ := json.Marshal(m.GetConfig())
	var result map[string]interface{}
	json.Unmarshal(data, &result)
	return result
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
