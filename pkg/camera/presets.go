package camera

import "sort"

// Preset names for common configurations
const (
	PresetDefault    = "default"
	Preset720p       = "720p"
	Preset1080p      = "1080p"
	PresetLowLatency = "lowlatency"
	PresetBandwidth  = "bandwidth"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		Preset720p:       HD720Config(),
		Preset1080p:      HD1080Config(),
		PresetLowLatency: LowLatencyConfig(),
		PresetBandwidth:  BandwidthConfig(),
	}
}

// PresetNames returns the sorted list of preset names.
func PresetNames() []string {
	names := make([]string, 0, 5)
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// HD720Config returns 1280x720 at 30 FPS.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// HD1080Config returns 1920x1080 at 30 FPS with lighter JPEG compression
// to keep stream size reasonable.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Quality = 80
	return cfg
}

// LowLatencyConfig keeps a single buffered frame so every read is fresh.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.BufferSize = 1
	return cfg
}

// BandwidthConfig trades image quality for a thinner stream.
func BandwidthConfig() Config {
	cfg := DefaultConfig()
	cfg.Framerate = 15
	cfg.Quality = 60
	return cfg
}
