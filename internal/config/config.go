// Package config loads the go-sargan configuration from a YAML file,
// an optional .env file and SARGAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/teslashibe/go-sargan/pkg/camera"
	"github.com/teslashibe/go-sargan/pkg/detection"
	"github.com/teslashibe/go-sargan/pkg/guidance"
	"github.com/teslashibe/go-sargan/pkg/tracking"
	"github.com/teslashibe/go-sargan/pkg/web"
	"gopkg.in/yaml.v3"
)

// Web holds the HTTP surface settings.
type Web struct {
	Addr       string `json:"addr" yaml:"addr"`
	StreamPath string `json:"stream_path" yaml:"stream_path"`
}

// Log holds logger settings.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// File is the full configuration document.
type File struct {
	Guidance  guidance.Config  `json:"guidance" yaml:"guidance"`
	Camera    camera.Config    `json:"camera" yaml:"camera"`
	Detection detection.Config `json:"detection" yaml:"detection"`
	Tracking  tracking.Config  `json:"tracking" yaml:"tracking"`
	Web       Web              `json:"web" yaml:"web"`
	Log       Log              `json:"log" yaml:"log"`

	// Classes is the class-names file; empty uses the built-in COCO list.
	Classes string `json:"classes" yaml:"classes"`

	// Journal is the command log path; empty logs to stdout only.
	Journal string `json:"journal" yaml:"journal"`

	// SnapshotURL switches the camera to polling a still-image endpoint.
	SnapshotURL string `json:"snapshot_url" yaml:"snapshot_url"`
}

// Default returns the configuration of the reference rig.
func Default() File {
	srv := web.DefaultOptions()
	return File{
		Guidance:  guidance.DefaultConfig(),
		Camera:    camera.DefaultConfig(),
		Detection: detection.DefaultConfig(),
		Tracking:  tracking.DefaultConfig(),
		Web:       Web{Addr: srv.Addr, StreamPath: srv.StreamPath},
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep
// their default value. An empty path returns the defaults.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from SARGAN_* environment variables.
func (f *File) ApplyEnv() {
	f.Detection.ModelPath = Env("MODEL", f.Detection.ModelPath)
	f.Detection.Runtime = Env("RUNTIME", f.Detection.Runtime)
	f.Detection.Target = Env("TARGET", f.Detection.Target)
	f.Detection.LibraryPath = Env("ORT_LIB", f.Detection.LibraryPath)
	f.Classes = Env("CLASSES", f.Classes)

	f.Camera.Device = Env("DEVICE", f.Camera.Device)
	f.Camera.Quality = EnvInt("QUALITY", f.Camera.Quality)
	f.SnapshotURL = Env("SNAPSHOT_URL", f.SnapshotURL)

	f.Guidance.CameraFOV = EnvFloat("FOV", f.Guidance.CameraFOV)
	f.Guidance.SightHalfWidth = EnvInt("SIGHT", f.Guidance.SightHalfWidth)

	f.Web.Addr = Env("ADDR", f.Web.Addr)
	f.Web.StreamPath = Env("STREAM_PATH", f.Web.StreamPath)

	f.Log.Level = Env("LOG_LEVEL", f.Log.Level)
	f.Log.Format = Env("LOG_FORMAT", f.Log.Format)
	f.Journal = Env("JOURNAL", f.Journal)

	f.Tracking.Labels = EnvBool("LABELS", f.Tracking.Labels)
}

// Validate checks every section and returns one error listing all
// problems, or nil.
func (f *File) Validate() error {
	var problems []string
	add := func(section string, errs []string) {
		for _, e := range errs {
			problems = append(problems, section+": "+e)
		}
	}

	add("guidance", f.Guidance.Validate())
	add("camera", f.Camera.Validate())
	add("detection", f.Detection.Validate())
	add("tracking", f.Tracking.Validate())

	if f.Detection.InputSize != f.Guidance.InputSize {
		problems = append(problems, fmt.Sprintf("detection.input_size %d does not match guidance.input_size %d",
			f.Detection.InputSize, f.Guidance.InputSize))
	}
	if f.Web.Addr == "" {
		problems = append(problems, "web: addr must not be empty")
	}
	if !strings.HasPrefix(f.Web.StreamPath, "/") {
		problems = append(problems, "web: stream_path must start with /")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
