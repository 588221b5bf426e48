package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-sargan/pkg/detection"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":8080", cfg.Web.Addr)
	require.Equal(t, "/sargan", cfg.Web.StreamPath)
	require.Equal(t, 80.0, cfg.Guidance.CameraFOV)
	require.Equal(t, 50, cfg.Guidance.SightHalfWidth)
	require.Equal(t, "nn/yolov5s.onnx", cfg.Detection.ModelPath)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "sargan.yaml", `
guidance:
  camera_fov: 60
  sight_half_width: 30
camera:
  device: rtsp://10.0.0.2/stream
  framerate: 15
detection:
  runtime: ort
  target: cpu
tracking:
  error_backoff: 250ms
web:
  addr: ":9090"
journal: /tmp/sargan.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 60.0, cfg.Guidance.CameraFOV)
	require.Equal(t, 30, cfg.Guidance.SightHalfWidth)
	require.Equal(t, 0.45, cfg.Guidance.NMSThreshold)
	require.Equal(t, "rtsp://10.0.0.2/stream", cfg.Camera.Device)
	require.Equal(t, 15, cfg.Camera.Framerate)
	require.Equal(t, 90, cfg.Camera.Quality)
	require.Equal(t, detection.RuntimeORT, cfg.Detection.Runtime)
	require.Equal(t, 250*time.Millisecond, cfg.Tracking.ErrorBackoff)
	require.Equal(t, ":9090", cfg.Web.Addr)
	require.Equal(t, "/sargan", cfg.Web.StreamPath)
	require.Equal(t, "/tmp/sargan.log", cfg.Journal)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "guidance: [1, 2"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*File)
		want   string
	}{
		{"fov", func(f *File) { f.Guidance.CameraFOV = 0 }, "guidance: camera_fov"},
		{"quality", func(f *File) { f.Camera.Quality = 0 }, "camera: quality"},
		{"runtime", func(f *File) { f.Detection.Runtime = "tflite" }, "detection: runtime"},
		{"backoff", func(f *File) { f.Tracking.ErrorBackoff = -time.Second }, "tracking: error_backoff"},
		{"input mismatch", func(f *File) { f.Detection.InputSize = 320 }, "does not match"},
		{"addr", func(f *File) { f.Web.Addr = "" }, "web: addr"},
		{"stream path", func(f *File) { f.Web.StreamPath = "sargan" }, "web: stream_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SARGAN_MODEL", "/models/y.onnx")
	t.Setenv("SARGAN_FOV", "62.5")
	t.Setenv("SARGAN_SIGHT", "40")
	t.Setenv("SARGAN_QUALITY", "not-a-number")
	t.Setenv("SARGAN_LABELS", "false")
	t.Setenv("SARGAN_ADDR", "  ")

	cfg := Default()
	cfg.ApplyEnv()

	require.Equal(t, "/models/y.onnx", cfg.Detection.ModelPath)
	require.Equal(t, 62.5, cfg.Guidance.CameraFOV)
	require.Equal(t, 40, cfg.Guidance.SightHalfWidth)
	require.Equal(t, 90, cfg.Camera.Quality)
	require.False(t, cfg.Tracking.Labels)
	require.Equal(t, ":8080", cfg.Web.Addr)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "SARGAN_DEVICE=/dev/video2\nSARGAN_JOURNAL=/var/log/cmd.log\n")
	t.Setenv("SARGAN_DEVICE", "")
	t.Setenv("SARGAN_JOURNAL", "/preset.log")
	os.Unsetenv("SARGAN_DEVICE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	require.Equal(t, "/dev/video2", Env("DEVICE", ""))
	require.Equal(t, "/preset.log", Env("JOURNAL", ""))
}

func TestExampleFileMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "sargan.example.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
