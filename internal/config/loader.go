// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load runs Defaults -> File (strict) -> Env -> Validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults(l.version)

	if l.configPath != "" {
		fc, err := l.loadFile(l.configPath)
		if err != nil {
			return AppConfig{}, err
		}
		if err := mergeFile(&cfg, fc); err != nil {
			return AppConfig{}, fmt.Errorf("config file %s: %w", l.configPath, err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.FFprobeBin = ResolveFFprobeBin(cfg.FFprobeBin, cfg.FFmpegBin)
	if cfg.FFprobeBin == "" {
		cfg.FFprobeBin = "ffprobe"
	}

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func defaults(version string) AppConfig {
	return AppConfig{
		Version:       version,
		APIBaseURL:    DefaultAPIBaseURL,
		HTTPTimeout:   DefaultHTTPTimeout,
		LogLevel:      "info",
		LogService:    "srtcheck",
		FFmpegBin:     "ffmpeg",
		CaptureFormat: DefaultCaptureFormat,
		CaptureDevice: DefaultCaptureDevice,
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: DefaultTracingSampler,
		},
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied config path
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseFile(raw)
}

// ParseFile decodes YAML strictly: unknown keys are errors.
func ParseFile(raw []byte) (*FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return &fc, nil
		}
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &fc, nil
}

func mergeFile(cfg *AppConfig, fc *FileConfig) error {
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogService, fc.LogService)
	setString(&cfg.FFmpegBin, fc.FFmpeg.Bin)
	setString(&cfg.FFprobeBin, fc.FFmpeg.FFprobeBin)
	setString(&cfg.CaptureFormat, fc.Capture.Format)
	setString(&cfg.CaptureDevice, fc.Capture.Device)
	setString(&cfg.ArchivePath, fc.ArchivePath)
	setString(&cfg.MetricsListen, fc.Metrics.Listen)

	if s := strings.TrimSpace(fc.HTTPTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("httpTimeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}

	if fc.Tracing.Enabled {
		cfg.Tracing.Enabled = true
	}
	setString(&cfg.Tracing.Exporter, fc.Tracing.Exporter)
	setString(&cfg.Tracing.Endpoint, fc.Tracing.Endpoint)
	if fc.Tracing.SamplingRate > 0 {
		cfg.Tracing.SamplingRate = fc.Tracing.SamplingRate
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.APIBaseURL = l.envString("SRT_API_URL", cfg.APIBaseURL)
	cfg.HTTPTimeout = l.envDuration("SRT_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.LogLevel = l.envString("SRT_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("SRT_LOG_SERVICE", cfg.LogService)
	cfg.FFmpegBin = l.envString("SRT_FFMPEG_BIN", cfg.FFmpegBin)
	cfg.FFprobeBin = l.envString("SRT_FFPROBE_BIN", cfg.FFprobeBin)
	cfg.CaptureFormat = l.envString("SRT_CAPTURE_FORMAT", cfg.CaptureFormat)
	cfg.CaptureDevice = l.envString("SRT_CAPTURE_DEVICE", cfg.CaptureDevice)
	cfg.ArchivePath = l.envString("SRT_ARCHIVE_PATH", cfg.ArchivePath)
	cfg.MetricsListen = l.envString("SRT_METRICS_LISTEN", cfg.MetricsListen)
	cfg.Tracing.Enabled = l.envBool("SRT_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString("SRT_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString("SRT_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat("SRT_TRACING_SAMPLE_RATE", cfg.Tracing.SamplingRate)
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}
