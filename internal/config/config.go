// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Defaults.
const (
	DefaultAPIBaseURL     = "http://localhost:3000"
	DefaultCaptureFormat  = "v4l2"
	DefaultCaptureDevice  = "/dev/video0"
	DefaultHTTPTimeout    = 60 * time.Second
	DefaultTracingSampler = 1.0
)

// AppConfig is the effective client configuration.
type AppConfig struct {
	Version string

	// APIBaseURL is the analysis service root, e.g. http://localhost:3000.
	APIBaseURL  string
	HTTPTimeout time.Duration

	LogLevel   string
	LogService string

	FFmpegBin     string
	FFprobeBin    string
	CaptureFormat string
	CaptureDevice string

	// ArchivePath enables the SQLite report archive when non-empty.
	ArchivePath string

	// MetricsListen enables the /metrics endpoint when non-empty.
	MetricsListen string

	Tracing TracingConfig
}

// TracingConfig mirrors telemetry.Config.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled,omitempty"`
	Exporter     string  `yaml:"exporter,omitempty"`
	Endpoint     string  `yaml:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty"`
}

// FileConfig represents the YAML configuration structure.
type FileConfig struct {
	APIBaseURL  string        `yaml:"apiBaseUrl,omitempty"`
	HTTPTimeout string        `yaml:"httpTimeout,omitempty"`
	LogLevel    string        `yaml:"logLevel,omitempty"`
	LogService  string        `yaml:"logService,omitempty"`
	FFmpeg      FFmpegConfig  `yaml:"ffmpeg,omitempty"`
	Capture     CaptureConfig `yaml:"capture,omitempty"`
	ArchivePath string        `yaml:"archivePath,omitempty"`
	Metrics     MetricsConfig `yaml:"metrics,omitempty"`
	Tracing     TracingConfig `yaml:"tracing,omitempty"`
}

// FFmpegConfig locates the ffmpeg tools.
type FFmpegConfig struct {
	Bin        string `yaml:"bin,omitempty"`
	FFprobeBin string `yaml:"ffprobeBin,omitempty"`
}

// CaptureConfig selects the live input.
type CaptureConfig struct {
	Format string `yaml:"format,omitempty"`
	Device string `yaml:"device,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}
