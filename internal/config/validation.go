// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"strings"

	platformnet "github.com/ManuGH/srtcheck/internal/platform/net"
	"github.com/rs/zerolog"
)

// ValidationError is a single invalid field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// Validate checks the effective configuration and joins every problem found.
func Validate(cfg AppConfig) error {
	var errs []error

	if err := validateBaseURL(cfg.APIBaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "APIBaseURL", Value: cfg.APIBaseURL, Message: err.Error()})
	}
	if cfg.HTTPTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "HTTPTimeout", Value: cfg.HTTPTimeout, Message: "must be positive"})
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, ValidationError{Field: "LogLevel", Value: cfg.LogLevel, Message: "unknown level"})
	}
	if strings.TrimSpace(cfg.FFmpegBin) == "" {
		errs = append(errs, ValidationError{Field: "FFmpegBin", Value: cfg.FFmpegBin, Message: "must not be empty"})
	}
	if strings.TrimSpace(cfg.CaptureDevice) == "" {
		errs = append(errs, ValidationError{Field: "CaptureDevice", Value: cfg.CaptureDevice, Message: "must not be empty"})
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "grpc", "http":
		default:
			errs = append(errs, ValidationError{Field: "Tracing.Exporter", Value: cfg.Tracing.Exporter, Message: "must be grpc or http"})
		}
		if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
			errs = append(errs, ValidationError{Field: "Tracing.SamplingRate", Value: cfg.Tracing.SamplingRate, Message: "must be within [0,1]"})
		}
	}

	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	_, err := platformnet.ParseBaseURL(raw)
	return err
}
