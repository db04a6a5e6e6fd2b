// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the client configuration.
//
// Precedence is environment (SRT_*) over an optional YAML file over
// built-in defaults. The file is decoded strictly so typos fail loudly.
// Recording and upload limits are fixed constants in package clip.
package config
