// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		envSet       bool
		want         string
	}{
		{name: "environment variable set", key: "TEST_STRING", defaultValue: "default", envValue: "from-env", envSet: true, want: "from-env"},
		{name: "environment variable not set", key: "TEST_STRING_UNSET", defaultValue: "default", want: "default"},
		{name: "environment variable empty string", key: "TEST_STRING_EMPTY", defaultValue: "default", envValue: "", envSet: true, want: "default"},
		{name: "sensitive variable (token)", key: "TEST_API_TOKEN", defaultValue: "default", envValue: "secret123", envSet: true, want: "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}
			assert.Equal(t, tt.want, ParseString(tt.key, tt.defaultValue))
		})
	}
}

func TestParseInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "forty")
	assert.Equal(t, 42, ParseInt("TEST_INT", 1))
	assert.Equal(t, 1, ParseInt("TEST_INT_BAD", 1))
	assert.Equal(t, 7, ParseInt("TEST_INT_UNSET", 7))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_DUR_BAD", "soon")
	assert.Equal(t, 90*time.Second, ParseDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, ParseDuration("TEST_DUR_BAD", time.Second))
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES"} {
		t.Setenv("TEST_BOOL", v)
		assert.True(t, ParseBool("TEST_BOOL", false), v)
	}
	for _, v := range []string{"false", "0", "no"} {
		t.Setenv("TEST_BOOL", v)
		assert.False(t, ParseBool("TEST_BOOL", true), v)
	}
	t.Setenv("TEST_BOOL", "maybe")
	assert.True(t, ParseBool("TEST_BOOL", true))
}

func TestParseFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_FLOAT_BAD", "quarter")
	assert.InDelta(t, 0.25, ParseFloat("TEST_FLOAT", 1), 1e-9)
	assert.InDelta(t, 1.0, ParseFloat("TEST_FLOAT_BAD", 1), 1e-9)
}
