package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerPicksHandlerFromConfig(t *testing.T) {
	cases := []struct {
		name     string
		cfg      *Config
		wantJSON bool
	}{
		{"nil config", nil, false},
		{"pretty dev", &Config{AppEnv: "development", LogFormat: "pretty"}, false},
		{"explicit json", &Config{AppEnv: "development", LogFormat: "json"}, true},
		{"production forces json", &Config{AppEnv: "production", LogFormat: "pretty"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := NewLogger(tc.cfg)
			_, isJSON := logger.Handler().(*slog.JSONHandler)
			require.Equal(t, tc.wantJSON, isJSON)
		})
	}
}
