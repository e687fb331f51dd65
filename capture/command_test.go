package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qoswatch/qoswatch/config"
)

func TestBuildArgs(t *testing.T) {
	cfg := config.Default()
	cfg.Interface = "eth0"

	args := BuildArgs(cfg)

	assert.Contains(t, args, "eth0")
	assert.Contains(t, args, "-l")
	assert.Contains(t, args, "json")
	assert.Contains(t, args, "frame.time_relative")
	assert.Contains(t, args, "rtp.seq")
	assert.Contains(t, args, "duration:3600")
	assert.Contains(t, args, "filesize:100000")
	assert.NotContains(t, args, "-f", "no filter flag without a filter")
}

func TestBuildArgsWithFilter(t *testing.T) {
	cfg := config.Default()
	cfg.CaptureFilter = "udp port 554"

	args := BuildArgs(cfg)

	require.Contains(t, args, "-f")
	assert.Contains(t, args, "udp port 554")
}

func TestSanitizeFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		expected string
	}{
		{"clean filter untouched", "udp port 554", "udp port 554"},
		{"operators preserved", "host 10.0.0.1 && (port 554 || port 8080)", "host 10.0.0.1 && (port 554 || port 8080)"},
		{"shell metacharacters stripped", "udp; rm -rf /tmp", "udp rm -rf tmp"},
		{"quotes and backticks stripped", `port "554" ` + "`id`", "port 554 id"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilter(tt.filter))
		})
	}
}
