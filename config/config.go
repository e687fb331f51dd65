package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds every tunable parameter of a capture session.
type Config struct {
	// Capture source.
	Interface     string `yaml:"interface"`
	CaptureFilter string `yaml:"capture_filter"`
	TsharkPath    string `yaml:"tshark_path"`

	// Safety bounds passed to the dissector process.
	CaptureDuration time.Duration `yaml:"capture_duration"`
	MaxFileSizeKB   int           `yaml:"max_file_size_kb"`

	// Media classification.
	MediaPorts        []int `yaml:"media_ports"`
	RTPPortMin        int   `yaml:"rtp_port_min"`
	RTPPortMax        int   `yaml:"rtp_port_max"`
	MediaPayloadTypes []int `yaml:"media_payload_types"`

	// Metric windows.
	JitterMaxSamples int           `yaml:"jitter_max_samples"`
	JitterTrimTo     int           `yaml:"jitter_trim_to"`
	BitrateWindow    time.Duration `yaml:"bitrate_window"`

	// Memory bounds.
	QueueCapacity int `yaml:"queue_capacity"`
	MaxBufferSize int `yaml:"max_buffer_size"`
}

// Default returns the standard configuration: RTSP/HTTP/RTMP media ports,
// the 16384..32767 ephemeral RTP range, common video payload types, a
// 1000/500 jitter window, a 10 s bitrate window, a 10000-event queue, and
// a 1 MiB extractor buffer.
func Default() *Config {
	return &Config{
		Interface:         "wlan0",
		TsharkPath:        "tshark",
		CaptureDuration:   time.Hour,
		MaxFileSizeKB:     100000,
		MediaPorts:        []int{554, 8000, 8080, 1935},
		RTPPortMin:        16384,
		RTPPortMax:        32767,
		MediaPayloadTypes: []int{96, 97, 98, 99, 26},
		JitterMaxSamples:  1000,
		JitterTrimTo:      500,
		BitrateWindow:     10 * time.Second,
		QueueCapacity:     10000,
		MaxBufferSize:     1024 * 1024,
	}
}

// Load reads a YAML file and applies it on top of Default. Fields absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.Interface == "" {
		return fmt.Errorf("capture interface must not be empty")
	}
	if c.RTPPortMin <= 0 || c.RTPPortMax < c.RTPPortMin {
		return fmt.Errorf("invalid RTP port range [%d, %d]", c.RTPPortMin, c.RTPPortMax)
	}
	if c.JitterTrimTo <= 0 || c.JitterMaxSamples < c.JitterTrimTo {
		return fmt.Errorf("jitter window %d must be at least trim size %d",
			c.JitterMaxSamples, c.JitterTrimTo)
	}
	if c.BitrateWindow <= 0 {
		return fmt.Errorf("bitrate window must be positive")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if c.MaxBufferSize < 2 {
		return fmt.Errorf("extractor buffer size must be at least 2 bytes")
	}
	for _, pt := range c.MediaPayloadTypes {
		if pt < 0 || pt > 127 {
			return fmt.Errorf("payload type %d outside 0..127", pt)
		}
	}
	return nil
}
