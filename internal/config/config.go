package config

import (
	"errors"
	"fmt"
	"time"
)

// Config defines the runtime configuration for the theft monitor.
// Credentials and paths are always injected here; no component holds
// a hard-coded path or secret.
type Config struct {
	SourceURL    string // MJPEG stream URL (http://...) or image directory path
	InferenceURL string // Detection service endpoint

	ConfidenceThreshold  float64       // Minimum detection confidence
	AlertFramesThreshold int           // Consecutive concealed frames before an alert
	AlertCooldown        time.Duration // Minimum gap between two alerts
	HistoryCapacity      int           // Concealment history window size

	SnapshotDir  string // Where alert snapshots are written
	EventLogPath string // SQLite alert journal path ("" disables the journal)

	TelegramToken   string // Bot token ("" disables dispatch)
	TelegramChatID  string // Destination chat
	DispatchTimeout time.Duration

	HTTPAddr    string // Status server address
	MetricsAddr string // Prometheus metrics address
}

// Default returns a config matching the stock detection settings.
func Default() Config {
	return Config{
		ConfidenceThreshold:  0.25,
		AlertFramesThreshold: 3,
		AlertCooldown:        30 * time.Second,
		HistoryCapacity:      10,
		SnapshotDir:          "./alerts",
		EventLogPath:         "./alerts/alerts.db",
		DispatchTimeout:      15 * time.Second,
		HTTPAddr:             ":8081",
		MetricsAddr:          ":9090",
	}
}

// Validate checks the configuration for values the monitor cannot run with.
func (c Config) Validate() error {
	if c.SourceURL == "" {
		return errors.New("config: source is required")
	}
	if c.InferenceURL == "" {
		return errors.New("config: inference endpoint is required")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: confidence threshold %.2f out of range [0,1]", c.ConfidenceThreshold)
	}
	if c.AlertFramesThreshold < 1 {
		return fmt.Errorf("config: alert frames threshold must be >= 1, got %d", c.AlertFramesThreshold)
	}
	if c.AlertCooldown < 0 {
		return fmt.Errorf("config: alert cooldown must not be negative, got %s", c.AlertCooldown)
	}
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("config: history capacity must be >= 1, got %d", c.HistoryCapacity)
	}
	if c.SnapshotDir == "" {
		return errors.New("config: snapshot directory is required")
	}
	return nil
}
