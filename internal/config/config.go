package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.guestfeed/config.toml.
type Config struct {
	DefaultWorkspace string        `toml:"default_workspace"`
	Feed             FeedConfig    `toml:"feed"`
	Metrics          MetricsConfig `toml:"metrics"`
	Ingest           IngestConfig  `toml:"ingest"`
}

// FeedConfig tunes the feed controller and its clients.
type FeedConfig struct {
	PageLength      int      `toml:"page_length"`
	WatchInterval   Duration `toml:"watch_interval"`
	Timezone        string   `toml:"timezone"`
	DateLayouts     []string `toml:"date_layouts"`
	MinStoreVersion uint     `toml:"min_store_version"`
}

// MetricsConfig enables the Prometheus listener when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// IngestConfig enables the AMQP consumer when AMQPURL is set.
type IngestConfig struct {
	AMQPURL           string `toml:"amqp_url"`
	Exchange          string `toml:"exchange"`
	Queue             string `toml:"queue"`
	RoutingKey        string `toml:"routing_key"`
	BookingRoutingKey string `toml:"booking_routing_key"`
	Prefetch          int    `toml:"prefetch"`
}

// Duration is a time.Duration written as a string such as "60s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultWorkspace: "main",
		Feed: FeedConfig{
			PageLength:      6,
			WatchInterval:   Duration{60 * time.Second},
			Timezone:        "Local",
			DateLayouts:     []string{"2006-01-02", "02/01/2006"},
			MinStoreVersion: 1,
		},
		Ingest: IngestConfig{
			Exchange:          "guestfeed",
			Queue:             "guestfeed.inbound",
			RoutingKey:        "guest.message.#",
			BookingRoutingKey: "booking.#",
			Prefetch:          10,
		},
	}
}

// Load reads config from path on top of Default. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// fillDefaults restores values a file set to their zero value.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Feed.PageLength <= 0 {
		c.Feed.PageLength = def.Feed.PageLength
	}
	if c.Feed.WatchInterval.Duration <= 0 {
		c.Feed.WatchInterval = def.Feed.WatchInterval
	}
	if c.Feed.Timezone == "" {
		c.Feed.Timezone = def.Feed.Timezone
	}
	if len(c.Feed.DateLayouts) == 0 {
		c.Feed.DateLayouts = def.Feed.DateLayouts
	}
	if c.Ingest.Prefetch <= 0 {
		c.Ingest.Prefetch = def.Ingest.Prefetch
	}
}

// Location resolves the configured time zone.
func (f FeedConfig) Location() (*time.Location, error) {
	switch f.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", f.Timezone, err)
	}
	return loc, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
