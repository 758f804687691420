package source

import "fmt"

// Config holds the source location and its zones.
type Config struct {
	// Path is a local file path or an s3://bucket/key object URL.
	Path string `mapstructure:"path" default:""`
	// FrozenZone holds the identity columns, "start:end" or a single index.
	FrozenZone string `mapstructure:"frozen_zone" default:"0:5"`
	// DataZone holds the value columns.
	DataZone string `mapstructure:"data_zone" default:"6:25"`
}

// Options parses the configured zones.
func (c Config) Options() (Options, error) {
	frozen, err := ParseZone(c.FrozenZone)
	if err != nil {
		return Options{}, fmt.Errorf("frozen zone: %w", err)
	}
	data, err := ParseZone(c.DataZone)
	if err != nil {
		return Options{}, fmt.Errorf("data zone: %w", err)
	}
	return Options{FrozenZone: frozen, DataZone: data}, nil
}
