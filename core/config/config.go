package config

import (
	"reflect"
	"strings"

	"table-sync/core/bitable"
	"table-sync/core/database"
	"table-sync/core/logger"
	"table-sync/core/server"
	"table-sync/core/source"
	"table-sync/core/storage"
	"table-sync/core/telemetry"
	"table-sync/feature/flush"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Bitable holds the remote app credentials and request policy.
	Bitable bitable.Config `mapstructure:"bitable"`
	// Source holds the default source location and its zones.
	Source source.Config `mapstructure:"source"`
	// Sync holds the sync engine settings.
	Sync flush.Config `mapstructure:"sync"`
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run history database.
	Database database.Config `mapstructure:"database"`
	// Telemetry holds configuration for metric export.
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// Settings returns the part of the configuration the sync service needs.
func (c *Config) Settings() flush.Settings {
	return flush.Settings{Bitable: c.Bitable, Source: c.Source, Sync: c.Sync}
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. BITABLE_APP_ID -> bitable.app_id)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
