package telemetry

// Config holds configuration for metrics export.
type Config struct {
	// Enabled turns on OTLP metric export.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the OTLP/HTTP collector address (host:port).
	Endpoint string `mapstructure:"endpoint" default:"localhost:4318"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" default:"true"`
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `mapstructure:"service_name" default:"table-sync"`
	// IntervalSeconds is the export period.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"60"`
}
