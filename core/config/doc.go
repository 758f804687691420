// Package config loads the table-sync configuration.
//
// Values come from environment variables, optionally seeded from a .env
// file, with defaults taken from the `default` struct tags of each section.
// Nested keys map to upper-case variables joined by underscores, so
// bitable.app_token is read from BITABLE_APP_TOKEN.
//
// # Configuration Structure
//
//   - Bitable: app credentials, base URL and retry policy
//   - Source: default source path and the frozen and data zones
//   - Sync: target table, mode, pacing, batch size and renames
//   - Server: HTTP port, API key and shutdown bound
//   - Storage: S3/MinIO credentials and the report bucket
//   - Database: run history connection
//   - Log: logging level and format
//   - Telemetry: OTLP metric export
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := flush.NewService(cfg.Settings(), deps)
package config
