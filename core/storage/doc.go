// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so that both AWS
// S3 and self-hosted MinIO can serve source files and receive archived run
// reports. Sources are addressed as s3://bucket/key (see ParseLocation).
// Missing buckets and keys are reported as ErrNotFound.
//
// # Archive
//
// Archive keeps one JSON report per sync run under a key prefix:
//
//	archive := storage.NewArchive(client, "table-sync", "reports/")
//	key, err := archive.Save(ctx, runID, reportJSON)
package storage
