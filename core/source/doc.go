// Package source reads the spreadsheet rows that a sync run pushes to a
// bitable table.
//
// A source is a CSV file whose first line holds the headers. Two column
// zones are cut out of every line: the frozen zone carries the identity
// columns and the data zone carries the payload. Zones are 0-based column
// ranges written as "start:end" (inclusive) or a single index.
//
// Files are read from the local filesystem or, for s3://bucket/key
// locations, from object storage. UTF-8 (with or without BOM), UTF-16 with
// BOM and GB18030 inputs are decoded to UTF-8 before parsing.
package source
