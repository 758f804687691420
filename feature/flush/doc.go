// Package flush syncs a spreadsheet source into a bitable table.
//
// Service.Run sequences one run: it verifies the settings, loads the source,
// fetches the table schema (creating missing columns as text in field mode),
// fetches the existing records, builds the relation lookups, then plans and
// applies the writes through core/reconcile. Every row is keyed by
// IdentityKey, "<企业ID>_<数据集><会计期间><报表类型>", stored in the 数据ID
// field.
//
// Setup failures abort the run and are returned. Row failures are counted
// in Result.Stats.Errors and listed in Result.RowErrors.
//
// Finished runs are recorded in core/history and their JSON report is
// archived in object storage when those are configured.
//
// Service.Check compares the source headers with the table fields without
// writing anything.
//
// # HTTP
//
//	POST /flush            run a sync (one at a time)
//	POST /check            header check
//	GET  /runs             recorded runs
//	GET  /runs/:id         one run with its events
//	GET  /runs/:id/report  archived report
package flush
