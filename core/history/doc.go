// Package history records sync runs in a SQL database through GORM.
//
// A SyncRun carries the run's counters and status; its RunEvents keep the
// coercions, relation writes and row errors of that run. Store works on
// mysql and sqlite alike.
package history
