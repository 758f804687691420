// Package database opens the GORM connection used by the run history.
//
// Connect supports mysql and sqlite. The sqlite driver takes the file path
// (or ":memory:") from Name and is the default, so a single binary can keep
// history without a server.
//
// GetTableColumns and MissingColumns inspect a table's columns; the history
// store uses them to verify its tables after migration.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Run history disabled", zap.Error(err))
//	}
package database
