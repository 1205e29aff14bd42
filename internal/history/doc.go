// Package history persists a record of every simulation run in SQLite.
//
// The store lives at <state_dir>/history.db and is opened with WAL journaling
// and a busy timeout so a CLI listing runs does not block a simulation that
// is recording one. Schema changes bump schemaVersion; an older database is
// rejected with ErrSchemaMismatch and must be cleared.
package history
