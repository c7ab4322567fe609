// Package history persists one record per subburn run in a SQLite database
// under the state directory. Each record tracks the stage a run reached, the
// artifacts it produced, and the classified error when it failed.
//
// The store mirrors the queue persistence style used elsewhere: WAL journal,
// busy timeout, retries on SQLITE_BUSY, and an embedded schema guarded by a
// version row.
package history
