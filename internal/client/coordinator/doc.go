// Package coordinator is the single entry point collaborators use to read
// and change local data and to drive cloud backup.
//
// A Coordinator is either anonymous or authenticated. Login and register
// reconcile local and remote data (asking a ConflictResolver when both
// sides have data) and start the auto-backup schedule; logout stops it and
// makes any result still in flight stale. Every mutation is followed by a
// DataChange event carrying the persisted snapshot.
//
// Conflicts are resolved for the whole snapshot: the side not chosen is
// overwritten, there is no per-record merge.
package coordinator
