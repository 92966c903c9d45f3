// Package kv is the local storage medium: a string-keyed table of opaque
// values in the client's SQLite database.
//
// The repository can be given a byte quota. A write that would grow the
// total stored size past it fails with common.ErrQuotaExceeded and leaves
// the previous value in place, the way a browser's local storage rejects
// writes when full. A disk-full error from SQLite maps to the same error.
package kv
