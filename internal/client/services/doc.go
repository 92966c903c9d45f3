// Package services contains application services for the HomeKeeper client.
//
// RemoteBackupService wraps the transport client with identity state, the
// Codec and a failure classification table. Every remote operation returns
// a Result instead of an error so callers can render the outcome directly.
package services
