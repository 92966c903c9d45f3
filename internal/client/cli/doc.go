// Package cli provides the interactive HomeKeeper command-line client.
//
// It wires configuration, the local SQLite store, the backup service client
// and the sync coordinator, then runs a REPL over them. A background watcher
// pings the server and the prompt shows whether it is reachable.
//
// Key features:
//   - list / add / update / delete records in any collection
//   - settings / set for the free-form settings object
//   - register / login / logout, with a cloud-or-local prompt on conflict
//   - backup / restore [id] / history [n]
//   - stats: local storage and backup counters
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
