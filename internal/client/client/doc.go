// Package client is the client side of the HomeKeeper wire protocol.
//
// # Overview
//
// The package provides:
//  1. The Client interface: identity (Register, GetSalt, Login, Logout),
//     liveness (Ping) and backup transport (PushBackup, GetLatestBackup,
//     GetBackup, ListBackups).
//  2. GRPCClient, which manages the connection, injects the access token
//     through an interceptor, refreshes an expired token once and maps gRPC
//     status codes to the error taxonomy in internal/common.
//  3. InitDatabase and RunMigrations, which open the local SQLite database
//     and apply the embedded goose migrations.
//
// # Error Handling
//
// Status codes map as follows: Unauthenticated to ErrUnauthorized (or
// common.ErrInvalidCredentials on a failed login), PermissionDenied to
// common.ErrForbidden, NotFound to common.ErrNotFound, AlreadyExists to
// common.ErrAlreadyExists, InvalidArgument to common.ErrValidation, and
// Unavailable or DeadlineExceeded to ErrUnavailable. Anything else wraps
// common.ErrTransportFailure.
package client
