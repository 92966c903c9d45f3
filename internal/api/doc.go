// Package api is the wire contract between the HomeKeeper client and the
// backup server: request and response messages, the gRPC service
// descriptor, a client stub and the message codec.
//
// Messages are plain Go structs carried as JSON (content-subtype "json");
// protobuf well-known types such as emptypb.Empty travel as protojson. The
// codec registers itself on import, so both ends only need to import this
// package.
package api
