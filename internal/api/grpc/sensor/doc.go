// Package sensor implements the gRPC transport for reading and replacing the
// alarm state.
//
// The service is described by hand on top of the protobuf well-known types
// (google.protobuf.Empty and google.protobuf.Struct), so no generated code is
// needed. It ships with a matching client.
package sensor
