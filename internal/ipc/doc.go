// Package ipc exposes the daemon over a unix domain socket so the CLI can
// query status, tail logs, and drive lifecycle actions without a TCP port.
// The transport is net/rpc with JSON codecs; every request/response pair is
// a plain struct in types.go.
package ipc
