// Package main hosts the ripwatch CLI entrypoint and command graph.
//
// The cobra command tree translates terminal invocations into RPC calls
// against ripwatchd: daemon lifecycle, rip history, drive control, log
// tailing, and configuration scaffolding. Commands fall back to direct file
// and database access when the daemon is not running, so status, history,
// and logs work on a cold system too.
package main
