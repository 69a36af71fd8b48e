// Package notifications delivers rip lifecycle events via ntfy.
//
// The default implementation posts to the topic configured in config.toml and
// gracefully degrades to a no-op when no topic is set. Sessions emit a small
// fixed set of milestones (detected, started, completed, failed, duplicate)
// so subscribers get consistent messages without HTTP glue in the state
// machine.
package notifications
