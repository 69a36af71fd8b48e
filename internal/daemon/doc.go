// Package daemon runs the long-lived ripping service.
//
// A Daemon owns one monitor goroutine per configured optical device, all
// supervised by a single errgroup. Each monitor polls its drive's tray
// status at the configured interval and starts a disc session on the rising
// edge of media presence; a udev netlink listener wakes monitors early when
// the kernel reports an inserted disc. A flock file enforces one daemon per
// machine, and an optional HTTP endpoint serves status and history as JSON.
package daemon
