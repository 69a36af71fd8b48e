// Package disc reads optical media through MakeMKV's robot-mode info
// output. It produces a table of contents (label, fingerprint, titles
// with durations) for classification, answers cheap drive-status
// queries through the CDROM ioctl, and ejects finished discs.
package disc
