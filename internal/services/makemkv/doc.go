// Package makemkv drives makemkvcon rips and turns its robot-mode
// output into a finite stream of structured events. Each extraction is
// one stream: progress and message events while the subprocess runs,
// then exactly one terminal event (completed, failed, or cancelled)
// before the stream closes.
package makemkv
