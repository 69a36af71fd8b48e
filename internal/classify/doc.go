// Package classify decides whether a disc holds a movie or a set of TV
// episodes based purely on track durations.
//
// The classifier has no side effects and no external dependencies, so session
// code can run it against scanned track lists and tests can drive it with
// plain duration slices. Thresholds arrive from configuration; the verdict is
// computed exactly once per disc session.
package classify
