// Package organize finalizes sessions by moving ripped media from the staging
// directory into the library.
//
// It derives a display title from the disc label, resolves the destination
// directory per content verdict (movie vs. episodic layouts), auto-numbers
// directories when a same-titled disc was ripped before, and performs
// collision-safe cross-device moves. When overwriting is disabled an existing
// destination file is skipped rather than replaced; placement never fails a
// session over a single collision.
package organize
