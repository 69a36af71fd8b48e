// Package textutil provides text processing utilities for filename
// sanitization and disc title presentation.
//
// The primary use cases are:
//   - Sanitizing filenames for safe filesystem use
//   - Deriving display titles from raw disc volume labels
package textutil
