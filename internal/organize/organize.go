package organize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"

	"ripwatch/internal/classify"
	"ripwatch/internal/config"
	"ripwatch/internal/logging"
	"ripwatch/internal/services"
)

// maxNumberedDirs caps directory auto-numbering before falling back to the
// base directory and per-file collision handling.
const maxNumberedDirs = 20

// Organizer moves ripped files from staging into the library layout.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs an Organizer. A nil logger disables logging.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	return &Organizer{cfg: cfg, logger: logging.NewComponentLogger(logger, "organize")}
}

// Request describes one session's placement work. Content must already be
// resolved to movie or tv; ambiguous verdicts are routed by policy before
// placement.
type Request struct {
	Title   string
	Content classify.ContentType
	Files   []string
}

// Result reports where files landed. Skipped lists destination paths that
// already existed and were left untouched.
type Result struct {
	Directory string
	Placed    []string
	Skipped   []string
}

// Place moves the request's files into the library. Movies land as a single
// titled file in a titled directory; episodic content lands as "Episode NN"
// files. When the destination directory already holds a previous rip and
// overwriting is disabled, the directory is auto-numbered (" Disc N" for TV,
// " (N)" for movies). Individual destination files that still collide are
// skipped, never treated as failure.
func (o *Organizer) Place(ctx context.Context, req Request) (*Result, error) {
	if len(req.Files) == 0 {
		return nil, services.Wrap(
			services.ErrValidation,
			"organize",
			"validate inputs",
			"No ripped files to organize; check staging directory",
			nil,
		)
	}
	if req.Content != classify.ContentTypeMovie && req.Content != classify.ContentTypeTV {
		return nil, services.Wrap(
			services.ErrValidation,
			"organize",
			"validate inputs",
			fmt.Sprintf("Cannot organize unresolved content type %q", req.Content),
			nil,
		)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		base := filepath.Base(req.Files[0])
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	name := applyPattern(o.cfg.Output.NamingPattern, title)

	root := o.cfg.TVPath()
	if req.Content == classify.ContentTypeMovie {
		root = o.cfg.MoviesPath()
	}
	dir := o.resolveDirectory(root, name, req.Content)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrDestinationWrite, "organize", "create library directory", "Failed to create library directory", err)
	}

	files := append([]string(nil), req.Files...)
	sort.Slice(files, func(i, j int) bool { return filepath.Base(files[i]) < filepath.Base(files[j]) })

	o.logger.Info(
		"organizing ripped files",
		logging.String("title", title),
		logging.String("content_type", string(req.Content)),
		logging.String("directory", dir),
		logging.Int("file_count", len(files)),
	)

	result := &Result{Directory: dir}
	for idx, src := range files {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrCancelled, "organize", "move into library", "Organization interrupted", err)
		}
		target := filepath.Join(dir, targetFileName(req.Content, name, idx, src))
		if !o.cfg.Detection.OverwriteExisting && fileExists(target) {
			o.logger.Warn(
				"destination file exists, keeping it",
				logging.String("target", target),
				logging.String("source", filepath.Base(src)),
			)
			result.Skipped = append(result.Skipped, target)
			continue
		}
		if err := moveFile(src, target); err != nil {
			return nil, services.Wrap(services.ErrDestinationWrite, "organize", "move into library", "Failed to move ripped file into library", err)
		}
		result.Placed = append(result.Placed, target)
	}

	o.logger.Info(
		"organization completed",
		logging.String("directory", dir),
		logging.Int("placed", len(result.Placed)),
		logging.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// resolveDirectory picks the destination directory under root. The base name
// is reused when empty or when overwriting is enabled; otherwise a previous
// rip occupies it and the next free numbered variant is chosen. TV sets use
// " Disc N" so multi-disc seasons sit side by side; movies use " (N)".
func (o *Organizer) resolveDirectory(root, name string, content classify.ContentType) string {
	base := filepath.Join(root, name)
	if o.cfg.Detection.OverwriteExisting || !dirInUse(base) {
		return base
	}
	for n := 2; n <= maxNumberedDirs; n++ {
		var numbered string
		if content == classify.ContentTypeTV {
			numbered = fmt.Sprintf("%s Disc %d", name, n)
		} else {
			numbered = fmt.Sprintf("%s (%d)", name, n)
		}
		candidate := filepath.Join(root, numbered)
		if !dirInUse(candidate) {
			o.logger.Info("destination occupied, using numbered directory", logging.String("directory", candidate))
			return candidate
		}
	}
	o.logger.Warn("exhausted numbered directories, falling back to base", logging.String("directory", base))
	return base
}

// targetFileName names the idx-th (0-based, sorted) file. Movies place the
// main feature under the library name; any extra files keep their staged
// names. Episodes are numbered in disc order.
func targetFileName(content classify.ContentType, name string, idx int, src string) string {
	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".mkv"
	}
	if content == classify.ContentTypeMovie {
		if idx == 0 {
			return name + ext
		}
		return filepath.Base(src)
	}
	return episodeFileName(idx+1, ext)
}

// dirInUse reports whether path exists and holds at least one entry. An
// existing empty directory is reclaimed rather than numbered around.
func dirInUse(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return !errors.Is(err, os.ErrNotExist)
	}
	return len(entries) > 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
