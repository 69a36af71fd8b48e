package organize_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ripwatch/internal/classify"
	"ripwatch/internal/config"
	"ripwatch/internal/logging"
	"ripwatch/internal/organize"
	"ripwatch/internal/services"
	"ripwatch/internal/testsupport"
)

func stageFiles(t *testing.T, cfg *config.Config, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(cfg.Paths.Temp, name)
		testsupport.WriteFile(t, path, 64)
		paths = append(paths, path)
	}
	return paths
}

func TestPlaceMovieUsesTitledFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organize.New(cfg, logging.NewNop())

	files := stageFiles(t, cfg, "title_t00.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "The Big Movie",
		Content: classify.ContentTypeMovie,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	wantDir := filepath.Join(cfg.MoviesPath(), "The Big Movie")
	if res.Directory != wantDir {
		t.Fatalf("unexpected directory: got %q want %q", res.Directory, wantDir)
	}
	wantFile := filepath.Join(wantDir, "The Big Movie.mkv")
	if len(res.Placed) != 1 || res.Placed[0] != wantFile {
		t.Fatalf("unexpected placed files: %v", res.Placed)
	}
	if _, err := os.Stat(wantFile); err != nil {
		t.Fatalf("expected library file: %v", err)
	}
	if _, err := os.Stat(files[0]); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected staged source to be moved, err=%v", err)
	}
}

func TestPlaceAppliesNamingPattern(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Output.NamingPattern = "{title} [ripwatch]"
	org := organize.New(cfg, logging.NewNop())

	files := stageFiles(t, cfg, "title_t00.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "Demo",
		Content: classify.ContentTypeMovie,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(cfg.MoviesPath(), "Demo [ripwatch]", "Demo [ripwatch].mkv")
	if len(res.Placed) != 1 || res.Placed[0] != want {
		t.Fatalf("unexpected placed files: %v", res.Placed)
	}
}

func TestPlaceEpisodesNumbersInDiscOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organize.New(cfg, logging.NewNop())

	// Deliberately out of order; numbering follows sorted staged names.
	files := stageFiles(t, cfg, "show_t02.mkv", "show_t00.mkv", "show_t01.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "Great Show",
		Content: classify.ContentTypeTV,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	wantDir := filepath.Join(cfg.TVPath(), "Great Show")
	if res.Directory != wantDir {
		t.Fatalf("unexpected directory: %q", res.Directory)
	}
	want := []string{
		filepath.Join(wantDir, "Episode 01.mkv"),
		filepath.Join(wantDir, "Episode 02.mkv"),
		filepath.Join(wantDir, "Episode 03.mkv"),
	}
	if len(res.Placed) != len(want) {
		t.Fatalf("expected %d placed files, got %v", len(want), res.Placed)
	}
	for i, path := range want {
		if res.Placed[i] != path {
			t.Fatalf("placed[%d] = %q, want %q", i, res.Placed[i], path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected episode file %q: %v", path, err)
		}
	}
}

func TestPlaceSecondTvDiscGetsNumberedDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organize.New(cfg, logging.NewNop())

	testsupport.WriteFile(t, filepath.Join(cfg.TVPath(), "Great Show", "Episode 01.mkv"), 1)

	files := stageFiles(t, cfg, "show_t00.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "Great Show",
		Content: classify.ContentTypeTV,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	wantDir := filepath.Join(cfg.TVPath(), "Great Show Disc 2")
	if res.Directory != wantDir {
		t.Fatalf("unexpected directory: got %q want %q", res.Directory, wantDir)
	}
	if _, err := os.Stat(filepath.Join(wantDir, "Episode 01.mkv")); err != nil {
		t.Fatalf("expected numbered disc episode: %v", err)
	}
}

func TestPlaceDuplicateMovieTitleGetsParenthesizedDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organize.New(cfg, logging.NewNop())

	testsupport.WriteFile(t, filepath.Join(cfg.MoviesPath(), "Demo", "Demo.mkv"), 1)

	files := stageFiles(t, cfg, "title_t00.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "Demo",
		Content: classify.ContentTypeMovie,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	wantDir := filepath.Join(cfg.MoviesPath(), "Demo (2)")
	if res.Directory != wantDir {
		t.Fatalf("unexpected directory: got %q want %q", res.Directory, wantDir)
	}
	if len(res.Placed) != 1 || res.Placed[0] != filepath.Join(wantDir, "Demo (2).mkv") {
		t.Fatalf("unexpected placed files: %v", res.Placed)
	}
}

func TestPlaceReusesEmptyDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organize.New(cfg, logging.NewNop())

	wantDir := filepath.Join(cfg.MoviesPath(), "Demo")
	if err := os.MkdirAll(wantDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files := stageFiles(t, cfg, "title_t00.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "Demo",
		Content: classify.ContentTypeMovie,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if res.Directory != wantDir {
		t.Fatalf("expected empty directory reuse, got %q", res.Directory)
	}
}

func TestPlaceSkipsExistingFilesWhenOverwriteDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organize.New(cfg, logging.NewNop())

	// Occupy the base directory and every numbered variant so placement falls
	// back to the base and collides file by file.
	testsupport.WriteFile(t, filepath.Join(cfg.TVPath(), "Great Show", "Episode 01.mkv"), 1)
	for n := 2; n <= 20; n++ {
		dir := fmt.Sprintf("Great Show Disc %d", n)
		testsupport.WriteFile(t, filepath.Join(cfg.TVPath(), dir, "Episode 01.mkv"), 1)
	}

	files := stageFiles(t, cfg, "show_t00.mkv", "show_t01.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "Great Show",
		Content: classify.ContentTypeTV,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	wantDir := filepath.Join(cfg.TVPath(), "Great Show")
	if res.Directory != wantDir {
		t.Fatalf("expected base directory fallback, got %q", res.Directory)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != filepath.Join(wantDir, "Episode 01.mkv") {
		t.Fatalf("unexpected skipped files: %v", res.Skipped)
	}
	if len(res.Placed) != 1 || res.Placed[0] != filepath.Join(wantDir, "Episode 02.mkv") {
		t.Fatalf("unexpected placed files: %v", res.Placed)
	}
	// The colliding source stays in staging for cleanup.
	if _, err := os.Stat(files[0]); err != nil {
		t.Fatalf("expected skipped source to remain staged: %v", err)
	}
}

func TestPlaceOverwriteEnabledReplacesExistingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOverwriteExisting(true))
	org := organize.New(cfg, logging.NewNop())

	existing := filepath.Join(cfg.MoviesPath(), "Demo", "Demo.mkv")
	testsupport.WriteFile(t, existing, 8)

	files := stageFiles(t, cfg, "title_t00.mkv")
	res, err := org.Place(context.Background(), organize.Request{
		Title:   "Demo",
		Content: classify.ContentTypeMovie,
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if res.Directory != filepath.Join(cfg.MoviesPath(), "Demo") {
		t.Fatalf("expected base directory with overwrite enabled, got %q", res.Directory)
	}
	info, err := os.Stat(existing)
	if err != nil {
		t.Fatalf("stat replaced file: %v", err)
	}
	if info.Size() != 64 {
		t.Fatalf("expected replaced file size 64, got %d", info.Size())
	}
}

func TestPlaceRejectsBadRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organize.New(cfg, logging.NewNop())

	if _, err := org.Place(context.Background(), organize.Request{
		Title:   "Demo",
		Content: classify.ContentTypeMovie,
	}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty files, got %v", err)
	}

	files := stageFiles(t, cfg, "title_t00.mkv")
	if _, err := org.Place(context.Background(), organize.Request{
		Title:   "Demo",
		Content: classify.ContentTypeAmbiguous,
		Files:   files,
	}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for ambiguous content, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name        string
		label       string
		fingerprint string
		want        string
	}{
		{"meaningful label", "THE_BIG_MOVIE", "ABCDEF1234567890", "The Big Movie"},
		{"generic label with fingerprint", "DVD_VIDEO", "ABCDEF1234567890", "Unknown Disc abcdef12"},
		{"blank label with fingerprint", "", "00FFAA1122334455", "Unknown Disc 00ffaa11"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := organize.DisplayName(tc.label, tc.fingerprint); got != tc.want {
				t.Fatalf("DisplayName(%q, %q) = %q, want %q", tc.label, tc.fingerprint, got, tc.want)
			}
		})
	}

	t.Run("generic label without fingerprint", func(t *testing.T) {
		got := organize.DisplayName("LOGICAL_VOLUME_ID", "")
		if !strings.HasPrefix(got, "Unknown Disc 2") {
			t.Fatalf("expected dated fallback, got %q", got)
		}
	})
}
