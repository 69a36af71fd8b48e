package organize

import (
	"fmt"
	"strings"
	"time"

	"ripwatch/internal/disc"
	"ripwatch/internal/textutil"
)

const fingerprintSlugLen = 8

// DisplayName derives the library title for a disc. Meaningful volume labels
// are converted to title case; generic labels (DVD_VIDEO, LOGICAL_VOLUME_ID,
// and friends) carry no usable name, so those discs are named "Unknown Disc"
// with a fingerprint slug appended to keep concurrent unknowns apart. When the
// fingerprint is also missing the rip date stands in.
func DisplayName(label, fingerprint string) string {
	if !disc.IsGenericLabel(label) {
		return textutil.DisplayTitle(label)
	}
	if slug := fingerprintSlug(fingerprint); slug != "" {
		return "Unknown Disc " + slug
	}
	return "Unknown Disc " + time.Now().Format("2006-01-02")
}

func fingerprintSlug(fingerprint string) string {
	fingerprint = strings.ToLower(strings.TrimSpace(fingerprint))
	var b strings.Builder
	for _, r := range fingerprint {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
		if b.Len() >= fingerprintSlugLen {
			break
		}
	}
	return b.String()
}

// applyPattern expands the configured naming pattern for a title and strips
// filesystem-unsafe characters from the result.
func applyPattern(pattern, title string) string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = "{title}"
	}
	name := strings.ReplaceAll(pattern, "{title}", title)
	name = textutil.SanitizeFileName(name)
	if name == "" {
		name = "Unknown Disc"
	}
	return name
}

func episodeFileName(number int, ext string) string {
	return fmt.Sprintf("Episode %02d%s", number, ext)
}
