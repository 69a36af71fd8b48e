package disc

import "strings"

// genericLabels are mastering-tool defaults that carry no useful name.
// Keys are uppercased with spaces folded to underscores.
var genericLabels = map[string]struct{}{
	"BLURAY":            {},
	"BLU_RAY":           {},
	"BDROM":             {},
	"BD_ROM":            {},
	"DVD":               {},
	"DVD_VIDEO":         {},
	"DVDVIDEO":          {},
	"CDROM":             {},
	"LOGICAL_VOLUME_ID": {},
	"MY_DISC":           {},
	"NEW_VOLUME":        {},
	"NO_LABEL":          {},
	"UNKNOWN":           {},
	"UNTITLED":          {},
	"UNTITLED_DISC":     {},
}

// IsGenericLabel reports whether label is a mastering default rather
// than a real disc name. Generic labels never become library titles.
func IsGenericLabel(label string) bool {
	key := strings.ToUpper(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if key == "" {
		return true
	}
	_, ok := genericLabels[key]
	return ok
}
