package disc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// fingerprintPattern matches the content hash MakeMKV reports for
// attribute 32. Anything shorter is a volume id, not a fingerprint.
var fingerprintPattern = regexp.MustCompile(`^[0-9A-Fa-f]{16,}$`)

// parseRobotInfo converts robot-mode `info` output into disc contents
// plus whether any drive reported loaded media.
func parseRobotInfo(output string) (*Contents, bool) {
	lines := strings.Split(output, "\n")
	contents := &Contents{
		Label:       parseLabel(lines),
		Fingerprint: parseFingerprint(lines),
		Tracks:      parseTracks(lines),
	}
	return contents, mediaPresent(lines)
}

// parseLabel prefers the disc name attribute, then the text attribute,
// then whatever name the drive line carries.
func parseLabel(lines []string) string {
	if v := cinfoValue(lines, 2); v != "" {
		return v
	}
	if v := cinfoValue(lines, 30); v != "" {
		return v
	}
	return drvDiscName(lines)
}

// parseFingerprint returns the hex content hash from attribute 32, or
// empty when the disc does not expose one.
func parseFingerprint(lines []string) string {
	v := cinfoValue(lines, 32)
	if fingerprintPattern.MatchString(v) {
		return v
	}
	return ""
}

// parseTracks collects TINFO attributes into tracks sorted by title id.
// Lines look like `TINFO:0,9,0,"1:32:05"`.
func parseTracks(lines []string) []Track {
	byID := make(map[int]*Track)
	track := func(id int) *Track {
		t, ok := byID[id]
		if !ok {
			t = &Track{ID: id}
			byID[id] = t
		}
		return t
	}
	for _, line := range lines {
		rest, ok := strings.CutPrefix(line, "TINFO:")
		if !ok {
			continue
		}
		fields := strings.SplitN(rest, ",", 4)
		if len(fields) < 4 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		attr, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		value := quotedValue(fields[3])
		switch attr {
		case 2:
			track(id).Name = value
		case 9:
			if secs, ok := parseDuration(value); ok {
				track(id).Duration = secs
			}
		case 27:
			track(id).FileName = value
		}
	}
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	tracks := make([]Track, 0, len(ids))
	for _, id := range ids {
		tracks = append(tracks, *byID[id])
	}
	return tracks
}

// cinfoValue returns the quoted value of the first CINFO line for the
// given attribute id.
func cinfoValue(lines []string, attr int) string {
	prefix := "CINFO:" + strconv.Itoa(attr) + ","
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return quotedValue(line)
		}
	}
	return ""
}

// mediaPresent reports whether any DRV line carries a non-empty disc
// name. Drive lines look like
// `DRV:0,2,999,12,"drive name","disc name","/dev/sr0"`; an empty name
// field means the slot is empty or absent.
func mediaPresent(lines []string) bool {
	for _, line := range lines {
		if !strings.HasPrefix(line, "DRV:") {
			continue
		}
		parts := strings.Split(line, `","`)
		if len(parts) >= 3 && strings.Trim(parts[1], `"`) != "" {
			return true
		}
	}
	return false
}

// drvDiscName returns the first non-empty disc name from the drive
// lines, used as a last-resort label.
func drvDiscName(lines []string) string {
	for _, line := range lines {
		if !strings.HasPrefix(line, "DRV:") {
			continue
		}
		parts := strings.Split(line, `","`)
		if len(parts) >= 3 {
			if name := strings.Trim(parts[1], `"`); name != "" {
				return name
			}
		}
	}
	return ""
}

// quotedValue extracts the text between the first and last double
// quote of a robot line fragment.
func quotedValue(s string) string {
	start := strings.Index(s, `"`)
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, `"`)
	if end <= start {
		return ""
	}
	return s[start+1 : end]
}

// parseDuration converts "H:MM:SS" (or "MM:SS") into seconds.
func parseDuration(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// scanWarningCodes are the robot message ids worth surfacing when a
// scan fails: read errors, title failures, and disc open errors.
var scanWarningCodes = map[string]struct{}{
	"2003": {},
	"5003": {},
	"5010": {},
}

// extractScanWarnings pulls the human-readable text of error messages
// out of robot output so scan failures explain themselves.
func extractScanWarnings(lines []string) []string {
	var warnings []string
	for _, line := range lines {
		rest, ok := strings.CutPrefix(line, "MSG:")
		if !ok {
			continue
		}
		code, _, found := strings.Cut(rest, ",")
		if !found {
			continue
		}
		if _, watch := scanWarningCodes[code]; !watch {
			continue
		}
		if text := firstQuotedValue(line); text != "" {
			warnings = append(warnings, text)
		}
		if len(warnings) == 3 {
			break
		}
	}
	return warnings
}

// firstQuotedValue extracts the first quoted field, which for MSG
// lines is the formatted message text.
func firstQuotedValue(s string) string {
	start := strings.Index(s, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(s[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}
