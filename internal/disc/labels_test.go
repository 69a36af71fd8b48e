package disc

import "testing"

func TestIsGenericLabel(t *testing.T) {
	generic := []string{"", "DVD_VIDEO", "dvd video", "Blu-Ray", "LOGICAL_VOLUME_ID", "My Disc", "  untitled  "}
	for _, label := range generic {
		if !IsGenericLabel(label) {
			t.Errorf("IsGenericLabel(%q) = false, want true", label)
		}
	}
	real := []string{"PRIDE_AND_PREJUDICE", "PLANET_EARTH_S1_D2", "The Long Goodbye"}
	for _, label := range real {
		if IsGenericLabel(label) {
			t.Errorf("IsGenericLabel(%q) = true, want false", label)
		}
	}
}
