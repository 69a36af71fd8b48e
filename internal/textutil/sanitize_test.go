package textutil_test

import (
	"testing"

	"ripwatch/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Movie", "The Movie"},
		{"A/B:C*D", "A-B-C-D"},
		{"What? \"Quotes\" <here>", "What Quotes here"},
		{"  padded  ", "padded"},
		{"Season 1/Disc 2\\Extras", "Season 1-Disc 2-Extras"},
		{"A//B::C", "A-B-C"},
		{"Vol. 2.", "Vol. 2"},
		{"tab\tand\x00null", "tabandnull"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"THE_BIG_MOVIE", "The Big Movie"},
		{"some.show.disc.2", "Some Show Disc 2"},
		{"already clean", "Already Clean"},
		{"___", "Unknown Disc"},
		{"", "Unknown Disc"},
	}
	for _, tc := range cases {
		if got := textutil.DisplayTitle(tc.in); got != tc.want {
			t.Errorf("DisplayTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
