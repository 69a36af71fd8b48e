package disc

import "testing"

func TestContentsDurations(t *testing.T) {
	c := &Contents{Tracks: []Track{
		{ID: 0, Duration: 7200},
		{ID: 1, Duration: 1450},
		{ID: 2, Duration: 1440},
	}}
	got := c.Durations()
	want := []int{7200, 1450, 1440}
	if len(got) != len(want) {
		t.Fatalf("got %d durations, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("durations[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestContentsLongest(t *testing.T) {
	c := &Contents{Tracks: []Track{
		{ID: 0, Duration: 1400},
		{ID: 1, Duration: 7300},
		{ID: 2, Duration: 1500},
	}}
	longest, ok := c.Longest()
	if !ok {
		t.Fatal("expected a longest track")
	}
	if longest.ID != 1 {
		t.Errorf("longest = track %d, want 1", longest.ID)
	}

	empty := &Contents{}
	if _, ok := empty.Longest(); ok {
		t.Error("empty contents should have no longest track")
	}
}
