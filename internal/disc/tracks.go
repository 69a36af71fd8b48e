package disc

// Track is a single title reported by the disc scan.
type Track struct {
	// ID is MakeMKV's title index, used to match saved files.
	ID int
	// Name is the title name attribute when the disc provides one.
	Name string
	// Duration is the title runtime in whole seconds.
	Duration int
	// FileName is the output name MakeMKV will use when saving this
	// title, e.g. "Movie_t00.mkv". Empty when the scan omitted it.
	FileName string
}

// Contents is everything a scan learns about the inserted disc.
type Contents struct {
	// Label is the human-readable disc name, empty when the disc
	// carries none.
	Label string
	// Fingerprint uniquely identifies the pressing. It is the content
	// hash MakeMKV reports, falling back to the volume identifier.
	Fingerprint string
	// Tracks lists every readable title in ascending ID order.
	Tracks []Track
}

// Durations returns the runtime of every track in seconds, in track
// order. Classification operates on this slice alone.
func (c *Contents) Durations() []int {
	out := make([]int, len(c.Tracks))
	for i, t := range c.Tracks {
		out[i] = t.Duration
	}
	return out
}

// Longest returns the longest track and true, or a zero Track and
// false when the disc exposed no titles.
func (c *Contents) Longest() (Track, bool) {
	if len(c.Tracks) == 0 {
		return Track{}, false
	}
	best := c.Tracks[0]
	for _, t := range c.Tracks[1:] {
		if t.Duration > best.Duration {
			best = t
		}
	}
	return best, true
}
