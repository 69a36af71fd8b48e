package classify

import "fmt"

// ContentType is the classified shape of a disc's content.
type ContentType string

const (
	ContentTypeMovie     ContentType = "movie"
	ContentTypeTV        ContentType = "tv"
	ContentTypeAmbiguous ContentType = "ambiguous"
)

// Thresholds holds the duration boundaries (seconds) separating episode
// tracks, movie tracks, and noise such as extras or menus.
type Thresholds struct {
	MinEpisodeDuration int
	MaxEpisodeDuration int
	MinMovieDuration   int
}

// Verdict is the classification result. EpisodeCount is set only for TV
// verdicts.
type Verdict struct {
	Type         ContentType
	EpisodeCount int
}

// Movie returns a movie verdict.
func Movie() Verdict { return Verdict{Type: ContentTypeMovie} }

// TvEpisodes returns a TV verdict carrying the qualifying episode count.
func TvEpisodes(count int) Verdict {
	return Verdict{Type: ContentTypeTV, EpisodeCount: count}
}

// Ambiguous returns the verdict for discs matching neither signature.
func Ambiguous() Verdict { return Verdict{Type: ContentTypeAmbiguous} }

func (v Verdict) String() string {
	if v.Type == ContentTypeTV {
		return fmt.Sprintf("tv (%d episodes)", v.EpisodeCount)
	}
	return string(v.Type)
}

// Classify maps track durations (seconds) to a content verdict. Tracks at or
// above MinMovieDuration are movie candidates; tracks within the episode
// bounds are episode candidates; everything else is noise and ignored.
//
// Two or more episode candidates with no movie candidate classify as TV.
// Exactly one movie candidate that is also the longest track overall
// classifies as a movie; there is no summation heuristic. Anything else is
// ambiguous. The function is deterministic and order-independent, and
// non-positive durations are treated as noise.
func Classify(durations []int, t Thresholds) Verdict {
	episodes := 0
	movies := 0
	longest := 0
	movieDuration := 0

	for _, d := range durations {
		if d <= 0 {
			continue
		}
		if d > longest {
			longest = d
		}
		switch {
		case d >= t.MinMovieDuration:
			movies++
			movieDuration = d
		case d >= t.MinEpisodeDuration && d <= t.MaxEpisodeDuration:
			episodes++
		}
	}

	if episodes >= 2 && movies == 0 {
		return TvEpisodes(episodes)
	}
	if movies == 1 && movieDuration == longest {
		return Movie()
	}
	return Ambiguous()
}
