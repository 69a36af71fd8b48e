package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when the current title or percentage bucket changes.
type ProgressSampler struct {
	bucketSize float64
	lastTitle  string
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 5%) or when the title being extracted changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. Percent can be
// negative to indicate "unknown"; title is trimmed before comparison.
func (s *ProgressSampler) ShouldLog(percent float64, title string) bool {
	if s == nil {
		return true
	}
	title = strings.TrimSpace(title)
	emit := false
	if title != "" && title != s.lastTitle {
		s.lastTitle = title
		emit = true
		s.lastBucket = -1
	}
	if percent >= 0 {
		bucket := int(percent / s.bucketSize)
		if percent >= 100 {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state when a new rip starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastTitle = ""
	s.lastBucket = -1
}
