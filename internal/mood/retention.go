package mood

import "time"

// Retain applies the two-phase trim once len(samples) exceeds MaxSamples:
// samples older than RetentionAge are dropped first, then only the newest
// MaxSamples are kept. Order is preserved. The input slice is not modified.
func Retain(samples []Sample, now time.Time) []Sample {
	if len(samples) <= MaxSamples {
		return samples
	}

	cutoff := now.Add(-RetentionAge)
	kept := make([]Sample, 0, len(samples))

	for _, s := range samples {
		if s.Timestamp.After(cutoff) {
			kept = append(kept, s)
		}
	}

	if len(kept) > MaxSamples {
		kept = kept[len(kept)-MaxSamples:]
	}

	return kept
}

// PruneOlderThan drops samples timestamped before cutoff and reports how
// many were removed.
func PruneOlderThan(samples []Sample, cutoff time.Time) ([]Sample, int) {
	kept := make([]Sample, 0, len(samples))

	for _, s := range samples {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}

	return kept, len(samples) - len(kept)
}

// returns the newest sample timestamp, if any
func LatestTimestamp(samples []Sample) (time.Time, bool) {
	var latest time.Time

	for _, s := range samples {
		if s.Timestamp.After(latest) {
			latest = s.Timestamp
		}
	}

	return latest, !latest.IsZero()
}
