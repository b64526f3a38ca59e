package mood

import "time"

// ComputeDominantMood derives the current mood from samples as of now.
//
// Samples younger than Window are weighted by max(MinWeight, 1-age/Window)
// and their intensities summed per kind. The highest-scoring kind wins, with
// ties going to the kind listed first in Kinds. When no sample is recent the
// last sample is returned as-is; with no samples at all the result is
// neutral at DefaultIntensity.
//
// The result depends only on the arguments.
func ComputeDominantMood(samples []Sample, now time.Time) State {
	scores := make(map[Kind]float64, len(Kinds))
	totalWeight := 0.0

	for _, s := range samples {
		age := now.Sub(s.Timestamp)
		if age >= Window {
			continue
		}

		// future-dated samples count as brand new
		if age < 0 {
			age = 0
		}

		weight := max(MinWeight, 1-float64(age)/float64(Window))
		scores[s.Kind] += (s.Intensity / 100) * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return fallback(samples, now)
	}

	best := Neutral
	maxScore := 0.0

	for _, kind := range Kinds {
		if scores[kind] > maxScore {
			maxScore = scores[kind]
			best = kind
		}
	}

	return State{
		Kind:      best,
		Intensity: min(100, maxScore/totalWeight*100),
		Timestamp: now,
	}
}

func fallback(samples []Sample, now time.Time) State {
	if len(samples) == 0 {
		return State{Kind: Neutral, Intensity: DefaultIntensity, Timestamp: now}
	}

	return samples[len(samples)-1].State()
}
