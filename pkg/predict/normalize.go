package predict

import "math"

// History Normalizer: turns raw play counts into per-move frequencies, relative to the full
// sample size at the position (not just the candidates under consideration).
func normalizeHistory(h History) map[string]float64 {
	out := make(map[string]float64, len(h.Entries))
	if h.SampleSize == 0 {
		return out
	}
	for _, e := range h.Entries {
		out[e.Move] = float64(e.Count) / float64(h.SampleSize)
	}
	return out
}

// Engine Normalizer: min-max scales raw centipawn scores to [0;1], best move at 1.0 and worst
// at 0.0. If every candidate scores the same, they are all treated as equally preferred.
func normalizeEngineScores(scores map[string]int) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	min, max := math.MaxInt, math.MinInt
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	if max == min {
		for m := range scores {
			out[m] = 1.0
		}
		return out
	}

	span := float64(max - min)
	for m, s := range scores {
		out[m] = float64(s-min) / span
	}
	return out
}
