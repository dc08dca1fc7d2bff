package predict

import "math"

// softmaxTemperature flattens or sharpens the final probability distribution. Lower than 1.0
// sharpens it -- small raw-score gaps turn into large probability gaps, matching how decisively
// a real opponent tends to prefer their top choice once the signals agree.
const softmaxTemperature = 0.5

// Fusion Core: combines the per-signal scores of each candidate into one raw score, then turns
// the raw scores into a probability distribution over the candidates.
func fuse(candidates []Candidate, w Weights) []Candidate {
	raw := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		raw[c.Move] = w.History*c.HistoryP + w.Engine*c.EngineP + w.Style*c.StyleScore
	}

	probs := softmax(raw, softmaxTemperature)

	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		c.Raw = raw[c.Move]
		c.Probability = probs[c.Move] * 100 // final_prob is on a [0;100] scale, not [0;1]
		out[i] = c
	}
	return out
}

// softmax converts raw scores into a probability distribution. temperature <= 0 is treated as 1.
func softmax(raw map[string]float64, temperature float64) map[string]float64 {
	out := make(map[string]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	if temperature <= 0 {
		temperature = 1
	}

	maxRaw := math.Inf(-1)
	for _, v := range raw {
		if v > maxRaw {
			maxRaw = v
		}
	}

	var sum float64
	exps := make(map[string]float64, len(raw))
	for k, v := range raw {
		e := math.Exp((v - maxRaw) / temperature)
		exps[k] = e
		sum += e
	}
	for k, v := range exps {
		out[k] = v / sum
	}
	return out
}
