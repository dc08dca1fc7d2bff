package predict

// Weight Selector: picks the history/engine/style blend for the Fusion Core, given how
// concentrated an opponent's history is and what point in the game we are at.

const (
	// habitThreshold is the Predictability Index above which history is treated as almost
	// deterministic and engine/style signals are mostly ignored.
	habitThreshold = 0.85
	// chameleonThreshold is the Predictability Index below which history is too scattered to
	// trust, and engine/style signals take over.
	chameleonThreshold = 0.40
	// lowSampleSize is the sample count below which history is statistically too thin to lean on.
	lowSampleSize = 5
	// habitFrequency is the play-frequency fraction at or above which a single move counts as a habit.
	habitFrequency = 0.90
	// habitMinSampleSize is the minimum sample size required before a high frequency counts as
	// a habit rather than noise.
	habitMinSampleSize = 10
)

var (
	// nonOpponentTurnWeights is phase-keyed: style is always disabled (γ=0), since there is no
	// opponent move to style-match when it is not the opponent's turn.
	nonOpponentTurnWeights = map[Phase]Weights{
		Opening:    {History: 0.80, Engine: 0.20, Style: 0.00},
		Middlegame: {History: 0.30, Engine: 0.70, Style: 0.00},
		Endgame:    {History: 0.30, Engine: 0.70, Style: 0.00},
	}
	lowSampleWeights = Weights{History: 0.00, Engine: 0.30, Style: 0.70}
	habitWeights     = Weights{History: 0.90, Engine: 0.05, Style: 0.05}
	chameleonWeights = Weights{History: 0.20, Engine: 0.20, Style: 0.60}

	phaseWeights = map[Phase]Weights{
		Opening:    {History: 0.70, Engine: 0.10, Style: 0.20},
		Middlegame: {History: 0.10, Engine: 0.40, Style: 0.50},
		Endgame:    {History: 0.05, Engine: 0.80, Style: 0.15},
	}
)

// PredictabilityIndex is a Herfindahl-style concentration measure over an opponent's history at
// a position: the sum of squared move-frequencies. It is 1.0 if the opponent always plays the
// same move and approaches 0 the more evenly their replies are spread out.
func PredictabilityIndex(h History) float64 {
	if h.SampleSize == 0 {
		return 0
	}

	var pi float64
	for _, e := range h.Entries {
		p := float64(e.Count) / float64(h.SampleSize)
		pi += p * p
	}
	return pi
}

// DetectHabit reports the single move an opponent plays often enough, and with a large enough
// sample, to treat as an ingrained habit rather than a genuine choice.
func DetectHabit(h History) (HistoryEntry, bool) {
	if h.SampleSize < habitMinSampleSize {
		return HistoryEntry{}, false
	}
	for _, e := range h.Entries {
		if float64(e.Count)/float64(h.SampleSize) >= habitFrequency {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// SelectWeights picks the fusion weights and names the regime that produced them. Checked in
// order of how strongly each regime should override the default phase-based blend.
func SelectWeights(isOpponentTurn bool, sampleSize int, pi float64, phase Phase) (Weights, WeightMode) {
	switch {
	case !isOpponentTurn:
		return nonOpponentTurnWeights[phase], ModeNonOpponentTurn
	case sampleSize < lowSampleSize:
		return lowSampleWeights, ModeLowSample
	case pi > habitThreshold:
		return habitWeights, ModeHabit
	case pi < chameleonThreshold:
		return chameleonWeights, ModeChameleon
	default:
		return phaseWeights[phase], ModePhase
	}
}
