// Package predict fuses opponent move history, engine evaluation and style markers into a
// single prediction of which move an opponent is most likely to play next. It never recommends
// the objectively best move -- the engine already does that -- it models the human.
package predict

import (
	"fmt"
	"time"

	"github.com/jkern100/chess-scout/pkg/heuristics"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Phase is the coarse stage of the game, used to pick a default weight blend.
type Phase string

const (
	Opening    Phase = "opening"
	Middlegame Phase = "middlegame"
	Endgame    Phase = "endgame"
)

// DeterminePhase buckets the game by fullmove number.
func DeterminePhase(fullmoves int) Phase {
	switch {
	case fullmoves <= 12:
		return Opening
	case fullmoves <= 35:
		return Middlegame
	default:
		return Endgame
	}
}

// Mode selects how the Fusion Core turns candidate scores into a selected move.
type Mode string

const (
	// PureHistory bypasses fusion entirely: the first legal move in descending history
	// frequency wins outright, or the engine's top line if no history move is legal.
	PureHistory Mode = "pure_history"
	// Hybrid is the default: history, engine and style signals are blended by Weights and
	// a move is sampled from the resulting distribution.
	Hybrid Mode = "hybrid"
)

// WeightMode names which regime the Weight Selector picked, for attribution.
type WeightMode string

const (
	ModeNonOpponentTurn WeightMode = "non_opponent_turn"
	ModeLowSample       WeightMode = "low_sample"
	ModeHabit           WeightMode = "habit"
	ModeChameleon       WeightMode = "chameleon"
	ModePhase           WeightMode = "phase"
)

// Weights are the fusion coefficients for history, engine and style signals. They need not
// sum to 1 -- Softmax renormalizes whatever raw scores they produce.
type Weights struct {
	History float64 `json:"history"`
	Engine  float64 `json:"engine"`
	Style   float64 `json:"style"`
}

func (w Weights) String() string {
	return fmt.Sprintf("{history=%.2f, engine=%.2f, style=%.2f}", w.History, w.Engine, w.Style)
}

// HistoryEntry is one distinct move an opponent is known to have played from a position.
type HistoryEntry struct {
	Move  string `json:"move"` // UCI
	Count int    `json:"count"`
	Games int    `json:"games"` // number of distinct games this move was seen in (<=Count for repeated games)

	// LastPlayed and AvgResult are optional enrichment carried through from the history
	// source untouched -- the predictor itself never reads them, and does not copy them into
	// the Response or its trace log.
	LastPlayed lang.Optional[time.Time] `json:"last_played,omitempty"`
	AvgResult  lang.Optional[float64]   `json:"avg_result,omitempty"` // opponent's score from this move, [0;1]
}

// History is the full set of known replies an opponent has played from a position.
type History struct {
	Entries    []HistoryEntry `json:"entries"`
	SampleSize int            `json:"sample_size"` // total number of times the position was reached
}

// CountOf returns the play count for move, or 0 if never seen.
func (h History) CountOf(move string) int {
	for _, e := range h.Entries {
		if e.Move == move {
			return e.Count
		}
	}
	return 0
}

// Request is everything needed to predict a single reply.
type Request struct {
	FEN  string `json:"fen"`
	Mode Mode   `json:"mode"` // zero value behaves as Hybrid

	// IsOpponentTurn is false when predicting a hypothetical reply outside the opponent's
	// actual turn (e.g. what-if analysis); it selects the non-opponent-turn weights, which
	// disable the style signal and blend only history and engine by game phase.
	IsOpponentTurn bool `json:"is_opponent_turn"`

	History          History                 `json:"history"`
	StyleMarkers     heuristics.StyleMarkers `json:"style_markers"`
	RecentEvalDeltas []float64               `json:"recent_eval_deltas,omitempty"` // most recent eval swings (pawns), oldest first
}

// TraceEntryType classifies one trace-log line, per the canonical failure/attribution channel.
type TraceEntryType string

const (
	TraceLogic    TraceEntryType = "logic"
	TraceWarning  TraceEntryType = "warning"
	TraceDecision TraceEntryType = "decision"
	TraceTilt     TraceEntryType = "tilt"
)

// TraceLogEntry is one step of the prediction's reasoning, in emission order. Never truncated
// or suppressed -- this is the canonical user-visible channel for degrade paths.
type TraceLogEntry struct {
	Type    TraceEntryType `json:"type"`
	Message string         `json:"message"`
}

// Candidate is one move under consideration, with its fused signal breakdown.
type Candidate struct {
	Move string `json:"move"`

	EngineRank int     `json:"engine_rank"` // 1-indexed; engine top-M by rank, then history additions by insertion order
	EngineEval float64 `json:"engine_eval"` // pawns, signed, from the original mover's perspective

	HistoryP   float64 `json:"history_p"`   // normalized history frequency, [0;1]
	EngineP    float64 `json:"engine_p"`    // normalized engine preference, [0;1]
	StyleScore float64 `json:"style_score"` // additive style-fit adjustment

	Attribution heuristics.MoveAttribution `json:"attribution"`

	Raw         float64 `json:"raw"`         // weighted fusion of the above, pre-softmax
	Probability float64 `json:"final_prob"`  // final probability, scaled to [0;100]

	Source string `json:"source"` // "engine", "history" or "both"
	Reason string `json:"reason"` // semicolon-joined summary of rank, history share and attribution
}

// HabitInfo reports a move played overwhelmingly often, bypassing the normal fusion.
type HabitInfo struct {
	Move      string  `json:"move"`
	Frequency float64 `json:"frequency"` // fraction of SampleSize, [0;1]
}

// TacticalGuardrail reports whether the engine's top move was forcing and decisively ahead of
// its second line, overriding the fusion weights to pure engine preference for the request.
// Always present on a Response, triggered or not, per the guardrail contract.
type TacticalGuardrail struct {
	Triggered bool    `json:"triggered"`
	EvalDelta float64 `json:"eval_delta,omitempty"` // pawns, engine top line's lead over its second line
}

// Response is the predicted move plus full attribution for why it was picked.
type Response struct {
	Move        string      `json:"move"`
	Probability float64     `json:"probability"` // scaled to [0;100], matching Candidate.Probability
	Candidates  []Candidate `json:"candidates"`

	Phase               Phase      `json:"phase"`
	WeightMode          WeightMode `json:"weight_mode"`
	Weights             Weights    `json:"weights"`
	PredictabilityIndex float64    `json:"predictability_index"`
	SampleSize          int        `json:"sample_size"`

	HabitDetection    *HabitInfo        `json:"habit_detection,omitempty"`
	TacticalGuardrail TacticalGuardrail `json:"tactical_guardrail"`
	MoveSource        string            `json:"move_source"` // "history", "engine", "both", "blunder" or "engine_unavailable"
	SuggestedDelayMs  int               `json:"suggested_delay_ms"`

	TraceLog []TraceLogEntry `json:"trace_log"`
}
