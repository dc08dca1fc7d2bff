package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/jkern100/chess-scout/pkg/board"
	"github.com/jkern100/chess-scout/pkg/board/fen"
	"github.com/jkern100/chess-scout/pkg/engineadapter"
	"github.com/jkern100/chess-scout/pkg/heuristics"
	"github.com/seekerror/logw"
)

const (
	// habitDelayMs is the suggested "thinking time" for a move the opponent plays on reflex.
	habitDelayMs = 500
	// defaultDelayMs is the suggested "thinking time" for a move reached via full fusion.
	defaultDelayMs = 1500
)

// Engine is what the Candidate Assembler needs from an engine adapter: ranked analysis of a
// position, and a single best-effort score for a move that may not be among the engine's own
// top picks. Satisfied by *engineadapter.Adapter; narrowed to an interface here so the fusion
// pipeline can be tested without spawning a real engine subprocess.
type Engine interface {
	AnalyzePosition(ctx context.Context, fenStr string, depth int) ([]engineadapter.Line, error)
	AnalyzeSingleMove(ctx context.Context, fenStr, move string, depth int) int
}

// Predictor is the Trace & Attribution entry point: it runs the full Weight Selector, History
// Normalizer, Engine Normalizer, Candidate Assembler and Fusion Core pipeline and returns a
// single predicted move together with the reasoning behind it.
type Predictor struct {
	engine Engine
	depth  int
	rng    *rand.Rand
}

// New constructs a Predictor backed by the given engine adapter. depth is the search depth used
// for every position analyzed; seed makes the blunder/weighted-pick randomness reproducible.
func New(engine Engine, depth int, seed int64) *Predictor {
	return &Predictor{
		engine: engine,
		depth:  depth,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Predict returns the single move judged most likely to be played next, with full attribution.
func (p *Predictor) Predict(ctx context.Context, req Request) (*Response, error) {
	pos, turn, _, fullmoves, err := fen.Decode(req.FEN)
	if err != nil {
		return nil, &Error{Kind: InvalidPosition, FEN: req.FEN, Cause: err}
	}
	legal := pos.LegalMoves(turn)
	if len(legal) == 0 {
		return nil, &Error{Kind: NoLegalMoves, FEN: req.FEN}
	}

	phase := DeterminePhase(fullmoves)
	tilted := heuristics.DetectTilt(req.RecentEvalDeltas)
	markers := heuristics.ApplyTiltModifiers(req.StyleMarkers, tilted)
	pi := PredictabilityIndex(req.History)
	weights, mode := SelectWeights(req.IsOpponentTurn, req.History.SampleSize, pi, phase)

	resp := &Response{
		Phase:               phase,
		WeightMode:          mode,
		Weights:             weights,
		PredictabilityIndex: pi,
		SampleSize:          req.History.SampleSize,
	}

	var trace []TraceLogEntry
	trace = append(trace, TraceLogEntry{Type: TraceLogic, Message: fmt.Sprintf("phase=%v weight_mode=%v weights=%v", phase, mode, weights)})
	trace = append(trace, TraceLogEntry{Type: TraceLogic, Message: fmt.Sprintf("predictability_index=%.3f sample_size=%v", pi, req.History.SampleSize)})
	if tilted {
		trace = append(trace, TraceLogEntry{Type: TraceTilt, Message: "tilt detected over recent eval deltas; style markers amplified"})
	}

	habit, habitOK := DetectHabit(req.History)
	if habitOK && req.IsOpponentTurn {
		freq := float64(habit.Count) / float64(req.History.SampleSize)

		if _, ok := resolveMove(pos, turn, habit.Move); ok {
			resp.HabitDetection = &HabitInfo{Move: habit.Move, Frequency: freq}
			trace = append(trace, TraceLogEntry{Type: TraceDecision, Message: fmt.Sprintf("habit detected: %v played %.0f%% of the time (n=%v)", habit.Move, freq*100, req.History.SampleSize)})
			logw.Infof(ctx, "Predict %v: habit move %v (freq=%.2f, n=%v)", req.FEN, habit.Move, freq, req.History.SampleSize)

			resp.Move = habit.Move
			resp.Probability = freq * 100
			resp.Candidates = []Candidate{{Move: habit.Move, HistoryP: freq, Probability: freq * 100, Source: "history", Reason: "ingrained habit move"}}
			resp.MoveSource = "history"
			resp.SuggestedDelayMs = habitDelayMs
			resp.TraceLog = trace
			return resp, nil
		}

		trace = append(trace, TraceLogEntry{Type: TraceWarning, Message: fmt.Sprintf("habit move %v is no longer legal in this position; falling back to fused prediction", habit.Move)})
	}

	if req.Mode == PureHistory {
		return p.predictPureHistory(ctx, pos, turn, legal, req, resp, trace)
	}
	return p.predictHybrid(ctx, pos, turn, legal, req, weights, markers, tilted, habit, habitOK, resp, trace)
}

// predictPureHistory implements the pure-history selection mode: it bypasses fusion entirely,
// walking the history list by descending frequency and picking the first legal move; if none
// qualify, it falls back to the engine's own top-ranked line. Exactly one candidate is returned,
// with final_prob=100.
func (p *Predictor) predictPureHistory(ctx context.Context, pos *board.Position, turn board.Color, legal []board.Move, req Request, resp *Response, trace []TraceLogEntry) (*Response, error) {
	entries := append([]HistoryEntry(nil), req.History.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })

	var pick string
	for _, e := range entries {
		if _, ok := resolveMove(pos, turn, e.Move); ok {
			pick = e.Move
			break
		}
	}

	if pick == "" {
		lines, err := p.engine.AnalyzePosition(ctx, req.FEN, p.depth)
		if err != nil || len(lines) == 0 {
			logw.Warningf(ctx, "Predict %v: pure_history has no legal history move and the engine is unavailable; degrading to uniform random legal move", req.FEN)
			m := legal[p.rng.Intn(len(legal))]
			pick = m.UCI()
			trace = append(trace, TraceLogEntry{Type: TraceWarning, Message: fmt.Sprintf("no legal history move and engine unavailable; selected %v uniformly at random", pick)})
		} else {
			pick = lines[0].Move
			trace = append(trace, TraceLogEntry{Type: TraceLogic, Message: fmt.Sprintf("no legal history move; falling back to engine top line %v", pick)})
		}
	}

	trace = append(trace, TraceLogEntry{Type: TraceDecision, Message: fmt.Sprintf("pure_history selected %v (final_prob=100)", pick)})

	resp.Move = pick
	resp.Probability = 100
	resp.Candidates = []Candidate{{Move: pick, Probability: 100, Source: "history", Reason: "pure_history: first legal move by descending frequency"}}
	resp.MoveSource = "history"
	resp.SuggestedDelayMs = defaultDelayMs
	resp.TraceLog = trace
	return resp, nil
}

// predictHybrid runs the Candidate Assembler and Fusion Core and, from the resulting
// distribution, draws a single move -- weighted by probability, except when a simulated
// blunder drops the pick to a lower-ranked candidate instead. If the engine is unreachable it
// degrades to a uniform pick among legal moves with an empty candidate table, per the
// EngineUnavailable error kind.
func (p *Predictor) predictHybrid(ctx context.Context, pos *board.Position, turn board.Color, legal []board.Move, req Request, weights Weights, markers heuristics.StyleMarkers, tilted bool, habit HistoryEntry, habitOK bool, resp *Response, trace []TraceLogEntry) (*Response, error) {
	candidates, guardrail, err := p.assembleCandidates(ctx, req, pos, turn, markers)
	var predErr *Error
	if errors.As(err, &predErr) && predErr.Kind == EngineUnavailable {
		logw.Warningf(ctx, "Predict %v: %v; degrading to uniform random legal move", req.FEN, err)
		pick := legal[p.rng.Intn(len(legal))]
		trace = append(trace, TraceLogEntry{Type: TraceWarning, Message: fmt.Sprintf("%v; selected %v uniformly at random among %v legal moves", err, pick, len(legal))})

		resp.Move = pick.UCI()
		resp.Probability = 100 / float64(len(legal))
		resp.Candidates = nil
		resp.MoveSource = "engine_unavailable"
		resp.SuggestedDelayMs = defaultDelayMs
		resp.TraceLog = trace
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &Error{Kind: NoLegalMoves, FEN: req.FEN, Cause: fmt.Errorf("no candidate moves could be assembled")}
	}

	resp.TacticalGuardrail = guardrail
	if guardrail.Triggered {
		weights = Weights{History: 0, Engine: 1, Style: 0}
		resp.Weights = weights
		trace = append(trace, TraceLogEntry{Type: TraceDecision, Message: fmt.Sprintf("tactical guardrail triggered (eval_delta=%.2f); weights overridden to pure engine preference", guardrail.EvalDelta)})
	}

	for _, l := range topEngineLines(candidates, 3) {
		trace = append(trace, TraceLogEntry{Type: TraceLogic, Message: fmt.Sprintf("engine line #%v %v (%.2f)", l.EngineRank, l.Move, l.EngineEval)})
	}
	for _, c := range candidates {
		if c.Source == "history" {
			trace = append(trace, TraceLogEntry{Type: TraceLogic, Message: fmt.Sprintf("history addition: %v (freq=%.0f%%)", c.Move, c.HistoryP*100)})
		}
		if c.Attribution.TradePenalty != 0 || c.Attribution.AggressionBonus != 0 {
			trace = append(trace, TraceLogEntry{Type: TraceWarning, Message: fmt.Sprintf("%v: %v", c.Move, c.Reason)})
		}
	}

	fused := fuse(candidates, weights)
	if tilted {
		for i := range fused {
			fused[i].Attribution.TiltModifier = heuristics.TiltModifier
			fused[i].Reason = buildReason(fused[i])
		}
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Probability != fused[j].Probability {
			return fused[i].Probability > fused[j].Probability
		}
		return fused[i].EngineRank < fused[j].EngineRank
	})

	tension := heuristics.BoardTension(pos, turn)
	blunderChance := (markers.BlunderRate / 100) * math.Min(1.0, float64(tension)/10.0)

	var pick Candidate
	source := "hybrid"
	if len(fused) >= 4 && p.rng.Float64() < blunderChance {
		idx := 2 + p.rng.Intn(2) // uniform choice between the 3rd and 4th ranked candidates
		pick = fused[idx]
		source = "blunder"
		trace = append(trace, TraceLogEntry{Type: TraceDecision, Message: fmt.Sprintf("blunder simulated (chance=%.2f, tension=%v): dropped to rank-%v candidate %v", blunderChance, tension, idx+1, pick.Move)})
	} else {
		pick = weightedPick(p.rng, fused)
	}

	moveSource := source
	if source == "hybrid" {
		moveSource = pick.Source
	}

	delay := defaultDelayMs
	if habitOK && pick.Move == habit.Move {
		delay = habitDelayMs
	}

	logw.Infof(ctx, "Predict %v: picked %v (p=%.3f, source=%v)", req.FEN, pick.Move, pick.Probability, moveSource)
	trace = append(trace, TraceLogEntry{Type: TraceDecision, Message: fmt.Sprintf("Selected %v (prob %.2f%%)", pick.Move, pick.Probability)})

	resp.Move = pick.Move
	resp.Probability = pick.Probability
	resp.Candidates = fused
	resp.MoveSource = moveSource
	resp.SuggestedDelayMs = delay
	resp.TraceLog = trace
	return resp, nil
}

// topEngineLines returns up to n candidates sourced from the engine, in ascending rank order.
func topEngineLines(candidates []Candidate, n int) []Candidate {
	out := make([]Candidate, 0, n)
	for _, c := range candidates {
		if c.Source == "history" {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EngineRank < out[j].EngineRank })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// weightedPick draws a candidate at random, weighted by its final probability (CDF inversion
// against a Uniform[0,100]). Falls back to the last candidate if rounding leaves a residual.
func weightedPick(rng *rand.Rand, candidates []Candidate) Candidate {
	r := rng.Float64() * 100
	var cum float64
	for _, c := range candidates {
		cum += c.Probability
		if r <= cum {
			return c
		}
	}
	return candidates[len(candidates)-1]
}
