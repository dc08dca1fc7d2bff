package predict

import (
	"context"
	"fmt"
	"strings"

	"github.com/jkern100/chess-scout/pkg/board"
	"github.com/jkern100/chess-scout/pkg/heuristics"
)

// Candidate Assembler: builds the full candidate set for fusion -- the engine's own top lines,
// plus any history move the opponent plays often enough that it must be considered even if the
// engine itself would never suggest it. Order is preserved: engine top-M first by engine rank,
// then history additions in insertion order, per the assembler contract.
func (p *Predictor) assembleCandidates(ctx context.Context, req Request, pos *board.Position, turn board.Color, markers heuristics.StyleMarkers) ([]Candidate, TacticalGuardrail, error) {
	lines, err := p.engine.AnalyzePosition(ctx, req.FEN, p.depth)
	if err != nil {
		return nil, TacticalGuardrail{}, &Error{Kind: EngineUnavailable, FEN: req.FEN, Cause: err}
	}
	guardrail := evaluateTacticalGuardrail(pos, turn, lines)

	type scored struct {
		score int
		rank  int
	}

	order := make([]string, 0, len(lines)+len(req.History.Entries))
	engineScores := make(map[string]scored, len(lines))
	fromEngine := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.Move == "" {
			continue
		}
		engineScores[l.Move] = scored{score: l.Score, rank: l.Rank}
		fromEngine[l.Move] = true
		order = append(order, l.Move)
	}

	nextRank := len(lines) + 1
	fromHistory := make(map[string]bool, len(req.History.Entries))
	for _, e := range req.History.Entries {
		if e.Count <= 0 {
			continue
		}
		fromHistory[e.Move] = true

		if _, ok := engineScores[e.Move]; ok {
			continue
		}

		freq := 0.0
		if req.History.SampleSize > 0 {
			freq = float64(e.Count) / float64(req.History.SampleSize)
		}
		if freq < 0.10 && e.Games < 5 {
			continue
		}
		if _, ok := resolveMove(pos, turn, e.Move); !ok {
			continue
		}

		engineScores[e.Move] = scored{score: p.engine.AnalyzeSingleMove(ctx, req.FEN, e.Move, p.depth), rank: nextRank}
		nextRank++
		order = append(order, e.Move)
	}

	if len(engineScores) == 0 {
		return nil, guardrail, nil
	}

	rawScores := make(map[string]int, len(engineScores))
	for move, s := range engineScores {
		rawScores[move] = s.score
	}

	historyP := normalizeHistory(req.History)
	engineP := normalizeEngineScores(rawScores)

	candidates := make([]Candidate, 0, len(engineScores))
	for _, move := range order {
		m, ok := resolveMove(pos, turn, move)
		if !ok {
			// Stale relative to the current position (e.g. history from a transposed line); drop it.
			continue
		}

		source := "engine"
		switch {
		case fromEngine[move] && fromHistory[move]:
			source = "both"
		case fromHistory[move]:
			source = "history"
		}

		styleScore, attribution := heuristics.StyleFitScore(pos, turn, m, markers)
		s := engineScores[move]

		c := Candidate{
			Move:        move,
			EngineRank:  s.rank,
			EngineEval:  float64(s.score) / 100.0,
			HistoryP:    historyP[move],
			EngineP:     engineP[move],
			StyleScore:  styleScore,
			Attribution: attribution,
			Source:      source,
		}
		c.Reason = buildReason(c)
		candidates = append(candidates, c)
	}
	return candidates, guardrail, nil
}

// buildReason assembles CandidateMove.reason: a semicolon-joined summary of the engine rank,
// history share and style attribution behind a candidate.
func buildReason(c Candidate) string {
	parts := []string{fmt.Sprintf("engine rank %d (%.2f)", c.EngineRank, c.EngineEval)}
	if c.HistoryP > 0 {
		parts = append(parts, fmt.Sprintf("history frequency %.0f%%", c.HistoryP*100))
	}

	a := c.Attribution
	if a.AggressionBonus != 0 {
		parts = append(parts, fmt.Sprintf("aggression bonus %+.2f", a.AggressionBonus))
	}
	if a.ComplexityBonus != 0 {
		parts = append(parts, fmt.Sprintf("complexity bonus %+.2f", a.ComplexityBonus))
	}
	if a.TradePenalty != 0 {
		parts = append(parts, fmt.Sprintf("trade penalty %+.2f", a.TradePenalty))
	}
	if a.GreedBonus != 0 {
		parts = append(parts, fmt.Sprintf("greed bonus %+.2f", a.GreedBonus))
	}
	if a.SpaceBonus != 0 {
		parts = append(parts, fmt.Sprintf("space bonus %+.2f", a.SpaceBonus))
	}
	if a.TiltModifier != 0 {
		parts = append(parts, fmt.Sprintf("tilt modifier %+.2f", a.TiltModifier))
	}

	return strings.Join(parts, "; ")
}

// resolveMove resolves a UCI move string against the legal moves available to turn in pos.
func resolveMove(pos *board.Position, turn board.Color, uci string) (board.Move, bool) {
	candidate, err := board.ParseMove(uci)
	if err != nil {
		return board.Move{}, false
	}
	for _, m := range pos.LegalMoves(turn) {
		if m.Equals(candidate) {
			return m, true
		}
	}
	return board.Move{}, false
}
