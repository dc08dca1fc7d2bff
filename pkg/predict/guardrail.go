package predict

import (
	"github.com/jkern100/chess-scout/pkg/board"
	"github.com/jkern100/chess-scout/pkg/engineadapter"
	"github.com/jkern100/chess-scout/pkg/heuristics"
)

// guardrailThresholdCp is the centipawn lead the engine's top line must hold over its second
// line, on top of the top move being forcing, for the Tactical Guardrail to trigger.
const guardrailThresholdCp = 200

// evaluateTacticalGuardrail implements the Tactical Guardrail contract: it fires when the
// engine's top-ranked move is forcing (a capture, a check, or a direct attack on the enemy
// queen) and its centipawn lead over the second-ranked line exceeds guardrailThresholdCp. The
// result is always returned, triggered or not, so a caller can tell the check actually ran.
func evaluateTacticalGuardrail(pos *board.Position, turn board.Color, lines []engineadapter.Line) TacticalGuardrail {
	if len(lines) < 2 {
		return TacticalGuardrail{}
	}

	top, second := lines[0], lines[1]
	move, ok := resolveMove(pos, turn, top.Move)
	if !ok || !heuristics.IsForcingMove(pos, turn, move) {
		return TacticalGuardrail{}
	}

	gap := float64(top.Score-second.Score) / 100.0
	if gap <= float64(guardrailThresholdCp)/100.0 {
		return TacticalGuardrail{}
	}
	return TacticalGuardrail{Triggered: true, EvalDelta: gap}
}
