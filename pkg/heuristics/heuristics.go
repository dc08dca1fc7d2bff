// Package heuristics scores candidate moves against positional and stylistic patterns: king
// safety, tension, material grabs, space expansion and the degree to which a move matches an
// opponent's known style markers. It never picks a move; it only describes one.
package heuristics

import (
	"math"

	"github.com/jkern100/chess-scout/pkg/board"
	"github.com/jkern100/chess-scout/pkg/eval"
)

// StyleMarkers summarizes an opponent's playing tendencies, each on a 0-100 scale.
type StyleMarkers struct {
	AggressionIndex      float64 `json:"aggression_index"`
	QueenTradeAvoidance  float64 `json:"queen_trade_avoidance"`
	MaterialGreed        float64 `json:"material_greed"`
	ComplexityPreference float64 `json:"complexity_preference"`
	SpaceExpansion       float64 `json:"space_expansion"`
	BlunderRate          float64 `json:"blunder_rate"`
}

// kingZoneOffsets are the file/rank deltas of the 3x3 grid centered on a king, including the
// king's own square.
var kingZoneOffsets = [9][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// MoveAttribution is the additive style-fit bonus/penalty breakdown behind a move, one field per
// feature test in the style-fit table. Fields accumulate when more than one feature on the same
// marker fires for a move (e.g. both aggression contributions).
type MoveAttribution struct {
	AggressionBonus float64 `json:"aggression_bonus"`
	ComplexityBonus float64 `json:"complexity_bonus"`
	TradePenalty    float64 `json:"trade_penalty"`
	GreedBonus      float64 `json:"greed_bonus"`
	SpaceBonus      float64 `json:"space_bonus"`
	TiltModifier    float64 `json:"tilt_modifier"`
}

// KingZonePressure sums, over each square of the 3x3 zone around color's king, the number of
// opponent pieces attacking that square; a piece attacking several zone squares counts once per
// square. Higher means the king is under more pressure.
func KingZonePressure(pos *board.Position, color board.Color) int {
	king := pos.Piece(color, board.King)
	if king == 0 {
		return 0
	}
	ksq := king.LastPopSquare()

	pressure := 0
	for _, d := range kingZoneOffsets {
		f := int(ksq.File()) + d[0]
		r := int(ksq.Rank()) + d[1]
		if f < 0 || f >= int(board.NumFiles) || r < 0 || r >= int(board.NumRanks) {
			continue
		}
		sq := board.NewSquare(board.File(f), board.Rank(r))
		pressure += pos.Attackers(color.Opponent(), sq)
	}
	return pressure
}

// BoardTension counts legal moves available to turn that are either captures or leave the
// opponent in check. A high count means the position is sharp and forcing lines abound.
func BoardTension(pos *board.Position, turn board.Color) int {
	tension := 0
	for _, m := range pos.LegalMoves(turn) {
		if m.IsCapture() {
			tension++
			continue
		}
		if next, ok := pos.Move(m); ok && next.IsChecked(turn.Opponent()) {
			tension++
		}
	}
	return tension
}

// IsForcingMove reports whether m is a capture, gives check, or creates a direct attack on the
// enemy queen -- the move categories an opponent cannot safely ignore. Used only by the Tactical
// Guardrail contract; style-fit scoring uses the narrower GivesCheckOrThreatensMajor test.
func IsForcingMove(pos *board.Position, turn board.Color, m board.Move) bool {
	if m.IsCapture() {
		return true
	}
	next, ok := pos.Move(m)
	if !ok {
		return false
	}
	opp := turn.Opponent()
	if next.IsChecked(opp) {
		return true
	}
	for _, sq := range next.Piece(opp, board.Queen).ToSquares() {
		if next.Attackers(turn, sq) > 0 {
			return true
		}
	}
	return false
}

// MoveIncreasesKingPressure reports whether m raises the pressure on the opponent's king zone,
// from the mover's own perspective: king-zone attackers contributed by turn's pieces, measured
// before and after the push.
func MoveIncreasesKingPressure(pos *board.Position, turn board.Color, m board.Move) bool {
	before := KingZonePressure(pos, turn.Opponent())
	next, ok := pos.Move(m)
	if !ok {
		return false
	}
	return KingZonePressure(next, turn.Opponent()) > before
}

// MoveIncreasesTension reports the change in BoardTension a move causes, measured after the push
// from the perspective of whichever side is to move next (the mover's opponent).
func MoveIncreasesTension(pos *board.Position, turn board.Color, m board.Move) (delta int, increased bool) {
	before := BoardTension(pos, turn)
	next, ok := pos.Move(m)
	if !ok {
		return 0, false
	}
	after := BoardTension(next, turn.Opponent())
	delta = after - before
	return delta, delta > 0
}

// GivesCheckOrThreatensMajor reports whether m gives check, or leaves the opponent's queen or
// a rook attacked.
func GivesCheckOrThreatensMajor(pos *board.Position, turn board.Color, m board.Move) bool {
	next, ok := pos.Move(m)
	if !ok {
		return false
	}
	opp := turn.Opponent()
	if next.IsChecked(opp) {
		return true
	}

	majors := next.Piece(opp, board.Queen) | next.Piece(opp, board.Rook)
	for _, sq := range majors.ToSquares() {
		if next.Attackers(turn, sq) > 0 {
			return true
		}
	}
	return false
}

// IsQueenTradeOffer reports whether m moves turn's queen to a square attacked by the
// opponent's queen, or captures the opponent's queen with turn's own queen -- either way, an
// invitation to trade queens.
func IsQueenTradeOffer(pos *board.Position, turn board.Color, m board.Move) bool {
	if m.Piece != board.Queen {
		return false
	}
	if m.IsCapture() && m.Capture == board.Queen {
		return true
	}

	next, ok := pos.Move(m)
	if !ok {
		return false
	}
	oppQueens := next.Piece(turn.Opponent(), board.Queen)
	return board.QueenAttackboard(next.Rotated(), m.To)&oppQueens != 0
}

// IsMaterialGrab reports whether m is a capture that leaves the captured square more heavily
// attacked by the opponent than defended by turn -- a greedy grab the opponent can punish.
func IsMaterialGrab(pos *board.Position, turn board.Color, m board.Move) bool {
	if !m.IsCapture() || eval.NominalValueGain(m) <= 0 {
		return false
	}
	next, ok := pos.Move(m)
	if !ok {
		return false
	}

	attackers := next.Attackers(turn.Opponent(), m.To)
	defenders := next.Attackers(turn, m.To)
	return attackers > defenders
}

// IsSpaceExpansion reports whether m is a non-capture pawn push past the midline: to rank 5
// or beyond for White, rank 4 or beyond for Black.
func IsSpaceExpansion(turn board.Color, m board.Move) bool {
	if m.Piece != board.Pawn || m.IsCapture() {
		return false
	}
	if turn == board.White {
		return m.To.Rank() > board.Rank4
	}
	return m.To.Rank() < board.Rank5
}

// StyleFitScore adds a bonus or penalty to a move depending on how well it matches the given
// style markers, on top of whatever intrinsic merit the move has. The score is an additive
// adjustment, not a probability, and is meant to be combined with other signals downstream.
// Returns the total alongside the per-feature breakdown that produced it.
func StyleFitScore(pos *board.Position, turn board.Color, m board.Move, markers StyleMarkers) (float64, MoveAttribution) {
	var attr MoveAttribution

	if markers.AggressionIndex > 75 {
		if GivesCheckOrThreatensMajor(pos, turn, m) {
			attr.AggressionBonus += 0.20
		}
		if MoveIncreasesKingPressure(pos, turn, m) {
			attr.AggressionBonus += 0.15
		}
	}

	if markers.QueenTradeAvoidance > 80 && IsQueenTradeOffer(pos, turn, m) {
		attr.TradePenalty -= 0.50
	}

	if markers.MaterialGreed > 70 && IsMaterialGrab(pos, turn, m) {
		attr.GreedBonus += 0.30
	}

	delta, _ := MoveIncreasesTension(pos, turn, m)
	if markers.ComplexityPreference > 80 && delta > 2 {
		attr.ComplexityBonus += 0.25
	} else if markers.ComplexityPreference < 30 && delta > 3 {
		attr.ComplexityBonus -= 0.15
	}

	if markers.SpaceExpansion > 60 && IsSpaceExpansion(turn, m) {
		attr.SpaceBonus += 0.15
	}

	total := attr.AggressionBonus + attr.TradePenalty + attr.GreedBonus + attr.ComplexityBonus + attr.SpaceBonus + attr.TiltModifier
	return total, attr
}

// DetectTilt reports whether an opponent appears to be on tilt: any of the most recent (up to
// three) evaluation deltas dropped by more than one pawn.
func DetectTilt(recentEvalDeltas []float64) bool {
	if len(recentEvalDeltas) > 3 {
		recentEvalDeltas = recentEvalDeltas[len(recentEvalDeltas)-3:]
	}
	for _, d := range recentEvalDeltas {
		if d < -1.0 {
			return true
		}
	}
	return false
}

// TiltModifier is the value recorded in MoveAttribution.TiltModifier on every fused candidate
// when tilt is detected. It is set after fusion and does not change raw scores or probabilities.
const TiltModifier = 0.5

// ApplyTiltModifiers amplifies the markers that erode under pressure -- an opponent who is
// tilting plays more aggressively, grabs material more readily, and blunders more often.
// Amplified markers are capped at 100. No-op if tilted is false.
func ApplyTiltModifiers(markers StyleMarkers, tilted bool) StyleMarkers {
	if !tilted {
		return markers
	}

	out := markers
	out.AggressionIndex = math.Min(100, markers.AggressionIndex*2)
	out.MaterialGreed = math.Min(100, markers.MaterialGreed*1.5)
	out.BlunderRate = math.Min(100, markers.BlunderRate*2)
	return out
}
