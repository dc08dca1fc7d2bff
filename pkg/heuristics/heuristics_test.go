package heuristics_test

import (
	"testing"

	"github.com/jkern100/chess-scout/pkg/board"
	"github.com/jkern100/chess-scout/pkg/board/fen"
	"github.com/jkern100/chess-scout/pkg/heuristics"
	"github.com/stretchr/testify/require"
)

func legal(t *testing.T, pos *board.Position, turn board.Color, uci string) board.Move {
	t.Helper()

	candidate, err := board.ParseMove(uci)
	require.NoError(t, err)

	for _, m := range pos.LegalMoves(turn) {
		if m.Equals(candidate) {
			return m
		}
	}
	t.Fatalf("not a legal move: %v", uci)
	return board.Move{}
}

func TestIsSpaceExpansion(t *testing.T) {
	pos, turn, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	require.False(t, heuristics.IsSpaceExpansion(turn, legal(t, pos, turn, "e2e3")))
	require.False(t, heuristics.IsSpaceExpansion(turn, legal(t, pos, turn, "e2e4")))
}

func TestIsForcingMove(t *testing.T) {
	pos, turn, _, _, err := fen.Decode("rnb1kbnr/pppp1ppp/8/4p3/4P2q/8/PPPP1PPP/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)

	require.False(t, heuristics.IsForcingMove(pos, turn, legal(t, pos, turn, "b1c3")))
	require.True(t, heuristics.IsForcingMove(pos, turn, legal(t, pos, turn, "g2g3")))
}

func TestKingZonePressure(t *testing.T) {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	require.Equal(t, 0, heuristics.KingZonePressure(pos, board.White))
	require.Equal(t, 0, heuristics.KingZonePressure(pos, board.Black))
}

func TestDetectTilt(t *testing.T) {
	require.False(t, heuristics.DetectTilt([]float64{0.2, -0.3, 0.1}))
	require.True(t, heuristics.DetectTilt([]float64{0.2, -1.5, 0.1}))
	require.True(t, heuristics.DetectTilt([]float64{-5.0, -1.5, 0.1, 0.3}))  // only last 3 considered
	require.False(t, heuristics.DetectTilt([]float64{-5.0, 0.2, 0.1, 0.3})) // the -5.0 drop is outside the window
}

func TestApplyTiltModifiers(t *testing.T) {
	base := heuristics.StyleMarkers{AggressionIndex: 40, MaterialGreed: 50, BlunderRate: 60}

	require.Equal(t, base, heuristics.ApplyTiltModifiers(base, false))

	tilted := heuristics.ApplyTiltModifiers(base, true)
	require.Equal(t, 80.0, tilted.AggressionIndex)
	require.Equal(t, 75.0, tilted.MaterialGreed)
	require.Equal(t, 100.0, tilted.BlunderRate)
}

func TestStyleFitScore(t *testing.T) {
	pos, turn, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	aggressive := heuristics.StyleMarkers{AggressionIndex: 90}
	quiet := legal(t, pos, turn, "a2a3")
	score, attr := heuristics.StyleFitScore(pos, turn, quiet, aggressive)
	require.Zero(t, score, "a quiet non-threatening move earns no aggression bonus and no penalty")
	require.Zero(t, attr.AggressionBonus)
}

func TestStyleFitScore_TradePenalty(t *testing.T) {
	// White queen on d1 attacked by a black queen on d8 down an open file; Qd1-d4 walks into it.
	pos, turn, _, _, err := fen.Decode("3qk3/8/8/8/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)

	markers := heuristics.StyleMarkers{QueenTradeAvoidance: 90}
	offer := legal(t, pos, turn, "d1d4")
	score, attr := heuristics.StyleFitScore(pos, turn, offer, markers)
	require.Equal(t, -0.50, attr.TradePenalty)
	require.Equal(t, -0.50, score)
}
