package predict_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jkern100/chess-scout/pkg/board/fen"
	"github.com/jkern100/chess-scout/pkg/engineadapter"
	"github.com/jkern100/chess-scout/pkg/heuristics"
	"github.com/jkern100/chess-scout/pkg/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine stubs out engineadapter.Adapter for tests that shouldn't spawn a real subprocess.
type fakeEngine struct {
	lines     []engineadapter.Line
	singleCp  int
	analyzed  []string // positions AnalyzePosition was asked about
	evaluated []string // moves AnalyzeSingleMove was asked about
}

func (f *fakeEngine) AnalyzePosition(_ context.Context, fenStr string, _ int) ([]engineadapter.Line, error) {
	f.analyzed = append(f.analyzed, fenStr)
	return f.lines, nil
}

func (f *fakeEngine) AnalyzeSingleMove(_ context.Context, _ string, move string, _ int) int {
	f.evaluated = append(f.evaluated, move)
	return f.singleCp
}

// unavailableEngine always fails, simulating a dead or unreachable engine subprocess.
type unavailableEngine struct{}

func (unavailableEngine) AnalyzePosition(context.Context, string, int) ([]engineadapter.Line, error) {
	return nil, errors.New("connection refused")
}

func (unavailableEngine) AnalyzeSingleMove(context.Context, string, string, int) int {
	return engineadapter.IllegalMovePenalty
}

func TestPredict_DegradesToUniformRandomWhenEngineUnavailable(t *testing.T) {
	p := predict.New(unavailableEngine{}, 12, 1)

	resp, err := p.Predict(context.Background(), predict.Request{
		FEN:            fen.Initial,
		IsOpponentTurn: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Move)
	assert.Empty(t, resp.Candidates)
	assert.Equal(t, "engine_unavailable", resp.MoveSource)
}

func TestPredictForProfile_DegradesOnLookupFailure(t *testing.T) {
	eng := &fakeEngine{
		lines: []engineadapter.Line{{Rank: 1, Move: "e2e4", Score: 40, Depth: 12}},
	}
	p := predict.New(eng, 12, 1)

	resp, err := p.PredictForProfile(context.Background(), fen.Initial, true, nil, predict.ProfileLookupResult{Found: false})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Move)
}

func TestPredict_Habit(t *testing.T) {
	eng := &fakeEngine{}
	p := predict.New(eng, 12, 1)

	resp, err := p.Predict(context.Background(), predict.Request{
		FEN:            fen.Initial,
		IsOpponentTurn: true,
		History: predict.History{
			SampleSize: 20,
			Entries:    []predict.HistoryEntry{{Move: "e2e4", Count: 19, Games: 20}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "e2e4", resp.Move)
	assert.Equal(t, "history", resp.MoveSource)
	require.NotNil(t, resp.HabitDetection)
	assert.Equal(t, "e2e4", resp.HabitDetection.Move)
	assert.Empty(t, eng.analyzed, "habit short-circuits before any engine call")
}

func TestPredict_Hybrid(t *testing.T) {
	eng := &fakeEngine{
		lines: []engineadapter.Line{
			{Rank: 1, Move: "e2e4", Score: 40, Depth: 12},
			{Rank: 2, Move: "d2d4", Score: 30, Depth: 12},
		},
	}
	p := predict.New(eng, 12, 1)

	resp, err := p.Predict(context.Background(), predict.Request{
		FEN:            fen.Initial,
		IsOpponentTurn: true,
		History: predict.History{
			SampleSize: 8,
			Entries:    []predict.HistoryEntry{{Move: "e2e4", Count: 5, Games: 8}, {Move: "d2d4", Count: 3, Games: 8}},
		},
		StyleMarkers: heuristics.StyleMarkers{AggressionIndex: 50},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Move)
	assert.Len(t, resp.Candidates, 2)
	assert.NotEmpty(t, eng.analyzed)

	var sum float64
	for _, c := range resp.Candidates {
		sum += c.Probability
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestPredict_InjectsUnderrepresentedHistoryMove(t *testing.T) {
	eng := &fakeEngine{
		lines:    []engineadapter.Line{{Rank: 1, Move: "e2e4", Score: 40, Depth: 12}},
		singleCp: -20,
	}
	p := predict.New(eng, 12, 1)

	resp, err := p.Predict(context.Background(), predict.Request{
		FEN:            fen.Initial,
		IsOpponentTurn: true,
		History: predict.History{
			SampleSize: 10,
			Entries:    []predict.HistoryEntry{{Move: "e2e4", Count: 5, Games: 10}, {Move: "g1f3", Count: 5, Games: 10}},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, eng.evaluated, "g1f3")

	var sawInjected bool
	for _, c := range resp.Candidates {
		if c.Move == "g1f3" {
			sawInjected = true
		}
	}
	assert.True(t, sawInjected)
}

func TestPredict_NonOpponentTurnWeighting(t *testing.T) {
	eng := &fakeEngine{
		lines: []engineadapter.Line{{Rank: 1, Move: "e2e4", Score: 40, Depth: 12}},
	}
	p := predict.New(eng, 12, 1)

	resp, err := p.Predict(context.Background(), predict.Request{
		FEN:            fen.Initial,
		IsOpponentTurn: false,
	})
	require.NoError(t, err)

	assert.Equal(t, predict.ModeNonOpponentTurn, resp.WeightMode)
}
