package predict

import (
	"context"

	"github.com/jkern100/chess-scout/pkg/heuristics"
)

// neutralStyleMarkers is the degrade target for ProfileLookupFailure: all markers at the
// midpoint except blunder rate, which defaults low rather than average.
var neutralStyleMarkers = heuristics.StyleMarkers{
	AggressionIndex:      50,
	QueenTradeAvoidance:  50,
	MaterialGreed:        50,
	ComplexityPreference: 50,
	SpaceExpansion:       50,
	BlunderRate:          5,
}

// ProfileLookupResult is the shape a profile store adapter hands back to this package. The
// store itself -- its connection, caching and persistence -- is an external collaborator; this
// type is only the contract the predictor's convenience entrypoint accepts.
type ProfileLookupResult struct {
	Markers heuristics.StyleMarkers
	History History
	Found   bool
}

// PredictForProfile builds a Request from a profile lookup and predicts against it. A failed
// lookup (Found=false) degrades to neutral style markers and empty history rather than
// propagating the failure -- ProfileLookupFailure never aborts a prediction.
func (p *Predictor) PredictForProfile(ctx context.Context, fenStr string, isOpponentTurn bool, recentEvalDeltas []float64, lookup ProfileLookupResult) (*Response, error) {
	req := Request{
		FEN:              fenStr,
		IsOpponentTurn:   isOpponentTurn,
		RecentEvalDeltas: recentEvalDeltas,
		StyleMarkers:     neutralStyleMarkers,
	}
	if lookup.Found {
		req.StyleMarkers = lookup.Markers
		req.History = lookup.History
	}
	return p.Predict(ctx, req)
}
