package board

import "fmt"

// MoveType indicates the type of move. The no-progress counter is reset with any non-Normal move.
type MoveType uint8

const (
	Normal    MoveType = iota
	Push               // Pawn move
	Jump               // Pawn 2-square move
	EnPassant          // Implicitly a pawn capture
	QueenSideCastle
	KingSideCastle
	Capture
	Promotion
	CapturePromotion
)

// Move represents a not-necessarily legal move along with contextual metadata. 64bits.
type Move struct {
	Type     MoveType
	Piece    Piece // piece being moved
	From, To Square

	Promotion Piece // desired piece for promotion, if any.
	Capture   Piece // captured piece, if any.
	Score     Score
}

// ParseMove parses a move in pure algebraic coordinate notation, such as "a2a4" or "a7a8q".
// The parsed move does not contain contextual information like castling or en passant.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)

	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: '%v'", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from: '%v': %v", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to: '%v': %v", str, err)
	}

	if len(runes) == 5 {
		promo, ok := ParsePiece(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion: '%v'", str)
		}
		return Move{From: from, To: to, Promotion: promo}, nil
	}

	return Move{From: from, To: to}, nil
}

func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// IsCapture returns true iff the move captures a piece, including en passant.
func (m Move) IsCapture() bool {
	switch m.Type {
	case Capture, CapturePromotion, EnPassant:
		return true
	default:
		return false
	}
}

// IsPromotion returns true iff the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Type == Promotion || m.Type == CapturePromotion
}

// EnPassantCapture returns the square of the pawn captured en passant, if the move is one.
func (m Move) EnPassantCapture() (Square, bool) {
	if m.Type != EnPassant {
		return ZeroSquare, false
	}
	return NewSquare(m.To.File(), m.From.Rank()), true
}

// EnPassantTarget returns the "behind the pawn" target square created by a 2-square pawn
// jump, if the move is one. The zero square means "no new target" for hashing purposes.
func (m Move) EnPassantTarget() (Square, bool) {
	if m.Type != Jump {
		return ZeroSquare, false
	}
	mid := (int(m.From.Rank()) + int(m.To.Rank())) / 2
	return NewSquare(m.From.File(), Rank(mid)), true
}

// CastlingRookMove returns the rook "from" and "to" squares for a castling move.
func (m Move) CastlingRookMove() (Square, Square, bool) {
	switch m.Type {
	case KingSideCastle:
		if m.From.Rank() == Rank1 {
			return H1, F1, true
		}
		return H8, F8, true
	case QueenSideCastle:
		if m.From.Rank() == Rank1 {
			return A1, D1, true
		}
		return A8, D8, true
	default:
		return ZeroSquare, ZeroSquare, false
	}
}

// CastlingRightsLost returns the castling rights removed by making this move, based on its
// own from/to squares (a rook captured on a1/h1/a8/h8 removes the corresponding right too).
func (m Move) CastlingRightsLost() Castling {
	var lost Castling

	switch m.From {
	case E1:
		lost |= WhiteKingSideCastle | WhiteQueenSideCastle
	case E8:
		lost |= BlackKingSideCastle | BlackQueenSideCastle
	case A1:
		lost |= WhiteQueenSideCastle
	case H1:
		lost |= WhiteKingSideCastle
	case A8:
		lost |= BlackQueenSideCastle
	case H8:
		lost |= BlackKingSideCastle
	}
	switch m.To {
	case A1:
		lost |= WhiteQueenSideCastle
	case H1:
		lost |= WhiteKingSideCastle
	case A8:
		lost |= BlackQueenSideCastle
	case H8:
		lost |= BlackKingSideCastle
	}
	return lost
}

func (m Move) String() string {
	if m.Promotion.IsValid() {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}

// UCI formats the move in pure algebraic (UCI) notation, e.g. "e2e4" or "a7a8q".
func (m Move) UCI() string {
	if m.Promotion.IsValid() {
		return fmt.Sprintf("%v%v%v", m.From.UCI(), m.To.UCI(), m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From.UCI(), m.To.UCI())
}
