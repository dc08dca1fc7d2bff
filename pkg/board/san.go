package board

import (
	"fmt"
	"strings"
)

// SAN formats the move in Standard Algebraic Notation, including check/mate suffixes, relative
// to the position before the move was made and the color to move. The move must be legal for pos.
func (m Move) SAN(pos *Position, turn Color) string {
	if m.Type == KingSideCastle {
		return withCheckSuffix(pos, turn, m, "O-O")
	}
	if m.Type == QueenSideCastle {
		return withCheckSuffix(pos, turn, m, "O-O-O")
	}

	var sb strings.Builder
	switch {
	case m.Piece != Pawn:
		sb.WriteString(strings.ToUpper(m.Piece.String()))
		sb.WriteString(disambiguate(pos, turn, m))
	case m.IsCapture():
		sb.WriteString(strings.ToLower(m.From.File().String()))
	}

	if m.IsCapture() {
		sb.WriteString("x")
	}
	sb.WriteString(m.To.UCI())

	if m.IsPromotion() {
		sb.WriteString("=")
		sb.WriteString(strings.ToUpper(m.Promotion.String()))
	}

	return withCheckSuffix(pos, turn, m, sb.String())
}

// disambiguate returns the minimal file/rank/square prefix needed to distinguish m from any
// other legal move of the same piece type and color landing on the same square.
func disambiguate(pos *Position, turn Color, m Move) string {
	var other, sameFile, sameRank bool

	for _, sq := range (pos.Piece(turn, m.Piece) &^ BitMask(m.From)).ToSquares() {
		if Attackboard(pos.Rotated(), sq, m.Piece)&BitMask(m.To) == 0 {
			continue
		}

		alt := Move{Type: m.Type, Piece: m.Piece, From: sq, To: m.To, Capture: m.Capture, Promotion: m.Promotion}
		if _, ok := pos.Move(alt); !ok {
			continue
		}

		other = true
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	switch {
	case !other:
		return ""
	case !sameFile:
		return strings.ToLower(m.From.File().String())
	case !sameRank:
		return m.From.Rank().String()
	default:
		return m.From.UCI()
	}
}

// withCheckSuffix appends "+" or "#" to san based on whether m leaves the opponent in check
// or checkmate. Returns san unchanged if m is illegal for pos (should not happen for real moves).
func withCheckSuffix(pos *Position, turn Color, m Move, san string) string {
	next, ok := pos.Move(m)
	if !ok {
		return san
	}

	opp := turn.Opponent()
	if !next.IsChecked(opp) {
		return san
	}
	if len(next.LegalMoves(opp)) == 0 {
		return san + "#"
	}
	return san + "+"
}

// ParseSAN parses a Standard Algebraic Notation move string against pos for the color to move,
// returning the corresponding legal move. It requires pos to resolve disambiguation and to
// validate the result is actually legal -- SAN alone does not carry enough information otherwise.
func ParseSAN(pos *Position, turn Color, san string) (Move, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(san), "+"), "#")

	switch trimmed {
	case "O-O":
		return findSANMove(pos, turn, san, func(m Move) bool { return m.Type == KingSideCastle })
	case "O-O-O":
		return findSANMove(pos, turn, san, func(m Move) bool { return m.Type == QueenSideCastle })
	}

	piece := Pawn
	idx := 0
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case 'B':
			piece, idx = Bishop, 1
		case 'N':
			piece, idx = Knight, 1
		case 'R':
			piece, idx = Rook, 1
		case 'Q':
			piece, idx = Queen, 1
		case 'K':
			piece, idx = King, 1
		}
	}

	var promotion Piece
	if eq := strings.IndexRune(trimmed, '='); eq >= 0 {
		runes := []rune(trimmed)
		if eq+1 >= len(runes) {
			return Move{}, fmt.Errorf("invalid promotion in SAN: %q", san)
		}
		promo, ok := ParsePiece(runes[eq+1])
		if !ok {
			return Move{}, fmt.Errorf("invalid promotion in SAN: %q", san)
		}
		promotion = promo
		trimmed = trimmed[:eq]
	}

	body := strings.ReplaceAll(trimmed, "x", "")
	runes := []rune(body)
	if len(runes) < 2 {
		return Move{}, fmt.Errorf("invalid SAN: %q", san)
	}

	to, err := ParseSquare(runes[len(runes)-2], runes[len(runes)-1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid destination in SAN: %q: %w", san, err)
	}
	disambig := strings.ToLower(string(runes[idx : len(runes)-2]))

	return findSANMove(pos, turn, san, func(m Move) bool {
		if m.Piece != piece || m.To != to {
			return false
		}
		if m.IsPromotion() && m.Promotion != promotion {
			return false
		}
		if disambig == "" {
			return true
		}
		return strings.Contains(strings.ToLower(m.From.UCI()), disambig)
	})
}

func findSANMove(pos *Position, turn Color, san string, match func(Move) bool) (Move, error) {
	for _, m := range pos.LegalMoves(turn) {
		if match(m) {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("no legal move matches SAN: %q", san)
}
