package engine

import "github.com/corvidchess/corvid/internal/board"

// Mobility weights per piece type
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0} // Pawn, Knight, Bishop, Rook, Queen, King
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

// mobilityMover pairs a piece type with its attack generator so
// evaluateMobility can loop over sliders and leapers uniformly.
var mobilityMovers = [...]struct {
	pt      board.PieceType
	attacks func(sq board.Square, occupied board.Bitboard) board.Bitboard
}{
	{board.Knight, func(sq board.Square, _ board.Bitboard) board.Bitboard { return board.KnightAttacks(sq) }},
	{board.Bishop, board.BishopAttacks},
	{board.Rook, board.RookAttacks},
	{board.Queen, board.QueenAttacks},
}

// evaluateMobility calculates mobility scores for all pieces.
// Returns middlegame and endgame bonuses.
func evaluateMobility(pos *board.Position) (mgBonus, egBonus int) {
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)

		enemyPawns := pos.Pieces[color.Other()][board.Pawn]
		var unsafeSquares board.Bitboard
		if color == board.White {
			unsafeSquares = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			unsafeSquares = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}

		blockedSquares := unsafeSquares | pos.Occupied[color]

		for _, mover := range mobilityMovers {
			pieces := pos.Pieces[color][mover.pt]
			for pieces != 0 {
				sq := pieces.PopLSB()
				safeSquares := mover.attacks(sq, occupied) &^ blockedSquares
				count := safeSquares.PopCount()
				mgBonus += sign * mobilityMgWeight[mover.pt] * count
				egBonus += sign * mobilityEgWeight[mover.pt] * count
			}
		}
	}

	return mgBonus, egBonus
}
