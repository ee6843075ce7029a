package engine

import "github.com/corvidchess/corvid/internal/board"

// King safety weights per attacker type
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0} // Pawn, Knight, Bishop, Rook, Queen, King

const (
	pawnShieldBonus      = 10  // Bonus per pawn in front of king
	pawnShieldMissing    = -15 // Penalty per missing shield pawn
	openFileNearKing     = -20 // Penalty for open file near king
	semiOpenFileNearKing = -10 // Penalty for semi-open file
)

// King tropism weights per piece type (bonus for proximity to enemy king)
var tropismWeight = [6]int{0, 3, 2, 2, 5, 0} // Pawn, Knight, Bishop, Rook, Queen, King

// evaluateKingSafety evaluates king safety for both sides: attacker
// pressure on the king zone plus pawn shield integrity. Returns a
// middlegame-only score, since king safety matters far less once queens
// and major pieces are off the board.
func evaluateKingSafety(pos *board.Position) int {
	var score int
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)

		kingSq := pos.KingSquare[color]
		kingFile := kingSq.File()

		kingZone := board.KingAttacks(kingSq) | board.SquareBB(kingSq)
		if color == board.White {
			kingZone |= kingZone.North()
		} else {
			kingZone |= kingZone.South()
		}

		enemy := color.Other()

		attackerCount := 0
		attackWeight := 0

		for _, attackerPt := range [...]board.PieceType{board.Knight, board.Bishop, board.Rook, board.Queen} {
			pieces := pos.Pieces[enemy][attackerPt]
			for temp := pieces; temp != 0; {
				sq := temp.PopLSB()
				attacks := attackerAttacksFor(attackerPt, sq, occupied)
				if attacks&kingZone != 0 {
					attackerCount++
					attackWeight += attackerWeight[attackerPt]
				}
			}
		}

		// More simultaneous attackers scale the summed weight by half the
		// attacker count, so the attack grows faster than additively.
		if attackerCount >= 2 {
			attackWeight = attackWeight * attackerCount / 2
		}
		score -= sign * attackWeight

		ownPawns := pos.Pieces[color][board.Pawn]
		enemyFilePawns := pos.Pieces[enemy][board.Pawn]

		for f := kingFile - 1; f <= kingFile+1; f++ {
			if f < 0 || f > 7 {
				continue
			}

			filePawns := ownPawns & board.FileMask[f]
			enemyOnFile := enemyFilePawns & board.FileMask[f]

			shieldRank := 1 // Rank 2
			if color == board.Black {
				shieldRank = 6 // Rank 7
			}

			shieldMask := board.FileMask[f] & board.RankMask[shieldRank]
			if ownPawns&shieldMask != 0 {
				score += sign * pawnShieldBonus
			} else if filePawns == 0 {
				score += sign * pawnShieldMissing
			}

			if filePawns == 0 && enemyOnFile == 0 {
				score += sign * openFileNearKing
			} else if filePawns == 0 {
				score += sign * semiOpenFileNearKing
			}
		}
	}

	return score
}

// attackerAttacksFor computes the attack set of a single piece of the
// given type, used by evaluateKingSafety to test king-zone pressure
// without repeating a switch per piece type at each call site.
func attackerAttacksFor(pt board.PieceType, sq board.Square, occupied board.Bitboard) board.Bitboard {
	switch pt {
	case board.Knight:
		return board.KnightAttacks(sq)
	case board.Bishop:
		return board.BishopAttacks(sq, occupied)
	case board.Rook:
		return board.RookAttacks(sq, occupied)
	case board.Queen:
		return board.QueenAttacks(sq, occupied)
	default:
		return 0
	}
}

// chebyshevDistance calculates the Chebyshev distance between two squares.
// This is max(|file_diff|, |rank_diff|), representing king moves needed.
func chebyshevDistance(sq1, sq2 board.Square) int {
	f1, r1 := sq1.File(), sq1.Rank()
	f2, r2 := sq2.File(), sq2.Rank()

	fileDiff := f1 - f2
	if fileDiff < 0 {
		fileDiff = -fileDiff
	}
	rankDiff := r1 - r2
	if rankDiff < 0 {
		rankDiff = -rankDiff
	}

	if fileDiff > rankDiff {
		return fileDiff
	}
	return rankDiff
}

// evaluateKingTropism calculates bonus for pieces approaching enemy king.
// Returns a middlegame-only score, since tropism matters most while an
// attack is still building.
func evaluateKingTropism(pos *board.Position) int {
	var score int

	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)
		enemy := color.Other()
		enemyKingSq := pos.KingSquare[enemy]

		for pt := board.Knight; pt <= board.Queen; pt++ {
			pieces := pos.Pieces[color][pt]
			for pieces != 0 {
				sq := pieces.PopLSB()
				dist := chebyshevDistance(sq, enemyKingSq)

				if dist < 7 {
					bonus := tropismWeight[pt] * (7 - dist)
					score += sign * bonus
				}
			}
		}
	}

	return score
}
