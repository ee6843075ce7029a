package engine

import "github.com/corvidchess/corvid/internal/board"

// attackerCandidate pairs a piece type with how to compute its attacks on
// a target square, ordered cheapest-first so getLeastValuableAttacker can
// walk the list and stop at the first hit.
type attackerCandidate struct {
	pt      board.PieceType
	attacks func(target board.Square, occupied board.Bitboard, side board.Color) board.Bitboard
}

var attackerCandidates = [...]attackerCandidate{
	{board.Pawn, func(target board.Square, _ board.Bitboard, side board.Color) board.Bitboard {
		return board.PawnAttacks(target, side.Other())
	}},
	{board.Knight, func(target board.Square, _ board.Bitboard, _ board.Color) board.Bitboard {
		return board.KnightAttacks(target)
	}},
	{board.Bishop, func(target board.Square, occupied board.Bitboard, _ board.Color) board.Bitboard {
		return board.BishopAttacks(target, occupied)
	}},
	{board.Rook, func(target board.Square, occupied board.Bitboard, _ board.Color) board.Bitboard {
		return board.RookAttacks(target, occupied)
	}},
	{board.Queen, func(target board.Square, occupied board.Bitboard, _ board.Color) board.Bitboard {
		return board.BishopAttacks(target, occupied) | board.RookAttacks(target, occupied)
	}},
	{board.King, func(target board.Square, _ board.Bitboard, _ board.Color) board.Bitboard {
		return board.KingAttacks(target)
	}},
}

// SEE (Static Exchange Evaluation) estimates the result of a capture
// sequence on the target square, from the moving side's perspective.
func SEE(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	var capturedValue int
	if m.IsEnPassant() {
		capturedValue = PawnValue
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0
		}
		capturedValue = pieceValues[victim.Type()]
	}

	if m.IsPromotion() {
		capturedValue += pieceValues[m.Promotion()] - PawnValue
	}

	return seeSwap(pos, to, from, attacker, capturedValue)
}

// seeSwap runs the classic swap-off algorithm: simulate captures alternating
// sides on target, recording the running material gain at each depth, then
// negamax the gain array back to the side that initiated the exchange.
func seeSwap(pos *board.Position, target, excludeFrom board.Square, firstAttacker board.Piece, initialGain int) int {
	var gain [32]int
	d := 0
	gain[d] = initialGain

	occupied := pos.AllOccupied &^ board.SquareBB(excludeFrom)
	attackerValue := pieceValues[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		d++
		gain[d] = attackerValue - gain[d-1]

		if max(-gain[d-1], gain[d]) < 0 {
			break
		}

		attackerSq, attackerPiece := getLeastValuableAttacker(pos, target, side, occupied)
		if attackerSq == board.NoSquare {
			break
		}

		occupied &^= board.SquareBB(attackerSq)
		attackerValue = pieceValues[attackerPiece.Type()]
		side = side.Other()
	}

	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}

	return gain[0]
}

// getLeastValuableAttacker finds the cheapest piece of side attacking
// target, walking attackerCandidates in ascending value order so x-ray
// attackers revealed by the caller's updated occupied mask are picked up
// automatically. Returns NoSquare if side has no attacker left.
func getLeastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	for _, c := range attackerCandidates {
		pieces := pos.Pieces[side][c.pt] & occupied
		if pieces == 0 {
			continue
		}
		attackers := pieces & c.attacks(target, occupied, side)
		if attackers != 0 {
			return attackers.LSB(), board.NewPiece(c.pt, side)
		}
	}
	return board.NoSquare, board.NoPiece
}
