package engine

import "github.com/corvidchess/corvid/internal/board"

// Bishop pair bonus (having two bishops)
const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

// Rook on open/semi-open file bonuses
const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

// Outpost bonuses
const (
	knightOutpostMg          = 25
	knightOutpostEg          = 15
	knightOutpostProtectedMg = 15
	knightOutpostProtectedEg = 10
	bishopOutpostMg          = 15
	bishopOutpostEg          = 10
)

// Piece coordination constants
const (
	rookOn7thMg          = 30
	rookOn7thEg          = 40
	rookOn7thWithPawnsMg = 15 // Extra bonus if enemy has pawns on 2nd rank
	rookOn7thWithPawnsEg = 20
	doubleRooksOn7thMg   = 50 // Both rooks on 7th (pig rooks)
	doubleRooksOn7thEg   = 60
	connectedRooksMg     = 10
	connectedRooksEg     = 15
	doubledRooksOnFileMg = 20
	doubledRooksOnFileEg = 25
)

// Space evaluation constants
const (
	spaceSquareBonus     = 2 // Per safe square in space zone controlled
	spaceBehindPawnBonus = 3 // Extra bonus if behind our pawn chain
	spaceMinPieces       = 3 // Minimum pieces to apply space evaluation
)

// Space zones for each side (central files, ranks 2-5 for white, 4-7 for black)
var (
	whiteSpaceZone = (board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank2 | board.Rank3 | board.Rank4 | board.Rank5)
	blackSpaceZone = (board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank4 | board.Rank5 | board.Rank6 | board.Rank7)
)

// Trapped piece penalties
const (
	badBishopPenaltyMg = -5 // Per own pawn blocking on the bishop's square color
	badBishopPenaltyEg = -10

	trappedBishopPenaltyMg = -80 // On a6/h6/a3/h3, boxed in by enemy pawns
	trappedBishopPenaltyEg = -50

	trappedRookPenaltyMg = -50 // In a corner behind an uncastled king
	trappedRookPenaltyEg = -25

	knightRimPenaltyMg    = -15 // On rim with 3 or fewer moves
	knightRimPenaltyEg    = -10
	knightCornerPenaltyMg = -30 // On corner squares
	knightCornerPenaltyEg = -20
)

// Light and dark square masks
var (
	lightSquares board.Bitboard // Squares where file+rank is odd (a1 is dark)
	darkSquares  board.Bitboard // Squares where file+rank is even
)

// Rim and corner masks for knights
var (
	rimSquares    = board.FileA | board.FileH | board.Rank1 | board.Rank8
	cornerSquares = board.SquareBB(board.A1) | board.SquareBB(board.H1) |
		board.SquareBB(board.A8) | board.SquareBB(board.H8)
)

func init() {
	for sq := board.A1; sq <= board.H8; sq++ {
		if (sq.File()+sq.Rank())%2 == 1 {
			lightSquares |= board.SquareBB(sq)
		} else {
			darkSquares |= board.SquareBB(sq)
		}
	}
}

// evaluateBishopPair returns bonus for having the bishop pair.
func evaluateBishopPair(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)

		if pos.Pieces[color][board.Bishop].PopCount() >= 2 {
			mgBonus += sign * bishopPairMgBonus
			egBonus += sign * bishopPairEgBonus
		}
	}
	return mgBonus, egBonus
}

// evaluateRooksOnFiles returns bonus for rooks on open/semi-open files.
func evaluateRooksOnFiles(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)

		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[color.Other()][board.Pawn]

		rooks := pos.Pieces[color][board.Rook]
		for rooks != 0 {
			sq := rooks.PopLSB()
			fileMask := board.FileMask[sq.File()]

			hasOwnPawn := (ownPawns & fileMask) != 0
			hasEnemyPawn := (enemyPawns & fileMask) != 0

			if !hasOwnPawn {
				if !hasEnemyPawn {
					mgBonus += sign * rookOpenFileMg
					egBonus += sign * rookOpenFileEg
				} else {
					mgBonus += sign * rookSemiOpenFileMg
					egBonus += sign * rookSemiOpenFileEg
				}
			}
		}
	}
	return mgBonus, egBonus
}

// outpostReachableByEnemyPawns reports whether an enemy pawn could ever
// advance to attack sq, by checking adjacent files for enemy pawns still
// behind it (from the mover's perspective).
func outpostReachableByEnemyPawns(enemyPawns board.Bitboard, sq board.Square, color board.Color) bool {
	file := sq.File()
	var adjacentFiles board.Bitboard
	if file > 0 {
		adjacentFiles |= board.FileMask[file-1]
	}
	if file < 7 {
		adjacentFiles |= board.FileMask[file+1]
	}

	var behindRanks board.Bitboard
	if color == board.White {
		for r := 0; r <= sq.Rank(); r++ {
			behindRanks |= board.RankMask[r]
		}
	} else {
		for r := sq.Rank(); r < 8; r++ {
			behindRanks |= board.RankMask[r]
		}
	}

	return (enemyPawns & adjacentFiles & behindRanks) != 0
}

// evaluateOutposts evaluates knight and bishop outposts: minor pieces
// sitting deep in enemy territory where no enemy pawn can ever drive
// them off.
func evaluateOutposts(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)

		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[color.Other()][board.Pawn]

		var outpostRanks board.Bitboard
		if color == board.White {
			outpostRanks = board.RankMask[3] | board.RankMask[4] | board.RankMask[5]
		} else {
			outpostRanks = board.RankMask[2] | board.RankMask[3] | board.RankMask[4]
		}

		knights := pos.Pieces[color][board.Knight] & outpostRanks
		for knights != 0 {
			sq := knights.PopLSB()
			if outpostReachableByEnemyPawns(enemyPawns, sq, color) {
				continue
			}

			mgBonus += sign * knightOutpostMg
			egBonus += sign * knightOutpostEg

			if board.PawnAttacks(sq, color.Other())&ownPawns != 0 {
				mgBonus += sign * knightOutpostProtectedMg
				egBonus += sign * knightOutpostProtectedEg
			}
		}

		bishops := pos.Pieces[color][board.Bishop] & outpostRanks
		for bishops != 0 {
			sq := bishops.PopLSB()
			if outpostReachableByEnemyPawns(enemyPawns, sq, color) {
				continue
			}

			mgBonus += sign * bishopOutpostMg
			egBonus += sign * bishopOutpostEg
		}
	}
	return mgBonus, egBonus
}

// evaluatePieceCoordination evaluates piece coordination patterns: rooks
// on the 7th rank and rooks defending each other.
func evaluatePieceCoordination(pos *board.Position) (mgBonus, egBonus int) {
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)

		enemy := color.Other()
		rooks := pos.Pieces[color][board.Rook]

		var rank7th, enemyPawnRank board.Bitboard
		if color == board.White {
			rank7th, enemyPawnRank = board.Rank7, board.Rank2
		} else {
			rank7th, enemyPawnRank = board.Rank2, board.Rank7
		}

		rooksOn7th := rooks & rank7th
		rooksOn7thCount := rooksOn7th.PopCount()

		if rooksOn7thCount > 0 {
			mgBonus += sign * rookOn7thMg * rooksOn7thCount
			egBonus += sign * rookOn7thEg * rooksOn7thCount

			if pos.Pieces[enemy][board.Pawn]&enemyPawnRank != 0 {
				mgBonus += sign * rookOn7thWithPawnsMg * rooksOn7thCount
				egBonus += sign * rookOn7thWithPawnsEg * rooksOn7thCount
			}

			if rooksOn7thCount >= 2 {
				mgBonus += sign * doubleRooksOn7thMg
				egBonus += sign * doubleRooksOn7thEg
			}
		}

		if rooks.PopCount() >= 2 {
			tempRooks := rooks
			var rookSquares [2]board.Square
			idx := 0
			for tempRooks != 0 && idx < 2 {
				rookSquares[idx] = tempRooks.PopLSB()
				idx++
			}

			if idx == 2 {
				sq1, sq2 := rookSquares[0], rookSquares[1]
				if board.RookAttacks(sq1, occupied).IsSet(sq2) {
					mgBonus += sign * connectedRooksMg
					egBonus += sign * connectedRooksEg

					if sq1.File() == sq2.File() {
						mgBonus += sign * doubledRooksOnFileMg
						egBonus += sign * doubledRooksOnFileEg
					}
				}
			}
		}
	}

	return mgBonus, egBonus
}

// evaluateSpace evaluates space control in the center.
// Returns middlegame bonus only (space matters less in endgame).
func evaluateSpace(pos *board.Position) int {
	var score int

	pieceCounts := [2]int{}
	for color := board.White; color <= board.Black; color++ {
		pieceCounts[color] = pos.Pieces[color][board.Knight].PopCount() +
			pos.Pieces[color][board.Bishop].PopCount() +
			pos.Pieces[color][board.Rook].PopCount() +
			pos.Pieces[color][board.Queen].PopCount()
	}

	if pieceCounts[board.White] < spaceMinPieces && pieceCounts[board.Black] < spaceMinPieces {
		return 0
	}

	for color := board.White; color <= board.Black; color++ {
		if pieceCounts[color] < spaceMinPieces {
			continue
		}
		sign := signFor(color)

		enemy := color.Other()
		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[enemy][board.Pawn]

		spaceZone := whiteSpaceZone
		if color == board.Black {
			spaceZone = blackSpaceZone
		}

		var pawnControl, enemyPawnAttacks, behindPawns board.Bitboard
		if color == board.White {
			pawnControl = ownPawns.NorthEast() | ownPawns.NorthWest()
			enemyPawnAttacks = enemyPawns.SouthEast() | enemyPawns.SouthWest()
			behindPawns = ownPawns.SouthFill()
		} else {
			pawnControl = ownPawns.SouthEast() | ownPawns.SouthWest()
			enemyPawnAttacks = enemyPawns.NorthEast() | enemyPawns.NorthWest()
			behindPawns = ownPawns.NorthFill()
		}

		safeSpace := spaceZone &^ enemyPawnAttacks
		controlledSpace := (pawnControl | behindPawns) & safeSpace
		spaceCount := controlledSpace.PopCount()

		behindChainSpace := controlledSpace & behindPawns
		behindCount := behindChainSpace.PopCount()

		bonus := spaceCount*spaceSquareBonus + behindCount*spaceBehindPawnBonus
		score += sign * bonus
	}

	return score
}

// evaluateTrappedPieces evaluates penalties for trapped pieces: bad
// bishops, bishops boxed in on the rim, rooks stuck behind an uncastled
// king, and knights starved of squares on the rim or in a corner.
func evaluateTrappedPieces(pos *board.Position) (mgPenalty, egPenalty int) {
	for color := board.White; color <= board.Black; color++ {
		sign := signFor(color)

		enemy := color.Other()
		enemyPawns := pos.Pieces[enemy][board.Pawn]

		mg, eg := evaluateBadAndTrappedBishops(pos, color, enemyPawns)
		mgPenalty += sign * mg
		egPenalty += sign * eg

		mg, eg = evaluateTrappedRook(pos, color)
		mgPenalty += sign * mg
		egPenalty += sign * eg

		mg, eg = evaluateRimKnights(pos, color)
		mgPenalty += sign * mg
		egPenalty += sign * eg
	}

	return mgPenalty, egPenalty
}

func evaluateBadAndTrappedBishops(pos *board.Position, color board.Color, enemyPawns board.Bitboard) (mg, eg int) {
	ownPawns := pos.Pieces[color][board.Pawn]
	bishops := pos.Pieces[color][board.Bishop]

	trapCorners := map[board.Square][2]board.Square{
		board.A6: {board.B7, board.B5},
		board.H6: {board.G7, board.G5},
		board.A3: {board.B2, board.B4},
		board.H3: {board.G2, board.G4},
	}

	for temp := bishops; temp != 0; {
		sq := temp.PopLSB()

		bishopColorSquares := darkSquares
		if lightSquares.IsSet(sq) {
			bishopColorSquares = lightSquares
		}

		blockingPawns := (ownPawns & bishopColorSquares).PopCount()
		if blockingPawns >= 3 {
			mg += badBishopPenaltyMg * blockingPawns
			eg += badBishopPenaltyEg * blockingPawns
		}

		isWhiteCorner := sq == board.A6 || sq == board.H6
		isBlackCorner := sq == board.A3 || sq == board.H3
		if (color == board.White && isWhiteCorner) || (color == board.Black && isBlackCorner) {
			blockers := trapCorners[sq]
			if enemyPawns.IsSet(blockers[0]) && enemyPawns.IsSet(blockers[1]) {
				mg += trappedBishopPenaltyMg
				eg += trappedBishopPenaltyEg
			}
		}
	}

	return mg, eg
}

func evaluateTrappedRook(pos *board.Position, color board.Color) (mg, eg int) {
	kingSquare := pos.KingSquare[color]
	rooks := pos.Pieces[color][board.Rook]

	kingSide := [2]board.Square{board.F1, board.G1}
	kingSideTrap := board.SquareBB(board.G1) | board.SquareBB(board.H1)
	kingSideRight := board.WhiteKingSideCastle
	queenSide := [3]board.Square{board.B1, board.C1, board.D1}
	queenSideTrap := board.SquareBB(board.A1) | board.SquareBB(board.B1)
	queenSideRight := board.WhiteQueenSideCastle

	if color == board.Black {
		kingSide = [2]board.Square{board.F8, board.G8}
		kingSideTrap = board.SquareBB(board.G8) | board.SquareBB(board.H8)
		kingSideRight = board.BlackKingSideCastle
		queenSide = [3]board.Square{board.B8, board.C8, board.D8}
		queenSideTrap = board.SquareBB(board.A8) | board.SquareBB(board.B8)
		queenSideRight = board.BlackQueenSideCastle
	}

	if (kingSquare == kingSide[0] || kingSquare == kingSide[1]) && rooks&kingSideTrap != 0 {
		if pos.CastlingRights&kingSideRight == 0 {
			mg += trappedRookPenaltyMg
			eg += trappedRookPenaltyEg
		}
	}
	if (kingSquare == queenSide[0] || kingSquare == queenSide[1] || kingSquare == queenSide[2]) && rooks&queenSideTrap != 0 {
		if pos.CastlingRights&queenSideRight == 0 {
			mg += trappedRookPenaltyMg
			eg += trappedRookPenaltyEg
		}
	}

	return mg, eg
}

func evaluateRimKnights(pos *board.Position, color board.Color) (mg, eg int) {
	knights := pos.Pieces[color][board.Knight]
	rimKnights := knights & rimSquares

	for temp := rimKnights; temp != 0; {
		sq := temp.PopLSB()

		if cornerSquares.IsSet(sq) {
			mg += knightCornerPenaltyMg
			eg += knightCornerPenaltyEg
			continue
		}

		attacks := board.KnightAttacks(sq) &^ pos.Occupied[color]
		if attacks.PopCount() <= 3 {
			mg += knightRimPenaltyMg
			eg += knightRimPenaltyEg
		}
	}

	return mg, eg
}
