package board

// attackFunc computes the attack set of a piece standing on sq given the
// board's current occupancy. Knight and king attacks ignore the occupancy
// argument; sliders use it to stop rays at the first blocker.
type attackFunc func(sq Square, occupied Bitboard) Bitboard

func knightAttackFunc(sq Square, _ Bitboard) Bitboard { return KnightAttacks(sq) }

// nonPawnMovers lists every piece type other than pawn and king together
// with the attack generator that drives both quiet-move and capture
// generation, so the two generators share one loop body instead of
// repeating a block per piece type.
var nonPawnMovers = [...]struct {
	pt      PieceType
	attacks attackFunc
}{
	{Knight, knightAttackFunc},
	{Bishop, BishopAttacks},
	{Rook, RookAttacks},
	{Queen, QueenAttacks},
}

// addMoves scans fromBB for pieces and adds a move to every square in
// targets reachable by attacks from each one.
func addMoves(ml *MoveList, fromBB Bitboard, occupied, targets Bitboard, attacks attackFunc) {
	for fromBB != 0 {
		from := fromBB.PopLSB()
		bb := attacks(from, occupied) & targets
		for bb != 0 {
			to := bb.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}
}

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves (may leave king in check).
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures generates all capture moves.
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateCaptures(ml)
	return p.filterLegalMoves(ml)
}

// generateAllMoves generates all pseudo-legal moves.
func (p *Position) generateAllMoves(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	targets := ^p.Occupied[us]

	p.generatePawnMoves(ml, us, p.Occupied[us.Other()], occupied)

	for _, mover := range nonPawnMovers {
		addMoves(ml, p.Pieces[us][mover.pt], occupied, targets, mover.attacks)
	}

	p.generateKingMoves(ml, us)
	p.generateCastlingMoves(ml, us)
}

// generateCaptures generates capture moves, plus pawn pushes that promote
// (quiescence search needs those even though they don't take a piece).
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	enemies := p.Occupied[them]
	occupied := p.AllOccupied

	p.generatePawnCaptures(ml, us, enemies, occupied)

	for _, mover := range nonPawnMovers {
		addMoves(ml, p.Pieces[us][mover.pt], occupied, enemies, mover.attacks)
	}

	addMoves(ml, p.Pieces[us][King], occupied, enemies, func(sq Square, _ Bitboard) Bitboard { return KingAttacks(sq) })
}

// pawnShift bundles the per-side geometry pawn move generation needs: the
// forward direction and which edge of the board promotes.
type pawnShift struct {
	promotionRank Bitboard
	pushDir       int
}

func pawnShiftFor(us Color) pawnShift {
	if us == White {
		return pawnShift{promotionRank: Rank8, pushDir: 8}
	}
	return pawnShift{promotionRank: Rank1, pushDir: -8}
}

func pawnAttacksLeftRight(pawns Bitboard, us Color) (left, right Bitboard) {
	if us == White {
		return pawns.NorthWest(), pawns.NorthEast()
	}
	return pawns.SouthWest(), pawns.SouthEast()
}

func pawnPush(pawns, empty Bitboard, us Color) Bitboard {
	if us == White {
		return pawns.North() & empty
	}
	return pawns.South() & empty
}

// addPawnTargets walks a destination bitboard, computing each origin square
// from the fixed pawn-move offset, splitting promotions from plain moves.
func addPawnTargets(ml *MoveList, targets Bitboard, fromOffset int, shift pawnShift) {
	quiet := targets & ^shift.promotionRank
	for quiet != 0 {
		to := quiet.PopLSB()
		ml.Add(NewMove(Square(int(to)-fromOffset), to))
	}
	promo := targets & shift.promotionRank
	for promo != 0 {
		to := promo.PopLSB()
		addPromotions(ml, Square(int(to)-fromOffset), to)
	}
}

func addEnPassantMoves(ml *MoveList, pos *Position, us Color) {
	if pos.EnPassant == NoSquare {
		return
	}
	epBB := SquareBB(pos.EnPassant)
	var attackers Bitboard
	if us == White {
		attackers = (epBB.SouthWest() | epBB.SouthEast()) & pos.Pieces[us][Pawn]
	} else {
		attackers = (epBB.NorthWest() | epBB.NorthEast()) & pos.Pieces[us][Pawn]
	}
	for attackers != 0 {
		from := attackers.PopLSB()
		ml.Add(NewEnPassant(from, pos.EnPassant))
	}
}

// generatePawnMoves generates all pawn moves.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied
	shift := pawnShiftFor(us)

	push1 := pawnPush(pawns, empty, us)
	var push2 Bitboard
	if us == White {
		push2 = (push1 & Rank3).North() & empty
	} else {
		push2 = (push1 & Rank6).South() & empty
	}
	addPawnTargets(ml, push1, shift.pushDir, shift)
	for push2 != 0 {
		to := push2.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*shift.pushDir), to))
	}

	attackL, attackR := pawnAttacksLeftRight(pawns, us)
	addPawnTargets(ml, attackL&enemies, shift.pushDir-1, shift)
	addPawnTargets(ml, attackR&enemies, shift.pushDir+1, shift)

	addEnPassantMoves(ml, p, us)
}

// generatePawnCaptures generates pawn captures, promotion pushes, and en
// passant, used by quiescence search via generateCaptures.
func (p *Position) generatePawnCaptures(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	shift := pawnShiftFor(us)

	attackL, attackR := pawnAttacksLeftRight(pawns, us)
	addPawnTargets(ml, attackL&enemies, shift.pushDir-1, shift)
	addPawnTargets(ml, attackR&enemies, shift.pushDir+1, shift)

	promoPush := pawnPush(pawns, ^occupied, us) & shift.promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		addPromotions(ml, Square(int(to)-shift.pushDir), to)
	}

	addEnPassantMoves(ml, p, us)
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateKingMoves generates king moves (non-castling).
func (p *Position) generateKingMoves(ml *MoveList, us Color) {
	from := p.KingSquare[us]
	attacks := KingAttacks(from) & ^p.Occupied[us]

	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to))
	}
}

// castlingPath describes one side's castling option: the squares that must
// be empty, the squares the king must not pass through check on, and the
// resulting king move.
type castlingPath struct {
	rights       CastlingRights
	emptySquares Bitboard
	kingPath     [3]Square
	kingFrom     Square
	kingTo       Square
}

func castlingPaths(us Color) [2]castlingPath {
	if us == White {
		return [2]castlingPath{
			{WhiteKingSideCastle, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}, E1, G1},
			{WhiteQueenSideCastle, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}, E1, C1},
		}
	}
	return [2]castlingPath{
		{BlackKingSideCastle, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}, E8, G8},
		{BlackQueenSideCastle, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}, E8, C8},
	}
}

// generateCastlingMoves generates castling moves.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()

	for _, path := range castlingPaths(us) {
		if p.CastlingRights&path.rights == 0 {
			continue
		}
		if p.AllOccupied&path.emptySquares != 0 {
			continue
		}
		attacked := false
		for _, sq := range path.kingPath {
			if p.IsSquareAttacked(sq, them) {
				attacked = true
				break
			}
		}
		if !attacked {
			ml.Add(NewCastling(path.kingFrom, path.kingTo))
		}
	}
}

// filterLegalMoves filters out illegal moves (those that leave king in check).
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if p.IsLegal(m) {
			result.Add(m)
		}
	}

	return result
}

// IsLegal returns true if the move is legal (doesn't leave king in check).
// Uses make/unmake for guaranteed correctness.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	ksq := p.KingSquare[us]

	// For king moves, check if destination is attacked
	if from == ksq {
		if m.IsCastling() {
			return true // Already validated in generation
		}
		// King moves: temporarily remove king and check destination
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(m.To(), them, occ) == 0
	}

	// For all other moves: actually make the move and check
	undo := p.MakeMove(m)
	if !undo.Valid {
		return false
	}

	// Check if OUR king is now attacked
	// After MakeMove, SideToMove is flipped, so "them" is now "us"
	attacked := p.IsSquareAttacked(ksq, them)

	p.UnmakeMove(m, undo)

	return !attacked
}

// updateCastlingRightsFor clears castling rights invalidated by a piece
// moving from or to a corner/king square.
func (p *Position) updateCastlingRightsFor(pt PieceType, us Color, from, to Square) {
	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
}

// castlingRookSquares returns the rook's from/to squares for a castling
// move given the king's from square and which way it moved.
func castlingRookSquares(kingFrom, kingTo Square) (rookFrom, rookTo Square) {
	rank := kingFrom.Rank()
	if kingTo > kingFrom {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}

// MakeMove applies a move to the position and returns undo information.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
		Valid:          false,
	}

	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	piece := p.PieceAt(from)

	if piece == NoPiece {
		return undo
	}

	undo.Valid = true
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	switch {
	case m.IsEnPassant():
		capturedSq := to - 8
		if us == Black {
			capturedSq = to + 8
		}
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
		p.PawnKey ^= zobristPiece[them][Pawn][capturedSq]
	case p.PieceAt(to) != NoPiece:
		captured := p.PieceAt(to)
		undo.CapturedPiece = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
		if captured.Type() == Pawn {
			p.PawnKey ^= zobristPiece[them][Pawn][to]
		}
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]
	if pt == Pawn {
		p.PawnKey ^= zobristPiece[us][Pawn][from]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
	}

	if m.IsCastling() {
		rookFrom, rookTo := castlingRookSquares(from, to)
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	p.updateCastlingRightsFor(pt, us, from, to)
	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()

	return undo
}

// UnmakeMove undoes a move using the stored undo information.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	them := p.SideToMove
	us := them.Other()
	from := m.From()
	to := m.To()

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey
	p.Checkers = undo.Checkers
	p.SideToMove = us

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][promoPt] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
	}

	p.movePiece(to, from)

	if m.IsCastling() {
		rookFrom, rookTo := castlingRookSquares(from, to)
		p.movePiece(rookTo, rookFrom)
	}

	if undo.CapturedPiece != NoPiece {
		capturedSq := to
		if m.IsEnPassant() {
			capturedSq = to - 8
			if us == Black {
				capturedSq = to + 8
			}
		}
		p.setPiece(undo.CapturedPiece, capturedSq)
	}
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	ml := p.GeneratePseudoLegalMoves()
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegal(ml.Get(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw returns true if the position is a draw (stalemate, 50-move, insufficient material).
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.HalfMoveClock >= 100 {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wMinors := p.Pieces[White][Knight].PopCount() + p.Pieces[White][Bishop].PopCount()
	bMinors := p.Pieces[Black][Knight].PopCount() + p.Pieces[Black][Bishop].PopCount()

	if wMinors+bMinors == 0 {
		return true
	}
	if wMinors <= 1 && bMinors == 0 {
		return true
	}
	if bMinors <= 1 && wMinors == 0 {
		return true
	}

	return false
}
