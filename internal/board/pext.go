package board

import "golang.org/x/sys/cpu"

// usePext selects the parallel-bit-extract indexing scheme over magic
// multiply-shift when the host CPU advertises BMI2, per spec §4.A's
// "magic multiply-shift... or parallel bit extract" dual path. Go has
// no portable PEXT intrinsic without per-arch assembly, so this indexes
// the same attack tables with a pure-Go software bit-extract instead of
// a hardware instruction; it exists to keep the index scheme swappable
// and to exercise golang.org/x/sys/cpu's feature-detection path, the
// same way the engine would gate a real PEXT instruction if Go exposed
// one.
var usePext = cpu.X86.HasBMI2

// bishopPextTable and rookPextTable mirror bishopTable/rookTable but are
// indexed by softwarePext(occ, mask) instead of the magic multiply-shift
// index. Populated once in initMagics so both index schemes are ready;
// getBishopAttacks/getRookAttacks pick whichever usePext selects.
var (
	bishopPextTable [5248]Bitboard
	rookPextTable   [102400]Bitboard
)

// softwarePext implements x86 PEXT (parallel bits extract) in portable
// Go: the i-th set bit of mask selects bit i of the result from the
// corresponding bit of src.
func softwarePext(src, mask uint64) uint64 {
	var result uint64
	var resultBit uint
	for mask != 0 {
		bit := mask & (-mask) // isolate lowest set bit
		if src&bit != 0 {
			result |= 1 << resultBit
		}
		resultBit++
		mask &= mask - 1
	}
	return result
}

func initBishopPext() {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := bishopMask(sq)
		bits := mask.PopCount()
		numEntries := 1 << bits
		for i := 0; i < numEntries; i++ {
			occ := indexToOccupancy(i, bits, mask)
			idx := softwarePext(uint64(occ), uint64(mask))
			bishopPextTable[offset+uint32(idx)] = bishopAttacksSlow(sq, occ)
		}
		offset += uint32(numEntries)
	}
}

func initRookPext() {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := rookMask(sq)
		bits := mask.PopCount()
		numEntries := 1 << bits
		for i := 0; i < numEntries; i++ {
			occ := indexToOccupancy(i, bits, mask)
			idx := softwarePext(uint64(occ), uint64(mask))
			rookPextTable[offset+uint32(idx)] = rookAttacksSlow(sq, occ)
		}
		offset += uint32(numEntries)
	}
}

func getBishopAttacksPext(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	idx := softwarePext(uint64(occupied), uint64(m.Mask))
	return bishopPextTable[m.Offset+uint32(idx)]
}

func getRookAttacksPext(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	idx := softwarePext(uint64(occupied), uint64(m.Mask))
	return rookPextTable[m.Offset+uint32(idx)]
}
