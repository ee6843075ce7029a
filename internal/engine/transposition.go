package engine

import (
	"sync/atomic"
	"unsafe"

	"github.com/corvidchess/corvid/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is the decoded view of a transposition table slot handed back
// to a caller on Probe. The packed in-memory layout lives in ttSlot below.
type TTEntry struct {
	BestMove board.Move
	Score    int
	Depth    int
	Flag     TTFlag
	IsPV     bool
	Age      uint8
}

// ttSlot is the packed, self-checking representation of one TT entry.
// data packs move(24) | age(7) | pv(1) | bound(2) | score(22) | depth(8)
// into 64 bits, and key stores hash XOR data so a torn read (another
// thread overwriting data concurrently) is detected on probe: a valid
// entry always satisfies key^data == hash.
type ttSlot struct {
	key  uint64
	data uint64
}

const (
	ttMoveBits  = 24
	ttAgeBits   = 7
	ttPVBits    = 1
	ttBoundBits = 2
	ttScoreBits = 22
	ttDepthBits = 8

	ttMoveShift  = 0
	ttAgeShift   = ttMoveShift + ttMoveBits
	ttPVShift    = ttAgeShift + ttAgeBits
	ttBoundShift = ttPVShift + ttPVBits
	ttScoreShift = ttBoundShift + ttBoundBits
	ttDepthShift = ttScoreShift + ttScoreBits

	ttMoveMask  = (uint64(1) << ttMoveBits) - 1
	ttAgeMask   = (uint64(1) << ttAgeBits) - 1
	ttPVMask    = (uint64(1) << ttPVBits) - 1
	ttBoundMask = (uint64(1) << ttBoundBits) - 1
	ttScoreMask = (uint64(1) << ttScoreBits) - 1
	ttDepthMask = (uint64(1) << ttDepthBits) - 1

	ttScoreSignBit = uint64(1) << (ttScoreBits - 1)
)

func packTTData(move board.Move, age uint8, isPV bool, flag TTFlag, score, depth int) uint64 {
	pv := uint64(0)
	if isPV {
		pv = 1
	}
	s := uint64(int64(score)) & ttScoreMask
	d := uint64(depth) & ttDepthMask
	return ((uint64(move) & ttMoveMask) << ttMoveShift) |
		((uint64(age) & ttAgeMask) << ttAgeShift) |
		((pv & ttPVMask) << ttPVShift) |
		((uint64(flag) & ttBoundMask) << ttBoundShift) |
		(s << ttScoreShift) |
		(d << ttDepthShift)
}

func unpackTTData(data uint64) (move board.Move, age uint8, isPV bool, flag TTFlag, score, depth int) {
	move = board.Move((data >> ttMoveShift) & ttMoveMask)
	age = uint8((data >> ttAgeShift) & ttAgeMask)
	isPV = (data>>ttPVShift)&ttPVMask != 0
	flag = TTFlag((data >> ttBoundShift) & ttBoundMask)

	rawScore := (data >> ttScoreShift) & ttScoreMask
	if rawScore&ttScoreSignBit != 0 {
		rawScore |= ^ttScoreMask // sign-extend
	}
	score = int(int64(rawScore))

	depth = int((data >> ttDepthShift) & ttDepthMask)
	return
}

// ttBucket is a 4-way set-associative cluster sized to a cache line.
type ttBucket struct {
	slots [4]ttSlot
}

// TranspositionTable is a lock-light, age-aware hash table for storing
// search results. Probes and stores are unsynchronized; concurrent
// writers from different Lazy-SMP workers may race on the same slot,
// but the key^data self-check in Probe rejects any torn read instead
// of trusting corrupted data.
type TranspositionTable struct {
	buckets []ttBucket
	mask    uint64
	age     uint8

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	numBuckets := (uint64(sizeMB) * 1024 * 1024) / uint64(unsafe.Sizeof(ttBucket{}))
	numBuckets = roundDownToPowerOf2(numBuckets)
	if numBuckets == 0 {
		numBuckets = 1
	}

	return &TranspositionTable{
		buckets: make([]ttBucket, numBuckets),
		mask:    numBuckets - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Prefetch issues a cache-line prefetch hint for the bucket a later
// Probe/Store with this hash will touch. It's a best-effort hint; Go
// has no portable prefetch intrinsic, so this just warms the line via
// a read, which is what the runtime can actually do for us here.
func (tt *TranspositionTable) Prefetch(hash uint64) {
	idx := hash & tt.mask
	_ = tt.buckets[idx].slots[0].key
}

// Probe looks up a position in the transposition table.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++

	bucket := &tt.buckets[hash&tt.mask]
	for i := range bucket.slots {
		slot := &bucket.slots[i]
		key := atomic.LoadUint64(&slot.key)
		data := atomic.LoadUint64(&slot.data)
		if key^data == hash {
			move, age, isPV, flag, score, depth := unpackTTData(data)
			tt.hits++
			return TTEntry{BestMove: move, Score: score, Depth: depth, Flag: flag, IsPV: isPV, Age: age}, true
		}
	}

	return TTEntry{}, false
}

// Store saves a position in the transposition table. Within a bucket it
// prefers a slot that already matches this hash, then the candidate
// with the least information to lose (oldest generation, then
// shallowest depth), and refuses to overwrite a deeper same-generation
// entry with a shallower non-PV one.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move, isPV bool) {
	bucket := &tt.buckets[hash&tt.mask]

	var replace *ttSlot
	replaceScore := 1 << 30

	for i := range bucket.slots {
		slot := &bucket.slots[i]
		key := slot.key
		data := slot.data

		if key^data == hash {
			existingMove, existingAge, existingPV, _, _, existingDepth := unpackTTData(data)
			if bestMove == board.NoMove {
				bestMove = existingMove
			}
			if existingAge == tt.age && existingDepth > depth+2 && !isPV {
				return
			}
			isPV = isPV || existingPV
			replace = slot
			break
		}

		_, candAge, candPV, _, _, candDepth := unpackTTData(data)
		candScore := candDepth
		if candAge != tt.age {
			candScore -= 64
		}
		if candPV {
			candScore += 16
		}
		if candScore < replaceScore {
			replaceScore = candScore
			replace = slot
		}
	}

	data := packTTData(bestMove, tt.age, isPV, flag, score, depth)
	newKey := hash ^ data

	atomic.StoreUint64(&replace.data, data)
	atomic.StoreUint64(&replace.key, newKey)
}

// NewSearch increments the age counter for a new search.
func (tt *TranspositionTable) NewSearch() {
	tt.age = (tt.age + 1) & ttAgeMask
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.buckets {
		tt.buckets[i] = ttBucket{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 250
	if uint64(sampleSize) > uint64(len(tt.buckets)) {
		sampleSize = len(tt.buckets)
	}

	for i := 0; i < sampleSize; i++ {
		for _, slot := range tt.buckets[i].slots {
			if slot.key != 0 || slot.data != 0 {
				_, age, _, _, _, _ := unpackTTData(slot.data)
				if age == tt.age {
					used++
				}
			}
		}
	}

	if sampleSize == 0 {
		return 0
	}
	return (used * 1000) / (sampleSize * 4)
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of entries (buckets * 4) in the table.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.buckets)) * 4
}

// AdjustScoreFromTT adjusts a score read from the transposition table.
// Mate scores need to be adjusted based on ply distance from the root,
// since stored scores are relative to the position where they were found.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
