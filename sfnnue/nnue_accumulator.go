// NNUE Accumulator for incremental updates.
// Ported from Stockfish src/nnue/nnue_accumulator.h and .cpp

package sfnnue

import "math/bits"

// Accumulator holds the result of affine transformation of input features.
// Ported from nnue_accumulator.h:47-52
type Accumulator struct {
	// Accumulated values for each color [COLOR_NB][HalfDimensions]
	Accumulation [2][]int16

	// PSQT accumulated values for each color [COLOR_NB][PSQTBuckets]
	PSQTAccumulation [2][]int32

	// Whether each color's accumulator is computed
	Computed [2]bool

	// King squares when accumulator was computed (for detecting king moves)
	KingSq [2]int

	// Whether each perspective needs full refresh (king moved)
	NeedsRefresh [2]bool
}

// SQ_NONE represents no square (for king tracking)
const SQ_NONE = 64

// NewAccumulator creates a new accumulator with the given half dimensions
func NewAccumulator(halfDims int) *Accumulator {
	return &Accumulator{
		Accumulation: [2][]int16{
			make([]int16, halfDims),
			make([]int16, halfDims),
		},
		PSQTAccumulation: [2][]int32{
			make([]int32, PSQTBuckets),
			make([]int32, PSQTBuckets),
		},
		Computed:     [2]bool{false, false},
		KingSq:       [2]int{SQ_NONE, SQ_NONE},
		NeedsRefresh: [2]bool{true, true},
	}
}

// Reset marks the accumulator as not computed for both perspectives.
func (a *Accumulator) Reset() {
	for c := 0; c < 2; c++ {
		a.Computed[c] = false
		a.KingSq[c] = SQ_NONE
		a.NeedsRefresh[c] = true
	}
}

// Copy copies values from another accumulator.
func (a *Accumulator) Copy(other *Accumulator) {
	for c := 0; c < 2; c++ {
		copy(a.Accumulation[c], other.Accumulation[c])
		copy(a.PSQTAccumulation[c], other.PSQTAccumulation[c])
		a.Computed[c] = other.Computed[c]
		a.KingSq[c] = other.KingSq[c]
		a.NeedsRefresh[c] = other.NeedsRefresh[c]
	}
}

// AccumulatorStack manages accumulators during search.
// Ported from nnue_accumulator.h:152-202
type AccumulatorStack struct {
	// Stack of accumulators for big network
	BigAccumulators []Accumulator

	// Stack of accumulators for small network
	SmallAccumulators []Accumulator

	// Current stack size
	Size int
}

// MaxStackSize is the maximum ply depth
const MaxStackSize = 256

// NewAccumulatorStack creates a new accumulator stack
func NewAccumulatorStack() *AccumulatorStack {
	stack := &AccumulatorStack{
		BigAccumulators:   make([]Accumulator, MaxStackSize),
		SmallAccumulators: make([]Accumulator, MaxStackSize),
		Size:              1,
	}

	for i := range stack.BigAccumulators {
		stack.BigAccumulators[i] = *NewAccumulator(TransformedFeatureDimensionsBig)
	}
	for i := range stack.SmallAccumulators {
		stack.SmallAccumulators[i] = *NewAccumulator(TransformedFeatureDimensionsSmall)
	}

	return stack
}

// Reset resets the stack to initial state
func (s *AccumulatorStack) Reset() {
	s.Size = 1
	s.BigAccumulators[0].Reset()
	s.SmallAccumulators[0].Reset()
}

// Push saves current state and prepares for a new position
func (s *AccumulatorStack) Push() {
	if s.Size < MaxStackSize {
		s.BigAccumulators[s.Size].Copy(&s.BigAccumulators[s.Size-1])
		s.SmallAccumulators[s.Size].Copy(&s.SmallAccumulators[s.Size-1])
		s.Size++
	}
}

// Pop restores previous state
func (s *AccumulatorStack) Pop() {
	if s.Size > 1 {
		s.Size--
	}
}

// CurrentBig returns the current big network accumulator
func (s *AccumulatorStack) CurrentBig() *Accumulator {
	return &s.BigAccumulators[s.Size-1]
}

// CurrentSmall returns the current small network accumulator
func (s *AccumulatorStack) CurrentSmall() *Accumulator {
	return &s.SmallAccumulators[s.Size-1]
}

// PreviousBig returns the previous big network accumulator (for incremental updates)
func (s *AccumulatorStack) PreviousBig() *Accumulator {
	if s.Size > 1 {
		return &s.BigAccumulators[s.Size-2]
	}
	return nil
}

// PreviousSmall returns the previous small network accumulator (for incremental updates)
func (s *AccumulatorStack) PreviousSmall() *Accumulator {
	if s.Size > 1 {
		return &s.SmallAccumulators[s.Size-2]
	}
	return nil
}

// CanIncrementallyUpdate checks if we can do an incremental update for the given perspective
func (s *AccumulatorStack) CanIncrementallyUpdate(perspective int) bool {
	if s.Size <= 1 {
		return false
	}
	prev := s.PreviousBig()
	if prev == nil {
		return false
	}
	return prev.Computed[perspective] && !s.CurrentBig().NeedsRefresh[perspective]
}

// AccumulatorCache provides per-king-square caches for efficient refresh.
// Ported from nnue_accumulator.h:61-106 (Finny Tables)
type AccumulatorCache struct {
	// Cache entries indexed by [king_square][color]
	Entries [64][2]AccumulatorCacheEntry
}

// AccumulatorCacheEntry stores cached accumulator state for a king position
type AccumulatorCacheEntry struct {
	Accumulation     []int16
	PSQTAccumulation []int32
	Pieces           [64]int // Piece on each square
	PieceBB          uint64  // Bitboard of pieces
}

func (e *AccumulatorCacheEntry) clear(biases []int16) {
	copy(e.Accumulation, biases)
	for i := range e.PSQTAccumulation {
		e.PSQTAccumulation[i] = 0
	}
	for i := range e.Pieces {
		e.Pieces[i] = 0
	}
	e.PieceBB = 0
}

// NewAccumulatorCache creates a new cache for the given dimensions
func NewAccumulatorCache(halfDims int, biases []int16) *AccumulatorCache {
	cache := &AccumulatorCache{}

	for sq := 0; sq < 64; sq++ {
		for c := 0; c < 2; c++ {
			entry := &cache.Entries[sq][c]
			entry.Accumulation = make([]int16, halfDims)
			entry.PSQTAccumulation = make([]int32, PSQTBuckets)
			entry.clear(biases)
		}
	}

	return cache
}

// Clear resets the cache with the given biases
func (c *AccumulatorCache) Clear(biases []int16) {
	for sq := 0; sq < 64; sq++ {
		for color := 0; color < 2; color++ {
			c.Entries[sq][color].clear(biases)
		}
	}
}

// GetEntry returns the cache entry for a king position and perspective
func (c *AccumulatorCache) GetEntry(kingSq, perspective int) *AccumulatorCacheEntry {
	return &c.Entries[kingSq][perspective]
}

// applyFeatureWeights adds (sign=+1) or removes (sign=-1) the feature-weight
// row for idx into acc's accumulation and PSQT accumulation, replacing the
// four copy-pasted add/subtract loops the Stockfish port originally repeated
// once per add/remove/change branch in UpdateFromCache.
func applyFeatureWeights(acc *Accumulator, perspective, idx, halfDims int, weights []int16, psqtWeights []int32, sign int16) {
	offset := idx * halfDims
	for i := 0; i < halfDims; i++ {
		acc.Accumulation[perspective][i] += sign * weights[offset+i]
	}

	psqtOffset := idx * PSQTBuckets
	psqtSign := int32(sign)
	for b := 0; b < PSQTBuckets; b++ {
		acc.PSQTAccumulation[perspective][b] += psqtSign * psqtWeights[psqtOffset+b]
	}
}

// UpdateFromCache updates an accumulator from a cache entry.
// Returns the number of pieces that changed (for deciding if incremental update is worthwhile).
func (c *AccumulatorCache) UpdateFromCache(
	entry *AccumulatorCacheEntry,
	acc *Accumulator,
	currentPieceBB uint64,
	currentPieces [64]int,
	perspective int,
	halfDims int,
	weights []int16,
	psqtWeights []int32,
	makeIndexFn func(perspective, sq, piece, kingSq int) int,
	kingSq int,
) int {
	changedBB := entry.PieceBB ^ currentPieceBB
	changedCount := bits.OnesCount64(changedBB)

	// If too many pieces changed, it's faster to do a full refresh
	// (typically if more than 3-4 pieces changed)
	if changedCount > 4 {
		return changedCount
	}

	copy(acc.Accumulation[perspective], entry.Accumulation)
	copy(acc.PSQTAccumulation[perspective], entry.PSQTAccumulation)

	bb := changedBB
	for bb != 0 {
		sq := bits.TrailingZeros64(bb)
		bb &= bb - 1

		wasPresent := (entry.PieceBB & (1 << sq)) != 0
		isPresent := (currentPieceBB & (1 << sq)) != 0

		switch {
		case wasPresent && !isPresent:
			if pc := entry.Pieces[sq]; pc != 0 {
				idx := makeIndexFn(perspective, sq, pc, kingSq)
				applyFeatureWeights(acc, perspective, idx, halfDims, weights, psqtWeights, -1)
			}
		case !wasPresent && isPresent:
			if pc := currentPieces[sq]; pc != 0 {
				idx := makeIndexFn(perspective, sq, pc, kingSq)
				applyFeatureWeights(acc, perspective, idx, halfDims, weights, psqtWeights, 1)
			}
		case wasPresent && isPresent:
			oldPc, newPc := entry.Pieces[sq], currentPieces[sq]
			if oldPc != newPc {
				if oldPc != 0 {
					idx := makeIndexFn(perspective, sq, oldPc, kingSq)
					applyFeatureWeights(acc, perspective, idx, halfDims, weights, psqtWeights, -1)
				}
				if newPc != 0 {
					idx := makeIndexFn(perspective, sq, newPc, kingSq)
					applyFeatureWeights(acc, perspective, idx, halfDims, weights, psqtWeights, 1)
				}
			}
		}
	}

	acc.Computed[perspective] = true
	return changedCount
}

// SaveToCache saves the current accumulator state to the cache entry
func (c *AccumulatorCache) SaveToCache(
	entry *AccumulatorCacheEntry,
	acc *Accumulator,
	currentPieceBB uint64,
	currentPieces [64]int,
	perspective int,
) {
	copy(entry.Accumulation, acc.Accumulation[perspective])
	copy(entry.PSQTAccumulation, acc.PSQTAccumulation[perspective])
	entry.PieceBB = currentPieceBB
	copy(entry.Pieces[:], currentPieces[:])
}
