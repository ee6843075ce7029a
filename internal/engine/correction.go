package engine

import (
	"github.com/corvidchess/corvid/internal/board"
	"github.com/corvidchess/corvid/internal/storage"
)

// CorrectionHistory adjusts static evaluation based on search results.
// When the search discovers the static eval was wrong, we record the error
// and apply corrections to similar positions in the future.
// Based on Stockfish's correction history.
type CorrectionHistory struct {
	// Position-based correction indexed by hash
	// Uses 16-bit entries to save memory
	positionCorr [65536]int16
	visits       [65536]uint32
}

// NewCorrectionHistory creates a new correction history table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

// LoadFrom seeds the table from a persistent learned-position store,
// keyed by the same 16-bit index the in-memory table uses. Entries with
// more visits are trusted over the process's own freshly-zeroed state.
func (ch *CorrectionHistory) LoadFrom(store *storage.Store) {
	if store == nil {
		return
	}
	store.ForEach(func(idx uint64, entry storage.LearnedEntry) {
		if idx >= uint64(len(ch.positionCorr)) {
			return
		}
		ch.positionCorr[idx] = entry.Correction
		ch.visits[idx] = entry.Visits
	})
}

// SaveTo flushes the in-memory table to a persistent learned-position
// store in one batch, keyed by the table's own 16-bit index space.
func (ch *CorrectionHistory) SaveTo(store *storage.Store) error {
	if store == nil {
		return nil
	}
	batch := make(map[uint64]storage.LearnedEntry, len(ch.positionCorr))
	for idx, corr := range ch.positionCorr {
		if corr == 0 && ch.visits[idx] == 0 {
			continue
		}
		batch[uint64(idx)] = storage.LearnedEntry{Correction: corr, Visits: ch.visits[idx]}
	}
	if len(batch) == 0 {
		return nil
	}
	return store.PutBatch(batch)
}

// Get returns the correction value for a position.
// The correction should be added to the static evaluation.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	idx := pos.Hash & 0xFFFF
	return int(ch.positionCorr[idx])
}

// Update records a correction based on the difference between
// the static evaluation and the search result.
// Uses gravity update: new = old + (target - old) / 16
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval, depth int) {
	// Only update if we have meaningful data
	if depth < 1 {
		return
	}

	// Calculate the error
	diff := searchScore - staticEval

	// Scale bonus by depth (deeper searches are more reliable)
	bonus := diff * depth / 8

	// Clamp the bonus to prevent extreme updates
	if bonus > 256 {
		bonus = 256
	} else if bonus < -256 {
		bonus = -256
	}

	idx := pos.Hash & 0xFFFF
	old := int(ch.positionCorr[idx])
	ch.visits[idx]++

	// Gravity update: gradually move toward the target
	newVal := old + (bonus-old)/16

	// Clamp to int16 range but with reasonable limits
	if newVal > 16000 {
		newVal = 16000
	} else if newVal < -16000 {
		newVal = -16000
	}

	ch.positionCorr[idx] = int16(newVal)
}

// Clear resets all correction values.
func (ch *CorrectionHistory) Clear() {
	for i := range ch.positionCorr {
		ch.positionCorr[i] = 0
		ch.visits[i] = 0
	}
}

// Age scales down all correction values (called between games/positions).
func (ch *CorrectionHistory) Age() {
	for i := range ch.positionCorr {
		ch.positionCorr[i] /= 2
	}
}
