package engine

import (
	"sync/atomic"

	"github.com/corvidchess/corvid/internal/board"
)

// Search-wide score bounds shared by the Lazy-SMP pool and the single
// threaded searcher below.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores a principal variation per ply, triangular-array style.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher drives a single dedicated Worker through iterative deepening
// outside the Lazy-SMP pool. Multi-PV analysis needs this: each requested
// line is a fresh, restartable search that excludes the root moves already
// reported, which doesn't fit the pool's "all workers race the same
// position" model. Rather than keep a second negamax implementation around,
// Searcher just repeats SearchDepth on its own Worker.
type Searcher struct {
	worker   *Worker
	stopFlag *atomic.Bool
}

// NewSearcher creates a searcher with its own worker, pawn table and
// history, sized against the shared transposition table so its analysis
// stays consistent with whatever the pool has stored.
func NewSearcher(tt *TranspositionTable, pawnTable *PawnTable) *Searcher {
	stop := new(atomic.Bool)
	w := NewWorker(0, tt, pawnTable, NewSharedHistory(), stop)
	return &Searcher{worker: w, stopFlag: stop}
}

// Stop signals the current or next search to abort.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped reports whether Stop has been called since the last Reset.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// Reset clears search state and the stop flag ahead of a fresh line.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.worker.Reset()
}

// Nodes returns the node count from the worker's last search.
func (s *Searcher) Nodes() uint64 {
	return s.worker.Nodes()
}

// SetRootHistory forwards the game's position history for repetition
// detection to the underlying worker.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.worker.SetRootHistory(hashes)
}

// SetExcludedMoves restricts root-move selection, used by Multi-PV to
// force each successive line onto a different first move.
func (s *Searcher) SetExcludedMoves(moves []board.Move) {
	s.worker.SetExcludedMoves(moves)
}

// ClearOrderer resets killer and history tables between unrelated searches.
func (s *Searcher) ClearOrderer() {
	s.worker.orderer.Clear()
}

// GetPV returns the principal variation from the most recent Search call.
func (s *Searcher) GetPV() []board.Move {
	return s.worker.GetPV()
}

// Search runs a single fixed-depth search and returns the best move found.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	s.worker.InitSearch(pos.Copy())
	return s.worker.SearchDepth(depth, -Infinity, Infinity)
}
