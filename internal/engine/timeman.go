package engine

import (
	"time"

	"github.com/corvidchess/corvid/internal/board"
)

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	Infinite  bool             // search until stopped
	Ponder    bool             // ponder mode; budget is not consumed until ponderhit
}

// TimeManager handles time allocation for searches. Its soft/hard limit
// arithmetic and score-drop adjustment mirror a classic sudden-death
// UCI time allocator: reserve a small safety margin off the clock,
// split into soft (expected) and hard (must-stop) budgets, give the
// first 20 moves of a game a larger allocation, and award a small
// bonus whenever the opponent's clock is running lower than ours.
type TimeManager struct {
	movetime  time.Duration
	increment time.Duration
	movesToGo int
	remaining time.Duration
	enemyTime time.Duration
	movesPlayed int

	infinite bool

	softLimit time.Duration
	hardLimit time.Duration

	onPV      bool
	prevScore int
	hasPrev   bool

	startTime time.Time

	// pondering tracks whether the current search is running under
	// ponder and hasn't yet had its budget committed by ponderhit.
	pondering bool
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init initializes the time manager for a new search.
// ply is the current game ply (half-move number), used only to derive
// movesPlayed for the opening-phase time bonus.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.onPV = false
	tm.hasPrev = false
	tm.movesPlayed = ply / 2
	tm.pondering = limits.Ponder

	if limits.MoveTime > 0 {
		tm.hardLimit = limits.MoveTime
		tm.softLimit = limits.MoveTime
		return
	}

	if limits.Infinite || (limits.Time[us] == 0 && limits.MoveTime == 0) {
		tm.infinite = true
		tm.softLimit = time.Hour
		tm.hardLimit = time.Hour
		return
	}
	tm.infinite = false

	remaining := limits.Time[us]
	// Reserve a small buffer so we never flag on the increment alone.
	if remaining > 200*time.Millisecond {
		remaining -= 100 * time.Millisecond
	}
	tm.remaining = remaining
	tm.enemyTime = limits.Time[us.Other()]
	tm.increment = limits.Inc[us]
	tm.movesToGo = limits.MovesToGo

	if limits.MovesToGo > 0 {
		hard := remaining/time.Duration(limits.MovesToGo) + tm.increment/2 + tm.enemyLowTimeBonus()
		if limits.MovesToGo == 1 {
			hard /= 2
		} else {
			hard = tm.middleGameTimeBonus(remaining, hard)
		}
		tm.hardLimit = hard
		tm.softLimit = hard / 2
	} else {
		hard := remaining/4 + tm.increment/2 + tm.enemyLowTimeBonus()
		tm.hardLimit = hard
		tm.softLimit = hard / 12
	}

	if tm.softLimit < 10*time.Millisecond {
		tm.softLimit = 10 * time.Millisecond
	}
	if tm.hardLimit < 50*time.Millisecond {
		tm.hardLimit = 50 * time.Millisecond
	}
}

// enemyLowTimeBonus grants extra thinking time when the opponent's
// clock is running lower than ours — we can afford to spend more of
// the time edge we already hold.
func (tm *TimeManager) enemyLowTimeBonus() time.Duration {
	if tm.remaining <= tm.enemyTime {
		return 0
	}
	return (tm.remaining - tm.enemyTime) / 10
}

// middleGameTimeBonus widens the hard limit during the opening and
// early middlegame, when finding the right plan matters more than
// conserving clock.
func (tm *TimeManager) middleGameTimeBonus(remaining, hard time.Duration) time.Duration {
	if tm.movesPlayed < 20 {
		hard = hard * 3 / 2
	}
	if hard > remaining {
		return remaining
	}
	return hard
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target (soft) time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.softLimit
}

// MaximumTime returns the maximum (hard) time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.hardLimit
}

// ShouldStop returns true if we should stop searching.
func (tm *TimeManager) ShouldStop() bool {
	if tm.pondering {
		return false
	}
	return tm.Elapsed() >= tm.hardLimit
}

// PastOptimum returns true if we've exceeded the soft limit.
func (tm *TimeManager) PastOptimum() bool {
	if tm.pondering {
		return false
	}
	return tm.Elapsed() >= tm.softLimit
}

// Ponderhit converts a pondering search into a timed one: the clock
// that was frozen during the ponder starts counting against the
// budget computed for this move from here on.
func (tm *TimeManager) Ponderhit() {
	tm.pondering = false
	tm.startTime = time.Now()
}

// Adjust reacts to a new iterative-deepening result. It widens the
// soft limit when the score has dropped sharply since the previous
// iteration — the position just got worse and we want more time to
// find the reason — and reports whether it changed anything. Shallow
// results and mate-bound scores are ignored, matching the asserted
// depth floor and infinite-score guard of the formula this mirrors.
func (tm *TimeManager) Adjust(onPV bool, depth int, score int) bool {
	if score >= MateScore-1 || score <= -MateScore+1 {
		return false
	}
	if depth < 5 {
		tm.prevScore = score
		tm.hasPrev = true
		return false
	}

	if onPV && !tm.onPV {
		tm.onPV = true
	}

	if !tm.hasPrev {
		tm.prevScore = score
		tm.hasPrev = true
		return false
	}

	delta := score - tm.prevScore
	tm.prevScore = score

	if delta < -25 {
		factor := 500.0 / float64(-delta)
		if factor < 0 {
			factor = -factor
		}
		extra := time.Duration(float64(tm.softLimit) / factor)
		newSoft := tm.softLimit + extra
		if newSoft > tm.hardLimit {
			newSoft = tm.hardLimit
		}
		tm.softLimit = newSoft
		return true
	}

	return false
}
