package note

import "time"

// Classify maps a note plus the current chain height and wall-clock time to
// its lifecycle status. The rules are ordered, first match wins:
//
//  1. consumed on the server -> consumed
//  2. recalled on the server -> recalled
//  3. never recallable       -> pending (claimable by the recipient only)
//  4. recall window open     -> recallable
//  5. otherwise              -> waiting for the recall window
//
// Classify is pure: it holds no state and two calls with the same inputs
// return the same status. When the chain height is unknown (blockHeight < 0)
// the wall clock decides, using the note's derived recall time.
func Classify(n Note, blockHeight int64, now time.Time) Status {
	switch {
	case n.Consumed:
		return StatusConsumed
	case n.Recalled:
		return StatusRecalled
	case !n.IsRecallable():
		return StatusPending
	case blockHeight >= 0 && blockHeight >= n.RecallableHeight:
		return StatusRecallable
	case blockHeight < 0 && !now.Before(n.RecallableAt()):
		return StatusRecallable
	default:
		return StatusWaiting
	}
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(s Status) bool {
	return s == StatusRecalled || s == StatusConsumed
}
