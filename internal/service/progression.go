package service

import (
	"github.com/cadenza-player/cadenza/internal/domain"
)

// DecideProgression resolves what happens after the current item ends.
// Rules are checked in order; the first match wins. StopAfterLast must be
// checked before the generic advance so the last item does not silently
// advance, and a single-item playlist on repeat degrades to item repeat.
func DecideProgression(mode domain.PlaybackBehavior, isLastItem bool, rowCount int) domain.Action {
	switch {
	case mode == domain.BehaviorStopAfterLast && isLastItem:
		return domain.ActionStopAtZero
	case mode == domain.BehaviorRepeatItem:
		return domain.ActionRepeatCurrent
	case mode == domain.BehaviorStopAfterItem:
		return domain.ActionStopAtZero
	case mode == domain.BehaviorRepeatPlaylist && rowCount == 1:
		return domain.ActionRepeatCurrent
	default:
		return domain.ActionAdvanceNext
	}
}
