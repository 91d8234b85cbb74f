package constants

import "time"

const (
	// DurationWindowSize is the number of completions kept per duration group.
	DurationWindowSize = 20

	// KeywordGroupSeparator joins a list name and a title keyword into a group key.
	KeywordGroupSeparator = "#"

	// MinKeywordLength is the shortest title word considered a keyword.
	MinKeywordLength = 3

	// MaxHintDuration is the longest duration hint accepted in task notes.
	MaxHintDuration = 24 * time.Hour

	// DefaultReconcileInterval is the minimum spacing between reconciliation passes.
	DefaultReconcileInterval = 5 * time.Second

	// WatchDebounce coalesces bursts of calendar file writes.
	WatchDebounce = 250 * time.Millisecond
)
