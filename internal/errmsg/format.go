// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Queue operations
	OpQueueLoad    Op = "load up next"
	OpQueueSave    Op = "save up next"
	OpQueueAdd     Op = "add to up next"
	OpQueueRemove  Op = "remove from up next"
	OpQueueClear   Op = "clear up next"
	OpQueueResolve Op = "resolve up next episodes"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackPause  Op = "pause playback"
	OpPlaybackResume Op = "resume playback"
	OpPlaybackStop   Op = "stop playback"
	OpPlaybackSkip   Op = "skip to next episode"
	OpPlaybackSeek   Op = "seek"

	// Account operations
	OpSignIn       Op = "sign in"
	OpRegister     Op = "create account"
	OpTokenRefresh Op = "refresh session"
	OpSignOut      Op = "sign out"

	// Episode operations
	OpEpisodeSave     Op = "save episode"
	OpEpisodePosition Op = "save playback position"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
