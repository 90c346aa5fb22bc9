package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpQueueAdd,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpQueueAdd,
			err:      errors.New("database is locked"),
			expected: "Failed to add to up next: database is locked",
		},
		{
			name:     "playback start operation",
			op:       OpPlaybackStart,
			err:      errors.New("file not found"),
			expected: "Failed to start playback: file not found",
		},
		{
			name:     "sign in operation",
			op:       OpSignIn,
			err:      errors.New("incorrect password"),
			expected: "Failed to sign in: incorrect password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.op, tt.err)
			if got != tt.expected {
				t.Errorf("Format() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpEpisodeSave,
			context:  "episode-1",
			err:      nil,
			expected: "",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpEpisodeSave,
			context:  "",
			err:      errors.New("disk full"),
			expected: "Failed to save episode: disk full",
		},
		{
			name:     "includes context",
			op:       OpQueueRemove,
			context:  "episode-2",
			err:      errors.New("not found"),
			expected: "Failed to remove from up next 'episode-2': not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatWith(tt.op, tt.context, tt.err)
			if got != tt.expected {
				t.Errorf("FormatWith() = %q, want %q", got, tt.expected)
			}
		})
	}
}
