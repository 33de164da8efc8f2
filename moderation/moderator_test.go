package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Censor_Replaces_Forbidden_Word(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"jerk"}, '*')
	req.NoError(err)

	sanitized, found := moderator.Censor("don't be a jerk please")

	req.Equal("don't be a **** please", sanitized)
	req.Equal([]string{"jerk"}, found)
}

func TestModerator_Censor_Catches_Leet_Speak(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"loser"}, '*')
	req.NoError(err)

	// When the word is obfuscated with digit substitutions
	sanitized, found := moderator.Censor("what a l0s3r")

	req.Equal("what a *****", sanitized)
	req.Len(found, 1)
}

func TestModerator_Censor_Clean_Text_Untouched(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"jerk"}, '*')
	req.NoError(err)

	original := "perfectly polite message"
	sanitized, found := moderator.Censor(original)

	req.Equal(original, sanitized)
	req.Empty(found)
}

func TestModerator_Empty_Word_List_Passes_Everything_Through(t *testing.T) {
	req := require.New(t)

	// An unset word list is a valid configuration, not an error
	moderator, err := NewModerator(nil, '*')
	req.NoError(err)

	original := "anything goes here"
	sanitized, found := moderator.Censor(original)

	req.Equal(original, sanitized)
	req.Empty(found)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	// A long unambiguous sentence is detected reliably
	lang := DetectLanguage("the quick brown fox jumps over the lazy dog and keeps running through the forest")
	req.Equal("en", lang)

	// Gibberish yields no reliable detection
	req.Empty(DetectLanguage("xk"))
}
