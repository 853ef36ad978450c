package comic

import (
	"errors"

	"github.com/leofalp/gradedreader/core/extract"
	"github.com/leofalp/gradedreader/core/panel"
	"github.com/leofalp/gradedreader/providers/store"
)

var (
	// ErrPanelNotFound is returned by AttachImage when the comic has no panel
	// with the requested number.
	ErrPanelNotFound = errors.New("comic: panel not found")

	// ErrEmptyStory is returned when a story has no text to illustrate.
	ErrEmptyStory = errors.New("comic: story content is empty")

	// ErrGeneration is wrapped around failures of the LLM call itself.
	ErrGeneration = errors.New("comic: script generation failed")

	// ErrRefused is returned when the model declines to answer.
	ErrRefused = errors.New("comic: model refused the request")
)

const (
	msgInvalidAIData = "AI returned invalid data, please retry."
	msgNotFound      = "The requested story or comic does not exist."
	msgPanelNotFound = "That panel does not exist in this comic."
	msgEmptyStory    = "The story is empty; add some text first."
	msgAIUnavailable = "The AI service is unavailable, please try again later."
	msgUnexpected    = "Something went wrong, please try again."
)

// UserMessage maps an error from this package's operations to text suitable
// for end users. A nil error yields "".
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, extract.ErrRecoveryFailed),
		errors.Is(err, panel.ErrNormalizationFailed),
		errors.Is(err, ErrRefused):
		return msgInvalidAIData
	case errors.Is(err, ErrPanelNotFound):
		return msgPanelNotFound
	case errors.Is(err, store.ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrEmptyStory):
		return msgEmptyStory
	case errors.Is(err, ErrGeneration):
		return msgAIUnavailable
	default:
		return msgUnexpected
	}
}
