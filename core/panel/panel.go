// Package panel turns a recovered script document into the ordered sequence
// of comic panels that is persisted and later rendered.
//
// Upstream models drift between schema versions, so [Normalize] accepts a
// "panels" list, alternate list keys, a bare list or a single panel object,
// and looks up each logical field through an ordered list of candidate keys.
// Bad elements are patched with defaults rather than failing the batch.
package panel

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// SentinelNumber is the reserved panel number of the back-cover record.
	// It is larger than any real panel count a script produces.
	SentinelNumber = 999

	// SentinelPrompt marks the back-cover record; its caption carries the
	// metadata as JSON text.
	SentinelPrompt = "BACK_COVER_DATA"

	// PlaceholderPrompt replaces a missing visual description so that every
	// real panel has a non-empty prompt.
	PlaceholderPrompt = "A simple illustration of this moment in the story."
)

// ErrNormalizationFailed is returned when a document was recovered but holds
// no recognizable panel list.
var ErrNormalizationFailed = errors.New("panel: document does not contain a panel list")

// Panel is one visual and caption unit of a comic.
type Panel struct {
	Number   int    `json:"panel_number"`
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
	Caption  string `json:"caption"`
}

// IsSentinel reports whether p is the back-cover metadata record.
func (p Panel) IsSentinel() bool {
	return p.Number == SentinelNumber && p.Prompt == SentinelPrompt
}

// Sequence is the ordered panel list of a comic. Order is the rendering order
// and is never re-derived from panel numbers.
type Sequence []Panel

// Encode serializes the sequence as a JSON array for storage in a single
// text column.
func (s Sequence) Encode() (string, error) {
	if s == nil {
		s = Sequence{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode panels: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored panel column back into a Sequence, preserving order.
func Decode(text string) (Sequence, error) {
	var s Sequence
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("decode panels: %w", err)
	}
	return s, nil
}

// SetImageURL sets the image of the first panel numbered number and reports
// whether one was found. When a real panel shares the sentinel number, the
// real panel is found first because the sentinel is always appended last.
func (s Sequence) SetImageURL(number int, url string) bool {
	for i := range s {
		if s[i].Number == number {
			s[i].ImageURL = url
			return true
		}
	}
	return false
}

// Pages returns the panels to draw, excluding the back-cover record.
func (s Sequence) Pages() Sequence {
	pages := make(Sequence, 0, len(s))
	for _, p := range s {
		if !p.IsSentinel() {
			pages = append(pages, p)
		}
	}
	return pages
}

// BackCover returns the metadata carried by the last sentinel record.
func (s Sequence) BackCover() (json.RawMessage, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].IsSentinel() {
			return json.RawMessage(s[i].Caption), true
		}
	}
	return nil, false
}
