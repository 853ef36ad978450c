package panel

import (
	"encoding/json"
	"fmt"

	"github.com/leofalp/gradedreader/core/extract"
)

// Normalize converts a recovered script document into a panel sequence.
//
// The panel list is taken from the "panels" member, then from the alternate
// "scenes" and "pages" members; a bare array is used directly and a lone
// object carrying panel fields is treated as a single panel. A null list
// member, or an object with neither a list nor panel fields, fails.
// Elements keep their original order.
// When the top-level object carries back-cover metadata, a sentinel panel
// (Number 999, Prompt "BACK_COVER_DATA") holding the metadata as JSON text is
// appended last, even if a real panel already uses number 999.
//
// source is the narrative the script was generated from. It only annotates
// failures and never changes the output.
//
// Returns an error wrapping ErrNormalizationFailed when doc is absent or holds
// no list of panels.
func Normalize(doc extract.Document, source string) (Sequence, error) {
	if doc.IsAbsent() {
		return nil, normalizationError("no document", source)
	}

	elements, top, err := locatePanels(doc)
	if err != nil {
		return nil, normalizationError(err.Error(), source)
	}
	if len(elements) == 0 {
		return nil, normalizationError("panel list is empty", source)
	}

	seq := make(Sequence, 0, len(elements)+1)
	used := make(map[int]bool, len(elements))
	for i, element := range elements {
		p := buildPanel(element, i+1, used)
		used[p.Number] = true
		seq = append(seq, p)
	}

	if top != nil {
		if meta, ok := coverField.raw(top); ok {
			caption, err := formatMetadata(meta)
			if err != nil {
				return nil, normalizationError("back cover metadata: "+err.Error(), source)
			}
			seq = append(seq, Panel{
				Number:  SentinelNumber,
				Prompt:  SentinelPrompt,
				Caption: caption,
			})
		}
	}

	return seq, nil
}

// FromResponse recovers the document embedded in raw model output and
// normalizes it in one step. Failures wrap either extract.ErrRecoveryFailed
// or ErrNormalizationFailed.
func FromResponse(raw, source string, opts ...extract.Option) (Sequence, error) {
	doc, err := extract.Recover(raw, opts...)
	if err != nil {
		return nil, err
	}
	return Normalize(doc, source)
}

// locatePanels returns the raw panel elements and, when the document is an
// object, its members for metadata lookup.
func locatePanels(doc extract.Document) ([]json.RawMessage, map[string]json.RawMessage, error) {
	if elements, ok := doc.Array(); ok {
		return elements, nil, nil
	}

	top, ok := doc.Object()
	if !ok {
		return nil, nil, fmt.Errorf("document is %s", doc.Kind())
	}

	list, ok := listField.raw(top)
	if !ok {
		if listField.present(top) {
			return nil, nil, fmt.Errorf("panel list is null")
		}
		if !numberField.present(top) && !promptField.present(top) && !captionField.present(top) {
			return nil, nil, fmt.Errorf("object has no panel list and no panel fields")
		}
		// The whole object is one panel.
		return []json.RawMessage{json.RawMessage(doc.Raw())}, top, nil
	}

	switch firstByte(list) {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(list, &elements); err != nil {
			return nil, nil, fmt.Errorf("panel list: %v", err)
		}
		return elements, top, nil
	case '{':
		return []json.RawMessage{list}, top, nil
	default:
		return nil, nil, fmt.Errorf("panel list is not an array")
	}
}

// buildPanel fills one panel, patching missing fields with defaults. The
// number falls back to position and is bumped to the next free value when
// an earlier panel already took it.
func buildPanel(element json.RawMessage, position int, used map[int]bool) Panel {
	p := Panel{Prompt: PlaceholderPrompt}
	number := position

	switch firstByte(element) {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(element, &obj); err != nil {
			break
		}
		if n, ok := numberField.number(obj); ok {
			number = n
		}
		if prompt, ok := promptField.text(obj, true); ok {
			p.Prompt = prompt
		}
		if caption, ok := captionField.text(obj, false); ok {
			p.Caption = caption
		}
	case '"':
		var prompt string
		if err := json.Unmarshal(element, &prompt); err == nil && prompt != "" {
			p.Prompt = prompt
		}
	}

	if used[number] {
		number = position
		for used[number] {
			number++
		}
	}
	p.Number = number

	return p
}

func firstByte(v json.RawMessage) byte {
	for _, c := range v {
		if !isJSONSpace(c) {
			return c
		}
	}
	return 0
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func normalizationError(reason, source string) error {
	return fmt.Errorf("%w: %s (source: %d chars)", ErrNormalizationFailed, reason, len(source))
}
