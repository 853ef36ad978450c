package panel

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// field is an ordered list of candidate keys for one logical value. The
// upstream schema has renamed keys across versions; the first key present
// with a usable value wins.
type field []string

var (
	listField    = field{"panels", "scenes", "pages"}
	coverField   = field{"back_cover", "backCover", "cover"}
	numberField  = field{"panel_number", "panelNumber", "number", "page"}
	promptField  = field{"visual_description", "visualDescription", "prompt", "description", "image_prompt"}
	captionField = field{"caption", "dialogue"}
)

// raw returns the first present, non-null member.
func (f field) raw(obj map[string]json.RawMessage) (json.RawMessage, bool) {
	for _, key := range f {
		v, ok := obj[key]
		if !ok || isNull(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// present reports whether any candidate key is a member, even with a null value.
func (f field) present(obj map[string]json.RawMessage) bool {
	for _, key := range f {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// text returns the first member that is a JSON string. With nonEmpty set,
// blank strings are skipped so a later key can still supply a value.
func (f field) text(obj map[string]json.RawMessage, nonEmpty bool) (string, bool) {
	for _, key := range f {
		v, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		if nonEmpty && strings.TrimSpace(s) == "" {
			continue
		}
		return s, true
	}
	return "", false
}

// number returns the first member holding a positive integer, either as a
// JSON number (2 or 2.0) or as a string of digits ("2").
func (f field) number(obj map[string]json.RawMessage) (int, bool) {
	for _, key := range f {
		v, ok := obj[key]
		if !ok {
			continue
		}
		if n, ok := positiveInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

func positiveInt(v json.RawMessage) (int, bool) {
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return 0, false
	}

	switch t := decoded.(type) {
	case json.Number:
		num = t
	case string:
		num = json.Number(strings.TrimSpace(t))
	default:
		return 0, false
	}

	if i, err := strconv.ParseInt(num.String(), 10, 0); err == nil {
		if i > 0 {
			return int(i), true
		}
		return 0, false
	}

	fv, err := strconv.ParseFloat(num.String(), 64)
	if err != nil || fv <= 0 || fv != math.Trunc(fv) || fv > math.MaxInt32 {
		return 0, false
	}
	return int(fv), true
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}
