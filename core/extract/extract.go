package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrRecoveryFailed is returned when no fenced block or bracket span could be
// located in the input, or when the repaired candidate still fails strict
// parsing.
var ErrRecoveryFailed = errors.New("extract: no structured document could be recovered")

// fenceRegex matches a triple-backtick fence with an optional language hint
// (```json, ```JSON5, ```) and captures the interior lazily, so the first
// complete fence wins.
var fenceRegex = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?(.*?)```")

// Option customizes a single Recover call.
type Option func(*options)

type options struct {
	lenientRepair bool
}

// WithLenientRepair enables a last-resort pass through jsonrepair when the
// targeted repairs still leave an invalid candidate. It fixes unquoted keys,
// single quotes and truncated output at the cost of a larger repair surface,
// so it is off by default.
func WithLenientRepair() Option {
	return func(o *options) {
		o.lenientRepair = true
	}
}

// Recover extracts the JSON document embedded in raw.
//
// Strategy, first match wins:
//  1. the interior of the first ``` fence;
//  2. otherwise the span from the first '{' or '[' to the last '}' or ']'.
//
// The selected candidate has // line comments and trailing commas removed and
// is then parsed strictly. Top-level scalars are rejected: a Document is
// always an object or an array.
//
// Example:
//
//	doc, err := extract.Recover("Sure! ```json\n{\"a\": 1,}\n```")
//	if errors.Is(err, extract.ErrRecoveryFailed) {
//	    // ask the model again
//	}
//	fmt.Println(string(doc.Raw())) // {"a":1}
func Recover(raw string, opts ...Option) (Document, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	candidate, err := selectCandidate(raw)
	if err != nil {
		return Document{}, err
	}

	repaired := stripTrailingCommas(stripLineComments(candidate))
	doc, err := parseStrict(repaired)
	if err == nil {
		return doc, nil
	}

	if o.lenientRepair {
		if fixed, repairErr := jsonrepair.JSONRepair(repaired); repairErr == nil {
			if doc, lenientErr := parseStrict(fixed); lenientErr == nil {
				return doc, nil
			}
		}
	}

	return Document{}, err
}

// selectCandidate applies the fence-first, bracket-span-fallback selection.
func selectCandidate(raw string) (string, error) {
	if m := fenceRegex.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), nil
	}

	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return "", fmt.Errorf("%w: no opening bracket in input", ErrRecoveryFailed)
	}

	end := strings.LastIndexAny(raw, "}]")
	if end <= start {
		return "", fmt.Errorf("%w: no closing bracket after offset %d", ErrRecoveryFailed, start)
	}

	return raw[start : end+1], nil
}

// parseStrict validates candidate as a single JSON object or array and
// returns it in compact form.
func parseStrict(candidate string) (Document, error) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return Document{}, fmt.Errorf("%w: empty candidate", ErrRecoveryFailed)
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return Document{}, fmt.Errorf("%w: top-level value is not an object or array", ErrRecoveryFailed)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(trimmed)); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}

	return Document{raw: json.RawMessage(compact.Bytes())}, nil
}
