package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// JSON EXTRACTION — lenient parsing of model output
// ============================================================================
//   1. strip markdown fences
//   2. take the span from the first '{' to the last '}'
//   3. strict decode (unknown fields rejected)
//   4. on failure: one repair pass (bare keys, bare scalars, trailing
//      commas) and a second strict decode
// Repair is a best-effort pre-pass. Callers still validate the decoded
// structure and reject anything that does not fit.
// ============================================================================

var (
	// ErrNoJSON means the text contained no {...} span.
	ErrNoJSON = errors.New("llm: no JSON object in response")
	// ErrMalformed means the JSON span could not be decoded even after repair.
	ErrMalformed = errors.New("llm: malformed JSON")
)

var (
	fencePattern         = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
	bareKeyPattern       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	bareValuePattern     = regexp.MustCompile(`(:\s*)([A-Za-z_][^,"{}\[\]\n]*?)(\s*[,}\]\n])`)
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
)

// StripFences removes markdown code fences around the payload.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the text between the first '{' and the last '}'.
func ExtractObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// Repair quotes bare keys and bare scalar values and drops trailing commas.
func Repair(s string) string {
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2"$3`)
	s = bareValuePattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := bareValuePattern.FindStringSubmatch(m)
		value := strings.TrimSpace(parts[2])
		switch value {
		case "true", "false", "null":
			return m
		}
		return parts[1] + `"` + value + `"` + parts[3]
	})
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	return s
}

// DecodeStrict decodes exactly one JSON value into v, rejecting unknown fields.
func DecodeStrict(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}

// DecodeResponse runs the full extraction pipeline over raw model text.
func DecodeResponse[T any](raw string) (T, error) {
	var zero T

	obj, ok := ExtractObject(StripFences(raw))
	if !ok {
		return zero, ErrNoJSON
	}

	var first T
	err := DecodeStrict(obj, &first)
	if err == nil {
		return first, nil
	}

	var repaired T
	if rerr := DecodeStrict(Repair(obj), &repaired); rerr != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return repaired, nil
}
