package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

var (
	jsonFence    = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	genericFence = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*(.*?)```")
)

var (
	// errNotObject is returned when the text is valid JSON but not an object.
	errNotObject = errors.New("expected a JSON object")
	errTrailing  = errors.New("unexpected data after JSON value")
)

// ParseOutcome is the result of reading a JSON object out of model output.
// Exactly one of Object and Err is set. Raw always holds the original text.
// Numbers in Object are json.Number so out-of-range values survive decoding.
type ParseOutcome struct {
	Object map[string]any
	Err    error
	Raw    string
	// Fenced is true when the object came from a ``` code block rather
	// than from the text as a whole.
	Fenced bool
}

// OK reports whether an object was parsed.
func (o ParseOutcome) OK() bool {
	return o.Err == nil && o.Object != nil
}

// ParseJSONObject parses text as a JSON object. When the text as a whole
// is not JSON it falls back to the first ```json fenced block, then to the
// first generic ``` block. It never guesses beyond that.
func ParseJSONObject(text string) ParseOutcome {
	obj, err := decodeObject(text)
	if err == nil {
		return ParseOutcome{Object: obj, Raw: text}
	}

	if block, ok := extractFenced(text); ok {
		if fenced, fencedErr := decodeObject(block); fencedErr == nil {
			return ParseOutcome{Object: fenced, Raw: text, Fenced: true}
		}
	}

	return ParseOutcome{Err: err, Raw: text}
}

// extractFenced returns the body of the first fenced block, preferring one
// tagged as json.
func extractFenced(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{jsonFence, genericFence} {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(text))))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailing
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}
