package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeRawEvent pulls the first JSON object out of a model answer. Answers
// often wrap the object in prose or code fences, so every balanced {...} block
// is tried in order before falling back to the widest first-{ to last-} span.
func decodeRawEvent(text string) (RawEvent, error) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if block, ok := balancedBlock(text, start); ok {
			var raw RawEvent
			if err := json.Unmarshal([]byte(block), &raw); err == nil && raw != nil {
				return raw, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last <= first {
		return nil, fmt.Errorf("%w: no JSON object in model response", ErrExtractionFailed)
	}
	var raw RawEvent
	if err := json.Unmarshal([]byte(text[first:last+1]), &raw); err != nil || raw == nil {
		return nil, fmt.Errorf("%w: malformed JSON in model response: %v", ErrExtractionFailed, err)
	}
	return raw, nil
}

// balancedBlock returns text[start:end] where end closes the brace opened at
// start. Braces inside JSON strings are ignored.
func balancedBlock(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
