// Package leads detects the structured lead directive the model embeds at the
// end of its replies, parses it, and persists the captured records.
package leads

import (
	"strings"
)

// DefaultMarker is the directive prefix the built-in personas instruct the
// model to emit.
const DefaultMarker = "LEAD_CAPTURADO:"

const missingField = "N/A"

// Lead is the structured record parsed from a directive line.
type Lead struct {
	Name     string
	Contact  string
	Interest string
}

// Extractor scans generated answers for a trailing directive line.
type Extractor struct {
	marker string
}

func NewExtractor(marker string) *Extractor {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Extractor{marker: marker}
}

// Extract returns the answer with any directive removed, plus the parsed lead
// when a directive was present. The directive is always trailing content: the
// first marker occurrence through end-of-string is consumed. Parsing never
// fails; missing fields degrade to "N/A".
func (e *Extractor) Extract(answer string) (string, *Lead) {
	idx := strings.Index(answer, e.marker)
	if idx < 0 {
		return answer, nil
	}

	directive := answer[idx+len(e.marker):]
	cleaned := strings.TrimRight(answer[:idx], " \t\r\n")

	fields := strings.Split(directive, "|")
	values := [3]string{missingField, missingField, missingField}
	for i := 0; i < len(fields) && i < 3; i++ {
		if trimmed := strings.TrimSpace(fields[i]); trimmed != "" {
			values[i] = trimmed
		}
	}

	return cleaned, &Lead{
		Name:     values[0],
		Contact:  values[1],
		Interest: values[2],
	}
}
