package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"StockInsight/internal/model"
)

// ErrMalformedReply is returned when no JSON object can be recovered from the reply.
var ErrMalformedReply = errors.New("malformed model reply")

// trailingObject matches from the first '{' to the last '}' at the end of the text.
var trailingObject = regexp.MustCompile(`(?s)\{.*\}\s*$`)

// ParseAdvice decodes the model reply. Surrounding whitespace and backticks are dropped
// first; if that does not decode, the trailing JSON object is extracted and decoded once more.
func ParseAdvice(text string) (*model.Advice, error) {
	cleaned := strings.Trim(strings.TrimSpace(text), "`")
	cleaned = strings.TrimSpace(cleaned)

	var advice model.Advice
	firstErr := json.Unmarshal([]byte(cleaned), &advice)
	if firstErr == nil {
		return &advice, nil
	}

	match := trailingObject.FindString(cleaned)
	if match == "" {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, firstErr)
	}
	advice = model.Advice{}
	if err := json.Unmarshal([]byte(match), &advice); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return &advice, nil
}
