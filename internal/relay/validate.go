package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Payload is the validated request text handed to the engine.
type Payload struct {
	Text string
}

// Rule describes what one route accepts. A Rule with an empty Field accepts no
// body at all and yields an empty Payload. Label names the field in messages
// shown to users.
type Rule struct {
	Method         string
	Field          string
	Label          string
	Required       bool
	MinLength      int
	MaxLength      int
	MissingMessage string
	ShortMessage   string
}

// Predefined route rules. Lengths count characters, not bytes.
var (
	CVReviewRule = Rule{
		Method:         http.MethodPost,
		Field:          "cvText",
		Label:          "CV text",
		Required:       true,
		MinLength:      50,
		MaxLength:      5000,
		MissingMessage: "CV text is required",
		ShortMessage:   "CV text is too short. Please provide at least 50 characters.",
	}

	JobExtractRule = Rule{
		Method:         http.MethodPost,
		Field:          "description",
		Label:          "Job description",
		Required:       true,
		MissingMessage: "Job description is required",
	}

	TipRule = Rule{
		Method: http.MethodGet,
	}
)

// WithLimits returns a copy of r with new length bounds. A changed minimum
// rewrites the short-input message to match.
func (r Rule) WithLimits(minLength, maxLength int) Rule {
	if minLength != r.MinLength && r.ShortMessage != "" {
		r.ShortMessage = fmt.Sprintf("%s is too short. Please provide at least %d characters.", r.label(), minLength)
	}
	r.MinLength = minLength
	r.MaxLength = maxLength
	return r
}

// Validate checks method, shape and length, in that order. It performs no I/O.
func (r Rule) Validate(method string, body []byte) (Payload, error) {
	if method != r.Method {
		return Payload{}, &MethodError{Method: method, Allowed: r.Method}
	}
	if r.Field == "" {
		return Payload{}, nil
	}

	text, present, err := r.extract(body)
	if err != nil {
		return Payload{}, err
	}

	text = strings.TrimSpace(text)
	if !present || text == "" {
		if r.Required {
			return Payload{}, r.invalid(r.MissingMessage, fmt.Sprintf("%s is required", r.label()))
		}
		return Payload{}, nil
	}
	if r.MinLength > 0 && utf8.RuneCountInString(text) < r.MinLength {
		return Payload{}, r.invalid(r.ShortMessage, fmt.Sprintf("%s must be at least %d characters", r.label(), r.MinLength))
	}

	return Payload{Text: truncate(text, r.MaxLength)}, nil
}

// extract reads r.Field from a JSON object body. An empty body counts as a
// missing field.
func (r Rule) extract(body []byte) (string, bool, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false, r.invalid("", "request body must be a JSON object")
	}

	raw, ok := fields[r.Field]
	if !ok || string(raw) == "null" {
		return "", false, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false, r.invalid("", fmt.Sprintf("%s must be a string", r.Field))
	}
	return text, true, nil
}

func (r Rule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Field
}

func (r Rule) invalid(message, fallback string) *ValidationError {
	if message == "" {
		message = fallback
	}
	return &ValidationError{Field: r.Field, Reason: message}
}

// truncate keeps at most limit runes of s. A limit of zero or less disables it.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
