package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const fenceMarker = "```"

// Fence is the result of splitting an optional code fence off a completion.
type Fence struct {
	Lang   string
	Body   string
	Opened bool
	Closed bool
}

// ParseFence removes one leading fence line (with its optional language tag)
// and one trailing fence. Fences inside the body are left untouched. Input
// without a leading fence is returned trimmed.
func ParseFence(raw string) Fence {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, fenceMarker) {
		return Fence{Body: text}
	}

	fence := Fence{Opened: true}
	rest := text[len(fenceMarker):]

	var header string
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		header, rest = rest[:nl], rest[nl+1:]
	} else {
		// Single line: the tag and the payload share the fence line.
		header, rest = rest, ""
	}

	lang, headerRest := splitLang(header)
	fence.Lang = lang
	if headerRest = strings.TrimSpace(headerRest); headerRest != "" {
		rest = headerRest + "\n" + rest
	}

	rest = strings.TrimSpace(rest)
	if strings.HasSuffix(rest, fenceMarker) {
		fence.Closed = true
		rest = strings.TrimSuffix(rest, fenceMarker)
	}
	fence.Body = strings.TrimSpace(rest)
	return fence
}

// splitLang reads a language tag from the start of a fence line. The tag ends
// at whitespace or at the first character that can start a JSON value.
func splitLang(header string) (string, string) {
	end := strings.IndexFunc(header, func(r rune) bool {
		switch r {
		case ' ', '\t', '\r', '{', '[', '"', '`':
			return true
		}
		return false
	})
	if end < 0 {
		return header, ""
	}
	return header[:end], header[end:]
}

// JobFields is the structured record extracted from a job description. Keys
// the model omitted are absent; keys it could not fill are usually null.
type JobFields map[string]any

// DecodeJobFields strips an optional code fence from raw and decodes the
// remainder as a JSON object.
func DecodeJobFields(raw string) (JobFields, error) {
	body := ParseFence(raw).Body
	if body == "" {
		return nil, &UpstreamDecodeError{Err: errors.New("empty completion")}
	}

	var fields JobFields
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, &UpstreamDecodeError{Err: fmt.Errorf("job fields: %w", err)}
	}
	if fields == nil {
		return nil, &UpstreamDecodeError{Err: errors.New("job fields: completion is not a JSON object")}
	}
	return fields, nil
}

// DefaultTipTitle is used when a completion does not follow the tip template.
const DefaultTipTitle = "AI Tip"

// Tip is a short career tip.
type Tip struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TipParser turns a raw completion into a Tip. Implementations never fail;
// unparseable text degrades to a default title.
type TipParser interface {
	ParseTip(raw string) Tip
}

var tipTemplate = regexp.MustCompile(`(?s)Title:[ \t]*([^\n]*)\r?\n\s*Description:[ \t]*(.*)`)

// TemplateTipParser matches "Title: ..." followed by "Description: ...", where
// the description may span several lines.
type TemplateTipParser struct {
	// DefaultTitle overrides DefaultTipTitle when set.
	DefaultTitle string
}

var _ TipParser = TemplateTipParser{}

func (p TemplateTipParser) ParseTip(raw string) Tip {
	defaultTitle := p.DefaultTitle
	if defaultTitle == "" {
		defaultTitle = DefaultTipTitle
	}

	m := tipTemplate.FindStringSubmatch(raw)
	if m == nil {
		return Tip{Title: defaultTitle, Description: raw}
	}

	tip := Tip{
		Title:       strings.TrimSpace(m[1]),
		Description: strings.TrimSpace(m[2]),
	}
	if tip.Title == "" {
		tip.Title = defaultTitle
	}
	return tip
}
