package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Fence
	}{
		{
			name: "no fence",
			raw:  "  {\"jobTitle\":\"Eng\"}\n",
			want: Fence{Body: `{"jobTitle":"Eng"}`},
		},
		{
			name: "fence with language tag",
			raw:  "```json\n{\"jobTitle\":\"Eng\"}\n```",
			want: Fence{Lang: "json", Body: `{"jobTitle":"Eng"}`, Opened: true, Closed: true},
		},
		{
			name: "fence without tag",
			raw:  "```\n{\"a\":1}\n```\n",
			want: Fence{Body: `{"a":1}`, Opened: true, Closed: true},
		},
		{
			name: "opening fence without closing",
			raw:  "```json\n{\"a\":1}",
			want: Fence{Lang: "json", Body: `{"a":1}`, Opened: true},
		},
		{
			name: "single line",
			raw:  "```json {\"a\":1}```",
			want: Fence{Lang: "json", Body: `{"a":1}`, Opened: true, Closed: true},
		},
		{
			name: "single line without tag",
			raw:  "```{\"a\":1}```",
			want: Fence{Body: `{"a":1}`, Opened: true, Closed: true},
		},
		{
			name: "nested fences keep inner markers",
			raw:  "```markdown\nUse ```go\nfmt.Println()\n``` here\n```",
			want: Fence{Lang: "markdown", Body: "Use ```go\nfmt.Println()\n``` here", Opened: true, Closed: true},
		},
		{
			name: "bare fence",
			raw:  "```",
			want: Fence{Opened: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFence(tt.raw))
		})
	}
}

func TestDecodeJobFields(t *testing.T) {
	fields, err := DecodeJobFields("```json\n{\"jobTitle\":\"Eng\",\"salaryRange\":null}\n```")
	require.NoError(t, err)
	assert.Equal(t, JobFields{"jobTitle": "Eng", "salaryRange": nil}, fields)

	for _, raw := range []string{
		"```json\n{\"jobTitle\": \n```",
		"[1, 2, 3]",
		"null",
		"",
		"```json\n```",
		"Sure! Here is the JSON you asked for.",
	} {
		_, err := DecodeJobFields(raw)
		var decodeErr *UpstreamDecodeError
		assert.ErrorAs(t, err, &decodeErr, raw)
	}
}

func TestTemplateTipParser(t *testing.T) {
	var parser TemplateTipParser

	assert.Equal(t,
		Tip{Title: "Network", Description: "Follow up in a week."},
		parser.ParseTip("Title: Network\nDescription: Follow up in a week."),
	)

	assert.Equal(t,
		Tip{Title: "Tailor your CV", Description: "Mirror the keywords.\nKeep it to one page."},
		parser.ParseTip("Here you go:\nTitle:  Tailor your CV \r\nDescription: Mirror the keywords.\nKeep it to one page.\n"),
	)

	raw := "Keep a spreadsheet of every application."
	assert.Equal(t, Tip{Title: DefaultTipTitle, Description: raw}, parser.ParseTip(raw))

	raw = "Title: only a title"
	assert.Equal(t, Tip{Title: DefaultTipTitle, Description: raw}, parser.ParseTip(raw))

	custom := TemplateTipParser{DefaultTitle: "Tip of the day"}
	assert.Equal(t, "Tip of the day", custom.ParseTip("no template").Title)
}
