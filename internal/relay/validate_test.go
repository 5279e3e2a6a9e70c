package relay

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsWrongMethodFirst(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, "post"} {
		_, err := CVReviewRule.Validate(method, []byte(`not even json`))

		var methodErr *MethodError
		require.ErrorAs(t, err, &methodErr, method)
		assert.ErrorIs(t, err, ErrMethodNotAllowed)
		assert.Equal(t, http.MethodPost, methodErr.Allowed)
	}

	_, err := TipRule.Validate(http.MethodPost, nil)
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestValidateCVReview(t *testing.T) {
	long := strings.Repeat("a", 60)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", ``, "CV text is required"},
		{"missing field", `{"other":"x"}`, "CV text is required"},
		{"null field", `{"cvText":null}`, "CV text is required"},
		{"blank", `{"cvText":"    "}`, "CV text is required"},
		{"not a string", `{"cvText":42}`, "cvText must be a string"},
		{"malformed json", `{"cvText":`, "request body must be a JSON object"},
		{"too short", `{"cvText":"short cv"}`, "too short"},
		{"short after trim", `{"cvText":"  ` + strings.Repeat("b", 49) + `  "}`, "too short"},
		{"valid", `{"cvText":"` + long + `"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := CVReviewRule.Validate(http.MethodPost, []byte(tt.body))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, long, payload.Text)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, vErr.Reason, tt.wantErr)
		})
	}
}

func TestValidateTruncatesByCharacters(t *testing.T) {
	text := strings.Repeat("é", 6000)
	payload, err := CVReviewRule.Validate(http.MethodPost, []byte(`{"cvText":"`+text+`"}`))
	require.NoError(t, err)

	assert.Equal(t, 5000, utf8.RuneCountInString(payload.Text))
	assert.True(t, utf8.ValidString(payload.Text))
}

func TestValidateJobExtract(t *testing.T) {
	payload, err := JobExtractRule.Validate(http.MethodPost, []byte(`{"description":" Go engineer "}`))
	require.NoError(t, err)
	assert.Equal(t, "Go engineer", payload.Text)

	_, err = JobExtractRule.Validate(http.MethodPost, []byte(`{}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Job description is required", vErr.Reason)

	_, err = JobExtractRule.Validate(http.MethodPost, []byte(`{"description":" \t\n "}`))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Job description is required", vErr.Reason)

	long := strings.Repeat("x", 20000)
	payload, err = JobExtractRule.Validate(http.MethodPost, []byte(`{"description":"`+long+`"}`))
	require.NoError(t, err)
	assert.Len(t, payload.Text, 20000)
}

func TestValidateTipIgnoresBody(t *testing.T) {
	payload, err := TipRule.Validate(http.MethodGet, []byte(`garbage`))
	require.NoError(t, err)
	assert.Empty(t, payload.Text)
}

func TestWithLimits(t *testing.T) {
	rule := CVReviewRule.WithLimits(10, 20)
	assert.Equal(t, 50, CVReviewRule.MinLength)

	_, err := rule.Validate(http.MethodPost, []byte(`{"cvText":"tiny"}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "CV text is too short. Please provide at least 10 characters.", vErr.Reason)
	assert.NotContains(t, vErr.Reason, "cvText")

	payload, err := rule.Validate(http.MethodPost, []byte(`{"cvText":"`+strings.Repeat("z", 30)+`"}`))
	require.NoError(t, err)
	assert.Len(t, payload.Text, 20)

	assert.Equal(t, CVReviewRule.ShortMessage, CVReviewRule.WithLimits(50, 100).ShortMessage)
}

func TestWithLimitsFallsBackToFieldName(t *testing.T) {
	rule := Rule{Method: http.MethodPost, Field: "notes", MinLength: 5, ShortMessage: "too short"}.WithLimits(8, 0)
	assert.Equal(t, "notes is too short. Please provide at least 8 characters.", rule.ShortMessage)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "日本", truncate("日本語", 2))
	assert.Equal(t, "abc", truncate("abc", 5))
}
