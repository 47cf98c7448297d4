package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clairehq/claire/internal/ai"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "Plain object",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "Fenced markdown",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "Preamble text",
			in:   `Here is the result: {"a": {"b": 2}} hope it helps`,
			want: `{"a": {"b": 2}}`,
		},
		{
			name: "Array",
			in:   `[{"a": 1}, {"a": 2}]`,
			want: `[{"a": 1}, {"a": 2}]`,
		},
		{
			name: "Braces inside strings",
			in:   `{"text": "closing } brace"}`,
			want: `{"text": "closing } brace"}`,
		},
		{
			name: "Unbalanced",
			in:   `{"a": 1`,
			want: "",
		},
		{
			name: "No JSON",
			in:   "sorry, I cannot do that",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ai.ExtractJSON(tt.in))
		})
	}
}
