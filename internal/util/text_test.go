package util

import "testing"

func TestSanitizeJSONB(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: `{"a":"hello world"}`,
			want:  `{"a":"hello world"}`,
		},
		{
			name:  "raw null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "escaped null character",
			input: `{"q":"a\u0000b"}`,
			want:  `{"q":"ab"}`,
		},
		{
			name:  "invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeJSONB(tt.input)
			if got != tt.want {
				t.Fatalf("SanitizeJSONB(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
