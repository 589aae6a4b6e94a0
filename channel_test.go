package gomessagebus

import (
	"testing"
)

func TestHasWildcard(t *testing.T) {
	tests := []struct {
		name  string
		input Channel
		want  bool
	}{
		{
			name:  "no wildcard",
			input: "/chat",
			want:  false,
		},
		{
			name:  "trailing wildcard",
			input: "/chat/*",
			want:  true,
		},
		{
			name:  "wildcard without separator",
			input: "/foo*",
			want:  true,
		},
		{
			name:  "wildcard in the middle",
			input: "/foo/*/bar",
			want:  false,
		},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			got := tc.input.HasWildcard()
			if tc.want != got {
				t.Errorf("unexpected result checking for wildcard got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		input Channel
		want  bool
	}{
		{
			name:  "valid channel without wildcards",
			input: "/foo",
			want:  true,
		},
		{
			name:  "valid channel with trailing wildcard",
			input: "/foo/*",
			want:  true,
		},
		{
			name:  "bare wildcard",
			input: "*",
			want:  true,
		},
		{
			name:  "invalid channel with two wildcards",
			input: "/foo/**",
			want:  false,
		},
		{
			name:  "invalid channel with wildcard",
			input: "/foo/*/bar",
			want:  false,
		},
		{
			name:  "empty channel",
			input: "",
			want:  false,
		},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.input.IsValid(); tc.want != got {
				t.Errorf("expected Channel(\"%s\").IsValid() == %v, got %v", string(tc.input), tc.want, got)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern Channel
		input   Channel
		want    bool
	}{
		{
			name:    "matching channels without wildcards",
			pattern: "/chat",
			input:   "/chat",
			want:    true,
		},
		{
			name:    "exact channel does not match by prefix",
			pattern: "/chat",
			input:   "/chat/room",
			want:    false,
		},
		{
			name:    "matching channels with wildcard",
			pattern: "/foo*",
			input:   "/foo/bar",
			want:    true,
		},
		{
			name:    "wildcard matches the bare prefix",
			pattern: "/foo*",
			input:   "/foo",
			want:    true,
		},
		{
			name:    "wildcard matches deeper channels",
			pattern: "/foo/*",
			input:   "/foo/bar/baz",
			want:    true,
		},
		{
			name:    "matching against a wildcard with different prefix",
			pattern: "/foo/*",
			input:   "/bar/baz",
			want:    false,
		},
		{
			name:    "bare wildcard matches everything",
			pattern: "*",
			input:   "/anything",
			want:    true,
		},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			got := tc.pattern.Match(tc.input)
			if tc.want != got {
				t.Errorf("expected pattern match got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsStatus(t *testing.T) {
	if !StatusChannel.IsStatus() {
		t.Error("expected /__status to be the status channel")
	}
	if Channel("/__status/foo").IsStatus() {
		t.Error("expected only the exact status channel to be reported")
	}
}
